package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestGetEnvFallbacks(t *testing.T) {
	t.Setenv("SKILLHUB_TEST_STR", "value")
	t.Setenv("SKILLHUB_TEST_EMPTY", "")
	t.Setenv("SKILLHUB_TEST_INT", "nope")
	t.Setenv("SKILLHUB_TEST_BOOL", "true")

	require.Equal(t, "value", GetEnv("SKILLHUB_TEST_STR", "def", nil))
	require.Equal(t, "", GetEnv("SKILLHUB_TEST_EMPTY", "def", nil))
	require.Equal(t, "def", GetEnv("SKILLHUB_TEST_MISSING", "def", nil))
	require.Equal(t, 7, GetEnvAsInt("SKILLHUB_TEST_INT", 7, nil))
	require.True(t, GetEnvAsBool("SKILLHUB_TEST_BOOL", false, nil))
}

func TestGetEnvAsDuration(t *testing.T) {
	t.Setenv("SKILLHUB_TEST_DAYS", "3")
	t.Setenv("SKILLHUB_TEST_NEG", "-1")

	require.Equal(t, 72*time.Hour, GetEnvAsDuration("SKILLHUB_TEST_DAYS", 7, 24*time.Hour, nil))
	require.Equal(t, 7*24*time.Hour, GetEnvAsDuration("SKILLHUB_TEST_NEG", 7, 24*time.Hour, nil))
	require.Equal(t, 30*time.Second, GetEnvAsDuration("SKILLHUB_TEST_UNSET", 30, time.Second, nil))
}

func TestGetEnvAsList(t *testing.T) {
	t.Setenv("SKILLHUB_TEST_LIST", " https://a.example , ,https://b.example")
	require.Equal(t, []string{"https://a.example", "https://b.example"}, GetEnvAsList("SKILLHUB_TEST_LIST", nil))
	require.Nil(t, GetEnvAsList("SKILLHUB_TEST_LIST_UNSET", nil))
}
