package accountlookup

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGitLabCreatedAt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v4/users", r.URL.Path)
		assert.Equal(t, "some user", r.URL.Query().Get("username"))
		assert.Equal(t, "skillhub", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"id":1,"created_at":"2020-01-02T03:04:05.000Z"}]`))
	}))
	defer srv.Close()

	c := New(Config{GitLabURL: srv.URL + "/"})
	got, err := c.CreatedAt(context.Background(), "gitlab", "some user")
	require.NoError(t, err)
	assert.Equal(t, time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC), got)
}

func TestGitLabEmptyResultFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	_, err := New(Config{GitLabURL: srv.URL}).CreatedAt(context.Background(), "gitlab", "ghost")
	var le *LookupError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "account not found", le.Reason)
}

func TestGitHubCreatedAt(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/octo-cat", r.URL.Path)
		assert.Equal(t, "skillhub", r.Header.Get("User-Agent"))
		_, _ = w.Write([]byte(`{"login":"octo-cat","created_at":"2011-01-25T18:44:36Z"}`))
	}))
	defer srv.Close()

	got, err := New(Config{GitHubAPIURL: srv.URL}).CreatedAt(context.Background(), "github", "octo-cat")
	require.NoError(t, err)
	assert.Equal(t, 2011, got.Year())
}

func TestGitHubNonSuccessFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := New(Config{GitHubAPIURL: srv.URL}).CreatedAt(context.Background(), "github", "nobody")
	var le *LookupError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, http.StatusNotFound, le.StatusCode)
}

func TestCreatedAtRejectsBadPayloads(t *testing.T) {
	for name, body := range map[string]string{
		"missing":   `{"login":"x"}`,
		"malformed": `{"created_at":"yesterday"}`,
		"not json":  `<html>`,
	} {
		t.Run(name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(body))
			}))
			defer srv.Close()
			_, err := New(Config{GitHubAPIURL: srv.URL}).CreatedAt(context.Background(), "github", "x")
			var le *LookupError
			assert.True(t, errors.As(err, &le))
		})
	}
}

func TestUnsupportedProvider(t *testing.T) {
	_, err := New(Config{}).CreatedAt(context.Background(), "bitbucket", "x")
	var le *LookupError
	require.True(t, errors.As(err, &le))
	assert.Equal(t, "unsupported provider", le.Reason)
}
