package logger

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"sync"
)

const redacted = "[REDACTED]"

type fieldAction int

const (
	keepField fieldAction = iota
	dropField
	hashField
)

// Matched as substrings of the lowercased key.
var (
	secretKeyParts = []string{"token", "authorization", "password", "secret", "cookie", "api_key", "apikey", "email", "refresh"}
	idKeyParts     = []string{"user_id", "owner_id", "actor_id", "session_id"}
)

type redactionSettings struct {
	enabled bool
	salt    string
}

var loadRedaction = sync.OnceValue(func() redactionSettings {
	s := redactionSettings{enabled: true, salt: strings.TrimSpace(os.Getenv("LOG_HASH_SALT"))}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("LOG_REDACTION_ENABLED"))) {
	case "0", "false", "no", "off":
		s.enabled = false
	}
	return s
})

func classifyKey(key string) fieldAction {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return keepField
	}
	for _, p := range secretKeyParts {
		if strings.Contains(key, p) {
			return dropField
		}
	}
	for _, p := range idKeyParts {
		if strings.Contains(key, p) {
			return hashField
		}
	}
	return keepField
}

func sanitizeKVs(kv []any) []any {
	if len(kv) == 0 || !loadRedaction().enabled {
		return kv
	}
	out := make([]any, len(kv))
	copy(out, kv)
	for i := 0; i+1 < len(out); i += 2 {
		key := stringify(out[i])
		out[i] = key
		out[i+1] = sanitizeValue(key, out[i+1])
	}
	return out
}

func sanitizeValue(key string, val any) any {
	switch classifyKey(key) {
	case dropField:
		return redacted
	case hashField:
		return hashIdentifier(val)
	}
	switch v := val.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, inner := range v {
			out[k] = sanitizeValue(k, inner)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, inner := range v {
			out[i] = sanitizeValue("", inner)
		}
		return out
	case string:
		if isCompactJWS(v) {
			return redacted
		}
	}
	return val
}

// hashIdentifier keeps ids correlatable across lines without logging them.
func hashIdentifier(val any) string {
	raw := stringify(val)
	if raw == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(loadRedaction().salt + raw))
	return "hash:" + hex.EncodeToString(sum[:6])
}

func isCompactJWS(s string) bool {
	header, rest, ok := strings.Cut(s, ".")
	if !ok {
		return false
	}
	payload, sig, ok := strings.Cut(rest, ".")
	return ok && !strings.Contains(sig, ".") && len(header) > 10 && len(payload) > 10
}

func stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		return t.String()
	default:
		return strings.TrimSpace(fmt.Sprint(v))
	}
}
