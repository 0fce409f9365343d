package ctxutil

import (
	"context"

	"github.com/google/uuid"
)

type requestDataKey struct{}

// RequestData is the authenticated caller attached by the auth middleware.
type RequestData struct {
	UserID uuid.UUID
	Handle string
	Role   string
}

// Fields returns the caller as logger key/value pairs. The logger hashes
// user_id.
func (rd *RequestData) Fields() []any {
	if rd == nil {
		return nil
	}
	return []any{"user_id", rd.UserID.String(), "role", rd.Role}
}

func WithRequestData(ctx context.Context, rd *RequestData) context.Context {
	return context.WithValue(Default(ctx), requestDataKey{}, rd)
}

func GetRequestData(ctx context.Context) *RequestData {
	if ctx == nil {
		return nil
	}
	rd, _ := ctx.Value(requestDataKey{}).(*RequestData)
	return rd
}
