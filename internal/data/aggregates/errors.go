package aggregates

import (
	"context"
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	domainagg "github.com/yungbote/skillhub-backend/internal/domain/aggregates"
	"gorm.io/gorm"
)

// uniqueMessages turns unique violations into caller-facing messages. Keys are
// Postgres constraint names and the column lists SQLite reports.
var uniqueMessages = map[string]string{
	"idx_skill_slug":                  "Slug already taken",
	"skill.slug":                      "Slug already taken",
	"idx_skill_version_skill_version": "Version already exists",
	"skill_version.skill_id, skill_version.version": "Version already exists",
	"idx_skill_embedding_version":                   "Embedding already exists for version",
	"skill_embedding.version_id":                    "Embedding already exists for version",
}

const (
	msgConflict = "Concurrent update, retry"
	msgBusy     = "Skill is busy, retry"
	msgMissing  = "Referenced record not found"
	msgInternal = "internal error"
)

// MapError classifies a failure from a write transaction. *domainagg.Error
// values pass through unchanged.
func MapError(op string, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*domainagg.Error); ok {
		return err
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domainagg.NewError(domainagg.CodeNotFound, op, "Not found", err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return domainagg.NewError(domainagg.CodeRetryable, op, msgBusy, err)
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505": // unique_violation
			return domainagg.NewError(domainagg.CodeConflict, op, uniqueMessage(pgErr.ConstraintName), err)
		case "23503": // foreign_key_violation
			return domainagg.NewError(domainagg.CodePreconditionFailed, op, msgMissing, err)
		case "40001", "40P01", "55P03": // serialization_failure, deadlock_detected, lock_not_available
			return domainagg.NewError(domainagg.CodeRetryable, op, msgBusy, err)
		}
		return domainagg.NewError(domainagg.CodeInternal, op, msgInternal, err)
	}

	// SQLite reports constraint failures as plain text.
	msg := err.Error()
	lower := strings.ToLower(msg)
	switch {
	case strings.Contains(lower, "unique constraint failed"):
		cols := strings.TrimSpace(msg[strings.Index(lower, "unique constraint failed")+len("unique constraint failed"):])
		return domainagg.NewError(domainagg.CodeConflict, op, uniqueMessage(strings.TrimPrefix(cols, ": ")), err)
	case strings.Contains(lower, "foreign key constraint failed"):
		return domainagg.NewError(domainagg.CodePreconditionFailed, op, msgMissing, err)
	case strings.Contains(lower, "database is locked"), strings.Contains(lower, "deadlock"):
		return domainagg.NewError(domainagg.CodeRetryable, op, msgBusy, err)
	}
	return domainagg.NewError(domainagg.CodeInternal, op, msgInternal, err)
}

func uniqueMessage(key string) string {
	if m, ok := uniqueMessages[strings.TrimSpace(key)]; ok {
		return m
	}
	return msgConflict
}
