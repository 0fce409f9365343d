package db

import (
	"fmt"

	"gorm.io/gorm"

	types "github.com/yungbote/skillhub-backend/internal/domain"
)

func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		// Identity
		&types.User{},

		// Registry
		&types.Skill{},
		&types.SkillVersion{},
		&types.SkillEmbedding{},

		// Moderation
		&types.AuditLog{},
	)
}

// EnsureSkillIndexes pins the embedding column to dim and adds the ANN and
// partial indexes search relies on. Postgres only.
func EnsureSkillIndexes(db *gorm.DB, dim int) error {
	if db == nil {
		return fmt.Errorf("db required")
	}
	if db.Dialector.Name() != "postgres" {
		return nil
	}
	stmts := []string{
		`CREATE INDEX IF NOT EXISTS idx_skill_embedding_searchable
			ON skill_embedding (visibility) WHERE is_latest`,
		`CREATE INDEX IF NOT EXISTS idx_skill_updated_live
			ON skill (updated_at DESC) WHERE soft_deleted_at IS NULL`,
	}
	if dim > 0 {
		stmts = append([]string{
			fmt.Sprintf(`ALTER TABLE skill_embedding ALTER COLUMN embedding TYPE vector(%d)`, dim),
			`CREATE INDEX IF NOT EXISTS idx_skill_embedding_hnsw
				ON skill_embedding USING hnsw (embedding vector_cosine_ops)`,
		}, stmts...)
	}
	for _, stmt := range stmts {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("ensure skill indexes: %w", err)
		}
	}
	return nil
}
