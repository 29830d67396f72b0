package db

import (
	"fmt"

	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/domain/identity"
	"github.com/yungbote/examprep-backend/internal/domain/preview"
)

// Partial unique index: a slug is unique among live documents of one collection.
const slugIndexSQL = `CREATE UNIQUE INDEX IF NOT EXISTS idx_content_document_collection_slug ON content_document (collection, slug) WHERE deleted_at IS NULL`

const sweepIndexSQL = `CREATE INDEX IF NOT EXISTS idx_content_document_status_published ON content_document (status, published_at)`

func AutoMigrateAll(db *gorm.DB) error {
	if err := db.AutoMigrate(
		// Identity
		&identity.Profile{},
		&identity.Session{},

		// Content
		&content.Document{},
		&preview.Token{},
	); err != nil {
		return err
	}
	for _, stmt := range []string{slugIndexSQL, sweepIndexSQL} {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("migrate index: %w", err)
		}
	}
	return nil
}
