package testutil

import (
	"context"
	"testing"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"

	"github.com/yungbote/examprep-backend/internal/domain/content"
	"github.com/yungbote/examprep-backend/internal/domain/identity"
)

func SeedProfile(tb testing.TB, ctx context.Context, tx *gorm.DB, uid string, role identity.Role, devices ...string) *identity.Profile {
	tb.Helper()
	now := time.Now().UTC()
	p := &identity.Profile{
		UID:              uid,
		Email:            uid + "@example.com",
		DisplayName:      uid,
		Role:             role,
		Status:           identity.StatusActive,
		AllowedDeviceIDs: datatypes.JSONSlice[string](append([]string{}, devices...)),
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	if err := tx.WithContext(ctx).Create(p).Error; err != nil {
		tb.Fatalf("seed profile: %v", err)
	}
	return p
}

// SeedDocument stores a document built through the normal draft path and then
// forces status and publish time.
func SeedDocument(tb testing.TB, ctx context.Context, tx *gorm.DB, d content.Draft, status content.Status, publishedAt *time.Time, owner identity.Actor, at time.Time) *content.Document {
	tb.Helper()
	doc, err := content.NewDocument(d, owner, at)
	if err != nil {
		tb.Fatalf("build document %s: %v", d.ID, err)
	}
	doc.Status = status
	doc.PublishedAt = publishedAt
	if status == content.StatusPublished {
		doc.IsLocked = true
	}
	if err := tx.WithContext(ctx).Create(&doc).Error; err != nil {
		tb.Fatalf("seed document %s: %v", d.ID, err)
	}
	return &doc
}
