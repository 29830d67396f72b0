package preview

import (
	"crypto/rand"
	"encoding/base64"
	"time"
)

// TTL is fixed; preview links are deliberately short-lived.
const TTL = 15 * time.Minute

// Verification failure reasons.
const (
	ReasonMissingToken  = "missing-token"
	ReasonTokenNotFound = "token-not-found"
	ReasonTokenExpired  = "token-expired"
	ReasonTypeMismatch  = "type-mismatch"
	ReasonSlugMismatch  = "slug-mismatch"
	ReasonDocIDMismatch = "docid-mismatch"
)

type Token struct {
	Token        string    `gorm:"column:token;primaryKey;size:64" json:"token"`
	DocID        string    `gorm:"column:doc_id;not null;size:160" json:"docId"`
	Slug         string    `gorm:"column:slug;not null" json:"slug"`
	Type         string    `gorm:"column:type;not null;size:16" json:"type"`
	CreatedByUID string    `gorm:"column:created_by_uid;size:128" json:"createdByUid"`
	CreatedAt    time.Time `gorm:"column:created_at;not null" json:"createdAt"`
	ExpiresAt    time.Time `gorm:"column:expires_at;not null;index" json:"expiresAt"`
}

func (Token) TableName() string { return "preview_token" }

func (t *Token) Expired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// NewValue returns 32 random bytes, base64url encoded without padding.
func NewValue() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(buf), nil
}

// Expectation is what the consuming page knows about the document it renders.
// Empty fields are not checked.
type Expectation struct {
	Type  string
	Slug  string
	DocID string
}

// Check compares a live (non-expired) token to the expectation and returns a
// failure reason, or "" when it matches.
func (t *Token) Check(want Expectation) string {
	switch {
	case want.Type != "" && t.Type != want.Type:
		return ReasonTypeMismatch
	case want.Slug != "" && t.Slug != want.Slug:
		return ReasonSlugMismatch
	case want.DocID != "" && t.DocID != want.DocID:
		return ReasonDocIDMismatch
	}
	return ""
}
