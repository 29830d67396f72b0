package identity

import (
	"time"

	"github.com/google/uuid"
)

// Revocation reasons recorded on a session.
const (
	RevokeReplacedByNewLogin = "replaced_by_new_login"
	RevokeDeviceRemoved      = "device_removed"
	RevokeLogout             = "logout"
	RevokeAccountSuspended   = "account_suspended"
	RevokeAdmin              = "revoked_by_admin"
)

type Session struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UID           string     `gorm:"column:uid;not null;size:128;index:idx_user_session_uid_created,priority:1" json:"uid"`
	DeviceID      string     `gorm:"column:device_id;not null;size:128" json:"deviceId"`
	UserAgent     string     `gorm:"column:user_agent" json:"userAgent"`
	Revoked       bool       `gorm:"column:revoked;not null;default:false;index" json:"revoked"`
	RevokedReason string     `gorm:"column:revoked_reason" json:"revokedReason,omitempty"`
	RevokedAt     *time.Time `gorm:"column:revoked_at" json:"revokedAt,omitempty"`
	LastSeenAt    time.Time  `gorm:"column:last_seen_at;not null" json:"lastSeenAt"`
	CreatedAt     time.Time  `gorm:"column:created_at;not null;index:idx_user_session_uid_created,priority:2" json:"createdAt"`
}

func (Session) TableName() string { return "user_session" }

// NewSessionID returns a time-ordered (v7) id, so sessions created in the
// same instant still sort by creation.
func NewSessionID() uuid.UUID {
	if id, err := uuid.NewV7(); err == nil {
		return id
	}
	return uuid.New()
}
