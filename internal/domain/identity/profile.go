package identity

import (
	"time"

	"gorm.io/datatypes"
)

// DefaultMaxSessions applies when a profile carries no override.
const DefaultMaxSessions = 1

// Profile is the role profile keyed by the identity provider subject.
type Profile struct {
	UID                   string                      `gorm:"column:uid;primaryKey;size:128" json:"uid"`
	Email                 string                      `gorm:"column:email;index" json:"email"`
	DisplayName           string                      `gorm:"column:display_name" json:"displayName"`
	Role                  Role                        `gorm:"column:role;not null;size:32" json:"role"`
	Status                AccountStatus               `gorm:"column:status;not null;size:32" json:"status"`
	AllowedDeviceIDs      datatypes.JSONSlice[string] `gorm:"column:allowed_device_ids" json:"allowedDeviceIds"`
	MaxConcurrentSessions *int                        `gorm:"column:max_concurrent_sessions" json:"maxConcurrentSessions,omitempty"`
	CreatedAt             time.Time                   `gorm:"column:created_at;not null" json:"createdAt"`
	UpdatedAt             time.Time                   `gorm:"column:updated_at;not null" json:"updatedAt"`
}

func (Profile) TableName() string { return "user_profile" }

func (p *Profile) Active() bool { return p != nil && p.Status == StatusActive }

// DeviceAllowed is true when the allow-list is empty or contains deviceID.
func (p *Profile) DeviceAllowed(deviceID string) bool {
	if p == nil || len(p.AllowedDeviceIDs) == 0 {
		return true
	}
	for _, d := range p.AllowedDeviceIDs {
		if d == deviceID {
			return true
		}
	}
	return false
}

// SessionCap resolves the concurrent session limit: the profile override
// (default 1) clamped to [1, ceiling].
func (p *Profile) SessionCap(ceiling int) int {
	if ceiling < 1 {
		ceiling = 1
	}
	n := DefaultMaxSessions
	if p != nil && p.MaxConcurrentSessions != nil {
		n = *p.MaxConcurrentSessions
	}
	if n < 1 {
		n = 1
	}
	if n > ceiling {
		n = ceiling
	}
	return n
}
