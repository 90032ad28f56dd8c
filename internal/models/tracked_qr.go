package models

import "time"

// TrackedQR is a persistent short-URL redirector whose scans are counted.
// The manage token is a per-resource capability: anyone holding it can read
// stats or delete the record, nobody else can.
type TrackedQR struct {
	ID        string `gorm:"primaryKey;size:36"`
	ShortCode string `gorm:"uniqueIndex;size:32;not null"`
	TargetURL string `gorm:"not null"`

	// ManageToken is stored as the opaque capability string itself and is
	// only ever compared in constant time; it is never serialized except in
	// the create response.
	ManageToken string `gorm:"size:64;not null"`

	CreatedAt time.Time `gorm:"autoCreateTime"`
	ExpiresAt *time.Time
	ScanCount int64 `gorm:"not null;default:0"`

	ScanEvents []ScanEvent `gorm:"foreignKey:TrackedQRID;constraint:OnDelete:CASCADE"`
}

// Expired reports whether the tracked QR has an expiry in the past.
func (t *TrackedQR) Expired(now time.Time) bool {
	return t.ExpiresAt != nil && !t.ExpiresAt.After(now)
}
