package models

import "time"

// ScanEvent records a single resolution of a tracked QR's short URL.
// Rows never outlive their owning TrackedQR (FK cascade) and are immutable
// once written.
type ScanEvent struct {
	ID uint `gorm:"primaryKey"`

	// TrackedQRID is the foreign key to the owning TrackedQR.
	// Indexed because stats reads fetch the newest events per QR.
	TrackedQRID string `gorm:"index;size:36;not null"`

	ScannedAt time.Time

	// Request metadata, truncated at the edge: 512 chars for the header
	// fields, 64 for the address.
	UserAgent string `gorm:"size:512"`
	Referrer  string `gorm:"size:512"`
	IP        string `gorm:"size:64"`
}
