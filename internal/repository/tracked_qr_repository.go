package repository

import (
	"fmt"
	"strings"
	"sync"

	"github.com/acavel/qrservice/internal/models"
	"gorm.io/gorm"
)

// TrackedQRRepository defines the data-access methods for tracked QRs and
// their scan events.
type TrackedQRRepository interface {
	Create(t *models.TrackedQR) error
	GetByID(id string) (*models.TrackedQR, error)
	GetByShortCode(code string) (*models.TrackedQR, error)
	RecordScan(trackedQRID string, scan *models.ScanEvent) error
	RecentScans(trackedQRID string, limit int) ([]models.ScanEvent, error)
	Delete(id string) error
}

// ErrShortCodeTaken is surfaced when an insert violates the short_code
// unique index.
var ErrShortCodeTaken = fmt.Errorf("short code already taken")

// GormTrackedQRRepository implements TrackedQRRepository using GORM.
// All writes funnel through writeMu: the SQLite backend allows only one
// writer at a time, so serializing in-process avoids busy errors instead of
// retrying them.
type GormTrackedQRRepository struct {
	db      *gorm.DB
	writeMu sync.Mutex
}

// NewTrackedQRRepository creates a new GormTrackedQRRepository.
func NewTrackedQRRepository(db *gorm.DB) *GormTrackedQRRepository {
	return &GormTrackedQRRepository{db: db}
}

// Create inserts a new tracked QR. A unique-index violation on short_code
// is translated to ErrShortCodeTaken so callers can map it to a conflict.
func (r *GormTrackedQRRepository) Create(t *models.TrackedQR) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	if err := r.db.Create(t).Error; err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint") {
			return ErrShortCodeTaken
		}
		return fmt.Errorf("failed to create tracked QR: %w", err)
	}
	return nil
}

// GetByID retrieves a tracked QR by its identifier.
func (r *GormTrackedQRRepository) GetByID(id string) (*models.TrackedQR, error) {
	var t models.TrackedQR
	if err := r.db.Where("id = ?", id).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// GetByShortCode retrieves a tracked QR by its short code.
func (r *GormTrackedQRRepository) GetByShortCode(code string) (*models.TrackedQR, error) {
	var t models.TrackedQR
	if err := r.db.Where("short_code = ?", code).First(&t).Error; err != nil {
		return nil, err
	}
	return &t, nil
}

// RecordScan inserts a scan event and increments the parent's scan_count in
// one transaction. The increment is done in SQL (scan_count = scan_count + 1)
// so concurrent scans never lose updates, and the commit happens before the
// redirect engine answers the client.
func (r *GormTrackedQRRepository) RecordScan(trackedQRID string, scan *models.ScanEvent) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return r.db.Transaction(func(tx *gorm.DB) error {
		scan.TrackedQRID = trackedQRID
		if err := tx.Create(scan).Error; err != nil {
			return fmt.Errorf("failed to record scan: %w", err)
		}

		res := tx.Model(&models.TrackedQR{}).
			Where("id = ?", trackedQRID).
			UpdateColumn("scan_count", gorm.Expr("scan_count + ?", 1))
		if res.Error != nil {
			return fmt.Errorf("failed to increment scan count: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

// RecentScans returns up to limit scan events for a tracked QR, newest first.
func (r *GormTrackedQRRepository) RecentScans(trackedQRID string, limit int) ([]models.ScanEvent, error) {
	var scans []models.ScanEvent
	err := r.db.Where("tracked_qr_id = ?", trackedQRID).
		Order("scanned_at DESC, id DESC").
		Limit(limit).
		Find(&scans).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list scans for %s: %w", trackedQRID, err)
	}
	return scans, nil
}

// Delete removes a tracked QR and cascades to its scan events. The explicit
// child delete keeps the cascade working even when the SQLite connection was
// opened without foreign_keys enforcement.
func (r *GormTrackedQRRepository) Delete(id string) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("tracked_qr_id = ?", id).Delete(&models.ScanEvent{}).Error; err != nil {
			return fmt.Errorf("failed to delete scan events: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.TrackedQR{})
		if res.Error != nil {
			return fmt.Errorf("failed to delete tracked QR: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}
