// Package services contains the business logic layer for tracked QR codes.
package services

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"math/big"
	"net/url"
	"regexp"
	"time"

	apperrors "github.com/acavel/qrservice/internal/errors"
	"github.com/acavel/qrservice/internal/models"
	"github.com/acavel/qrservice/internal/repository"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// codeCharset is the alphabet for auto-generated short codes.
const codeCharset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// customCodePattern validates caller-supplied short codes (3-32 chars).
var customCodePattern = regexp.MustCompile(`^[A-Za-z0-9_-]{3,32}$`)

// attemptsPerLength bounds collision retries before the generated code
// length escalates (8 -> 10 -> 12).
const attemptsPerLength = 5

const (
	maxUserAgentLen = 512
	maxReferrerLen  = 512
	maxIPLen        = 64
)

// TrackedQRService provides business logic for tracked QR codes: short code
// allocation, capability token minting, scan recording and deletion.
type TrackedQRService struct {
	repo repository.TrackedQRRepository
}

// NewTrackedQRService creates and returns a new TrackedQRService.
func NewTrackedQRService(repo repository.TrackedQRRepository) *TrackedQRService {
	return &TrackedQRService{repo: repo}
}

// GenerateShortCode generates a cryptographically random code of the given
// length from the alphanumeric charset.
func (s *TrackedQRService) GenerateShortCode(length int) (string, error) {
	code := make([]byte, length)
	for i := range code {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(codeCharset))))
		if err != nil {
			return "", fmt.Errorf("failed to generate random number: %w", err)
		}
		code[i] = codeCharset[num.Int64()]
	}
	return string(code), nil
}

// mintManageToken returns a fresh capability token: 24 bytes of CSPRNG
// output, base64url-encoded, with a recognizable prefix.
func mintManageToken() (string, error) {
	raw := make([]byte, 24)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to mint manage token: %w", err)
	}
	return "qrt_" + base64.RawURLEncoding.EncodeToString(raw), nil
}

// ValidateTargetURL checks that the target is an absolute http(s) URL.
func ValidateTargetURL(target string) error {
	if target == "" {
		return apperrors.BadRequest(apperrors.KindBadTargetURL, "target_url cannot be empty")
	}
	u, err := url.Parse(target)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.BadRequest(apperrors.KindBadTargetURL, "target_url must be an absolute http:// or https:// URL")
	}
	return nil
}

// Create validates the target URL, resolves or generates a unique short
// code, mints a manage token and persists the new tracked QR.
func (s *TrackedQRService) Create(targetURL, shortCode string, expiresAt *time.Time) (*models.TrackedQR, error) {
	if err := ValidateTargetURL(targetURL); err != nil {
		return nil, err
	}

	token, err := mintManageToken()
	if err != nil {
		return nil, err
	}

	record := &models.TrackedQR{
		ID:          uuid.NewString(),
		TargetURL:   targetURL,
		ManageToken: token,
		CreatedAt:   time.Now().UTC(),
		ExpiresAt:   expiresAt,
	}

	if shortCode != "" {
		if !customCodePattern.MatchString(shortCode) {
			return nil, apperrors.BadRequest(apperrors.KindBadShortCode,
				"short_code must be 3-32 characters of letters, digits, '-' or '_'")
		}
		record.ShortCode = shortCode
		if err := s.repo.Create(record); err != nil {
			if errors.Is(err, repository.ErrShortCodeTaken) {
				return nil, apperrors.Conflict(fmt.Sprintf("short code %q is already taken", shortCode))
			}
			return nil, err
		}
		return record, nil
	}

	// Auto-generated code: retry on collision, escalating the length when a
	// size class looks saturated.
	for _, length := range []int{8, 10, 12} {
		for attempt := 0; attempt < attemptsPerLength; attempt++ {
			code, err := s.GenerateShortCode(length)
			if err != nil {
				return nil, err
			}
			record.ShortCode = code
			err = s.repo.Create(record)
			if err == nil {
				return record, nil
			}
			if !errors.Is(err, repository.ErrShortCodeTaken) {
				return nil, err
			}
		}
	}
	return nil, apperrors.Internal("failed to allocate a unique short code")
}

// GetByShortCode retrieves a tracked QR by short code.
func (s *TrackedQRService) GetByShortCode(code string) (*models.TrackedQR, error) {
	t, err := s.repo.GetByShortCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("short URL")
		}
		return nil, err
	}
	return t, nil
}

// GetByID retrieves a tracked QR by identifier.
func (s *TrackedQRService) GetByID(id string) (*models.TrackedQR, error) {
	t, err := s.repo.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.NotFound("tracked QR")
		}
		return nil, err
	}
	return t, nil
}

// RecordScan persists one scan event and bumps the counter atomically.
// Metadata fields are truncated to their storage limits.
func (s *TrackedQRService) RecordScan(trackedQRID, userAgent, referrer, ip string) error {
	scan := &models.ScanEvent{
		ScannedAt: time.Now().UTC(),
		UserAgent: truncate(userAgent, maxUserAgentLen),
		Referrer:  truncate(referrer, maxReferrerLen),
		IP:        truncate(ip, maxIPLen),
	}
	if err := s.repo.RecordScan(trackedQRID, scan); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("tracked QR")
		}
		return err
	}
	return nil
}

// Stats returns the tracked QR plus its most recent scan events, newest
// first, capped at limit.
func (s *TrackedQRService) Stats(id string, limit int) (*models.TrackedQR, []models.ScanEvent, error) {
	t, err := s.GetByID(id)
	if err != nil {
		return nil, nil, err
	}
	scans, err := s.repo.RecentScans(id, limit)
	if err != nil {
		return nil, nil, err
	}
	return t, scans, nil
}

// Delete removes a tracked QR and all of its scan events.
func (s *TrackedQRService) Delete(id string) error {
	if err := s.repo.Delete(id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.NotFound("tracked QR")
		}
		return err
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) > max {
		return s[:max]
	}
	return s
}
