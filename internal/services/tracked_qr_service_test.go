package services_test

import (
	"path/filepath"
	"sync"
	"testing"
	"time"

	apperrors "github.com/acavel/qrservice/internal/errors"
	"github.com/acavel/qrservice/internal/models"
	"github.com/acavel/qrservice/internal/repository"
	"github.com/acavel/qrservice/internal/services"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) *services.TrackedQRService {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Exec("PRAGMA journal_mode=WAL").Error)
	require.NoError(t, db.AutoMigrate(&models.TrackedQR{}, &models.ScanEvent{}))
	return services.NewTrackedQRService(repository.NewTrackedQRRepository(db))
}

func TestCreateWithCustomCode(t *testing.T) {
	svc := newTestService(t)

	tracked, err := svc.Create("https://example.com", "hello", nil)
	require.NoError(t, err)

	assert.Equal(t, "hello", tracked.ShortCode)
	assert.Equal(t, "https://example.com", tracked.TargetURL)
	assert.NotEmpty(t, tracked.ID)
	assert.True(t, len(tracked.ManageToken) >= 24, "token must carry at least 128 bits of entropy")
	assert.EqualValues(t, 0, tracked.ScanCount)
}

func TestCreateDuplicateCodeConflicts(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.Create("https://example.com", "hello", nil)
	require.NoError(t, err)

	_, err = svc.Create("https://other.example.com", "hello", nil)
	require.Error(t, err)
	e := apperrors.From(err)
	assert.Equal(t, apperrors.KindShortCodeTaken, e.Kind)
	assert.Equal(t, 409, e.Status)
}

func TestCreateGeneratesUniqueCodes(t *testing.T) {
	svc := newTestService(t)

	seen := make(map[string]bool)
	for range 20 {
		tracked, err := svc.Create("https://example.com", "", nil)
		require.NoError(t, err)
		assert.Len(t, tracked.ShortCode, 8)
		assert.False(t, seen[tracked.ShortCode], "codes must be unique")
		seen[tracked.ShortCode] = true
	}
}

func TestCreateDistinctManageTokens(t *testing.T) {
	svc := newTestService(t)

	a, err := svc.Create("https://example.com", "", nil)
	require.NoError(t, err)
	b, err := svc.Create("https://example.com", "", nil)
	require.NoError(t, err)
	assert.NotEqual(t, a.ManageToken, b.ManageToken)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)

	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"empty target", "", ""},
		{"relative target", "/relative", ""},
		{"ftp scheme", "ftp://example.com", ""},
		{"code too short", "https://example.com", "ab"},
		{"code too long", "https://example.com", "abcdefghijklmnopqrstuvwxyz0123456789"},
		{"code bad chars", "https://example.com", "has space"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(tt.target, tt.code, nil)
			require.Error(t, err)
			assert.Equal(t, 400, apperrors.From(err).Status)
		})
	}
}

func TestRecordScanIncrementsAndPersists(t *testing.T) {
	svc := newTestService(t)
	tracked, err := svc.Create("https://example.com", "scanme", nil)
	require.NoError(t, err)

	require.NoError(t, svc.RecordScan(tracked.ID, "TestAgent/1.0", "https://ref.example", "10.0.0.1"))
	require.NoError(t, svc.RecordScan(tracked.ID, "TestAgent/2.0", "", ""))

	got, scans, err := svc.Stats(tracked.ID, 100)
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.ScanCount)
	require.Len(t, scans, 2)
	// Newest first.
	assert.Equal(t, "TestAgent/2.0", scans[0].UserAgent)
	assert.Equal(t, "TestAgent/1.0", scans[1].UserAgent)
	assert.Equal(t, "10.0.0.1", scans[1].IP)
}

// Concurrent scans must all be recorded and the counter must match the
// number of committed events.
func TestRecordScanConcurrent(t *testing.T) {
	svc := newTestService(t)
	tracked, err := svc.Create("https://example.com", "burst", nil)
	require.NoError(t, err)

	const n = 25
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, svc.RecordScan(tracked.ID, "Agent", "", ""))
		}()
	}
	wg.Wait()

	got, scans, err := svc.Stats(tracked.ID, 100)
	require.NoError(t, err)
	assert.EqualValues(t, n, got.ScanCount)
	assert.Len(t, scans, n)
}

func TestRecordScanTruncatesMetadata(t *testing.T) {
	svc := newTestService(t)
	tracked, err := svc.Create("https://example.com", "trunc", nil)
	require.NoError(t, err)

	long := make([]byte, 2000)
	for i := range long {
		long[i] = 'a'
	}
	require.NoError(t, svc.RecordScan(tracked.ID, string(long), string(long), string(long)))

	_, scans, err := svc.Stats(tracked.ID, 1)
	require.NoError(t, err)
	require.Len(t, scans, 1)
	assert.Len(t, scans[0].UserAgent, 512)
	assert.Len(t, scans[0].Referrer, 512)
	assert.Len(t, scans[0].IP, 64)
}

func TestRecordScanUnknownID(t *testing.T) {
	svc := newTestService(t)
	err := svc.RecordScan("no-such-id", "", "", "")
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.From(err).Status)
}

func TestDeleteCascadesToScans(t *testing.T) {
	svc := newTestService(t)
	tracked, err := svc.Create("https://example.com", "gone", nil)
	require.NoError(t, err)
	require.NoError(t, svc.RecordScan(tracked.ID, "Agent", "", ""))

	require.NoError(t, svc.Delete(tracked.ID))

	_, err = svc.GetByID(tracked.ID)
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.From(err).Status)

	// The short code is free again after deletion.
	_, err = svc.Create("https://example.com", "gone", nil)
	assert.NoError(t, err)
}

func TestDeleteUnknownID(t *testing.T) {
	svc := newTestService(t)
	err := svc.Delete("missing")
	require.Error(t, err)
	assert.Equal(t, 404, apperrors.From(err).Status)
}

func TestExpiryStored(t *testing.T) {
	svc := newTestService(t)

	past := time.Now().UTC().Add(-time.Hour)
	tracked, err := svc.Create("https://example.com", "", &past)
	require.NoError(t, err)

	got, err := svc.GetByShortCode(tracked.ShortCode)
	require.NoError(t, err)
	require.NotNil(t, got.ExpiresAt)
	assert.True(t, got.Expired(time.Now().UTC()))
}
