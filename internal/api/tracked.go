package api

import (
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/acavel/qrservice/internal/errors"
	"github.com/acavel/qrservice/internal/qr"
	"github.com/acavel/qrservice/internal/services"
	"github.com/gin-gonic/gin"
)

// createTrackedRequest is the body of POST /api/v1/qr/tracked: routing
// fields plus the usual styling fields for the rendered code.
type createTrackedRequest struct {
	TargetURL string `json:"target_url"`
	ShortCode string `json:"short_code,omitempty"`
	ExpiresAt string `json:"expires_at,omitempty"`
	styleFields
}

// TrackedCreateResponse extends the generate response with the persistent
// record: the manage token only ever appears here.
type TrackedCreateResponse struct {
	GenerateResponse
	ID          string     `json:"id"`
	ShortCode   string     `json:"short_code"`
	ShortURL    string     `json:"short_url"`
	TargetURL   string     `json:"target_url"`
	ManageToken string     `json:"manage_token"`
	ManageURL   string     `json:"manage_url"`
	ScanCount   int64      `json:"scan_count"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// CreateTrackedHandler handles POST /api/v1/qr/tracked. The QR encodes the
// short URL, not the target, so the redirect stays in the analytics path.
func CreateTrackedHandler(trackedService *services.TrackedQRService, baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createTrackedRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperrors.BadRequest(apperrors.KindBadFormat, "invalid request body"))
			return
		}

		var expiresAt *time.Time
		if req.ExpiresAt != "" {
			t, err := time.Parse(time.RFC3339, req.ExpiresAt)
			if err != nil {
				writeError(c, apperrors.BadRequest(apperrors.KindBadExpiry,
					"expires_at must be an RFC 3339 timestamp"))
				return
			}
			utc := t.UTC()
			expiresAt = &utc
		}

		// Validate styling before touching the store so a bad color does
		// not leave an orphaned row behind.
		styleReq := req.styleFields.request("placeholder")
		if _, err := styleReq.Validate(); err != nil {
			writeError(c, err)
			return
		}

		tracked, err := trackedService.Create(req.TargetURL, req.ShortCode, expiresAt)
		if err != nil {
			writeError(c, err)
			return
		}

		shortURL := fmt.Sprintf("%s/r/%s", trimBase(baseURL), tracked.ShortCode)

		renderReq := req.styleFields.request(shortURL)
		spec, err := renderReq.Validate()
		if err != nil {
			writeError(c, err)
			return
		}
		rendered, err := qr.Render(spec)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, TrackedCreateResponse{
			GenerateResponse: newGenerateResponse(spec, rendered, baseURL),
			ID:               tracked.ID,
			ShortCode:        tracked.ShortCode,
			ShortURL:         shortURL,
			TargetURL:        tracked.TargetURL,
			ManageToken:      tracked.ManageToken,
			ManageURL: fmt.Sprintf("%s/api/v1/qr/tracked/%s?key=%s",
				trimBase(baseURL), tracked.ID, tracked.ManageToken),
			ScanCount: tracked.ScanCount,
			CreatedAt: tracked.CreatedAt,
			ExpiresAt: tracked.ExpiresAt,
		})
	}
}

// scanEventJSON is the wire shape of one recent scan.
type scanEventJSON struct {
	ScannedAt time.Time `json:"scanned_at"`
	UserAgent string    `json:"user_agent,omitempty"`
	Referrer  string    `json:"referrer,omitempty"`
	IP        string    `json:"ip,omitempty"`
}

// maxRecentScans caps the stats response.
const maxRecentScans = 100

// StatsHandler handles GET /api/v1/qr/tracked/{id}/stats behind the
// capability guard.
func StatsHandler(trackedService *services.TrackedQRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracked, ok := authorizeTracked(c, trackedService)
		if !ok {
			return
		}

		_, scans, err := trackedService.Stats(tracked.ID, maxRecentScans)
		if err != nil {
			writeError(c, err)
			return
		}

		out := make([]scanEventJSON, 0, len(scans))
		for _, s := range scans {
			out = append(out, scanEventJSON{
				ScannedAt: s.ScannedAt,
				UserAgent: s.UserAgent,
				Referrer:  s.Referrer,
				IP:        s.IP,
			})
		}

		c.JSON(http.StatusOK, gin.H{
			"id":           tracked.ID,
			"short_code":   tracked.ShortCode,
			"target_url":   tracked.TargetURL,
			"scan_count":   tracked.ScanCount,
			"created_at":   tracked.CreatedAt,
			"expires_at":   tracked.ExpiresAt,
			"recent_scans": out,
		})
	}
}

// DeleteTrackedHandler handles DELETE /api/v1/qr/tracked/{id} behind the
// capability guard; scan events go with the record.
func DeleteTrackedHandler(trackedService *services.TrackedQRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracked, ok := authorizeTracked(c, trackedService)
		if !ok {
			return
		}
		if err := trackedService.Delete(tracked.ID); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"deleted": true, "id": tracked.ID})
	}
}

// RedirectHandler handles GET /r/{code}. The scan event is committed before
// the 302 goes out: a redirect the client saw is a scan the stats contain.
// Scans are deliberately exempt from rate limiting.
func RedirectHandler(trackedService *services.TrackedQRService) gin.HandlerFunc {
	return func(c *gin.Context) {
		tracked, err := trackedService.GetByShortCode(c.Param("code"))
		if err != nil {
			writeError(c, err)
			return
		}

		if tracked.Expired(time.Now().UTC()) {
			writeError(c, apperrors.Gone())
			return
		}

		err = trackedService.RecordScan(tracked.ID,
			c.GetHeader("User-Agent"),
			c.GetHeader("Referer"),
			c.ClientIP())
		if err != nil {
			writeError(c, err)
			return
		}

		c.Header("Cache-Control", "no-store")
		c.Redirect(http.StatusFound, tracked.TargetURL)
	}
}

func trimBase(base string) string {
	for len(base) > 0 && base[len(base)-1] == '/' {
		base = base[:len(base)-1]
	}
	return base
}
