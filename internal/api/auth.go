package api

import (
	"crypto/subtle"
	"strings"

	"github.com/acavel/qrservice/internal/models"
	"github.com/acavel/qrservice/internal/services"
	"github.com/gin-gonic/gin"
)

// extractManageToken pulls the capability token from the request, checking
// Authorization: Bearer, X-API-Key, then the ?key query parameter.
func extractManageToken(c *gin.Context) string {
	if auth := c.GetHeader("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			return token
		}
	}
	if key := c.GetHeader("X-API-Key"); key != "" {
		return key
	}
	return c.Query("key")
}

// authorizeTracked resolves the {id} path parameter and verifies the
// presented manage token against the stored capability. An unknown id is a
// 404; a missing or wrong token is a 401 — holding some other QR's token
// must not disclose anything beyond the id's existence.
func authorizeTracked(c *gin.Context, trackedService *services.TrackedQRService) (*models.TrackedQR, bool) {
	tracked, err := trackedService.GetByID(c.Param("id"))
	if err != nil {
		writeError(c, err)
		return nil, false
	}

	token := extractManageToken(c)
	// Constant-time comparison: the verdict must not depend on where the
	// first differing byte sits.
	if token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(tracked.ManageToken)) != 1 {
		writeError(c, errUnauthorized())
		return nil, false
	}
	return tracked, true
}
