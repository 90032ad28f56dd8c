package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// LlmsTxtHandler serves the plain-text API discovery document at /llms.txt
// and /api/v1/llms.txt.
func LlmsTxtHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Data(http.StatusOK, "text/plain; charset=utf-8", []byte(llmsTxt))
	}
}

const llmsTxt = `# QR Service

Self-hosted QR code API: stateless generation (PNG/SVG/PDF), decoding,
templates, and tracked short URLs with scan analytics.

## Endpoints

POST /api/v1/qr/generate        {"data", "format", "size", "fg_color", "bg_color", "error_correction", "style", "logo", "logo_size"}
POST /api/v1/qr/decode          {"image": "<base64>"}
POST /api/v1/qr/batch           {"items": [generate requests], "format": "<default>"} (max 50)
POST /api/v1/qr/template/wifi   {"ssid", "password", "encryption", "hidden", ...styling}
POST /api/v1/qr/template/vcard  {"name", "email", "phone", "org", "title", "url", ...styling}
POST /api/v1/qr/template/url    {"url", "utm_source", "utm_medium", "utm_campaign", ...styling}
GET  /qr/view?data=<base64url>&size=&fg=&bg=&style=&ec=&format=&logo_size=   (raw image)
POST /api/v1/qr/tracked         {"target_url", "short_code?", "expires_at?", ...styling}
GET  /api/v1/qr/tracked/{id}/stats   (requires manage token)
DELETE /api/v1/qr/tracked/{id}       (requires manage token)
GET  /r/{code}                  302 redirect, records a scan
GET  /api/v1/health

## Notes

- Formats: png, svg, pdf. Sizes 64-4096. Styles: square, rounded, dots.
- Logos (base64 or data URI, max 512KiB) force error correction to H.
  PDF output ignores logos.
- Tracked endpoints authenticate with the per-QR manage token via
  "Authorization: Bearer", "X-API-Key" or "?key=".
- Rate limiting is per IP, fixed window; responses carry
  X-RateLimit-Limit / -Remaining / -Reset. Redirects are never limited.
`
