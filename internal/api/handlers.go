package api

import (
	"encoding/base64"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	apperrors "github.com/acavel/qrservice/internal/errors"
	"github.com/acavel/qrservice/internal/qr"
	"github.com/gin-gonic/gin"
)

// Version is reported by the health endpoint.
const Version = "1.2.0"

// maxBatchItems bounds a single batch request.
const maxBatchItems = 50

// writeError serializes any error through the taxonomy: stable machine kind
// in "error", human-readable detail in "message". Internal causes are
// logged, never returned.
func writeError(c *gin.Context, err error) {
	e := apperrors.From(err)
	if e.Status >= http.StatusInternalServerError {
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.AbortWithStatusJSON(e.Status, gin.H{"error": string(e.Kind), "message": e.Message})
}

func errUnauthorized() error { return apperrors.Unauthorized() }

// GenerateResponse is returned by the generation endpoints.
type GenerateResponse struct {
	ImageBase64 string `json:"image_base64"`
	ShareURL    string `json:"share_url"`
	Format      string `json:"format"`
	Size        int    `json:"size"`
	Data        string `json:"data"`
}

func newGenerateResponse(spec *qr.Spec, rendered *qr.Rendered, baseURL string) GenerateResponse {
	return GenerateResponse{
		ImageBase64: rendered.DataURI,
		ShareURL:    qr.EncodeShareURL(baseURL, spec),
		Format:      string(spec.Format),
		Size:        spec.Size,
		Data:        spec.Data,
	}
}

// GenerateHandler handles POST /api/v1/qr/generate.
func GenerateHandler(baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req qr.Request
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperrors.BadRequest(apperrors.KindBadFormat, "invalid request body"))
			return
		}

		spec, err := req.Validate()
		if err != nil {
			writeError(c, err)
			return
		}

		rendered, err := qr.Render(spec)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, newGenerateResponse(spec, rendered, baseURL))
	}
}

// decodeRequest is the body of POST /api/v1/qr/decode.
type decodeRequest struct {
	Image string `json:"image"`
}

// DecodeHandler handles POST /api/v1/qr/decode: base64 image in, decoded
// payload out.
func DecodeHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req decodeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperrors.BadRequest(apperrors.KindBadFormat, "invalid request body"))
			return
		}
		if req.Image == "" {
			writeError(c, apperrors.BadRequest(apperrors.KindEmptyData, "image field cannot be empty"))
			return
		}

		b64 := req.Image
		if strings.HasPrefix(b64, "data:") {
			if comma := strings.IndexByte(b64, ','); comma >= 0 {
				b64 = b64[comma+1:]
			}
		}
		raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(b64))
		if err != nil {
			writeError(c, apperrors.BadRequest(apperrors.KindBadFormat, "invalid base64 image data"))
			return
		}

		data, err := qr.DecodeImage(raw)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"data": data, "format": "qr"})
	}
}

// batchRequest is the body of POST /api/v1/qr/batch. Format, when set,
// supplies a default for items that omit their own.
type batchRequest struct {
	Items  []qr.Request `json:"items"`
	Format string       `json:"format,omitempty"`
}

// BatchResponse preserves the input order 1:1.
type BatchResponse struct {
	Items []GenerateResponse `json:"items"`
	Total int                `json:"total"`
}

// BatchHandler handles POST /api/v1/qr/batch.
func BatchHandler(baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req batchRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			writeError(c, apperrors.BadRequest(apperrors.KindBadFormat, "invalid request body"))
			return
		}
		if len(req.Items) == 0 {
			writeError(c, apperrors.BadRequest(apperrors.KindEmptyData, "items array cannot be empty"))
			return
		}
		if len(req.Items) > maxBatchItems {
			writeError(c, apperrors.BadRequest(apperrors.KindPayloadTooLarge,
				fmt.Sprintf("maximum %d items per batch", maxBatchItems)))
			return
		}

		items := make([]GenerateResponse, 0, len(req.Items))
		for i, item := range req.Items {
			if item.Format == "" {
				item.Format = req.Format
			}
			spec, err := item.Validate()
			if err != nil {
				writeError(c, apperrors.BadRequest(apperrors.From(err).Kind,
					fmt.Sprintf("item %d: %s", i, apperrors.From(err).Message)))
				return
			}
			rendered, err := qr.Render(spec)
			if err != nil {
				writeError(c, err)
				return
			}
			items = append(items, newGenerateResponse(spec, rendered, baseURL))
		}

		c.JSON(http.StatusOK, BatchResponse{Items: items, Total: len(items)})
	}
}

// styleFields are the rendering options shared by the template and tracked
// endpoints; they mirror the generate request minus the data payload.
type styleFields struct {
	Format          string `json:"format,omitempty"`
	Size            int    `json:"size,omitempty"`
	FgColor         string `json:"fg_color,omitempty"`
	BgColor         string `json:"bg_color,omitempty"`
	ErrorCorrection string `json:"error_correction,omitempty"`
	Style           string `json:"style,omitempty"`
	Logo            string `json:"logo,omitempty"`
	LogoSize        int    `json:"logo_size,omitempty"`
}

func (s styleFields) request(data string) qr.Request {
	return qr.Request{
		Data:            data,
		Format:          s.Format,
		Size:            s.Size,
		FgColor:         s.FgColor,
		BgColor:         s.BgColor,
		ErrorCorrection: s.ErrorCorrection,
		Style:           s.Style,
		Logo:            s.Logo,
		LogoSize:        s.LogoSize,
	}
}

type wifiTemplateRequest struct {
	SSID       string `json:"ssid"`
	Password   string `json:"password"`
	Encryption string `json:"encryption"`
	Hidden     bool   `json:"hidden"`
	styleFields
}

type vcardTemplateRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
	Org   string `json:"org"`
	Title string `json:"title"`
	URL   string `json:"url"`
	styleFields
}

type urlTemplateRequest struct {
	URL         string `json:"url"`
	UTMSource   string `json:"utm_source"`
	UTMMedium   string `json:"utm_medium"`
	UTMCampaign string `json:"utm_campaign"`
	styleFields
}

// TemplateHandler handles POST /api/v1/qr/template/{type}: composes the
// payload for the template, then renders it with the caller's styling.
func TemplateHandler(baseURL string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var (
			payload string
			style   styleFields
			err     error
		)

		switch c.Param("type") {
		case "wifi":
			var req wifiTemplateRequest
			if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
				writeError(c, apperrors.BadRequest(apperrors.KindBadFormat, "invalid request body"))
				return
			}
			payload, err = qr.WiFiPayload(req.SSID, req.Password, req.Encryption, req.Hidden)
			style = req.styleFields
		case "vcard":
			var req vcardTemplateRequest
			if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
				writeError(c, apperrors.BadRequest(apperrors.KindBadFormat, "invalid request body"))
				return
			}
			payload, err = qr.VCardPayload(qr.VCardFields{
				Name: req.Name, Email: req.Email, Phone: req.Phone,
				Org: req.Org, Title: req.Title, URL: req.URL,
			})
			style = req.styleFields
		case "url":
			var req urlTemplateRequest
			if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
				writeError(c, apperrors.BadRequest(apperrors.KindBadFormat, "invalid request body"))
				return
			}
			payload, err = qr.URLPayload(req.URL, req.UTMSource, req.UTMMedium, req.UTMCampaign)
			style = req.styleFields
		default:
			writeError(c, apperrors.BadRequest(apperrors.KindBadTemplate,
				fmt.Sprintf("unknown template type %q: available types are wifi, vcard, url", c.Param("type"))))
			return
		}
		if err != nil {
			writeError(c, err)
			return
		}

		req := style.request(payload)
		spec, err := req.Validate()
		if err != nil {
			writeError(c, err)
			return
		}
		rendered, err := qr.Render(spec)
		if err != nil {
			writeError(c, err)
			return
		}

		c.JSON(http.StatusOK, newGenerateResponse(spec, rendered, baseURL))
	}
}

// ViewHandler handles GET /qr/view: decodes the share-URL parameters,
// re-renders and answers with the raw image bytes.
func ViewHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		spec, err := qr.DecodeShareQuery(c.Request.URL.Query())
		if err != nil {
			writeError(c, err)
			return
		}
		rendered, err := qr.Render(spec)
		if err != nil {
			writeError(c, err)
			return
		}
		c.Data(http.StatusOK, rendered.ContentType, rendered.Bytes)
	}
}

// HealthHandler reports liveness and process uptime. Uptime uses the
// monotonic clock carried by startTime.
func HealthHandler(startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":         "ok",
			"version":        Version,
			"uptime_seconds": int64(time.Since(startTime).Seconds()),
		})
	}
}
