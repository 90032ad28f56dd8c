// Package qr implements the QR rendering pipeline: option validation, the
// module matrix, the PNG/SVG/PDF renderers, payload templates, the share-URL
// codec and image decoding.
package qr

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/acavel/qrservice/internal/errors"
)

// Format selects the output encoding of a render.
type Format string

const (
	FormatPNG Format = "png"
	FormatSVG Format = "svg"
	FormatPDF Format = "pdf"
)

// Style selects how dark modules are drawn.
type Style string

const (
	StyleSquare  Style = "square"
	StyleRounded Style = "rounded"
	StyleDots    Style = "dots"
)

// ECLevel is the QR error correction level.
type ECLevel string

const (
	ECLow      ECLevel = "L"
	ECMedium   ECLevel = "M"
	ECQuartile ECLevel = "Q"
	ECHigh     ECLevel = "H"
)

const (
	minSize = 64
	maxSize = 4096

	minLogoPct     = 5
	maxLogoPct     = 40
	defaultLogoPct = 20

	// maxLogoBytes caps the decoded logo payload.
	maxLogoBytes = 512 * 1024

	// maxDataBytes is the byte-mode capacity of a version 40 symbol at EC L;
	// nothing beyond this fits regardless of requested level.
	maxDataBytes = 2953

	defaultSize = 256
)

// RGB is a 24-bit color. Alpha in the input is accepted and discarded.
type RGB struct {
	R, G, B uint8
}

// Hex returns the css form "#rrggbb".
func (c RGB) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// HexBare returns "rrggbb" without the leading hash, as used in share URLs.
func (c RGB) HexBare() string {
	return fmt.Sprintf("%02x%02x%02x", c.R, c.G, c.B)
}

var (
	// Black and White are the rendering defaults.
	Black = RGB{0, 0, 0}
	White = RGB{255, 255, 255}
)

// ParseColor parses "#RRGGBB", "RRGGBB", "#RGB", "RGB" (case-insensitive).
// An 8-digit value is accepted with its alpha component ignored.
func ParseColor(s string) (RGB, error) {
	hex := strings.TrimPrefix(strings.TrimSpace(s), "#")
	switch len(hex) {
	case 3:
		var out [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(string(hex[i]), 16, 8)
			if err != nil {
				return RGB{}, apperrors.BadRequest(apperrors.KindBadColor, "invalid hex color: "+s)
			}
			out[i] = uint8(v*16 + v)
		}
		return RGB{out[0], out[1], out[2]}, nil
	case 6, 8:
		var out [3]uint8
		for i := 0; i < 3; i++ {
			v, err := strconv.ParseUint(hex[i*2:i*2+2], 16, 8)
			if err != nil {
				return RGB{}, apperrors.BadRequest(apperrors.KindBadColor, "invalid hex color: "+s)
			}
			out[i] = uint8(v)
		}
		return RGB{out[0], out[1], out[2]}, nil
	default:
		return RGB{}, apperrors.BadRequest(apperrors.KindBadColor, "invalid hex color: "+s)
	}
}

// Request is the wire shape of a generate request. Zero values take the
// documented defaults during validation.
type Request struct {
	Data            string `json:"data"`
	Format          string `json:"format,omitempty"`
	Size            int    `json:"size,omitempty"`
	FgColor         string `json:"fg_color,omitempty"`
	BgColor         string `json:"bg_color,omitempty"`
	ErrorCorrection string `json:"error_correction,omitempty"`
	Style           string `json:"style,omitempty"`

	// Logo is a base64 string or data: URI; when present, error correction
	// is upgraded to H so the covered modules stay recoverable.
	Logo     string `json:"logo,omitempty"`
	LogoSize int    `json:"logo_size,omitempty"`
}

// Spec is a fully validated rendering request.
type Spec struct {
	Data     string
	Format   Format
	Size     int
	Fg       RGB
	Bg       RGB
	EC       ECLevel
	Style    Style
	Logo     []byte // decoded image bytes, nil when absent
	LogoMIME string
	LogoPct  int
}

// Validate checks every field of the request, applies defaults and returns
// the normalized Spec.
func (r *Request) Validate() (*Spec, error) {
	if r.Data == "" {
		return nil, apperrors.BadRequest(apperrors.KindEmptyData, "data field cannot be empty")
	}
	if len(r.Data) > maxDataBytes {
		return nil, apperrors.BadRequest(apperrors.KindDataTooLong,
			fmt.Sprintf("data exceeds the %d byte QR capacity", maxDataBytes))
	}

	spec := &Spec{
		Data:    r.Data,
		Format:  FormatPNG,
		Size:    defaultSize,
		Fg:      Black,
		Bg:      White,
		EC:      ECMedium,
		Style:   StyleSquare,
		LogoPct: defaultLogoPct,
	}

	if r.Format != "" {
		switch Format(strings.ToLower(r.Format)) {
		case FormatPNG, FormatSVG, FormatPDF:
			spec.Format = Format(strings.ToLower(r.Format))
		default:
			return nil, apperrors.BadRequest(apperrors.KindBadFormat,
				"unsupported format: use png, svg or pdf")
		}
	}

	if r.Size != 0 {
		if r.Size < minSize || r.Size > maxSize {
			return nil, apperrors.BadRequest(apperrors.KindBadSize,
				fmt.Sprintf("size must be between %d and %d", minSize, maxSize))
		}
		spec.Size = r.Size
	}

	if r.FgColor != "" {
		c, err := ParseColor(r.FgColor)
		if err != nil {
			return nil, err
		}
		spec.Fg = c
	}
	if r.BgColor != "" {
		c, err := ParseColor(r.BgColor)
		if err != nil {
			return nil, err
		}
		spec.Bg = c
	}

	if r.ErrorCorrection != "" {
		switch ECLevel(strings.ToUpper(r.ErrorCorrection)) {
		case ECLow, ECMedium, ECQuartile, ECHigh:
			spec.EC = ECLevel(strings.ToUpper(r.ErrorCorrection))
		default:
			return nil, apperrors.BadRequest(apperrors.KindBadEC,
				"error_correction must be one of L, M, Q, H")
		}
	}

	if r.Style != "" {
		switch Style(strings.ToLower(r.Style)) {
		case StyleSquare, StyleRounded, StyleDots:
			spec.Style = Style(strings.ToLower(r.Style))
		default:
			return nil, apperrors.BadRequest(apperrors.KindBadStyle,
				"style must be one of square, rounded, dots")
		}
	}

	if r.LogoSize != 0 {
		if r.LogoSize < minLogoPct || r.LogoSize > maxLogoPct {
			return nil, apperrors.BadRequest(apperrors.KindBadSize,
				fmt.Sprintf("logo_size must be between %d and %d (percent)", minLogoPct, maxLogoPct))
		}
		spec.LogoPct = r.LogoSize
	}

	if r.Logo != "" {
		raw, mime, err := DecodeLogo(r.Logo)
		if err != nil {
			return nil, err
		}
		spec.Logo = raw
		spec.LogoMIME = mime
		// Modules under the logo are sacrificed; level H keeps the symbol
		// decodable with up to ~30% damage.
		spec.EC = ECHigh
	}

	return spec, nil
}

// DecodeLogo strips an optional data: URI prefix, base64-decodes the logo
// and sniffs the image format. Returns the raw bytes and detected MIME type.
func DecodeLogo(logo string) ([]byte, string, error) {
	b64 := strings.TrimSpace(logo)
	if strings.HasPrefix(b64, "data:") {
		comma := strings.IndexByte(b64, ',')
		if comma < 0 {
			return nil, "", apperrors.BadRequest(apperrors.KindLogoDecodeFailed, "malformed data URI")
		}
		b64 = b64[comma+1:]
	}

	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		if raw, err = base64.RawStdEncoding.DecodeString(b64); err != nil {
			return nil, "", apperrors.BadRequest(apperrors.KindLogoDecodeFailed, "invalid base64 logo data")
		}
	}

	if len(raw) > maxLogoBytes {
		return nil, "", apperrors.PayloadTooLarge(apperrors.KindLogoTooLarge,
			"logo image must be under 512KiB")
	}

	mime := sniffImageMIME(raw)
	if mime == "" {
		return nil, "", apperrors.BadRequest(apperrors.KindLogoDecodeFailed,
			"logo must be a PNG, JPEG, GIF or WebP image")
	}
	return raw, mime, nil
}

// sniffImageMIME recognizes the supported logo formats by magic bytes.
func sniffImageMIME(data []byte) string {
	switch {
	case bytes.HasPrefix(data, []byte{0x89, 'P', 'N', 'G'}):
		return "image/png"
	case bytes.HasPrefix(data, []byte{0xFF, 0xD8}):
		return "image/jpeg"
	case bytes.HasPrefix(data, []byte("GIF8")):
		return "image/gif"
	case bytes.HasPrefix(data, []byte("RIFF")) && len(data) >= 12 && bytes.Equal(data[8:12], []byte("WEBP")):
		return "image/webp"
	default:
		return ""
	}
}
