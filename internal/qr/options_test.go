package qr_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	apperrors "github.com/acavel/qrservice/internal/errors"
	"github.com/acavel/qrservice/internal/qr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseColor(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  qr.RGB
		ok    bool
	}{
		{"six digits with hash", "#ff6600", qr.RGB{255, 102, 0}, true},
		{"six digits bare", "003366", qr.RGB{0, 51, 102}, true},
		{"three digits with hash", "#f60", qr.RGB{255, 102, 0}, true},
		{"three digits bare", "abc", qr.RGB{170, 187, 204}, true},
		{"uppercase", "#FF6600", qr.RGB{255, 102, 0}, true},
		{"eight digits ignores alpha", "#ff660080", qr.RGB{255, 102, 0}, true},
		{"garbage", "#zzzzzz", qr.RGB{}, false},
		{"wrong length", "#ff66", qr.RGB{}, false},
		{"empty", "", qr.RGB{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := qr.ParseColor(tt.input)
			if !tt.ok {
				require.Error(t, err)
				assert.Equal(t, apperrors.KindBadColor, apperrors.From(err).Kind)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateDefaults(t *testing.T) {
	req := qr.Request{Data: "hello"}
	spec, err := req.Validate()
	require.NoError(t, err)

	assert.Equal(t, qr.FormatPNG, spec.Format)
	assert.Equal(t, 256, spec.Size)
	assert.Equal(t, qr.Black, spec.Fg)
	assert.Equal(t, qr.White, spec.Bg)
	assert.Equal(t, qr.ECMedium, spec.EC)
	assert.Equal(t, qr.StyleSquare, spec.Style)
	assert.Equal(t, 20, spec.LogoPct)
	assert.Nil(t, spec.Logo)
}

func TestValidateRejections(t *testing.T) {
	tests := []struct {
		name string
		req  qr.Request
		kind apperrors.Kind
	}{
		{"empty data", qr.Request{}, apperrors.KindEmptyData},
		{"data too long", qr.Request{Data: strings.Repeat("x", 3000)}, apperrors.KindDataTooLong},
		{"bad format", qr.Request{Data: "x", Format: "bmp"}, apperrors.KindBadFormat},
		{"size below range", qr.Request{Data: "x", Size: 32}, apperrors.KindBadSize},
		{"size above range", qr.Request{Data: "x", Size: 5000}, apperrors.KindBadSize},
		{"bad fg", qr.Request{Data: "x", FgColor: "red"}, apperrors.KindBadColor},
		{"bad ec", qr.Request{Data: "x", ErrorCorrection: "X"}, apperrors.KindBadEC},
		{"bad style", qr.Request{Data: "x", Style: "hearts"}, apperrors.KindBadStyle},
		{"logo_size below range", qr.Request{Data: "x", LogoSize: 2}, apperrors.KindBadSize},
		{"logo_size above range", qr.Request{Data: "x", LogoSize: 60}, apperrors.KindBadSize},
		{"undecodable logo", qr.Request{Data: "x", Logo: "!!!not-base64!!!"}, apperrors.KindLogoDecodeFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.req.Validate()
			require.Error(t, err)
			assert.Equal(t, tt.kind, apperrors.From(err).Kind)
		})
	}
}

// testLogoPNG returns a small solid PNG as raw bytes.
func testLogoPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{200, 30, 30, 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecodeLogo(t *testing.T) {
	raw := testLogoPNG(t, 16, 16)
	b64 := base64.StdEncoding.EncodeToString(raw)

	t.Run("raw base64", func(t *testing.T) {
		got, mime, err := qr.DecodeLogo(b64)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
		assert.Equal(t, "image/png", mime)
	})

	t.Run("data URI", func(t *testing.T) {
		got, mime, err := qr.DecodeLogo("data:image/png;base64," + b64)
		require.NoError(t, err)
		assert.Equal(t, raw, got)
		assert.Equal(t, "image/png", mime)
	})

	t.Run("unrecognized format", func(t *testing.T) {
		_, _, err := qr.DecodeLogo(base64.StdEncoding.EncodeToString([]byte("plain text, not an image")))
		require.Error(t, err)
		assert.Equal(t, apperrors.KindLogoDecodeFailed, apperrors.From(err).Kind)
	})

	t.Run("oversized logo", func(t *testing.T) {
		big := make([]byte, 600*1024)
		copy(big, []byte{0x89, 'P', 'N', 'G'})
		_, _, err := qr.DecodeLogo(base64.StdEncoding.EncodeToString(big))
		require.Error(t, err)
		e := apperrors.From(err)
		assert.Equal(t, apperrors.KindLogoTooLarge, e.Kind)
		assert.Equal(t, 413, e.Status)
	})
}

func TestLogoUpgradesErrorCorrection(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(testLogoPNG(t, 16, 16))
	req := qr.Request{Data: "hello", ErrorCorrection: "L", Logo: b64}

	spec, err := req.Validate()
	require.NoError(t, err)
	assert.Equal(t, qr.ECHigh, spec.EC, "logo must force error correction to H")
	assert.NotNil(t, spec.Logo)
}
