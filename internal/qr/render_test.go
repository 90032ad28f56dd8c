package qr_test

import (
	"bytes"
	"encoding/base64"
	"image"
	"strings"
	"testing"

	apperrors "github.com/acavel/qrservice/internal/errors"
	"github.com/acavel/qrservice/internal/qr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func renderSpec(t *testing.T, req qr.Request) (*qr.Spec, *qr.Rendered) {
	t.Helper()
	spec, err := req.Validate()
	require.NoError(t, err)
	rendered, err := qr.Render(spec)
	require.NoError(t, err)
	return spec, rendered
}

func TestRenderPNGRoundtrip(t *testing.T) {
	// Every style must stay machine-scannable at every tested size.
	for _, style := range []string{"square", "rounded", "dots"} {
		for _, size := range []int{128, 256, 512} {
			t.Run(style, func(t *testing.T) {
				payload := "https://example.com/some/path"
				_, rendered := renderSpec(t, qr.Request{Data: payload, Format: "png", Size: size, Style: style})

				decoded, err := qr.DecodeImage(rendered.Bytes)
				require.NoError(t, err, "style %s at %d must decode", style, size)
				assert.Equal(t, payload, decoded)
			})
		}
	}
}

func TestRenderPNGColoredRoundtrip(t *testing.T) {
	payload := "colored symbol"
	_, rendered := renderSpec(t, qr.Request{
		Data: payload, Format: "png", Size: 256,
		FgColor: "#003366", BgColor: "#ffffff",
	})

	decoded, err := qr.DecodeImage(rendered.Bytes)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)
}

func TestRenderPNGExactDimensions(t *testing.T) {
	for _, size := range []int{64, 100, 256, 1000} {
		_, rendered := renderSpec(t, qr.Request{Data: "dims", Format: "png", Size: size})

		img, format, err := image.Decode(bytes.NewReader(rendered.Bytes))
		require.NoError(t, err)
		assert.Equal(t, "png", format)
		assert.Equal(t, size, img.Bounds().Dx())
		assert.Equal(t, size, img.Bounds().Dy())
	}
}

func TestRenderSizeTooSmall(t *testing.T) {
	// 64px cannot hold a high-version symbol at one pixel per module.
	req := qr.Request{Data: strings.Repeat("a", 1200), Format: "png", Size: 64, ErrorCorrection: "H"}
	spec, err := req.Validate()
	require.NoError(t, err)

	_, err = qr.Render(spec)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindSizeTooSmall, apperrors.From(err).Kind)
}

func TestRenderWithLogoStillDecodes(t *testing.T) {
	logo := base64.StdEncoding.EncodeToString(testLogoPNG(t, 32, 32))
	payload := "https://example.com"

	spec, rendered := renderSpec(t, qr.Request{
		Data: payload, Format: "png", Size: 512,
		ErrorCorrection: "L", Logo: logo, LogoSize: 20,
	})
	assert.Equal(t, qr.ECHigh, spec.EC)

	decoded, err := qr.DecodeImage(rendered.Bytes)
	require.NoError(t, err, "logo overlay must not destroy scannability")
	assert.Equal(t, payload, decoded)
}

func TestRenderDataURI(t *testing.T) {
	_, rendered := renderSpec(t, qr.Request{Data: "uri", Format: "png"})
	assert.True(t, strings.HasPrefix(rendered.DataURI, "data:image/png;base64,"))
	assert.Equal(t, "image/png", rendered.ContentType)

	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(rendered.DataURI, "data:image/png;base64,"))
	require.NoError(t, err)
	assert.Equal(t, rendered.Bytes, raw)
}

func TestRenderDataTooLong(t *testing.T) {
	// Fits the request cap but not a version 40 symbol at EC H.
	req := qr.Request{Data: strings.Repeat("x", 2500), ErrorCorrection: "H"}
	spec, err := req.Validate()
	require.NoError(t, err)

	_, err = qr.Render(spec)
	require.Error(t, err)
	assert.Equal(t, apperrors.KindDataTooLong, apperrors.From(err).Kind)
}
