package qr_test

import (
	"encoding/base64"
	"testing"

	"github.com/acavel/qrservice/internal/qr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPDF(t *testing.T) {
	for _, style := range []string{"square", "rounded", "dots"} {
		t.Run(style, func(t *testing.T) {
			_, rendered := renderSpec(t, qr.Request{Data: "pdf " + style, Format: "pdf", Style: style})

			require.Equal(t, "application/pdf", rendered.ContentType)
			assert.True(t, len(rendered.Bytes) > 4)
			assert.Equal(t, "%PDF", string(rendered.Bytes[:4]))
		})
	}
}

func TestRenderPDFIgnoresLogo(t *testing.T) {
	logo := base64.StdEncoding.EncodeToString(testLogoPNG(t, 16, 16))

	withLogo, err := (&qr.Request{Data: "pdf logo", Format: "pdf", Logo: logo}).Validate()
	require.NoError(t, err)
	rendered, err := qr.Render(withLogo)
	require.NoError(t, err)

	// The logo is silently dropped; the EC upgrade still applies, so
	// compare against a logo-less spec at level H.
	plain, err := (&qr.Request{Data: "pdf logo", Format: "pdf", ErrorCorrection: "H"}).Validate()
	require.NoError(t, err)
	renderedPlain, err := qr.Render(plain)
	require.NoError(t, err)

	assert.Equal(t, len(renderedPlain.Bytes), len(rendered.Bytes),
		"logo must not change the PDF output")
}
