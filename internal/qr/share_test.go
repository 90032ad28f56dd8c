package qr_test

import (
	"net/url"
	"strings"
	"testing"

	apperrors "github.com/acavel/qrservice/internal/errors"
	"github.com/acavel/qrservice/internal/qr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseShare(t *testing.T, shareURL string) url.Values {
	t.Helper()
	u, err := url.Parse(shareURL)
	require.NoError(t, err)
	return u.Query()
}

func TestShareURLRoundtrip(t *testing.T) {
	req := qr.Request{
		Data:            "https://example.com/page?x=1",
		Format:          "png",
		Size:            512,
		FgColor:         "#003366",
		BgColor:         "#fafafa",
		ErrorCorrection: "Q",
		Style:           "dots",
	}
	spec, err := req.Validate()
	require.NoError(t, err)

	shareURL := qr.EncodeShareURL("http://localhost:8000", spec)
	assert.True(t, strings.HasPrefix(shareURL, "http://localhost:8000/qr/view?"))

	decoded, err := qr.DecodeShareQuery(parseShare(t, shareURL))
	require.NoError(t, err)
	assert.Equal(t, spec.Data, decoded.Data)
	assert.Equal(t, spec.Size, decoded.Size)
	assert.Equal(t, spec.Fg, decoded.Fg)
	assert.Equal(t, spec.Bg, decoded.Bg)
	assert.Equal(t, spec.EC, decoded.EC)
	assert.Equal(t, spec.Style, decoded.Style)
	assert.Equal(t, spec.Format, decoded.Format)

	// Rendering the decoded spec must reproduce the original bytes.
	original, err := qr.Render(spec)
	require.NoError(t, err)
	replayed, err := qr.Render(decoded)
	require.NoError(t, err)
	assert.Equal(t, original.Bytes, replayed.Bytes)
}

func TestShareURLTrimsBaseSlash(t *testing.T) {
	spec, err := (&qr.Request{Data: "x"}).Validate()
	require.NoError(t, err)

	shareURL := qr.EncodeShareURL("http://localhost:8000/", spec)
	assert.True(t, strings.HasPrefix(shareURL, "http://localhost:8000/qr/view?"))
}

func TestDecodeShareQueryDefaults(t *testing.T) {
	q := url.Values{}
	q.Set("data", "aGVsbG8") // "hello", base64url, no padding

	spec, err := qr.DecodeShareQuery(q)
	require.NoError(t, err)
	assert.Equal(t, "hello", spec.Data)
	assert.Equal(t, 256, spec.Size)
	assert.Equal(t, qr.FormatPNG, spec.Format)
	assert.Equal(t, qr.StyleSquare, spec.Style)
}

func TestDecodeShareQueryMissingData(t *testing.T) {
	_, err := qr.DecodeShareQuery(url.Values{})
	require.Error(t, err)
	e := apperrors.From(err)
	assert.Equal(t, 400, e.Status)
}

func TestDecodeShareQueryIgnoresUnknownParams(t *testing.T) {
	q := url.Values{}
	q.Set("data", "aGVsbG8")
	q.Set("utm_source", "poster")
	q.Set("totally_unknown", "1")

	_, err := qr.DecodeShareQuery(q)
	assert.NoError(t, err)
}
