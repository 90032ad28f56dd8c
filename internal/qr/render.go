package qr

import (
	"encoding/base64"
	"fmt"
)

// Rendered is the output of a render: raw bytes, the HTTP content type and
// a ready-to-embed data URI.
type Rendered struct {
	Bytes       []byte
	ContentType string
	DataURI     string
}

// Render builds the module matrix and dispatches to the renderer selected
// by the Format field.
func Render(spec *Spec) (*Rendered, error) {
	m, err := BuildMatrix(spec.Data, spec.EC)
	if err != nil {
		return nil, err
	}

	var (
		raw         []byte
		contentType string
	)
	switch spec.Format {
	case FormatSVG:
		raw, err = RenderSVG(spec, m)
		contentType = "image/svg+xml"
	case FormatPDF:
		raw, err = RenderPDF(spec, m)
		contentType = "application/pdf"
	default:
		raw, err = RenderPNG(spec, m)
		contentType = "image/png"
	}
	if err != nil {
		return nil, err
	}

	return &Rendered{
		Bytes:       raw,
		ContentType: contentType,
		DataURI: fmt.Sprintf("data:%s;base64,%s", contentType,
			base64.StdEncoding.EncodeToString(raw)),
	}, nil
}
