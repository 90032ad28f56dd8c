package qr

import (
	"bytes"

	apperrors "github.com/acavel/qrservice/internal/errors"
	"github.com/jung-kurt/gofpdf"
)

// RenderPDF emits a single-page PDF whose page is Size x Size points.
// Modules are vector paths sharing the SVG renderer's geometry; dots are
// true circles, rounded corners are quadratic beziers. Logos are not
// supported in PDF output and are ignored.
func RenderPDF(spec *Spec, m *Matrix) ([]byte, error) {
	n := m.Size()
	total := n + 2*quietZone
	side := float64(spec.Size)
	module := side / float64(total)

	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr: "pt",
		Size:    gofpdf.SizeType{Wd: side, Ht: side},
	})
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	pdf.SetFillColor(int(spec.Bg.R), int(spec.Bg.G), int(spec.Bg.B))
	pdf.Rect(0, 0, side, side, "F")

	pdf.SetFillColor(int(spec.Fg.R), int(spec.Fg.G), int(spec.Fg.B))

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if !m.Modules[y][x] {
				continue
			}
			px := float64(x+quietZone) * module
			py := float64(y+quietZone) * module

			switch spec.Style {
			case StyleDots:
				pdf.Circle(px+module/2, py+module/2, module/2, "F")
			case StyleRounded:
				pdfRoundedRect(pdf, px, py, module, module/2, moduleNeighbors(m, x, y))
			default:
				pdf.Rect(px, py, module, module, "F")
			}
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, apperrors.Internal("PDF encoding failed")
	}
	return buf.Bytes(), nil
}

// pdfRoundedRect draws one module as a closed path with selectively arced
// corners, same criterion as the other renderers.
func pdfRoundedRect(pdf *gofpdf.Fpdf, x, y, size, r float64, nb neighbors) {
	round := nb.roundedCorners()
	tl, tr, br, bl := 0.0, 0.0, 0.0, 0.0
	if round[0] {
		tl = r
	}
	if round[1] {
		tr = r
	}
	if round[2] {
		br = r
	}
	if round[3] {
		bl = r
	}

	if tl == 0 && tr == 0 && br == 0 && bl == 0 {
		pdf.Rect(x, y, size, size, "F")
		return
	}

	w, h := size, size
	pdf.MoveTo(x+tl, y)
	pdf.LineTo(x+w-tr, y)
	if tr > 0 {
		pdf.CurveTo(x+w, y, x+w, y+tr)
	} else {
		pdf.LineTo(x+w, y)
	}
	pdf.LineTo(x+w, y+h-br)
	if br > 0 {
		pdf.CurveTo(x+w, y+h, x+w-br, y+h)
	} else {
		pdf.LineTo(x+w, y+h)
	}
	pdf.LineTo(x+bl, y+h)
	if bl > 0 {
		pdf.CurveTo(x, y+h, x, y+h-bl)
	} else {
		pdf.LineTo(x, y+h)
	}
	pdf.LineTo(x, y+tl)
	if tl > 0 {
		pdf.CurveTo(x, y, x+tl, y)
	} else {
		pdf.LineTo(x, y)
	}
	pdf.ClosePath()
	pdf.DrawPath("f")
}
