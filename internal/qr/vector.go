package qr

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// RenderSVG emits the matrix as an SVG document with a viewBox of
// Size x Size. Modules are <rect>, <circle> or <path> elements depending on
// style; the rounded style shares the raster renderer's both-neighbors-light
// corner criterion, expressed as quadratic bezier arcs.
func RenderSVG(spec *Spec, m *Matrix) ([]byte, error) {
	n := m.Size()
	total := n + 2*quietZone
	module := float64(spec.Size) / float64(total)

	fg := spec.Fg.Hex()

	var b strings.Builder
	fmt.Fprintf(&b, "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\n")
	fmt.Fprintf(&b, "<svg xmlns=\"http://www.w3.org/2000/svg\" viewBox=\"0 0 %d %d\" width=\"%d\" height=\"%d\">\n",
		spec.Size, spec.Size, spec.Size, spec.Size)
	fmt.Fprintf(&b, "<rect width=\"%d\" height=\"%d\" fill=\"%s\"/>\n", spec.Size, spec.Size, spec.Bg.Hex())

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if !m.Modules[y][x] {
				continue
			}
			px := float64(x+quietZone) * module
			py := float64(y+quietZone) * module

			switch spec.Style {
			case StyleDots:
				fmt.Fprintf(&b, "<circle cx=\"%.2f\" cy=\"%.2f\" r=\"%.2f\" fill=\"%s\"/>\n",
					px+module/2, py+module/2, module/2, fg)
			case StyleRounded:
				b.WriteString(svgRoundedRect(px, py, module, module/2, fg, moduleNeighbors(m, x, y)))
				b.WriteByte('\n')
			default:
				fmt.Fprintf(&b, "<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"/>\n",
					px, py, module, module, fg)
			}
		}
	}

	if spec.Logo != nil {
		b.WriteString(svgLogoOverlay(spec))
	}

	b.WriteString("</svg>")
	return []byte(b.String()), nil
}

// svgRoundedRect emits a module as a path whose corners are arced only when
// both adjacent edges face light modules; flush edges keep runs continuous.
func svgRoundedRect(x, y, size, r float64, fill string, nb neighbors) string {
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
		return fmt.Sprintf("<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" fill=\"%s\"/>",
			x, y, size, size, fill)
	}

	w, h := size, size
	return fmt.Sprintf(
		"<path d=\"M%.2f,%.2f L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f L%.2f,%.2f Q%.2f,%.2f %.2f,%.2f Z\" fill=\"%s\"/>",
		x+tl, y, // start after the TL radius
		x+w-tr, y, // top edge
		x+w, y, x+w, y+tr, // TR arc
		x+w, y+h-br, // right edge
		x+w, y+h, x+w-br, y+h, // BR arc
		x+bl, y+h, // bottom edge
		x, y+h, x, y+h-bl, // BL arc
		x, y+tl, // left edge
		x, y, x+tl, y, // TL arc
		fill)
}

// svgLogoOverlay returns the white backing rect and centered <image>
// element for the logo, mirroring the raster overlay geometry.
func svgLogoOverlay(spec *Spec) string {
	size := float64(spec.Size)
	logoSize := size * float64(spec.LogoPct) / 100
	padding := logoSize * 0.15
	bgSize := logoSize + 2*padding
	bgX := (size - bgSize) / 2
	bgY := (size - bgSize) / 2
	logoX := (size - logoSize) / 2
	logoY := (size - logoSize) / 2
	cornerR := bgSize * 0.15

	dataURI := fmt.Sprintf("data:%s;base64,%s", spec.LogoMIME, base64.StdEncoding.EncodeToString(spec.Logo))

	return fmt.Sprintf(
		"<rect x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" rx=\"%.2f\" ry=\"%.2f\" fill=\"white\"/>\n"+
			"<image x=\"%.2f\" y=\"%.2f\" width=\"%.2f\" height=\"%.2f\" href=\"%s\"/>\n",
		bgX, bgY, bgSize, bgSize, cornerR, cornerR,
		logoX, logoY, logoSize, logoSize, dataURI)
}
