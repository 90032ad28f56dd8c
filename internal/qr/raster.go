package qr

import (
	"bytes"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	// Logo decoders. WebP has no stdlib codec.
	_ "image/gif"
	_ "image/jpeg"

	apperrors "github.com/acavel/qrservice/internal/errors"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// RenderPNG rasterizes the matrix into a PNG of exactly Size x Size pixels.
// The symbol (plus quiet zone) is drawn at an integral module size and
// centered; the surrounding slack is background-colored.
func RenderPNG(spec *Spec, m *Matrix) ([]byte, error) {
	n := m.Size()
	total := n + 2*quietZone
	modulePx := spec.Size / total
	if modulePx < 1 {
		return nil, apperrors.BadRequest(apperrors.KindSizeTooSmall,
			"size too small for the QR version; increase size or lower error correction")
	}
	offset := (spec.Size - modulePx*total) / 2

	fg := color.RGBA{spec.Fg.R, spec.Fg.G, spec.Fg.B, 255}
	bg := color.RGBA{spec.Bg.R, spec.Bg.G, spec.Bg.B, 255}

	img := image.NewRGBA(image.Rect(0, 0, spec.Size, spec.Size))
	draw.Draw(img, img.Bounds(), &image.Uniform{bg}, image.Point{}, draw.Src)

	for y := 0; y < n; y++ {
		for x := 0; x < n; x++ {
			if !m.Modules[y][x] {
				continue
			}
			px := offset + (x+quietZone)*modulePx
			py := offset + (y+quietZone)*modulePx

			switch spec.Style {
			case StyleDots:
				drawDot(img, px, py, modulePx, fg)
			case StyleRounded:
				drawRounded(img, px, py, modulePx, fg, moduleNeighbors(m, x, y))
			default:
				fillRect(img, px, py, modulePx, modulePx, fg)
			}
		}
	}

	if spec.Logo != nil {
		if err := overlayLogo(img, spec); err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, apperrors.Internal("PNG encoding failed")
	}
	return buf.Bytes(), nil
}

// neighbors flags, in matrix space: [top, right, bottom, left].
type neighbors [4]bool

func moduleNeighbors(m *Matrix, x, y int) neighbors {
	return neighbors{
		m.Dark(x, y-1),
		m.Dark(x+1, y),
		m.Dark(x, y+1),
		m.Dark(x-1, y),
	}
}

// roundedCorners derives per-corner rounding from the neighbor flags.
// A corner is rounded only when both of its orthogonal neighbors are light,
// so runs of dark modules stay flush.
// Order: [top-left, top-right, bottom-right, bottom-left].
func (nb neighbors) roundedCorners() [4]bool {
	return [4]bool{
		!nb[0] && !nb[3],
		!nb[0] && !nb[1],
		!nb[2] && !nb[1],
		!nb[2] && !nb[3],
	}
}

func fillRect(img *image.RGBA, x, y, w, h int, c color.RGBA) {
	b := img.Bounds()
	for dy := 0; dy < h; dy++ {
		for dx := 0; dx < w; dx++ {
			if x+dx < b.Max.X && y+dy < b.Max.Y {
				img.SetRGBA(x+dx, y+dy, c)
			}
		}
	}
}

// drawDot fills the disc inscribed in the module cell. A pixel belongs to
// the disc when its center lies within the radius.
func drawDot(img *image.RGBA, px, py, size int, c color.RGBA) {
	cx := float64(px) + float64(size)/2
	cy := float64(py) + float64(size)/2
	r := float64(size) / 2
	rsq := r * r

	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			fx := float64(px+dx) + 0.5 - cx
			fy := float64(py+dy) + 0.5 - cy
			if fx*fx+fy*fy <= rsq {
				img.SetRGBA(px+dx, py+dy, c)
			}
		}
	}
}

// drawRounded fills the module rectangle, clipping rounded corners with a
// pixel-center distance test. Radius is half the module so opposite corners
// of an isolated module meet in a full circle.
func drawRounded(img *image.RGBA, px, py, size int, c color.RGBA, nb neighbors) {
	r := float64(size) / 2
	rsq := r * r
	round := nb.roundedCorners()

	// Arc centers for each corner, in pixel space.
	centers := [4][2]float64{
		{float64(px) + r, float64(py) + r},                // top-left
		{float64(px+size) - r, float64(py) + r},           // top-right
		{float64(px+size) - r, float64(py+size) - r},      // bottom-right
		{float64(px) + r, float64(py+size) - r},           // bottom-left
	}

	for dy := 0; dy < size; dy++ {
		for dx := 0; dx < size; dx++ {
			fx := float64(px+dx) + 0.5
			fy := float64(py+dy) + 0.5

			corner := -1
			switch {
			case float64(dx) < r && float64(dy) < r:
				corner = 0
			case float64(size-dx) <= r && float64(dy) < r:
				corner = 1
			case float64(size-dx) <= r && float64(size-dy) <= r:
				corner = 2
			case float64(dx) < r && float64(size-dy) <= r:
				corner = 3
			}

			if corner >= 0 && round[corner] {
				ddx := fx - centers[corner][0]
				ddy := fy - centers[corner][1]
				if ddx*ddx+ddy*ddy > rsq {
					continue
				}
			}
			img.SetRGBA(px+dx, py+dy, c)
		}
	}
}

// overlayLogo composites the decoded logo at the center of the QR image.
// The logo is scaled so its longer side is LogoPct percent of the image
// side, and sits on an opaque white rounded backing that carves a quiet
// area out of the symbol.
func overlayLogo(img *image.RGBA, spec *Spec) error {
	logoImg, _, err := image.Decode(bytes.NewReader(spec.Logo))
	if err != nil {
		return apperrors.BadRequest(apperrors.KindLogoDecodeFailed, "could not decode logo image")
	}

	side := img.Bounds().Dx()
	target := side * spec.LogoPct / 100

	lb := logoImg.Bounds()
	lw, lh := lb.Dx(), lb.Dy()
	if lw == 0 || lh == 0 {
		return apperrors.BadRequest(apperrors.KindLogoDecodeFailed, "logo image has no pixels")
	}
	scale := float64(target) / float64(lw)
	if s := float64(target) / float64(lh); s < scale {
		scale = s
	}
	newW := int(float64(lw)*scale + 0.5)
	newH := int(float64(lh)*scale + 0.5)
	if newW < 1 {
		newW = 1
	}
	if newH < 1 {
		newH = 1
	}

	scaled := image.NewRGBA(image.Rect(0, 0, newW, newH))
	xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), logoImg, lb, xdraw.Over, nil)

	longest := newW
	if newH > longest {
		longest = newH
	}
	padding := int(float64(longest)*0.15 + 0.5)
	bgW := newW + 2*padding
	bgH := newH + 2*padding
	bgX := (side - bgW) / 2
	bgY := (side - bgH) / 2
	cornerR := float64(min(bgW, bgH)) * 0.15

	white := color.RGBA{255, 255, 255, 255}
	for dy := 0; dy < bgH; dy++ {
		for dx := 0; dx < bgW; dx++ {
			if insideRoundedRect(dx, dy, bgW, bgH, cornerR) {
				img.SetRGBA(bgX+dx, bgY+dy, white)
			}
		}
	}

	logoX := (side - newW) / 2
	logoY := (side - newH) / 2
	draw.Draw(img, image.Rect(logoX, logoY, logoX+newW, logoY+newH), scaled, image.Point{}, draw.Over)
	return nil
}

func insideRoundedRect(x, y, w, h int, r float64) bool {
	fx := float64(x) + 0.5
	fy := float64(y) + 0.5

	var cx, cy float64
	switch {
	case fx < r && fy < r:
		cx, cy = r, r
	case fx > float64(w)-r && fy < r:
		cx, cy = float64(w)-r, r
	case fx > float64(w)-r && fy > float64(h)-r:
		cx, cy = float64(w)-r, float64(h)-r
	case fx < r && fy > float64(h)-r:
		cx, cy = r, float64(h)-r
	default:
		return true
	}
	dx, dy := fx-cx, fy-cy
	return dx*dx+dy*dy <= r*r
}

