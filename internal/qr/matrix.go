package qr

import (
	apperrors "github.com/acavel/qrservice/internal/errors"
	qrencode "github.com/skip2/go-qrcode"
)

// Matrix is the QR symbol without its quiet zone: Modules[y][x] is true for
// a dark module. The renderers add the quiet zone themselves.
type Matrix struct {
	Modules [][]bool
	Version int
}

// quietZone is the conventional light border, in modules, on each side.
const quietZone = 4

// Size returns the module count along one side.
func (m *Matrix) Size() int {
	return len(m.Modules)
}

// Dark reports whether the module at (x, y) is dark; coordinates outside the
// symbol count as light, which is what the rounded-corner neighbor test
// wants at the edges.
func (m *Matrix) Dark(x, y int) bool {
	if y < 0 || y >= len(m.Modules) || x < 0 || x >= len(m.Modules) {
		return false
	}
	return m.Modules[y][x]
}

// BuildMatrix encodes data into a module matrix at the requested error
// correction level. The encoder picks the mode (numeric / alphanumeric /
// byte) and the smallest version that fits.
func BuildMatrix(data string, ec ECLevel) (*Matrix, error) {
	code, err := qrencode.New(data, recoveryLevel(ec))
	if err != nil {
		// The only input-dependent failure is capacity exhaustion.
		return nil, apperrors.BadRequest(apperrors.KindDataTooLong,
			"data does not fit in a QR code at the requested error correction level")
	}
	code.DisableBorder = true

	return &Matrix{
		Modules: code.Bitmap(),
		Version: code.VersionNumber,
	}, nil
}

func recoveryLevel(ec ECLevel) qrencode.RecoveryLevel {
	switch ec {
	case ECLow:
		return qrencode.Low
	case ECQuartile:
		return qrencode.High
	case ECHigh:
		return qrencode.Highest
	default:
		return qrencode.Medium
	}
}
