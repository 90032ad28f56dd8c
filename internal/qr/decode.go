package qr

import (
	"bytes"
	"image"

	apperrors "github.com/acavel/qrservice/internal/errors"
	"github.com/makiuchi-d/gozxing"
	zxqrcode "github.com/makiuchi-d/gozxing/qrcode"
)

// DecodeImage finds and decodes a QR code in the given image bytes.
// Any raster format the image package knows (PNG, JPEG, GIF, WebP) is
// accepted.
func DecodeImage(data []byte) (string, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", apperrors.BadRequest(apperrors.KindBadFormat, "could not decode image")
	}

	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return "", apperrors.New(422, apperrors.KindNotAQR, "no QR code found in image")
	}

	hints := map[gozxing.DecodeHintType]interface{}{
		gozxing.DecodeHintType_TRY_HARDER: true,
	}
	result, err := zxqrcode.NewQRCodeReader().Decode(bmp, hints)
	if err != nil {
		return "", apperrors.New(422, apperrors.KindNotAQR, "no QR code found in image")
	}
	return result.GetText(), nil
}
