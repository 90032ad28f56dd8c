package qr

import (
	"encoding/base64"
	"net/url"
	"strconv"

	apperrors "github.com/acavel/qrservice/internal/errors"
)

// ViewPath is where share URLs point; the GET handler there re-renders the
// encoded spec with no storage involved.
const ViewPath = "/qr/view"

// EncodeShareURL serializes a spec into a stateless share URL under base.
// The payload travels as base64url; colors travel without their hash. The
// logo blob itself cannot ride in a URL, so only logo_size is carried.
func EncodeShareURL(base string, spec *Spec) string {
	q := url.Values{}
	q.Set("data", base64.RawURLEncoding.EncodeToString([]byte(spec.Data)))
	q.Set("size", strconv.Itoa(spec.Size))
	q.Set("fg", spec.Fg.HexBare())
	q.Set("bg", spec.Bg.HexBare())
	q.Set("style", string(spec.Style))
	q.Set("ec", string(spec.EC))
	q.Set("format", string(spec.Format))
	q.Set("logo_size", strconv.Itoa(spec.LogoPct))

	return trimTrailingSlash(base) + ViewPath + "?" + q.Encode()
}

// DecodeShareQuery turns share-URL query parameters back into a validated
// Spec. Unknown parameters are ignored; anything omitted takes its default.
func DecodeShareQuery(q url.Values) (*Spec, error) {
	encoded := q.Get("data")
	if encoded == "" {
		return nil, apperrors.BadRequest(apperrors.KindEmptyData, "missing 'data' parameter")
	}
	raw, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		// Tolerate padded or standard-alphabet encodings from older links.
		if raw, err = base64.URLEncoding.DecodeString(encoded); err != nil {
			if raw, err = base64.StdEncoding.DecodeString(encoded); err != nil {
				return nil, apperrors.BadRequest(apperrors.KindEmptyData, "invalid base64 'data' parameter")
			}
		}
	}

	req := Request{
		Data:            string(raw),
		Format:          q.Get("format"),
		FgColor:         q.Get("fg"),
		BgColor:         q.Get("bg"),
		Style:           q.Get("style"),
		ErrorCorrection: q.Get("ec"),
	}
	if v := q.Get("size"); v != "" {
		size, err := strconv.Atoi(v)
		if err != nil {
			return nil, apperrors.BadRequest(apperrors.KindBadSize, "size must be an integer")
		}
		req.Size = size
	}
	if v := q.Get("logo_size"); v != "" {
		pct, err := strconv.Atoi(v)
		if err != nil {
			return nil, apperrors.BadRequest(apperrors.KindBadSize, "logo_size must be an integer")
		}
		req.LogoSize = pct
	}

	return req.Validate()
}

func trimTrailingSlash(s string) string {
	for len(s) > 0 && s[len(s)-1] == '/' {
		s = s[:len(s)-1]
	}
	return s
}
