package qr

import (
	"net/url"
	"strings"

	apperrors "github.com/acavel/qrservice/internal/errors"
)

// WiFiPayload composes the WIFI: payload string understood by phone
// cameras. Encryption must be WPA, WEP or nopass; backslashes and
// semicolons in the SSID and password are escaped; the hidden flag is only
// emitted when set.
func WiFiPayload(ssid, password, encryption string, hidden bool) (string, error) {
	if ssid == "" {
		return "", apperrors.BadRequest(apperrors.KindMissingField, "missing 'ssid' field")
	}

	enc := encryption
	if enc == "" {
		enc = "WPA"
	}
	switch enc {
	case "WPA", "WEP", "nopass":
	default:
		return "", apperrors.BadRequest(apperrors.KindMissingField,
			"encryption must be one of WPA, WEP, nopass")
	}

	var b strings.Builder
	b.WriteString("WIFI:T:")
	b.WriteString(enc)
	b.WriteString(";S:")
	b.WriteString(escapeWiFiField(ssid))
	b.WriteString(";P:")
	b.WriteString(escapeWiFiField(password))
	if hidden {
		b.WriteString(";H:true")
	}
	b.WriteString(";;")
	return b.String(), nil
}

func escapeWiFiField(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, ";", `\;`)
}

// VCardFields holds the supported vCard 3.0 fields. FN is required.
type VCardFields struct {
	Name  string
	Email string
	Phone string
	Org   string
	Title string
	URL   string
}

// VCardPayload composes a vCard 3.0 document.
func VCardPayload(f VCardFields) (string, error) {
	if f.Name == "" {
		return "", apperrors.BadRequest(apperrors.KindMissingField, "missing 'name' field")
	}

	var b strings.Builder
	b.WriteString("BEGIN:VCARD\nVERSION:3.0\n")
	b.WriteString("FN:" + f.Name + "\n")
	if f.Email != "" {
		b.WriteString("EMAIL:" + f.Email + "\n")
	}
	if f.Phone != "" {
		b.WriteString("TEL:" + f.Phone + "\n")
	}
	if f.Org != "" {
		b.WriteString("ORG:" + f.Org + "\n")
	}
	if f.Title != "" {
		b.WriteString("TITLE:" + f.Title + "\n")
	}
	if f.URL != "" {
		b.WriteString("URL:" + f.URL + "\n")
	}
	b.WriteString("END:VCARD")
	return b.String(), nil
}

// URLPayload appends utm parameters to a URL, keeping any query string the
// caller already put there.
func URLPayload(raw, source, medium, campaign string) (string, error) {
	if raw == "" {
		return "", apperrors.BadRequest(apperrors.KindMissingField, "missing 'url' field")
	}

	var params []string
	if source != "" {
		params = append(params, "utm_source="+url.QueryEscape(source))
	}
	if medium != "" {
		params = append(params, "utm_medium="+url.QueryEscape(medium))
	}
	if campaign != "" {
		params = append(params, "utm_campaign="+url.QueryEscape(campaign))
	}
	if len(params) == 0 {
		return raw, nil
	}

	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	return raw + sep + strings.Join(params, "&"), nil
}
