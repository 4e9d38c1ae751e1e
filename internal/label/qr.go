package label

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/skip2/go-qrcode"

	"go-label-ws/internal/apperror"
	"go-label-ws/internal/model"
)

// Encoder builds the value stored in the QR symbol. BaseURL is the public origin
// of the application.
type Encoder struct {
	BaseURL string
}

func (e Encoder) base() (*url.URL, error) {
	u, err := url.Parse(strings.TrimSpace(e.BaseURL))
	if err != nil {
		return nil, err
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("base url %q is not absolute", e.BaseURL)
	}
	if u.Path == "" {
		u.Path = "/"
	}
	u.Fragment = ""
	return u, nil
}

// Encode returns <base>?id=<id> when id is set, <base>?v=<base64 JSON> otherwise.
// If no URL can be built it falls back to PlainText.
func (e Encoder) Encode(id string, rec model.LabelRecord) string {
	u, err := e.base()
	if err != nil {
		return PlainText(rec)
	}

	q := url.Values{}
	if id != "" {
		q.Set("id", id)
	} else {
		v, err := EncodeRecord(rec)
		if err != nil {
			return PlainText(rec)
		}
		q.Set("v", v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}

// EncodeRecord is base64 over the UTF-8 JSON of rec.
func EncodeRecord(rec model.LabelRecord) (string, error) {
	b, err := json.Marshal(rec)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(b), nil
}

// DecodeRecord reverses EncodeRecord. It tolerates '+' turned into spaces and
// missing padding, which some scanners produce.
func DecodeRecord(v string) (model.LabelRecord, error) {
	var rec model.LabelRecord

	v = strings.ReplaceAll(strings.TrimSpace(v), " ", "+")
	raw, err := base64.StdEncoding.DecodeString(v)
	if err != nil {
		raw, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(v, "="))
	}
	if err != nil {
		return rec, apperror.Decoding("malformed label payload", err)
	}
	if !utf8.Valid(raw) {
		return rec, apperror.Decoding("label payload is not UTF-8", nil)
	}
	if err := json.Unmarshal(raw, &rec); err != nil {
		return rec, apperror.Decoding("malformed label payload", err)
	}
	return rec, nil
}

// Reference is what a shared link points at: a stored record id or an embedded record.
type Reference struct {
	ID     string
	Record *model.LabelRecord
}

// ParseReference reads the id or v query parameters of a shared link.
func ParseReference(q url.Values) (Reference, error) {
	if id := strings.TrimSpace(q.Get("id")); id != "" {
		return Reference{ID: id}, nil
	}
	if v := q.Get("v"); v != "" {
		rec, err := DecodeRecord(v)
		if err != nil {
			return Reference{}, err
		}
		return Reference{Record: &rec}, nil
	}
	return Reference{}, apperror.Decoding("link carries no label reference", nil)
}

// PlainText is the QR content used when no link can be built.
func PlainText(rec model.LabelRecord) string {
	return fmt.Sprintf("CLIENTE: %s\nOS: %s\nPLACA: %s", dash(rec.Cliente), dash(rec.OS), dash(rec.Placa))
}

// QR raster bounds in pixels. 21 is the module count of a version 1 symbol.
const (
	qrMinPx = 21
	qrMaxPx = 2048
)

// QRPNG renders payload as a PNG of sizePx square pixels, low error correction
// and no quiet zone. sizePx is clamped to [qrMinPx, qrMaxPx].
func QRPNG(payload string, sizePx int) ([]byte, error) {
	q, err := qrcode.New(payload, qrcode.Low)
	if err != nil {
		return nil, err
	}
	q.DisableBorder = true
	return q.PNG(min(max(sizePx, qrMinPx), qrMaxPx))
}
