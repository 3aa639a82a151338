package input

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/url"
	"strings"
)

// DataURL is a decoded RFC 2397 data URL.
type DataURL struct {
	MediaType string
	Data      []byte
}

// ParseDataURL decodes "data:<mediatype>[;base64],<data>".
//
// Query-string transport turns '+' into ' ' before we see the value, so
// spaces inside base64 data are read back as '+'.
func ParseDataURL(raw string) (*DataURL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.HasPrefix(raw, "data:") {
		return nil, errors.New("missing data: scheme")
	}
	meta, body, ok := strings.Cut(raw[len("data:"):], ",")
	if !ok {
		return nil, errors.New("missing ',' separator")
	}

	isBase64 := false
	params := strings.Split(meta, ";")
	mediaType := strings.ToLower(strings.TrimSpace(params[0]))
	for _, p := range params[1:] {
		if strings.EqualFold(strings.TrimSpace(p), "base64") {
			isBase64 = true
		}
	}
	if mediaType == "" {
		mediaType = "text/plain"
	}

	var data []byte
	if isBase64 {
		body = strings.ReplaceAll(body, " ", "+")
		body = strings.TrimRight(body, "=")
		decoded, err := base64.RawStdEncoding.DecodeString(body)
		if err != nil {
			return nil, fmt.Errorf("decode base64: %w", err)
		}
		data = decoded
	} else {
		unescaped, err := url.PathUnescape(body)
		if err != nil {
			return nil, fmt.Errorf("unescape data: %w", err)
		}
		data = []byte(unescaped)
	}

	return &DataURL{MediaType: mediaType, Data: data}, nil
}

// EncodeDataURL builds a base64 data URL.
func EncodeDataURL(mediaType string, data []byte) string {
	return "data:" + mediaType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
