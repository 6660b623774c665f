package editor

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"net/url"
	"strings"

	"github.com/disintegration/imaging"
)

// DefaultQuality is the JPEG quality of every rendered image.
const DefaultQuality = 92

const mimeJPEG = "image/jpeg"

var errNotDataURL = errors.New("not a data URL")

// EncodeDataURL returns the self-contained base64 data URL for data.
func EncodeDataURL(mime string, data []byte) string {
	return "data:" + mime + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// DecodeDataURL splits a data URL into its media type and payload. Payloads
// without the ";base64" marker are percent-decoded.
func DecodeDataURL(s string) (string, []byte, error) {
	if !isDataURL(s) {
		return "", nil, errNotDataURL
	}

	meta, payload, ok := strings.Cut(s[len("data:"):], ",")
	if !ok {
		return "", nil, fmt.Errorf("data URL has no payload separator")
	}

	mime, isBase64 := strings.CutSuffix(meta, ";base64")
	if mime == "" {
		mime = "text/plain"
	}

	if isBase64 {
		data, err := base64.StdEncoding.DecodeString(payload)
		if err != nil {
			// Some encoders drop the padding.
			if data, err = base64.RawStdEncoding.DecodeString(strings.TrimRight(payload, "=")); err != nil {
				return "", nil, fmt.Errorf("invalid base64 payload: %w", err)
			}
		}
		return mime, data, nil
	}

	text, err := url.PathUnescape(payload)
	if err != nil {
		return "", nil, fmt.Errorf("invalid percent-encoded payload: %w", err)
	}
	return mime, []byte(text), nil
}

func isDataURL(s string) bool {
	return len(s) >= 5 && strings.EqualFold(s[:5], "data:")
}

// decodeImage decodes data honouring the EXIF orientation and reports the
// format as a MIME type.
func decodeImage(data []byte) (image.Image, string, error) {
	_, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, "", err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, "", err
	}
	return img, "image/" + format, nil
}

func encodeJPEG(img image.Image, quality int) ([]byte, error) {
	if quality <= 0 || quality > 100 {
		quality = DefaultQuality
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("%w: jpeg encode: %v", ErrProcessing, err)
	}
	return buf.Bytes(), nil
}
