package utils

import (
	"net/http"
)

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

// DetectImageType sniffs the first 512 bytes and reports the content type
// when it is one of the accepted image formats.
func DetectImageType(data []byte) (string, bool) {
	head := data
	if len(head) > 512 {
		head = head[:512]
	}

	contentType := http.DetectContentType(head)
	return contentType, allowedImageTypes[contentType]
}
