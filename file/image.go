package file

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// defaultImageType is declared for payloads whose content does not sniff as an image.
const defaultImageType = "image/jpeg"

// sniffChars is a whole number of base64 quanta covering the 512 bytes
// http.DetectContentType looks at.
const sniffChars = 684

// EncodeImage returns the base64 encoding of the file at path.
func EncodeImage(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// DataURI returns the file at path as an inline data URI suitable for a
// chat-completion image part.
func DataURI(path string) (string, error) {
	encoded, err := EncodeImage(path)
	if err != nil {
		return "", err
	}

	head := encoded
	if len(head) > sniffChars {
		head = head[:sniffChars]
	}
	sniff, err := base64.StdEncoding.DecodeString(head)
	if err != nil {
		return "", fmt.Errorf("failed to decode image header: %w", err)
	}

	return "data:" + ImageType(sniff) + ";base64," + encoded, nil
}

// ImageType sniffs the MIME type of data, falling back to JPEG.
func ImageType(data []byte) string {
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return defaultImageType
	}
	return contentType
}
