// Package attach encodes small comment images as inline data URIs.
package attach

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// Limits for comment attachments
const (
	MaxImages     = 3
	MaxImageBytes = 512 << 10
)

var (
	ErrTooLarge        = errors.New("image exceeds size limit")
	ErrUnsupportedType = errors.New("unsupported image type")
	ErrTooMany         = errors.New("too many images")
	ErrMalformed       = errors.New("malformed data URI")
)

var allowedTypes = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/gif":  true,
	"image/webp": true,
}

// Encode sniffs data and returns it as a base64 data URI
func Encode(data []byte) (string, error) {
	if len(data) > MaxImageBytes {
		return "", fmt.Errorf("%w: %d bytes (max %d)", ErrTooLarge, len(data), MaxImageBytes)
	}

	contentType := http.DetectContentType(data)
	if !allowedTypes[contentType] {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedType, contentType)
	}

	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data), nil
}

// EncodeFile reads an image from disk and encodes it
func EncodeFile(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat image: %w", err)
	}
	if info.Size() > MaxImageBytes {
		return "", fmt.Errorf("%w: %s is %d bytes (max %d)", ErrTooLarge, path, info.Size(), MaxImageBytes)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read image: %w", err)
	}
	return Encode(data)
}

// Decode parses a data URI produced by Encode. The declared type must match
// the sniffed content.
func Decode(uri string) (string, []byte, error) {
	rest, ok := strings.CutPrefix(uri, "data:")
	if !ok {
		return "", nil, ErrMalformed
	}
	declared, payload, ok := strings.Cut(rest, ";base64,")
	if !ok {
		return "", nil, ErrMalformed
	}
	if !allowedTypes[declared] {
		return "", nil, fmt.Errorf("%w: %s", ErrUnsupportedType, declared)
	}
	if base64.StdEncoding.DecodedLen(len(payload)) > MaxImageBytes+2 {
		return "", nil, ErrTooLarge
	}

	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	if len(data) > MaxImageBytes {
		return "", nil, ErrTooLarge
	}
	if sniffed := http.DetectContentType(data); sniffed != declared {
		return "", nil, fmt.Errorf("%w: declared %s, content is %s", ErrUnsupportedType, declared, sniffed)
	}

	return declared, data, nil
}

// Validate checks a comment's attachment set
func Validate(uris []string) error {
	if len(uris) > MaxImages {
		return fmt.Errorf("%w: %d (max %d)", ErrTooMany, len(uris), MaxImages)
	}
	for i, uri := range uris {
		if _, _, err := Decode(uri); err != nil {
			return fmt.Errorf("image %d: %w", i+1, err)
		}
	}
	return nil
}
