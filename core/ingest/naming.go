package ingest

import (
	"encoding/hex"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// audioMIMEPrefix is the only accepted declared media category.
const audioMIMEPrefix = "audio/"

// ValidateContentType accepts only declared audio MIME types.
func ValidateContentType(declared string) error {
	if !strings.HasPrefix(declared, audioMIMEPrefix) {
		return fmt.Errorf("unsupported media type %q, only audio files are allowed", declared)
	}
	return nil
}

// GenerateStorageName derives a collision-resistant destination name for an
// uploaded file: a millisecond timestamp plus a random component, with the
// original file's extension appended (case preserved). Uniqueness under
// concurrent uploads comes from the random component; names are never
// derived from client path components beyond the extension.
func GenerateStorageName(originalName string) string {
	u := uuid.New()
	return fmt.Sprintf("audio-%d-%s%s",
		time.Now().UnixMilli(),
		hex.EncodeToString(u[:6]),
		filepath.Ext(originalName))
}

// FileFormat derives the catalog file format from the original file name:
// the extension, lowercased, without the leading dot.
func FileFormat(originalName string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(originalName), "."))
}
