package storage

import (
	"io"
	"mime"
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// DetectContentType determines the MIME type of an object.
//
// An explicit providedType wins, then the file extension, then a sniff of the
// content itself. Unknown content is "application/octet-stream".
func DetectContentType(providedType, filename string, data io.Reader) string {
	if providedType != "" {
		return providedType
	}

	ext := strings.ToLower(filepath.Ext(filename))
	if contentType := mime.TypeByExtension(ext); contentType != "" {
		return contentType
	}

	if data != nil {
		if m, err := mimetype.DetectReader(data); err == nil {
			return m.String()
		}
	}

	return "application/octet-stream"
}

// blockedWorkTypes are content types never accepted as work attachments.
var blockedWorkTypes = map[string]bool{
	"application/x-msdownload":                      true,
	"application/x-executable":                      true,
	"application/x-elf":                             true,
	"application/x-mach-binary":                     true,
	"application/x-sh":                              true,
	"application/vnd.microsoft.portable-executable": true,
}

// IsAllowedWorkType reports whether a sniffed content type may be stored as a
// contract work attachment. Deliverables are mostly media, documents and
// archives, so only executables are refused.
func IsAllowedWorkType(contentType string) bool {
	return !blockedWorkTypes[baseType(contentType)]
}

// IsPDF returns true if the content type is a PDF document.
func IsPDF(contentType string) bool {
	return baseType(contentType) == "application/pdf"
}

func baseType(contentType string) string {
	t := strings.Split(contentType, ";")[0]
	return strings.TrimSpace(strings.ToLower(t))
}
