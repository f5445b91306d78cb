package storage

import (
	"mime"
	"net/http"
	"path/filepath"
	"strings"
)

// DetectContentType determines the MIME type of an upload.
//
// An explicit type wins unless it is the generic application/octet-stream
// browsers send for unknown files. Otherwise the extension is tried, then the
// leading bytes of data are sniffed.
func DetectContentType(provided, filename string, data []byte) string {
	if base := baseType(provided); base != "" && base != "application/octet-stream" {
		return provided
	}

	if ct := extensionTypes[strings.ToLower(filepath.Ext(filename))]; ct != "" {
		return ct
	}
	if ct := mime.TypeByExtension(strings.ToLower(filepath.Ext(filename))); ct != "" {
		return ct
	}

	if len(data) > 0 {
		if len(data) > 512 {
			data = data[:512]
		}
		return http.DetectContentType(data)
	}
	return "application/octet-stream"
}

// extensionTypes covers document types mime.TypeByExtension may not know
// on minimal systems.
var extensionTypes = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".txt":  "text/plain",
}

// ExtensionForContentType returns a file extension for a MIME type.
func ExtensionForContentType(contentType string) string {
	base := baseType(contentType)
	for ext, ct := range extensionTypes {
		if ct == base {
			return ext
		}
	}
	if exts, err := mime.ExtensionsByType(base); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ".bin"
}

func baseType(contentType string) string {
	return strings.TrimSpace(strings.ToLower(strings.Split(contentType, ";")[0]))
}
