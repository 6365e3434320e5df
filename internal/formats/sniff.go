// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formats

import (
	"bytes"
	"fmt"
	"unicode/utf8"
)

var (
	magicZIP  = []byte("PK\x03\x04")
	magicOLE2 = []byte{0xD0, 0xCF, 0x11, 0xE0, 0xA1, 0xB1, 0x1A, 0xE1}
	magicPDF  = []byte("%PDF-")
	utf8BOM   = []byte{0xEF, 0xBB, 0xBF}
)

// Sniff checks that content plausibly matches the type declared by ext.
// It returns nil for unknown extensions; the registry decides those.
func Sniff(ext string, content []byte) error {
	switch normalize(ext) {
	case "xlsx", "docx":
		if !bytes.HasPrefix(content, magicZIP) {
			return fmt.Errorf("content is not a zip container")
		}
	case "xls":
		if !bytes.HasPrefix(content, magicZIP) && !bytes.HasPrefix(content, magicOLE2) {
			return fmt.Errorf("content is not a spreadsheet container")
		}
	case "pdf":
		if !bytes.HasPrefix(content, magicPDF) {
			return fmt.Errorf("content does not start with a PDF header")
		}
	case "csv", "txt":
		body := bytes.TrimPrefix(content, utf8BOM)
		if !utf8.Valid(body) {
			return fmt.Errorf("content is not valid UTF-8 text")
		}
		if bytes.IndexByte(body, 0) >= 0 {
			return fmt.Errorf("content contains NUL bytes")
		}
	}
	return nil
}

// IsOLE2 reports whether content is a legacy compound document (BIFF .xls, .doc).
func IsOLE2(content []byte) bool {
	return bytes.HasPrefix(content, magicOLE2)
}

// StripBOM removes a leading UTF-8 byte order mark.
func StripBOM(content []byte) []byte {
	return bytes.TrimPrefix(content, utf8BOM)
}
