package extract

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Text converts an uploaded file's bytes into plain text for indexing and
// retrieval. Unknown formats fall back to a plain-text interpretation;
// formats with no extractable text (images) yield an empty string without
// error so the document is still stored.
func Text(data []byte, mimeType, filename string) (string, error) {
	switch {
	case mimeType == "application/pdf" || hasExt(filename, ".pdf"):
		return pdfText(data)
	case mimeType == "application/vnd.openxmlformats-officedocument.wordprocessingml.document" || hasExt(filename, ".docx"):
		return docxText(data)
	case strings.HasPrefix(mimeType, "image/"):
		// no OCR; stored for download only
		return "", nil
	case mimeType == "application/msword" || hasExt(filename, ".doc"):
		// legacy binary .doc carries no cheap text path; salvage printable runs
		return printableRuns(data), nil
	default:
		return string(data), nil
	}
}

// Supported reports whether the upload layer accepts this file at all.
func Supported(mimeType, filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf", ".doc", ".docx", ".txt", ".png", ".jpg", ".jpeg":
		return true
	}
	switch mimeType {
	case "application/pdf",
		"application/msword",
		"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
		"text/plain",
		"image/png",
		"image/jpeg":
		return true
	}
	return false
}

// SupportedTypesHint names the accepted formats for error messages.
func SupportedTypesHint(mimeType string) string {
	return fmt.Sprintf("Invalid file type: %s. Allowed: PDF, DOC, DOCX, TXT, PNG, JPG, JPEG", mimeType)
}

func hasExt(filename, ext string) bool {
	return strings.EqualFold(filepath.Ext(filename), ext)
}

// printableRuns keeps runs of printable ASCII of 4+ characters, a crude but
// serviceable salvage for formats without a proper parser.
func printableRuns(data []byte) string {
	var b strings.Builder
	var run []byte
	flush := func() {
		if len(run) >= 4 {
			if b.Len() > 0 {
				b.WriteByte(' ')
			}
			b.Write(run)
		}
		run = run[:0]
	}
	for _, c := range data {
		if c >= 0x20 && c < 0x7f {
			run = append(run, c)
		} else {
			flush()
		}
	}
	flush()
	return b.String()
}
