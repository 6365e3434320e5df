// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// FormatLabel names a document format as shown to the user.
type FormatLabel string

const (
	FormatExcel FormatLabel = "Excel"
	FormatCSV   FormatLabel = "CSV"
	FormatJSON  FormatLabel = "JSON"
	FormatText  FormatLabel = "Text"
	FormatPDF   FormatLabel = "PDF"
)

// UploadedDocument is a file selected by the user. The workflow owns it and
// replaces it wholesale on each new selection.
type UploadedDocument struct {
	// Name is the original filename, extension included (e.g. "expenses.csv").
	Name string `json:"name" yaml:"name"`

	// Content holds the raw bytes of the file.
	Content []byte `json:"-" yaml:"-"`

	// Size is the declared size in bytes. It may differ from len(Content)
	// when the caller only knows the size reported by the upload.
	Size int64 `json:"size" yaml:"size"`
}

// NewDocument builds an UploadedDocument whose declared size matches content.
func NewDocument(name string, content []byte) UploadedDocument {
	return UploadedDocument{Name: name, Content: content, Size: int64(len(content))}
}

// ConversionResult holds the output of a conversion. The extension of
// Filename always matches Format.
type ConversionResult struct {
	Data        []byte      `json:"-" yaml:"-"`
	Filename    string      `json:"filename" yaml:"filename"`
	Format      FormatLabel `json:"format" yaml:"format"`
	ContentType string      `json:"content_type" yaml:"content_type"`
}
