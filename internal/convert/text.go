// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"errors"
	"fmt"
	"unicode/utf8"

	"github.com/pdiddy/financeflow/internal/formats"
	"github.com/pdiddy/financeflow/pkg/types"
)

// textTarget is the registry entry for plain text output.
var textTarget, _ = formats.ByExtension("txt")

// ExtractText returns the readable text of doc for analysis. Text and CSV
// files are returned as-is; workbooks are flattened to CSV from their first
// sheet; pdf and docx go through Documents when it accepts them. Anything
// else yields a one-line placeholder naming the file.
func (e *Engine) ExtractText(ctx context.Context, doc types.UploadedDocument) (string, error) {
	ext := formats.ExtensionOf(doc.Name)
	switch ext {
	case "csv", "txt":
		body := formats.StripBOM(doc.Content)
		if !utf8.Valid(body) {
			return "", &ParseError{Name: doc.Name, Err: errors.New("content is not valid UTF-8 text")}
		}
		return string(body), nil
	case "xlsx", "xls":
		t, err := e.Parse(ctx, doc)
		if err != nil {
			return "", err
		}
		out, err := encodeCSV(t)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}

	if e.Documents != nil && e.Documents.Accepts(ext, textTarget) {
		out, err := e.convertServerSide(ctx, ext, doc, textTarget)
		if err != nil {
			return "", err
		}
		return string(out), nil
	}
	return Placeholder(doc.Name), nil
}

// Placeholder is the text used for documents whose content cannot be read.
func Placeholder(name string) string {
	return fmt.Sprintf("Financial document: %s", name)
}
