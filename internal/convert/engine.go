// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package convert transcodes tabular documents between CSV, Excel, and JSON.
//
// Every conversion parses the source into a Table and re-encodes it. Only
// the first sheet of a workbook is read; additional sheets, styling, and
// formulas are dropped. Source type is taken from the file extension and
// checked against the content before parsing. Failures are returned as
// *UnsupportedFormatError, *ParseError, or *EncodeError and are never
// retried or replaced with fabricated output.
package convert

import (
	"context"
	"errors"
	"fmt"

	"github.com/pdiddy/financeflow/internal/formats"
	"github.com/pdiddy/financeflow/pkg/types"
)

// Engine converts uploaded documents. The zero value handles all tabular
// conversions; server-side targets also need Documents.
type Engine struct {
	// Documents serves server-side targets (pdf and docx to text). Nil
	// leaves those targets unsupported.
	Documents DocumentConverter

	// InferNumbers emits numeric-looking cells as JSON numbers.
	InferNumbers bool
}

// NewEngine creates an engine from configuration. docs may be nil.
func NewEngine(cfg types.ConversionConfig, docs DocumentConverter) *Engine {
	return &Engine{Documents: docs, InferNumbers: cfg.InferNumbers}
}

// Convert converts doc into the target named by hint, or into the default
// target for its extension when hint is empty. The result filename is the
// source name with its extension replaced by the target's.
func (e *Engine) Convert(ctx context.Context, doc types.UploadedDocument, hint string) (types.ConversionResult, error) {
	ext := formats.ExtensionOf(doc.Name)
	target, err := ResolveTarget(doc.Name, hint)
	if err != nil {
		return types.ConversionResult{}, err
	}

	var data []byte
	if target.ServerSide {
		data, err = e.convertServerSide(ctx, ext, doc, target)
	} else {
		data, err = e.convertTabular(ctx, doc, target)
	}
	if err != nil {
		return types.ConversionResult{}, err
	}

	return types.ConversionResult{
		Data:        data,
		Filename:    formats.ReplaceExtension(doc.Name, target.Extension),
		Format:      target.Label,
		ContentType: target.ContentType,
	}, nil
}

// ResolveTarget returns the target that Convert would produce for a file
// named name and the given hint, without reading any content.
func ResolveTarget(name, hint string) (formats.Format, error) {
	ext := formats.ExtensionOf(name)
	if !formats.Supported(ext) {
		return formats.Format{}, &UnsupportedFormatError{Ext: ext}
	}
	target, ok := formats.Select(ext, hint)
	if !ok {
		return formats.Format{}, &UnsupportedFormatError{
			Ext:    ext,
			Target: hint,
			Err:    fmt.Errorf("target not offered for .%s files", ext),
		}
	}
	return target, nil
}

func (e *Engine) convertTabular(ctx context.Context, doc types.UploadedDocument, target formats.Format) ([]byte, error) {
	table, err := e.Parse(ctx, doc)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return e.Encode(table, target)
}

func (e *Engine) convertServerSide(ctx context.Context, ext string, doc types.UploadedDocument, target formats.Format) ([]byte, error) {
	if e.Documents == nil || !e.Documents.Accepts(ext, target) {
		return nil, &UnsupportedFormatError{Ext: ext, Target: string(target.Label), Err: ErrServerSideRequired}
	}
	if err := formats.Sniff(ext, doc.Content); err != nil {
		return nil, &ParseError{Name: doc.Name, Err: err}
	}
	data, err := e.Documents.Convert(ctx, doc, target)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, &ParseError{Name: doc.Name, Err: err}
	}
	return data, nil
}

// Parse reads a tabular document into a Table.
func (e *Engine) Parse(ctx context.Context, doc types.UploadedDocument) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ext := formats.ExtensionOf(doc.Name)
	if len(doc.Content) == 0 {
		return nil, &ParseError{Name: doc.Name, Err: errors.New("document is empty")}
	}
	if err := formats.Sniff(ext, doc.Content); err != nil {
		return nil, &ParseError{Name: doc.Name, Err: err}
	}

	switch ext {
	case "csv":
		return decodeCSV(doc.Name, doc.Content)
	case "xlsx", "xls":
		return decodeXLSX(doc.Name, doc.Content)
	}
	return nil, &UnsupportedFormatError{Ext: ext, Err: errors.New("not a tabular format")}
}

// Encode renders a table into a tabular target format.
func (e *Engine) Encode(t *Table, target formats.Format) ([]byte, error) {
	switch target.Label {
	case types.FormatExcel:
		return encodeXLSX(t)
	case types.FormatCSV:
		return encodeCSV(t)
	case types.FormatJSON:
		return encodeJSON(t, e.InferNumbers)
	}
	return nil, &EncodeError{Format: target.Extension, Err: errors.New("not a tabular target")}
}
