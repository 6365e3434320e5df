// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"context"
	"fmt"

	"github.com/pdiddy/financeflow/internal/container"
	"github.com/pdiddy/financeflow/internal/formats"
	"github.com/pdiddy/financeflow/pkg/types"
)

const imageMarkitdown = "markitdown:latest"

// DocumentConverter handles server-side targets that the tabular codecs
// cannot produce, such as text extracted from a PDF.
type DocumentConverter interface {
	// Accepts reports whether the converter can turn a source with the
	// given extension into target.
	Accepts(sourceExt string, target formats.Format) bool

	// Convert returns the encoded target bytes for doc.
	Convert(ctx context.Context, doc types.UploadedDocument, target formats.Format) ([]byte, error)
}

// MarkitdownConverter extracts text from pdf and docx files by piping them
// through the markitdown container image.
type MarkitdownConverter struct {
	runtime container.Runtime
}

// NewMarkitdownConverter verifies that the markitdown image exists in rt
// before returning a converter that uses it.
func NewMarkitdownConverter(ctx context.Context, rt container.Runtime) (*MarkitdownConverter, error) {
	if err := rt.ImageExists(ctx, imageMarkitdown); err != nil {
		return nil, fmt.Errorf("markitdown image not available in %s: %w", rt.Name(), err)
	}
	return &MarkitdownConverter{runtime: rt}, nil
}

// Accepts implements DocumentConverter. Only text output is supported;
// rendering PDFs needs a layout engine this converter does not have.
func (m *MarkitdownConverter) Accepts(sourceExt string, target formats.Format) bool {
	if target.Label != types.FormatText {
		return false
	}
	switch sourceExt {
	case "pdf", "docx":
		return true
	}
	return false
}

// Convert implements DocumentConverter.
func (m *MarkitdownConverter) Convert(ctx context.Context, doc types.UploadedDocument, target formats.Format) ([]byte, error) {
	var out bytes.Buffer
	if err := m.runtime.Run(ctx, imageMarkitdown, bytes.NewReader(doc.Content), &out); err != nil {
		return nil, fmt.Errorf("converting %s with markitdown: %w", doc.Name, err)
	}
	if out.Len() == 0 {
		return nil, fmt.Errorf("markitdown produced empty output for %s", doc.Name)
	}
	return out.Bytes(), nil
}
