// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package formats maps source file extensions to the formats they can be
// converted into. The table is fixed policy; lookups have no side effects.
package formats

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/pdiddy/financeflow/pkg/types"
)

// Format describes one conversion target.
type Format struct {
	Label       types.FormatLabel `json:"label" yaml:"label"`
	Extension   string            `json:"extension" yaml:"extension"` // without the leading dot
	ContentType string            `json:"contentType" yaml:"content_type"`

	// ServerSide marks targets that need a converter outside the tabular
	// codecs (a container or a remote service).
	ServerSide bool `json:"serverSide" yaml:"server_side"`
}

// String renders the format the way it is offered to the user, e.g. "Excel (.xlsx)".
func (f Format) String() string {
	return string(f.Label) + " (." + f.Extension + ")"
}

var (
	excel = Format{Label: types.FormatExcel, Extension: "xlsx", ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"}
	csv   = Format{Label: types.FormatCSV, Extension: "csv", ContentType: "text/csv"}
	json  = Format{Label: types.FormatJSON, Extension: "json", ContentType: "application/json"}
	text  = Format{Label: types.FormatText, Extension: "txt", ContentType: "text/plain; charset=utf-8", ServerSide: true}
	pdf   = Format{Label: types.FormatPDF, Extension: "pdf", ContentType: "application/pdf", ServerSide: true}
)

// targets is the conversion table. Order matters: the first entry is the
// default target.
var targets = map[string][]Format{
	"csv":  {excel, json},
	"xlsx": {csv, json},
	"xls":  {csv, json},
	"pdf":  {text},
	"txt":  {pdf},
	"docx": {pdf, text},
}

// SupportedTargets returns the ordered list of formats a file with the given
// extension can be converted into. The extension is case-insensitive and may
// carry a leading dot. Unknown extensions yield an empty list.
func SupportedTargets(ext string) []Format {
	list := targets[normalize(ext)]
	out := make([]Format, len(list))
	copy(out, list)
	return out
}

// Supported reports whether ext has at least one conversion target.
func Supported(ext string) bool {
	return len(targets[normalize(ext)]) > 0
}

// Default returns the first target for ext.
func Default(ext string) (Format, bool) {
	list := targets[normalize(ext)]
	if len(list) == 0 {
		return Format{}, false
	}
	return list[0], true
}

// Select picks the target for ext named by hint. The hint matches a label
// ("Excel") or an extension ("xlsx", ".xlsx") case-insensitively. An empty
// hint selects the default target.
func Select(ext, hint string) (Format, bool) {
	if strings.TrimSpace(hint) == "" {
		return Default(ext)
	}
	h := normalize(hint)
	for _, f := range targets[normalize(ext)] {
		if strings.EqualFold(string(f.Label), h) || f.Extension == h {
			return f, true
		}
	}
	return Format{}, false
}

// ByExtension returns the format whose output extension is ext, searching
// every target in the table.
func ByExtension(ext string) (Format, bool) {
	e := normalize(ext)
	for _, list := range targets {
		for _, f := range list {
			if f.Extension == e {
				return f, true
			}
		}
	}
	return Format{}, false
}

// Extensions lists the registered source extensions in sorted order.
func Extensions() []string {
	exts := make([]string, 0, len(targets))
	for e := range targets {
		exts = append(exts, e)
	}
	sort.Strings(exts)
	return exts
}

// ExtensionOf returns the normalized extension of a filename ("" if none).
func ExtensionOf(name string) string {
	return normalize(filepath.Ext(name))
}

// ReplaceExtension swaps the extension of name for ext.
func ReplaceExtension(name, ext string) string {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	return base + "." + normalize(ext)
}

func normalize(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}
