// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"errors"
	"fmt"
)

// Sentinels matched by the typed errors below through errors.Is.
var (
	ErrUnsupportedFormat = errors.New("unsupported format")
	ErrParse             = errors.New("parse error")
	ErrEncode            = errors.New("encode error")

	// ErrServerSideRequired marks targets that need a converter outside the
	// tabular codecs, when none is configured or able to serve them.
	ErrServerSideRequired = errors.New("server-side converter required")
)

// UnsupportedFormatError reports a source extension or target the engine
// cannot handle.
type UnsupportedFormatError struct {
	Ext    string
	Target string
	Err    error
}

func (e *UnsupportedFormatError) Error() string {
	msg := fmt.Sprintf("unsupported format: .%s", e.Ext)
	if e.Ext == "" {
		msg = "unsupported format: file has no extension"
	}
	if e.Target != "" {
		msg += " to " + e.Target
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *UnsupportedFormatError) Unwrap() error { return e.Err }

func (e *UnsupportedFormatError) Is(target error) bool { return target == ErrUnsupportedFormat }

// ParseError reports source content that is malformed for its declared kind.
type ParseError struct {
	Name string
	Line int // 0 when unknown
	Err  error
}

func (e *ParseError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("parsing %s (line %d): %v", e.Name, e.Line, e.Err)
	}
	return fmt.Sprintf("parsing %s: %v", e.Name, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

func (e *ParseError) Is(target error) bool { return target == ErrParse }

// EncodeError reports a table that cannot be rendered into the target layout.
type EncodeError struct {
	Format string
	Err    error
}

func (e *EncodeError) Error() string {
	return fmt.Sprintf("encoding %s: %v", e.Format, e.Err)
}

func (e *EncodeError) Unwrap() error { return e.Err }

func (e *EncodeError) Is(target error) bool { return target == ErrEncode }
