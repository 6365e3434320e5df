// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strconv"
)

// numberPattern accepts plain decimal numbers without leading zeros, so
// identifiers such as "007" stay strings.
var numberPattern = regexp.MustCompile(`^-?(0|[1-9][0-9]*)(\.[0-9]+)?([eE][+-]?[0-9]+)?$`)

// encodeJSON renders a header table as an array of objects whose keys follow
// header order. A table without a header becomes an array of arrays.
func encodeJSON(t *Table, inferNumbers bool) ([]byte, error) {
	if len(t.Rows) == 0 {
		return nil, &EncodeError{Format: "json", Err: errors.New("table has no rows")}
	}

	var compact bytes.Buffer
	compact.WriteByte('[')
	if t.Header {
		keys := objectKeys(t.Columns())
		for i, rec := range t.Records() {
			if i > 0 {
				compact.WriteByte(',')
			}
			compact.WriteByte('{')
			for j, key := range keys {
				if j > 0 {
					compact.WriteByte(',')
				}
				if err := writeJSONString(&compact, key); err != nil {
					return nil, err
				}
				compact.WriteByte(':')
				if err := writeJSONValue(&compact, rec[j], inferNumbers); err != nil {
					return nil, err
				}
			}
			compact.WriteByte('}')
		}
	} else {
		for i, rec := range t.Rows {
			if i > 0 {
				compact.WriteByte(',')
			}
			compact.WriteByte('[')
			for j, v := range rec {
				if j > 0 {
					compact.WriteByte(',')
				}
				if err := writeJSONValue(&compact, v, inferNumbers); err != nil {
					return nil, err
				}
			}
			compact.WriteByte(']')
		}
	}
	compact.WriteByte(']')

	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, &EncodeError{Format: "json", Err: err}
	}
	out.WriteByte('\n')
	return out.Bytes(), nil
}

// objectKeys turns header cells into unique, non-empty object keys.
func objectKeys(header []string) []string {
	keys := make([]string, len(header))
	seen := make(map[string]int, len(header))
	for i, h := range header {
		k := h
		if k == "" {
			k = fmt.Sprintf("column_%d", i+1)
		}
		seen[k]++
		if n := seen[k]; n > 1 {
			k = fmt.Sprintf("%s_%d", k, n)
		}
		keys[i] = k
	}
	return keys
}

func writeJSONValue(buf *bytes.Buffer, v string, inferNumbers bool) error {
	if inferNumbers && numberPattern.MatchString(v) {
		if _, err := strconv.ParseFloat(v, 64); err == nil {
			buf.WriteString(v)
			return nil
		}
	}
	return writeJSONString(buf, v)
}

func writeJSONString(buf *bytes.Buffer, s string) error {
	b, err := json.Marshal(s)
	if err != nil {
		return &EncodeError{Format: "json", Err: err}
	}
	buf.Write(b)
	return nil
}
