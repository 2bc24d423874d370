// Package decode turns an uploaded key file into one of the shapes the
// answer key parser accepts: tabular rows or plain text. It is the single
// external decoding capability the core consumes; a decoding failure
// surfaces as a FailureError the core passes through untouched.
package decode

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Decoded is the output of KeySource: exactly one of Rows or Text is set.
type Decoded struct {
	Rows [][]string
	Text string
}

// FailureError wraps whatever went wrong while decoding a key source. The
// core treats it as opaque.
type FailureError struct {
	Source string
	Err    error
}

func (e *FailureError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Source, e.Err)
}

func (e *FailureError) Unwrap() error { return e.Err }

// KeySource decodes raw uploaded bytes by file extension: .csv yields
// tabular rows, .json expects an array of [question, choice] pairs,
// everything else is treated as extracted plain text.
func KeySource(filename string, data []byte) (Decoded, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return decodeCSV(filename, data)
	case ".json":
		return decodeJSON(filename, data)
	default:
		if !utf8.Valid(data) {
			return Decoded{}, &FailureError{Source: filename, Err: fmt.Errorf("file is not valid UTF-8 text")}
		}
		return Decoded{Text: string(data)}, nil
	}
}

func decodeCSV(filename string, data []byte) (Decoded, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1 // row validity is the parser's call
	r.TrimLeadingSpace = true
	rows, err := r.ReadAll()
	if err != nil {
		return Decoded{}, &FailureError{Source: filename, Err: err}
	}
	return Decoded{Rows: rows}, nil
}

func decodeJSON(filename string, data []byte) (Decoded, error) {
	var raw [][]any
	if err := json.Unmarshal(data, &raw); err != nil {
		return Decoded{}, &FailureError{Source: filename, Err: err}
	}
	rows := make([][]string, 0, len(raw))
	for _, entry := range raw {
		row := make([]string, 0, len(entry))
		for _, cell := range entry {
			switch v := cell.(type) {
			case string:
				row = append(row, v)
			case float64:
				row = append(row, strconv.FormatFloat(v, 'f', -1, 64))
			default:
				row = append(row, fmt.Sprint(v))
			}
		}
		rows = append(rows, row)
	}
	return Decoded{Rows: rows}, nil
}
