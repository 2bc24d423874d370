// Package answerkey extracts a question-to-choice mapping from the three
// key shapes a session can ingest: a positional string, tabular rows, or
// free-form text. Parsing is pure; acquiring the raw bytes (file upload,
// spreadsheet decoding) happens elsewhere.
package answerkey

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/omrsim/omrsim/internal/model"
)

// ErrNoValidEntries is returned when tabular or free-text input yields no
// usable key entry at all.
var ErrNoValidEntries = errors.New("no valid answer key entries found")

// LengthMismatchError rejects a positional key whose length differs from
// the sheet's question count. A partial key is never applied.
type LengthMismatchError struct {
	Expected int
	Actual   int
}

func (e *LengthMismatchError) Error() string {
	return fmt.Sprintf("answer key length mismatch: expected %d characters, got %d", e.Expected, e.Actual)
}

// entryPattern matches "<number><optional : . or -><optional spaces><letter A-D>"
// as a word-bounded token, e.g. "1. A", "2:b", "3-C", "10 D".
var entryPattern = regexp.MustCompile(`\b(\d+)[:.\-]?\s*([A-Da-d])\b`)

// ParseString reads a positional key: character i answers question i+1.
// The input must cover exactly questionCount characters. Characters outside
// A-D are discarded rather than stored, so a key built from dirty input may
// come up short and fail the cardinality check at submission.
func ParseString(s string, questionCount int) (model.AnswerKey, error) {
	runes := []rune(s)
	if len(runes) != questionCount {
		return nil, &LengthMismatchError{Expected: questionCount, Actual: len(runes)}
	}
	key := make(model.AnswerKey, questionCount)
	for i, r := range runes {
		if c, ok := model.ParseChoice(string(r)); ok {
			key[i+1] = c
		}
	}
	return key, nil
}

// ParseRows reads tabular input: column 0 is the question number, column 1
// the choice letter, case-insensitive. Malformed rows are skipped, not
// fatal. Returns the key and the number of rows accepted; with zero
// accepted rows the error is ErrNoValidEntries.
func ParseRows(rows [][]string) (model.AnswerKey, int, error) {
	key := make(model.AnswerKey)
	accepted := 0
	for _, row := range rows {
		if len(row) < 2 {
			continue
		}
		q, err := strconv.Atoi(strings.TrimSpace(row[0]))
		if err != nil {
			continue
		}
		c, ok := model.ParseChoice(row[1])
		if !ok {
			continue
		}
		key[q] = c
		accepted++
	}
	if accepted == 0 {
		return nil, 0, ErrNoValidEntries
	}
	return key, accepted, nil
}

// ParseText scans free-form text for question/answer tokens. Every match
// contributes one entry; a later match for the same question number
// overwrites the earlier one. The matching is deliberately lenient: a stray
// number next to a letter in unrelated prose will match too, mirroring how
// extracted document text is usually messy.
func ParseText(text string) (model.AnswerKey, int, error) {
	matches := entryPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil, 0, ErrNoValidEntries
	}
	key := make(model.AnswerKey)
	for _, m := range matches {
		q, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		c, ok := model.ParseChoice(m[2])
		if !ok {
			continue
		}
		key[q] = c
	}
	if len(key) == 0 {
		return nil, 0, ErrNoValidEntries
	}
	return key, len(matches), nil
}
