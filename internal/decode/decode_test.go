package decode

import (
	"errors"
	"testing"
)

func TestKeySourceCSV(t *testing.T) {
	got, err := KeySource("key.csv", []byte("1,A\n2,b\nx,C\n"))
	if err != nil {
		t.Fatalf("KeySource: %v", err)
	}
	if got.Text != "" {
		t.Error("csv input must not produce text")
	}
	if len(got.Rows) != 3 {
		t.Fatalf("expected 3 rows, got %d", len(got.Rows))
	}
	if got.Rows[1][0] != "2" || got.Rows[1][1] != "b" {
		t.Errorf("row 1 = %v, want [2 b]", got.Rows[1])
	}
}

func TestKeySourceCSVRaggedRows(t *testing.T) {
	got, err := KeySource("key.csv", []byte("1,A\n2\n3,C,extra\n"))
	if err != nil {
		t.Fatalf("ragged rows must decode, parser decides validity: %v", err)
	}
	if len(got.Rows) != 3 {
		t.Errorf("expected 3 rows, got %d", len(got.Rows))
	}
}

func TestKeySourceJSON(t *testing.T) {
	got, err := KeySource("key.json", []byte(`[[1,"A"],[2,"B"]]`))
	if err != nil {
		t.Fatalf("KeySource: %v", err)
	}
	if len(got.Rows) != 2 {
		t.Fatalf("expected 2 rows, got %d", len(got.Rows))
	}
	if got.Rows[0][0] != "1" || got.Rows[0][1] != "A" {
		t.Errorf("row 0 = %v, want [1 A]", got.Rows[0])
	}
}

func TestKeySourceJSONMalformed(t *testing.T) {
	_, err := KeySource("key.json", []byte(`{"not":"an array"}`))
	var fe *FailureError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FailureError, got %v", err)
	}
	if fe.Source != "key.json" {
		t.Errorf("source = %q, want key.json", fe.Source)
	}
}

func TestKeySourceText(t *testing.T) {
	got, err := KeySource("answers.txt", []byte("1. A 2. B"))
	if err != nil {
		t.Fatalf("KeySource: %v", err)
	}
	if got.Text != "1. A 2. B" {
		t.Errorf("text = %q", got.Text)
	}
	if got.Rows != nil {
		t.Error("text input must not produce rows")
	}
}

func TestKeySourceBinaryRejected(t *testing.T) {
	_, err := KeySource("scan.png", []byte{0x89, 0x50, 0x4e, 0x47, 0xff, 0xfe})
	var fe *FailureError
	if !errors.As(err, &fe) {
		t.Fatalf("expected FailureError for binary input, got %v", err)
	}
}
