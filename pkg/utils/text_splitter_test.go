package utils

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSplitTextShortInput(t *testing.T) {
	chunks := SplitText("small", 100, 10)
	if len(chunks) != 1 || chunks[0] != "small" {
		t.Fatalf("chunks = %v", chunks)
	}
}

func TestSplitTextOverlap(t *testing.T) {
	text := "abcdefghij"
	chunks := SplitText(text, 4, 2)

	if len(chunks) < 2 {
		t.Fatalf("expected multiple chunks, got %v", chunks)
	}
	if chunks[0] != "abcd" {
		t.Fatalf("first chunk = %q", chunks[0])
	}
	if chunks[1] != "cdef" {
		t.Fatalf("second chunk = %q", chunks[1])
	}
	last := chunks[len(chunks)-1]
	if !strings.HasSuffix(text, last) {
		t.Fatalf("last chunk %q does not close out the text", last)
	}
}

func TestSplitTextCoversWholeInput(t *testing.T) {
	text := strings.Repeat("x", 997)
	chunks := SplitText(text, 100, 20)

	step := 100 - 20
	for i, chunk := range chunks[:len(chunks)-1] {
		if len(chunk) != 100 {
			t.Fatalf("chunk %d length = %d", i, len(chunk))
		}
	}
	covered := step*(len(chunks)-1) + len(chunks[len(chunks)-1])
	if covered != len(text) {
		t.Fatalf("chunks cover %d characters, text has %d", covered, len(text))
	}
	if !strings.HasSuffix(text, chunks[len(chunks)-1]) {
		t.Fatal("last chunk must end exactly at the end of the text")
	}
}

func TestSplitTextDegenerateOverlap(t *testing.T) {
	chunks := SplitText(strings.Repeat("a", 30), 10, 10)
	if len(chunks) != 3 {
		t.Fatalf("expected non-overlapping fallback, got %d chunks", len(chunks))
	}
}

func TestSplitTextMultibyte(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 10)
	chunks := SplitText(text, 8, 2)
	for i, chunk := range chunks {
		if !utf8.ValidString(chunk) {
			t.Fatalf("chunk %d split inside a rune: %q", i, chunk)
		}
		if utf8.RuneCountInString(chunk) > 8 {
			t.Fatalf("chunk %d exceeds the size limit: %q", i, chunk)
		}
	}
}
