package chunk

import (
	"strings"
	"testing"
)

func TestNew_Validation(t *testing.T) {
	if _, err := New(0, 0); err == nil {
		t.Error("expected error for zero size")
	}
	if _, err := New(10, -1); err == nil {
		t.Error("expected error for negative overlap")
	}
	c, err := New(10, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if c.Size() != 10 || c.Overlap() != 3 {
		t.Errorf("got size=%d overlap=%d", c.Size(), c.Overlap())
	}
}

func TestSplit_OverlappingWindows(t *testing.T) {
	text := strings.Repeat("a", 3000)

	got := Split(text, 1200, 200)
	if len(got) != 3 {
		t.Fatalf("expected 3 chunks, got %d", len(got))
	}
	wantLens := []int{1200, 1200, 1000}
	for i, w := range wantLens {
		if len(got[i]) != w {
			t.Errorf("chunk %d: len = %d, want %d", i, len(got[i]), w)
		}
	}

	ws := Windows(text, 1200, 200)
	want := []Window{{0, 1200}, {1000, 2200}, {2000, 3000}}
	if len(ws) != len(want) {
		t.Fatalf("windows = %v", ws)
	}
	for i := range want {
		if ws[i] != want[i] {
			t.Errorf("window %d = %v, want %v", i, ws[i], want[i])
		}
	}
}

func TestSplit_Empty(t *testing.T) {
	if got := Split("", 10, 2); len(got) != 0 {
		t.Errorf("expected no chunks, got %v", got)
	}
	if got := Split("   \n\t  ", 3, 1); len(got) != 0 {
		t.Errorf("expected whitespace-only windows dropped, got %q", got)
	}
}

func TestSplit_Normalizes(t *testing.T) {
	got := Split("line1\r\nline2\x00", 100, 0)
	if len(got) != 1 || got[0] != "line1\nline2" {
		t.Errorf("got %q", got)
	}
}

func TestSplit_TerminatesWhenOverlapNotSmallerThanSize(t *testing.T) {
	text := strings.Repeat("xyz", 40)
	for _, overlap := range []int{10, 15, 1000} {
		ws := Windows(text, 10, overlap)
		if len(ws) != 12 {
			t.Errorf("overlap=%d: expected 12 windows, got %d", overlap, len(ws))
		}
		for i := 1; i < len(ws); i++ {
			if ws[i].Start <= ws[i-1].Start {
				t.Fatalf("overlap=%d: cursor did not advance at %d: %v", overlap, i, ws)
			}
		}
	}
}

func TestSplit_ReconstructsText(t *testing.T) {
	text := "The quick brown fox jumps over the lazy dog. Pack my box with five dozen liquor jugs."
	size, overlap := 16, 5

	ws := Windows(text, size, overlap)
	runes := []rune(text)
	var sb strings.Builder
	sb.WriteString(string(runes[ws[0].Start:ws[0].End]))
	for _, w := range ws[1:] {
		sb.WriteString(string(runes[w.Start+overlap : w.End]))
	}
	if sb.String() != text {
		t.Errorf("reconstruction mismatch:\ngot:  %q\nwant: %q", sb.String(), text)
	}
}

func TestSplit_MultibyteNotCutMidRune(t *testing.T) {
	text := strings.Repeat("日本語テキスト", 10)
	for _, c := range Split(text, 7, 2) {
		if !strings.Contains(text, c) {
			t.Errorf("chunk %q is not a substring of the input", c)
		}
		if n := len([]rune(c)); n > 7 {
			t.Errorf("chunk has %d runes, want <= 7", n)
		}
	}
}

func TestChunker_Split(t *testing.T) {
	c, err := New(5, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := c.Split("abcdefghij")
	if len(got) != 2 || got[0] != "abcde" || got[1] != "fghij" {
		t.Errorf("got %q", got)
	}
}
