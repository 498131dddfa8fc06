package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"
)

func TestSnippet_StripsMarkup(t *testing.T) {
	got := Snippet(`<p>Hello <b>robot</b> world</p><p>Second&nbsp;para &amp; more</p>`)
	want := "Hello robot world Second para & more"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestSnippet_RemovesScripts(t *testing.T) {
	got := Snippet(`<script>alert('xss')</script><p>Content</p><style>.foo{}</style>`)
	if strings.Contains(got, "alert") || strings.Contains(got, ".foo") {
		t.Errorf("expected script and style content to be removed, got: %s", got)
	}
	if got != "Content" {
		t.Errorf("expected 'Content', got %q", got)
	}
}

func TestSnippet_PlainText(t *testing.T) {
	got := Snippet("  plain\n\ttext   only ")
	if got != "plain text only" {
		t.Errorf("unexpected snippet %q", got)
	}
}

func TestSnippet_Empty(t *testing.T) {
	if got := Snippet("   "); got != "" {
		t.Errorf("expected empty snippet, got %q", got)
	}
}

func TestTruncate(t *testing.T) {
	long := strings.Repeat("a", 800)
	if got := Truncate(long, 500); len(got) != 500 {
		t.Fatalf("expected 500 chars, got %d", len(got))
	}

	short := "short"
	if got := Truncate(short, 500); got != short {
		t.Fatalf("expected unchanged string, got %q", got)
	}

	if got := Truncate("abc", 0); got != "" {
		t.Fatalf("expected empty string for zero max, got %q", got)
	}
}

func TestTruncate_CountsRunes(t *testing.T) {
	multi := strings.Repeat("ロボ", 400) // 800 runes, 2400 bytes
	got := Truncate(multi, 500)
	if n := utf8.RuneCountInString(got); n != 500 {
		t.Fatalf("expected 500 runes, got %d", n)
	}
	if !utf8.ValidString(got) {
		t.Fatal("truncation split a multi-byte character")
	}
}
