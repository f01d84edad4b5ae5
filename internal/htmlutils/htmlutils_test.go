package htmlutils

import "testing"

func TestCleanText(t *testing.T) {
	in := "  <b>速報</b>: AI&amp;ML の\n\n最新動向 <img src=\"x\"> "
	got := CleanText(in)
	want := "速報 : AI&ML の 最新動向"

	if got != want {
		t.Fatalf("CleanText = %q, want %q", got, want)
	}
}

func TestCleanTextPlain(t *testing.T) {
	if got := CleanText("plain title"); got != "plain title" {
		t.Fatalf("CleanText = %q", got)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("こんにちは世界", 5); got != "こんにちは…" {
		t.Fatalf("TruncateRunes = %q", got)
	}

	if got := TruncateRunes("short", 10); got != "short" {
		t.Fatalf("TruncateRunes = %q", got)
	}
}
