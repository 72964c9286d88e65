package share

import (
	"errors"
	"strings"
	"testing"
)

func TestLinks(t *testing.T) {
	l, err := NewLinks("https://yovo.app/")
	if err != nil {
		t.Fatal(err)
	}
	if got := l.Post("p1"); got != "https://yovo.app/post/p1" {
		t.Errorf("Post = %q", got)
	}
	if got := l.Profile("u 1"); got != "https://yovo.app/profile/u%201" {
		t.Errorf("Profile = %q", got)
	}
}

func TestNewLinksRejectsRelative(t *testing.T) {
	for _, raw := range []string{"", "yovo.app", "ftp://yovo.app", "://x"} {
		if _, err := NewLinks(raw); err == nil {
			t.Errorf("NewLinks(%q) = nil error", raw)
		}
	}
}

func TestIntent(t *testing.T) {
	link := "https://yovo.app/post/p1"
	tests := []struct {
		target Target
		want   string
	}{
		{Facebook, "https://www.facebook.com/sharer/sharer.php?u=https%3A%2F%2Fyovo.app%2Fpost%2Fp1"},
		{Twitter, "https://twitter.com/intent/tweet?url=https%3A%2F%2Fyovo.app%2Fpost%2Fp1&text=Check+this+out%21"},
		{WhatsApp, "https://wa.me/?text=https%3A%2F%2Fyovo.app%2Fpost%2Fp1"},
	}
	for _, tt := range tests {
		t.Run(string(tt.target), func(t *testing.T) {
			got, err := Intent(tt.target, link)
			if err != nil {
				t.Fatal(err)
			}
			if got != tt.want {
				t.Errorf("Intent = %q, want %q", got, tt.want)
			}
		})
	}
	if _, err := Intent("myspace", link); !errors.Is(err, ErrUnknownTarget) {
		t.Errorf("unknown target err = %v", err)
	}
}

func TestQR(t *testing.T) {
	out, err := QR("https://yovo.app/post/p1")
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) < 10 {
		t.Fatalf("got %d lines, want a full code", len(lines))
	}
	if !strings.ContainsRune(out, '█') {
		t.Error("no full blocks in QR output")
	}
	// Every line has the same width.
	w := len([]rune(lines[0]))
	for i, l := range lines {
		if len([]rune(l)) != w {
			t.Fatalf("line %d width %d, want %d", i, len([]rune(l)), w)
		}
	}
}
