package views

import (
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"
	"github.com/rivo/tview"
)

// clean strips codepoints tcell cannot lay out and escapes tview tags.
func clean(s string) string {
	return tview.Escape(sanitizeForTerminal(s))
}

// sanitizeForTerminal removes skin tone modifiers, zero width joiners and
// variation selectors, which tcell renders with the wrong cell width.
func sanitizeForTerminal(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if !isProblematicRune(r) {
			b.WriteRune(r)
		}
		i += size
	}
	return b.String()
}

func isProblematicRune(r rune) bool {
	switch {
	case r >= 0x1F3FB && r <= 0x1F3FF:
		return true
	case r == 0x200D:
		return true
	case r >= 0xFE00 && r <= 0xFE0F:
		return true
	case r >= 0xE0100 && r <= 0xE01EF:
		return true
	}
	return false
}

// singleLine folds newlines so a preview fits one table cell.
func singleLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// containsFold reports whether substr occurs in s, ignoring case.
func containsFold(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

// formatTimestamp shows the clock for today and the date otherwise.
func formatTimestamp(t, now time.Time) string {
	if t.IsZero() {
		return ""
	}
	t = t.Local()
	now = now.Local()
	if t.Year() == now.Year() && t.YearDay() == now.YearDay() {
		return t.Format("15:04")
	}
	if t.Year() == now.Year() {
		return t.Format("Jan 02")
	}
	return t.Format("2006-01-02")
}

// relative renders t as "3 minutes ago".
func relative(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return humanize.Time(t)
}
