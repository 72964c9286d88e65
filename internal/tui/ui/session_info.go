package ui

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rivo/tview"
)

// SessionData holds session information for display.
type SessionData struct {
	Session   string
	User      string
	Status    string
	Connected bool
	Unread    int
	Online    int
	StartedAt time.Time
	Cooldown  time.Duration
}

// SessionInfo displays session metadata in the header.
type SessionInfo struct {
	*tview.TextView
	theme *Theme
	data  *SessionData
}

// NewSessionInfo creates a new session info panel.
func NewSessionInfo(theme *Theme) *SessionInfo {
	tv := tview.NewTextView().
		SetDynamicColors(true)
	tv.SetBorderPadding(0, 0, 1, 1)

	si := &SessionInfo{TextView: tv}
	si.SetTheme(theme)
	return si
}

// SetTheme repaints the panel.
func (si *SessionInfo) SetTheme(theme *Theme) {
	si.theme = theme
	si.SetBackgroundColor(theme.BgColor)
	si.Update(si.data)
}

// Update renders the session info.
func (si *SessionInfo) Update(data *SessionData) {
	si.data = data
	si.Clear()
	if data == nil {
		return
	}

	fg := colorName(si.theme.FgColor)
	counter := colorName(si.theme.CounterColor)

	user := data.User
	if user == "" {
		user = "-"
	}
	link := "offline"
	if data.Connected {
		link = fmt.Sprintf("[%s]live[-]", colorName(si.theme.OnlineColor))
	}
	status := data.Status
	if data.Cooldown > 0 {
		status = fmt.Sprintf("[%s]%s (%s)[-]", colorName(si.theme.FlashWarnColor), status, FormatCooldown(data.Cooldown))
	}
	since := "-"
	if !data.StartedAt.IsZero() {
		since = humanize.Time(data.StartedAt)
	}

	_, _ = fmt.Fprintf(si,
		"[%s::b]Session:[-:-:-] [%s]%s[-]\n"+
			"[%s::b]User:[-:-:-]    [%s]%s[-]\n"+
			"[%s::b]Status:[-:-:-]  [%s]%s[-] %s\n"+
			"[%s::b]Unread:[-:-:-]  [%s]%d[-]\n"+
			"[%s::b]Online:[-:-:-]  [%s]%d[-]\n"+
			"[%s::b]Up:[-:-:-]      [%s]%s[-]",
		fg, counter, tview.Escape(data.Session),
		fg, counter, tview.Escape(user),
		fg, counter, status, link,
		fg, counter, data.Unread,
		fg, counter, data.Online,
		fg, counter, since,
	)
}

// FormatCooldown renders a remaining cooldown as whole seconds, rounding up
// so a live window never shows 0s.
func FormatCooldown(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	secs := (d + time.Second - 1) / time.Second
	if secs < 60 {
		return fmt.Sprintf("%ds", secs)
	}
	return fmt.Sprintf("%dm%02ds", secs/60, secs%60)
}
