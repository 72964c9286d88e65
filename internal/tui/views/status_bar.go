package views

import (
	"fmt"
	"time"

	"github.com/rivo/tview"

	"github.com/yovo-social/yovo/internal/rpc"
	"github.com/yovo-social/yovo/internal/status"
	"github.com/yovo-social/yovo/internal/tui/ui"
)

// StatusBar displays the session state on one line.
type StatusBar struct {
	*tview.TextView
	theme  *ui.Theme
	status *rpc.StatusResponse
	now    func() time.Time
}

// NewStatusBar creates a new status bar.
func NewStatusBar(theme *ui.Theme) *StatusBar {
	tv := tview.NewTextView().
		SetDynamicColors(true)

	sb := &StatusBar{TextView: tv, now: time.Now}
	sb.SetTheme(theme)
	return sb
}

// SetTheme repaints the bar.
func (sb *StatusBar) SetTheme(theme *ui.Theme) {
	sb.theme = theme
	sb.SetBackgroundColor(theme.BgColor)
	sb.render()
}

// SetStatus updates the status display.
func (sb *StatusBar) SetStatus(st *rpc.StatusResponse) {
	sb.status = st
	sb.render()
}

// Tick redraws time-dependent parts such as the cooldown countdown.
func (sb *StatusBar) Tick() {
	sb.render()
}

func (sb *StatusBar) render() {
	sb.Clear()
	_, _ = fmt.Fprint(sb, statusLine(sb.status, sb.theme, sb.now()))
}

func statusLine(st *rpc.StatusResponse, theme *ui.Theme, now time.Time) string {
	if st == nil {
		return " connecting to daemon…"
	}

	state := string(st.State)
	switch st.State {
	case status.Ready:
		state = fmt.Sprintf("[%s]%s[-]", ui.ColorTag(theme.OnlineColor), state)
	case status.Error, status.SignedOut:
		state = fmt.Sprintf("[%s]%s[-]", ui.ColorTag(theme.FailedColor), state)
	}
	line := fmt.Sprintf(" [::b]%s[-:-:-] | %s", tview.Escape(st.Session), state)

	if st.User != nil {
		line += " | @" + tview.Escape(st.User.Username)
	}
	if st.Connected {
		line += fmt.Sprintf(" [%s]●[-]", ui.ColorTag(theme.OnlineColor))
	}
	if st.UnreadMessages > 0 {
		line += fmt.Sprintf(" | [%s]%d unread[-]", ui.ColorTag(theme.CounterColor), st.UnreadMessages)
	}
	if st.RateLimited {
		if left := st.CooldownUntil.Sub(now); left > 0 {
			line += fmt.Sprintf(" | [%s]rate limited, retry in %s[-]", ui.ColorTag(theme.FlashWarnColor), ui.FormatCooldown(left))
		}
	}
	return line
}
