package views

import (
	"strings"

	"github.com/rivo/tview"

	"github.com/yovo-social/yovo/internal/tui/ui"
)

// LoginView asks for credentials while the session is signed out.
type LoginView struct {
	*tview.Form
	theme    *ui.Theme
	onSubmit func(username, password string)
	message  string
}

// NewLoginView creates the sign-in form.
func NewLoginView(theme *ui.Theme) *LoginView {
	lv := &LoginView{Form: tview.NewForm()}
	lv.SetBorder(true)
	lv.SetTitle(" Sign in ")

	lv.AddInputField("Username", "", 32, nil, nil)
	lv.AddPasswordField("Password", "", 32, '*', nil)
	lv.AddButton("Sign in", lv.submit)
	lv.AddTextView("", "", 48, 2, true, false)

	lv.SetTheme(theme)
	return lv
}

// Name implements Component.
func (lv *LoginView) Name() string { return "Sign in" }

// Hints implements Component.
func (lv *LoginView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "Enter", Description: "Sign in"},
		{Key: "Ctrl-C", Description: "Quit"},
	}
}

// SetTheme implements Component.
func (lv *LoginView) SetTheme(theme *ui.Theme) {
	lv.theme = theme
	lv.SetBorderColor(theme.BorderColor)
	lv.SetBackgroundColor(theme.BgColor)
	lv.SetTitleColor(theme.TitleColor)
	lv.SetLabelColor(theme.MenuKeyColor)
	lv.SetFieldBackgroundColor(theme.BgColor)
	lv.SetFieldTextColor(theme.FgColor)
	lv.SetButtonBackgroundColor(theme.TableCursorBg)
	lv.SetButtonTextColor(theme.TableCursorFg)
	lv.ShowMessage(lv.message, false)
}

// SetOnSubmit sets the callback run with the entered credentials.
func (lv *LoginView) SetOnSubmit(fn func(username, password string)) {
	lv.onSubmit = fn
}

func (lv *LoginView) submit() {
	username := strings.TrimSpace(lv.field("Username").GetText())
	password := lv.field("Password").GetText()
	if username == "" || password == "" {
		lv.ShowMessage("username and password are required", true)
		return
	}
	if lv.onSubmit != nil {
		lv.ShowMessage("signing in…", false)
		lv.onSubmit(username, password)
	}
}

func (lv *LoginView) field(label string) *tview.InputField {
	return lv.GetFormItemByLabel(label).(*tview.InputField)
}

// ShowMessage shows a status line under the form.
func (lv *LoginView) ShowMessage(msg string, isErr bool) {
	lv.message = msg
	tv, ok := lv.GetFormItem(lv.GetFormItemCount() - 1).(*tview.TextView)
	if !ok {
		return
	}
	color := lv.theme.FgColor
	if isErr {
		color = lv.theme.FlashErrColor
	}
	tv.SetTextColor(color)
	tv.SetBackgroundColor(lv.theme.BgColor)
	tv.SetText(msg)
}

// Reset clears the password so a signed-out session starts fresh.
func (lv *LoginView) Reset() {
	lv.field("Password").SetText("")
	lv.SetFocus(0)
}
