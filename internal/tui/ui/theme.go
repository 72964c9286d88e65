package ui

import (
	"github.com/gdamore/tcell/v2"

	"github.com/yovo-social/yovo/internal/store"
)

// Theme holds color constants for the TUI.
type Theme struct {
	Name              string
	BgColor           tcell.Color
	FgColor           tcell.Color
	MutedColor        tcell.Color
	BorderColor       tcell.Color
	BorderFocusColor  tcell.Color
	TableHeaderFg     tcell.Color
	TableHeaderBg     tcell.Color
	TableCursorFg     tcell.Color
	TableCursorBg     tcell.Color
	CrumbActiveFg     tcell.Color
	CrumbActiveBg     tcell.Color
	CrumbInactiveFg   tcell.Color
	CrumbInactiveBg   tcell.Color
	MenuKeyColor      tcell.Color
	NumericKeyColor   tcell.Color
	TitleColor        tcell.Color
	CounterColor      tcell.Color
	OnlineColor       tcell.Color
	PendingColor      tcell.Color
	FailedColor       tcell.Color
	FlashInfoColor    tcell.Color
	FlashWarnColor    tcell.Color
	FlashErrColor     tcell.Color
	PromptBorderColor tcell.Color
}

// DarkTheme returns a k9s-inspired dark theme.
func DarkTheme() *Theme {
	return &Theme{
		Name:              store.ThemeDark,
		BgColor:           tcell.ColorBlack,
		FgColor:           tcell.ColorCadetBlue,
		MutedColor:        tcell.ColorGray,
		BorderColor:       tcell.ColorDodgerBlue,
		BorderFocusColor:  tcell.ColorLightSkyBlue,
		TableHeaderFg:     tcell.ColorWhite,
		TableHeaderBg:     tcell.ColorBlack,
		TableCursorFg:     tcell.ColorBlack,
		TableCursorBg:     tcell.ColorAqua,
		CrumbActiveFg:     tcell.ColorBlack,
		CrumbActiveBg:     tcell.ColorOrange,
		CrumbInactiveFg:   tcell.ColorBlack,
		CrumbInactiveBg:   tcell.ColorAqua,
		MenuKeyColor:      tcell.ColorDodgerBlue,
		NumericKeyColor:   tcell.ColorFuchsia,
		TitleColor:        tcell.ColorFuchsia,
		CounterColor:      tcell.ColorPapayaWhip,
		OnlineColor:       tcell.ColorLime,
		PendingColor:      tcell.ColorGray,
		FailedColor:       tcell.ColorOrangeRed,
		FlashInfoColor:    tcell.ColorNavajoWhite,
		FlashWarnColor:    tcell.ColorOrange,
		FlashErrColor:     tcell.ColorOrangeRed,
		PromptBorderColor: tcell.ColorDodgerBlue,
	}
}

// LightTheme returns the light palette, the default for new sessions.
func LightTheme() *Theme {
	return &Theme{
		Name:              store.ThemeLight,
		BgColor:           tcell.ColorWhite,
		FgColor:           tcell.ColorBlack,
		MutedColor:        tcell.ColorDimGray,
		BorderColor:       tcell.ColorSteelBlue,
		BorderFocusColor:  tcell.ColorNavy,
		TableHeaderFg:     tcell.ColorNavy,
		TableHeaderBg:     tcell.ColorWhite,
		TableCursorFg:     tcell.ColorWhite,
		TableCursorBg:     tcell.ColorSteelBlue,
		CrumbActiveFg:     tcell.ColorWhite,
		CrumbActiveBg:     tcell.ColorDarkOrange,
		CrumbInactiveFg:   tcell.ColorWhite,
		CrumbInactiveBg:   tcell.ColorSteelBlue,
		MenuKeyColor:      tcell.ColorSteelBlue,
		NumericKeyColor:   tcell.ColorPurple,
		TitleColor:        tcell.ColorPurple,
		CounterColor:      tcell.ColorMaroon,
		OnlineColor:       tcell.ColorGreen,
		PendingColor:      tcell.ColorDimGray,
		FailedColor:       tcell.ColorRed,
		FlashInfoColor:    tcell.ColorNavy,
		FlashWarnColor:    tcell.ColorDarkOrange,
		FlashErrColor:     tcell.ColorRed,
		PromptBorderColor: tcell.ColorSteelBlue,
	}
}

// ThemeFor maps a stored preference to a palette. Unknown names get the
// light theme.
func ThemeFor(name string) *Theme {
	if name == store.ThemeDark {
		return DarkTheme()
	}
	return LightTheme()
}
