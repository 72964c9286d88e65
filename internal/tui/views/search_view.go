package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/tui/ui"
)

// ResultKind tells which list a search result row came from.
type ResultKind string

const (
	ResultPost ResultKind = "post"
	ResultUser ResultKind = "user"
	ResultTag  ResultKind = "tag"
)

// Result is one selectable search row.
type Result struct {
	Kind  ResultKind
	ID    string
	Title string
	Info  string
}

// flattenResults orders users, then tags, then posts.
func flattenResults(r *remote.SearchResults) []Result {
	if r == nil {
		return nil
	}
	out := make([]Result, 0, len(r.Users)+len(r.Tags)+len(r.Posts))
	for _, u := range r.Users {
		info := ""
		if u.ProfileName != "" && u.Username != "" {
			info = "@" + u.Username
		}
		out = append(out, Result{Kind: ResultUser, ID: u.ID, Title: u.Name(u.ID), Info: info})
	}
	for _, t := range r.Tags {
		info := ""
		if t.Count > 0 {
			info = fmt.Sprintf("%d posts", t.Count)
		}
		out = append(out, Result{Kind: ResultTag, ID: t.ID, Title: "#" + t.Name, Info: info})
	}
	for _, p := range r.Posts {
		out = append(out, Result{Kind: ResultPost, ID: p.ID, Title: singleLine(p.Caption), Info: p.User.Name("")})
	}
	return out
}

// SearchView searches posts, users and tags.
type SearchView struct {
	*tview.Flex
	theme   *ui.Theme
	input   *tview.InputField
	results *tview.Table
	onQuery func(query string)
	data    []Result
}

// NewSearchView creates a new search view.
func NewSearchView(theme *ui.Theme) *SearchView {
	input := tview.NewInputField().
		SetLabel(" Search: ").
		SetFieldWidth(0)

	results := tview.NewTable().
		SetSelectable(true, false).
		SetBorders(false).
		SetFixed(1, 0)
	results.SetBorder(true)
	results.SetTitle(" Results ")

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(input, 1, 0, true).
		AddItem(results, 0, 1, false)

	sv := &SearchView{
		Flex:    flex,
		input:   input,
		results: results,
	}
	input.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter && sv.onQuery != nil && input.GetText() != "" {
			sv.onQuery(input.GetText())
		}
	})
	sv.SetTheme(theme)
	return sv
}

// Name implements Component.
func (sv *SearchView) Name() string { return "Search" }

// Hints implements Component.
func (sv *SearchView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "Enter", Description: "Search/Open"},
		{Key: "Tab", Description: "Results"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetTheme implements Component.
func (sv *SearchView) SetTheme(theme *ui.Theme) {
	sv.theme = theme
	sv.SetBackgroundColor(theme.BgColor)
	sv.input.SetBackgroundColor(theme.BgColor)
	sv.input.SetFieldBackgroundColor(theme.BgColor)
	sv.input.SetFieldTextColor(theme.FgColor)
	sv.input.SetLabelColor(theme.MenuKeyColor)
	sv.results.SetBorderColor(theme.BorderColor)
	sv.results.SetBackgroundColor(theme.BgColor)
	sv.results.SetTitleColor(theme.TitleColor)
	sv.results.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	sv.render()
}

// SetOnQuery sets the callback when a search query is submitted.
func (sv *SearchView) SetOnQuery(fn func(query string)) {
	sv.onQuery = fn
}

// Query fills the input with query and submits it.
func (sv *SearchView) Query(query string) {
	sv.input.SetText(query)
	if sv.onQuery != nil {
		sv.onQuery(query)
	}
}

// Update refreshes search results.
func (sv *SearchView) Update(results *remote.SearchResults) {
	sv.data = flattenResults(results)
	sv.render()
}

func (sv *SearchView) render() {
	sv.results.Clear()
	for col, h := range []string{" KIND", " RESULT", " INFO"} {
		sv.results.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(sv.theme.TableHeaderFg).
			SetBackgroundColor(sv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}
	for i, r := range sv.data {
		row := i + 1
		sv.results.SetCell(row, 0, tview.NewTableCell(" "+string(r.Kind)).SetTextColor(sv.theme.MutedColor))
		sv.results.SetCell(row, 1, tview.NewTableCell(" "+clean(r.Title)).SetExpansion(1).SetMaxWidth(80).SetTextColor(sv.theme.FgColor))
		sv.results.SetCell(row, 2, tview.NewTableCell(" "+clean(r.Info)).SetTextColor(sv.theme.CounterColor))
	}
	sv.results.SetTitle(fmt.Sprintf(" Results (%d) ", len(sv.data)))
}

// Selected returns the highlighted result.
func (sv *SearchView) Selected() (Result, bool) {
	row, _ := sv.results.GetSelection()
	if row < 1 || row > len(sv.data) {
		return Result{}, false
	}
	return sv.data[row-1], true
}

// Input returns the search input field.
func (sv *SearchView) Input() *tview.InputField {
	return sv.input
}

// Results returns the results table.
func (sv *SearchView) Results() *tview.Table {
	return sv.results
}
