package views

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/tui/ui"
)

// FeedView lists posts from followed users.
type FeedView struct {
	*tview.Table
	theme   *ui.Theme
	posts   []remote.Post
	hasMore bool
}

// NewFeedView creates the feed table.
func NewFeedView(theme *ui.Theme) *FeedView {
	table := tview.NewTable().
		SetSelectable(true, false).
		SetFixed(1, 0)
	table.SetBorder(true)

	fv := &FeedView{Table: table}
	fv.SetTheme(theme)
	return fv
}

// Name implements Component.
func (fv *FeedView) Name() string { return "Feed" }

// Hints implements Component.
func (fv *FeedView) Hints() []ui.MenuHint {
	return []ui.MenuHint{
		{Key: "l", Description: "Like"},
		{Key: "n", Description: "More"},
		{Key: "y", Description: "Share"},
		{Key: "R", Description: "Reload"},
		{Key: "Esc", Description: "Back"},
	}
}

// SetTheme implements Component.
func (fv *FeedView) SetTheme(theme *ui.Theme) {
	fv.theme = theme
	fv.SetBorderColor(theme.BorderColor)
	fv.SetBackgroundColor(theme.BgColor)
	fv.SetTitleColor(theme.TitleColor)
	fv.SetSelectedStyle(tcell.StyleDefault.
		Foreground(theme.TableCursorFg).
		Background(theme.TableCursorBg))
	fv.render()
}

// Update replaces the shown posts.
func (fv *FeedView) Update(posts []remote.Post, hasMore bool) {
	fv.posts = posts
	fv.hasMore = hasMore
	fv.render()
}

func (fv *FeedView) render() {
	fv.Clear()
	for col, h := range []string{" AUTHOR", " CAPTION", " LIKES", " COMMENTS", " POSTED"} {
		fv.SetCell(0, col, tview.NewTableCell(h).
			SetSelectable(false).
			SetTextColor(fv.theme.TableHeaderFg).
			SetBackgroundColor(fv.theme.TableHeaderBg).
			SetAttributes(tcell.AttrBold))
	}

	for i, p := range fv.posts {
		row := i + 1
		likes := fmt.Sprintf("%d", p.LikesCount)
		if p.IsLiked {
			likes = fmt.Sprintf("[%s]♥[-] %d", ui.ColorTag(fv.theme.FailedColor), p.LikesCount)
		}
		caption := singleLine(p.Caption)
		if caption == "" && len(p.Images) > 0 {
			caption = fmt.Sprintf("(%d images)", len(p.Images))
		}
		fv.SetCell(row, 0, tview.NewTableCell(" "+clean(p.User.Name(p.User.ID))).SetTextColor(fv.theme.CounterColor))
		fv.SetCell(row, 1, tview.NewTableCell(" "+clean(caption)).SetExpansion(1).SetMaxWidth(80).SetTextColor(fv.theme.FgColor))
		fv.SetCell(row, 2, tview.NewTableCell(likes).SetAlign(tview.AlignRight).SetTextColor(fv.theme.FgColor))
		fv.SetCell(row, 3, tview.NewTableCell(fmt.Sprintf("%d", p.CommentsCount)).SetAlign(tview.AlignRight).SetTextColor(fv.theme.FgColor))
		fv.SetCell(row, 4, tview.NewTableCell(" "+relative(p.CreatedAt)).SetTextColor(fv.theme.MutedColor))
	}

	more := ""
	if fv.hasMore {
		more = " n: more"
	}
	fv.SetTitle(fmt.Sprintf(" Feed (%d)%s ", len(fv.posts), more))
}

// Selected returns the id of the highlighted post.
func (fv *FeedView) Selected() string {
	row, _ := fv.GetSelection()
	if row < 1 || row > len(fv.posts) {
		return ""
	}
	return fv.posts[row-1].ID
}

// AtEnd reports whether the cursor sits on the last loaded post.
func (fv *FeedView) AtEnd() bool {
	row, _ := fv.GetSelection()
	return row == len(fv.posts)
}
