package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yovo-social/yovo/internal/paging"
	"github.com/yovo-social/yovo/internal/remote"
	"github.com/yovo-social/yovo/internal/rpc"
	"github.com/yovo-social/yovo/internal/share"
	"github.com/yovo-social/yovo/internal/tui/client"
)

func init() {
	rootCmd.AddCommand(feedCmd, postCmd, exploreCmd, searchCmd, activityCmd, followsCmd,
		followCmd, likeCmd, commentCmd, commentsCmd, profileCmd, shareCmd)

	feedCmd.Flags().String("cursor", "", "continue from a cursor printed by a previous call")
	exploreCmd.Flags().String("posts", "", "continue the post grid from this cursor")
	exploreCmd.Flags().String("users", "", "continue the user list from this cursor")
	searchCmd.Flags().String("kind", "", "continue one list: posts, users or tags")
	searchCmd.Flags().String("cursor", "", "cursor for --kind")
	activityCmd.Flags().Int("page", 1, "page number")
	followsCmd.Flags().Bool("following", false, "list who the user follows instead of followers")
	followsCmd.Flags().Bool("all", false, "walk every page")
	followsCmd.Flags().String("cursor", "", "continue from a cursor")
	commentsCmd.Flags().String("cursor", "", "continue from a cursor")

	targets := make([]string, len(share.Targets))
	for i, t := range share.Targets {
		targets[i] = string(t)
	}
	shareCmd.Flags().String("to", "", "build a share intent for: "+strings.Join(targets, ", "))
	shareCmd.Flags().Bool("qr", false, "print a QR code")
	shareCmd.Flags().Bool("user", false, "share a profile instead of a post")
}

func printPosts(posts []remote.Post) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tAUTHOR\tLIKES\tCOMMENTS\tPOSTED\tCAPTION")
	for _, p := range posts {
		liked := ""
		if p.IsLiked {
			liked = " ♥"
		}
		fmt.Fprintf(w, "%s\t%s\t%s%s\t%s\t%s\t%s\n", p.ID, p.User.Name(p.User.ID),
			humanize.Comma(int64(p.LikesCount)), liked, humanize.Comma(int64(p.CommentsCount)),
			humanize.Time(p.CreatedAt), truncate(p.Caption, 50))
	}
	return w.Flush()
}

func printUsers(users []remote.Ref) {
	for _, u := range users {
		fmt.Printf("%s\t@%s\t%s\n", u.ID, u.Username, u.ProfileName)
	}
}

func printCursor(next string, hasMore bool) {
	if hasMore && next != "" {
		fmt.Printf("\nmore: --cursor %s\n", next)
	}
}

var feedCmd = &cobra.Command{
	Use:   "feed",
	Short: "Show the home feed",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cursor, _ := cmd.Flags().GetString("cursor")
		return withClient(func(ctx context.Context, c *client.Client) error {
			page, err := c.Feed.Feed(ctx, &rpc.CursorRequest{Cursor: cursor})
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(page)
			}
			if err := printPosts(page.Posts); err != nil {
				return err
			}
			printCursor(page.NextCursor, page.HasMore)
			return nil
		})
	},
}

var postCmd = &cobra.Command{
	Use:   "post <post-id>",
	Short: "Show one post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			p, err := c.Feed.Post(ctx, &rpc.PostRequest{PostID: args[0]})
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(p)
			}
			fmt.Printf("%s  %s\n\n%s\n\n", p.User.Name(p.User.ID), humanize.Time(p.CreatedAt), p.Caption)
			if len(p.Tags) > 0 {
				fmt.Printf("#%s\n", strings.Join(p.Tags, " #"))
			}
			for _, img := range p.Images {
				fmt.Println(img)
			}
			fmt.Printf("%s likes, %s comments\n", humanize.Comma(int64(p.LikesCount)), humanize.Comma(int64(p.CommentsCount)))
			return nil
		})
	},
}

var exploreCmd = &cobra.Command{
	Use:   "explore",
	Short: "Show trending tags, suggested users and posts",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		postCursor, _ := cmd.Flags().GetString("posts")
		userCursor, _ := cmd.Flags().GetString("users")
		return withClient(func(ctx context.Context, c *client.Client) error {
			switch {
			case postCursor != "":
				page, err := c.Feed.ExplorePosts(ctx, &rpc.CursorRequest{Cursor: postCursor})
				if err != nil {
					return err
				}
				if jsonFlag {
					return outputJSON(page)
				}
				if err := printPosts(page.Posts); err != nil {
					return err
				}
				printCursor(page.NextCursor, page.HasMore)
				return nil
			case userCursor != "":
				page, err := c.Feed.ExploreUsers(ctx, &rpc.CursorRequest{Cursor: userCursor})
				if err != nil {
					return err
				}
				if jsonFlag {
					return outputJSON(page)
				}
				printUsers(page.Users)
				printCursor(page.NextCursor, page.HasMore)
				return nil
			}

			landing, err := c.Feed.Explore(ctx)
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(landing)
			}
			fmt.Println("Tags:")
			for _, t := range landing.Tags {
				fmt.Printf("  #%s (%d)\n", t.Name, t.Count)
			}
			fmt.Println("\nUsers:")
			printUsers(landing.Users)
			fmt.Println("\nPosts:")
			return printPosts(landing.Posts)
		})
	},
}

var searchCmd = &cobra.Command{
	Use:   "search <query...>",
	Short: "Search posts, users and tags",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind, _ := cmd.Flags().GetString("kind")
		cursor, _ := cmd.Flags().GetString("cursor")
		return withClient(func(ctx context.Context, c *client.Client) error {
			res, err := c.Feed.Search(ctx, &rpc.SearchRequest{Query: strings.Join(args, " "), Kind: kind, Cursor: cursor})
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(res)
			}
			if len(res.Users) > 0 {
				fmt.Println("Users:")
				printUsers(res.Users)
			}
			if len(res.Tags) > 0 {
				fmt.Println("Tags:")
				for _, t := range res.Tags {
					fmt.Printf("  #%s\n", t.Name)
				}
			}
			if len(res.Posts) > 0 {
				fmt.Println("Posts:")
				return printPosts(res.Posts)
			}
			return nil
		})
	},
}

var activityCmd = &cobra.Command{
	Use:   "activity",
	Short: "Show notifications",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		page, _ := cmd.Flags().GetInt("page")
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Feed.Activity(ctx, &rpc.ActivityRequest{Page: page})
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(resp)
			}
			for i := range resp.Activities {
				a := &resp.Activities[i]
				fmt.Printf("%-14s %s\n", humanize.Time(a.CreatedAt), a.Describe())
			}
			if resp.HasMore() {
				fmt.Printf("\npage %d of %d: --page %d\n", resp.Page, resp.TotalPages, resp.Page+1)
			}
			return nil
		})
	},
}

var followsCmd = &cobra.Command{
	Use:   "follows <user-id>",
	Short: "List a user's followers or followings",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		kind := remote.Followers
		if following, _ := cmd.Flags().GetBool("following"); following {
			kind = remote.Following
		}
		all, _ := cmd.Flags().GetBool("all")
		cursor, _ := cmd.Flags().GetString("cursor")
		return withClient(func(ctx context.Context, c *client.Client) error {
			fetch := func(ctx context.Context, cursor string, limit int) ([]remote.Ref, string, error) {
				page, err := c.Feed.Follows(ctx, &rpc.FollowsRequest{UserID: args[0], Kind: kind, Cursor: cursor, Limit: limit})
				if err != nil {
					return nil, "", err
				}
				return page.Users, page.NextCursor, nil
			}

			if all {
				users, err := paging.New[remote.Ref](remote.FollowPageSize, fetch).Collect(ctx, 0)
				if err != nil {
					return err
				}
				if jsonFlag {
					return outputJSON(users)
				}
				printUsers(users)
				return nil
			}

			users, next, err := fetch(ctx, cursor, remote.FollowPageSize)
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(rpc.UsersPage{Users: users, NextCursor: next, HasMore: !paging.Exhausted(len(users), remote.FollowPageSize)})
			}
			printUsers(users)
			printCursor(next, !paging.Exhausted(len(users), remote.FollowPageSize))
			return nil
		})
	},
}

var followCmd = &cobra.Command{
	Use:   "follow <user-id>",
	Short: "Follow or unfollow a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Feed.ToggleFollow(ctx, &rpc.UserRequest{UserID: args[0]})
			if err != nil {
				return err
			}
			fmt.Println(yesNo(resp.Active, "following", "not following"))
			return nil
		})
	},
}

var likeCmd = &cobra.Command{
	Use:   "like <post-id>",
	Short: "Like or unlike a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Feed.Like(ctx, &rpc.PostRequest{PostID: args[0]})
			if err != nil {
				return err
			}
			fmt.Println(yesNo(resp.Active, "liked", "unliked"))
			return nil
		})
	},
}

var commentCmd = &cobra.Command{
	Use:   "comment <post-id> <text...>",
	Short: "Comment on a post",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.TrimSpace(strings.Join(args[1:], " "))
		if text == "" {
			return errors.New("comment is empty")
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Feed.Comment(ctx, &rpc.CommentRequest{PostID: args[0], Text: text})
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(resp)
			}
			if resp.Comment != nil {
				fmt.Println(resp.Comment.ID)
			}
			return nil
		})
	},
}

var commentsCmd = &cobra.Command{
	Use:   "comments <post-id>",
	Short: "List comments on a post",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cursor, _ := cmd.Flags().GetString("cursor")
		return withClient(func(ctx context.Context, c *client.Client) error {
			page, err := c.Feed.Comments(ctx, &rpc.PostRequest{PostID: args[0], Cursor: cursor})
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(page)
			}
			for _, cm := range page.Comments {
				fmt.Printf("%s (%s): %s\n", cm.User.Name(cm.User.ID), humanize.Time(cm.CreatedAt), cm.Text)
			}
			printCursor(page.NextCursor, page.HasMore)
			return nil
		})
	},
}

var profileCmd = &cobra.Command{
	Use:   "profile <user-id>",
	Short: "Show a user's profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			p, err := c.Feed.Profile(ctx, &rpc.UserRequest{UserID: args[0]})
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(p)
			}
			if err := printUser(&p.User); err != nil {
				return err
			}
			if p.IsFollowing {
				fmt.Println("You follow this user")
			}
			if p.IsPrivate {
				fmt.Println("Private account")
			}
			return nil
		})
	},
}

var shareCmd = &cobra.Command{
	Use:   "share <post-id|user-id>",
	Short: "Print a share link",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		to, _ := cmd.Flags().GetString("to")
		qr, _ := cmd.Flags().GetBool("qr")
		user, _ := cmd.Flags().GetBool("user")
		req := &rpc.ShareRequest{Target: to, QR: qr}
		if user {
			req.UserID = args[0]
		} else {
			req.PostID = args[0]
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Feed.Share(ctx, req)
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(resp)
			}
			fmt.Println(resp.URL)
			if resp.Intent != "" {
				fmt.Println(resp.Intent)
			}
			if resp.QR != "" {
				fmt.Print(resp.QR)
			}
			return nil
		})
	},
}
