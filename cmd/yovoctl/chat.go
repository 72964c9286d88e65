package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/yovo-social/yovo/internal/chat"
	"github.com/yovo-social/yovo/internal/rpc"
	"github.com/yovo-social/yovo/internal/tui/client"
)

func init() {
	rootCmd.AddCommand(chatsCmd, messagesCmd, sendCmd, retryCmd, onlineCmd, newChatCmd, hideCmd, groupCmd)

	chatsCmd.Flags().Bool("refresh", false, "reload the list from the server")
	messagesCmd.Flags().Int("older", 0, "also load this many older pages")

	groupCmd.AddCommand(groupRenameCmd, groupLeaveCmd, groupDeleteCmd)
	hideCmd.Flags().Bool("undo", false, "unhide instead")
}

var chatsCmd = &cobra.Command{
	Use:     "chats",
	Aliases: []string{"conversations"},
	Short:   "List conversations",
	Args:    cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		refresh, _ := cmd.Flags().GetBool("refresh")
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Chat.ListConversations(ctx, &rpc.ListConversationsRequest{Refresh: refresh})
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(resp)
			}
			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tNAME\tUNREAD\tONLINE\tLAST MESSAGE\tWHEN")
			for _, cv := range resp.Conversations {
				last, when := "", humanize.Time(cv.UpdatedAt)
				if cv.LastMessage != nil {
					last = truncate(cv.LastMessage.Text, 40)
					when = humanize.Time(cv.LastMessage.CreatedAt)
				}
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%s\t%s\n", cv.ID, cv.Label, cv.UnreadCount, yesNo(cv.Online, "yes", ""), last, when)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Printf("\n%s unread\n", humanize.Comma(int64(resp.TotalUnread)))
			return nil
		})
	},
}

// truncate shortens s to n runes on a single line.
func truncate(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func printMessages(resp *rpc.MessagesResponse) error {
	if jsonFlag {
		return outputJSON(resp)
	}
	if resp.Conversation != nil {
		fmt.Printf("== %s ==\n", resp.Conversation.Label)
	}
	if resp.HasMore {
		fmt.Println("(older messages available: --older N)")
	}
	for _, m := range resp.Messages {
		state := ""
		switch m.State {
		case chat.Pending:
			state = " [sending]"
		case chat.Failed:
			state = fmt.Sprintf(" [failed: %s, retry %s]", m.Error, m.ID)
		}
		fmt.Printf("%s  %s%s\n  %s\n", m.CreatedAt.Local().Format("2006-01-02 15:04"), m.Sender.Name(m.Sender.ID), state, m.Text)
	}
	return nil
}

var messagesCmd = &cobra.Command{
	Use:     "messages <conversation-id>",
	Aliases: []string{"open"},
	Short:   "Open a conversation and print its messages",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		older, _ := cmd.Flags().GetInt("older")
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Chat.OpenConversation(ctx, &rpc.ConversationRequest{ConversationID: args[0]})
			if err != nil {
				return err
			}
			for i := 0; i < older && resp.HasMore; i++ {
				more, err := c.Chat.LoadOlder(ctx)
				if err != nil {
					return err
				}
				resp = &more.MessagesResponse
				if more.Added == 0 {
					break
				}
			}
			return printMessages(resp)
		})
	},
}

var sendCmd = &cobra.Command{
	Use:   "send <conversation-id> <text...>",
	Short: "Send a text message",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		text := strings.Join(args[1:], " ")
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Chat.SendText(ctx, &rpc.SendTextRequest{ConversationID: args[0], Text: text})
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(resp)
			}
			fmt.Printf("queued %s\n", resp.Message.ID)
			return nil
		})
	},
}

var retryCmd = &cobra.Command{
	Use:   "retry <conversation-id> <client-id>",
	Short: "Resend a failed message",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !chat.IsTempID(args[1]) {
			return fmt.Errorf("%q is not a client message id", args[1])
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			if _, err := c.Chat.OpenConversation(ctx, &rpc.ConversationRequest{ConversationID: args[0]}); err != nil {
				return err
			}
			return c.Chat.RetrySend(ctx, &rpc.RetrySendRequest{ClientID: args[1]})
		})
	},
}

var onlineCmd = &cobra.Command{
	Use:   "online",
	Short: "List online user ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Chat.GetOnlineUsers(ctx)
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(resp)
			}
			for _, id := range resp.UserIDs {
				fmt.Println(id)
			}
			return nil
		})
	},
}

var newChatCmd = &cobra.Command{
	Use:   "new-chat <user-id>",
	Short: "Start a conversation with a user",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Chat.CreateConversation(ctx, &rpc.CreateConversationRequest{UserID: args[0]})
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(resp)
			}
			fmt.Printf("%s\t%s\n", resp.Conversation.ID, resp.Conversation.Label)
			return nil
		})
	},
}

var hideCmd = &cobra.Command{
	Use:   "hide <conversation-id>",
	Short: "Hide a conversation from the list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		undo, _ := cmd.Flags().GetBool("undo")
		req := &rpc.ConversationRequest{ConversationID: args[0]}
		return withClient(func(ctx context.Context, c *client.Client) error {
			if undo {
				return c.Chat.UnhideConversation(ctx, req)
			}
			return c.Chat.HideConversation(ctx, req)
		})
	},
}

var groupCmd = &cobra.Command{
	Use:   "group",
	Short: "Manage group conversations",
}

var groupRenameCmd = &cobra.Command{
	Use:   "rename <conversation-id> <name...>",
	Short: "Rename a group",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			return c.Chat.RenameGroup(ctx, &rpc.RenameGroupRequest{ConversationID: args[0], Name: strings.Join(args[1:], " ")})
		})
	},
}

var groupLeaveCmd = &cobra.Command{
	Use:   "leave <conversation-id>",
	Short: "Leave a group",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			return c.Chat.LeaveGroup(ctx, &rpc.ConversationRequest{ConversationID: args[0]})
		})
	},
}

var groupDeleteCmd = &cobra.Command{
	Use:   "delete <conversation-id>",
	Short: "Delete a group you administer",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			return c.Chat.DeleteGroup(ctx, &rpc.ConversationRequest{ConversationID: args[0]})
		})
	},
}
