package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/yovo-social/yovo/internal/auth"
	"github.com/yovo-social/yovo/internal/rpc"
	"github.com/yovo-social/yovo/internal/session"
	"github.com/yovo-social/yovo/internal/tui/client"
	"github.com/yovo-social/yovo/internal/validate"
)

func init() {
	rootCmd.AddCommand(statusCmd, loginCmd, registerCmd, logoutCmd, meCmd, sessionsCmd, themeCmd)

	loginCmd.Flags().StringP("password", "p", "", "password (prompted when omitted)")
	registerCmd.Flags().String("email", "", "email address")
	registerCmd.Flags().StringP("password", "p", "", "password (prompted when omitted)")
	_ = registerCmd.MarkFlagRequired("email")
	logoutCmd.Flags().Bool("all", false, "sign out every device")
	logoutCmd.Flags().Bool("others", false, "sign out every other device")

	themeCmd.AddCommand(themeGetCmd, themeSetCmd)
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show session status",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			st, err := c.Session.GetStatus(ctx)
			if err != nil {
				return err
			}
			if jsonFlag {
				return outputJSON(st)
			}
			printStatus(st)
			return nil
		})
	},
}

func printStatus(st *rpc.StatusResponse) {
	fmt.Printf("Session:   %s\n", st.Session)
	fmt.Printf("State:     %s\n", st.State)
	fmt.Printf("Server:    %s\n", st.ServerURL)
	if st.User != nil {
		fmt.Printf("User:      %s (@%s)\n", st.User.DisplayName(), st.User.Username)
	}
	fmt.Printf("Realtime:  %s\n", yesNo(st.Connected, "connected", "disconnected"))
	fmt.Printf("Unread:    %s\n", humanize.Comma(int64(st.UnreadMessages)))
	if !st.TokenExpiry.IsZero() {
		fmt.Printf("Token:     expires %s\n", humanize.Time(st.TokenExpiry))
	}
	if st.RateLimited {
		fmt.Printf("Cooldown:  until %s\n", st.CooldownUntil.Local().Format(time.Kitchen))
	}
	fmt.Printf("Uptime:    %s\n", (time.Duration(st.UptimeMs) * time.Millisecond).Round(time.Second))
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}

// readPassword returns the --password flag or prompts without echo.
func readPassword(cmd *cobra.Command) (string, error) {
	if p, _ := cmd.Flags().GetString("password"); p != "" {
		return p, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			return "", errors.New("no password on stdin")
		}
		return strings.TrimRight(line, "\r\n"), nil
	}
	fmt.Fprint(os.Stderr, "Password: ")
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return string(b), nil
}

func printUser(u *auth.User) error {
	if jsonFlag {
		return outputJSON(u)
	}
	if u == nil {
		fmt.Println("not signed in")
		return nil
	}
	fmt.Printf("%s (@%s)\n", u.DisplayName(), u.Username)
	if u.Email != "" {
		fmt.Printf("Email:     %s\n", u.Email)
	}
	if u.Bio != "" {
		fmt.Printf("Bio:       %s\n", u.Bio)
	}
	fmt.Printf("Followers: %s  Following: %s\n", humanize.Comma(int64(u.Followers)), humanize.Comma(int64(u.Following)))
	return nil
}

var loginCmd = &cobra.Command{
	Use:   "login <username>",
	Short: "Sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		if err := validate.Login(args[0], password); err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Session.Login(ctx, &rpc.LoginRequest{Username: args[0], Password: password})
			if err != nil {
				return err
			}
			return printUser(resp.User)
		})
	},
}

var registerCmd = &cobra.Command{
	Use:   "register <username>",
	Short: "Create an account and sign in",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		email, _ := cmd.Flags().GetString("email")
		password, err := readPassword(cmd)
		if err != nil {
			return err
		}
		if err := validate.Register(args[0], email, password); err != nil {
			return err
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Session.Register(ctx, &rpc.RegisterRequest{Username: args[0], Email: email, Password: password})
			if err != nil {
				return err
			}
			return printUser(resp.User)
		})
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		others, _ := cmd.Flags().GetBool("others")
		if all && others {
			return errors.New("--all and --others are mutually exclusive")
		}
		var password string
		if all || others {
			var err error
			if password, err = readPassword(cmd); err != nil {
				return err
			}
		}
		return withClient(func(ctx context.Context, c *client.Client) error {
			switch {
			case all:
				return c.Session.LogoutAll(ctx, &rpc.PasswordRequest{Password: password})
			case others:
				_, err := c.Session.LogoutOtherSessions(ctx, &rpc.PasswordRequest{Password: password})
				if err == nil {
					fmt.Println("other sessions signed out")
				}
				return err
			}
			return c.Session.Logout(ctx)
		})
	},
}

var meCmd = &cobra.Command{
	Use:   "me",
	Short: "Show the signed-in user",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Session.Me(ctx)
			if err != nil {
				return err
			}
			return printUser(resp.User)
		})
	},
}

var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List local sessions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		names, err := session.List()
		if err != nil {
			return err
		}
		if jsonFlag {
			return outputJSON(names)
		}
		current := session.Resolve(sessionFlag)
		for _, n := range names {
			marker := " "
			if n == current {
				marker = "*"
			}
			fmt.Printf("%s %s\n", marker, n)
		}
		return nil
	},
}

var themeCmd = &cobra.Command{
	Use:   "theme",
	Short: "Get or set the interface theme",
}

var themeGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the stored theme",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Session.GetTheme(ctx)
			if err != nil {
				return err
			}
			fmt.Println(resp.Theme)
			return nil
		})
	},
}

var themeSetCmd = &cobra.Command{
	Use:       "set <light|dark>",
	Short:     "Store the theme",
	Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	ValidArgs: []string{"light", "dark"},
	RunE: func(cmd *cobra.Command, args []string) error {
		return withClient(func(ctx context.Context, c *client.Client) error {
			resp, err := c.Session.SetTheme(ctx, &rpc.ThemeRequest{Theme: args[0]})
			if err != nil {
				return err
			}
			fmt.Println(resp.Theme)
			return nil
		})
	},
}
