package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/blogster/blogster-client/cmd/cli/config"
	"github.com/blogster/blogster-client/cmd/cli/output"
	"github.com/blogster/blogster-client/internal/blog"
	"github.com/spf13/cobra"
)

// The prompt reads a plain line from stdin, so typed characters are echoed.
const passwordUsage = "Password (prompted for on stdin when omitted; the typed password is echoed)"

// InitAuth registers the session commands (login, logout, whoami, register) on the root command.
func InitAuth(rootCmd *cobra.Command) {
	rootCmd.AddCommand(loginCmd(), logoutCmd(), whoamiCmd(), registerCmd())
}

// loginCmd logs in and stores the session in the session file.
func loginCmd() *cobra.Command {
	var email, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Log in to the blog API",
		Long:  "Authenticate with the blog API and store the session for subsequent CLI commands.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if email == "" {
				return fmt.Errorf("--email is required")
			}
			if password == "" {
				p, err := promptPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}

			store, err := config.Store()
			if err != nil {
				return err
			}
			sess, err := config.Service(store).Auth.Login(cmd.Context(), store,
				blog.Credentials{Email: email, Password: password})
			if err != nil {
				return fmt.Errorf("failed to login: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s (%s).\n", displayName(sess.Name, sess.Email), sess.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Email to authenticate as")
	cmd.Flags().StringVar(&password, "password", "", passwordUsage)

	return cmd
}

func logoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Store()
			if err != nil {
				return err
			}
			if err := config.Service(store).Auth.Logout(cmd.Context(), store); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Logged out.")
			return nil
		},
	}
}

func whoamiCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "whoami",
		Short: "Show the logged-in user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Store()
			if err != nil {
				return err
			}
			sess, err := config.RequireSession(cmd.Context(), store)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				// The token stays out of the output.
				return output.PrintJSON(out, map[string]interface{}{
					"id": sess.ID, "name": sess.Name, "email": sess.Email, "role": sess.Role,
				})
			}
			output.RenderTable(out, []string{"ID", "Name", "Email", "Role"},
				[][]interface{}{{sess.ID, sess.Name, sess.Email, sess.Role.String()}})
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func registerCmd() *cobra.Command {
	var name, email, password string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Create a new account",
		Long:  "Register a new user with the blog API. Log in afterwards with `blogster login`.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if password == "" {
				p, err := promptPassword(cmd)
				if err != nil {
					return err
				}
				password = p
			}

			store, err := config.Store()
			if err != nil {
				return err
			}
			user, err := config.Service(store).Auth.Register(cmd.Context(), blog.Registration{
				Name:     name,
				Email:    email,
				Password: password,
			})
			if err != nil {
				return fmt.Errorf("failed to register user: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "User %s registered with id %d. You can now login.\n", user.Email, user.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", passwordUsage)

	return cmd
}

// promptPassword reads one line from the command's stdin. Input is not
// hidden; pipe the password in or pass --password to keep it off screen.
func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.ErrOrStderr(), "Password (input is visible): ")
	line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("read password: %w", err)
	}
	password := strings.TrimRight(line, "\r\n")
	if password == "" {
		return "", fmt.Errorf("password is required")
	}
	return password, nil
}

func displayName(name, email string) string {
	if name == "" {
		return email
	}
	return name
}
