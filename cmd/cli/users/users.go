package users

import (
	"fmt"
	"strconv"

	"github.com/blogster/blogster-client/cmd/cli/config"
	"github.com/blogster/blogster-client/cmd/cli/output"
	"github.com/blogster/blogster-client/internal/models"
	"github.com/spf13/cobra"
)

// InitUsers registers the users command tree on the root command.
func InitUsers(rootCmd *cobra.Command) {
	rootCmd.AddCommand(usersCmd())
}

func usersCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "users",
		Short: "Manage user accounts",
	}
	cmd.AddCommand(listUsersCmd(), getUserCmd(), createUserCmd(), updateUserCmd(), deleteUserCmd())
	return cmd
}

// ==========================
// List / Get
// ==========================
func listUsersCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all users",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Store()
			if err != nil {
				return err
			}
			users, err := config.Service(store).Users.List(cmd.Context())
			if err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			return printUsers(cmd, asJSON, users)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func getUserCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := config.Store()
			if err != nil {
				return err
			}
			user, err := config.Service(store).Users.Get(cmd.Context(), id)
			if err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), user)
			}
			return printUsers(cmd, false, []models.User{user})
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func printUsers(cmd *cobra.Command, asJSON bool, users []models.User) error {
	if asJSON {
		return output.PrintJSON(cmd.OutOrStdout(), users)
	}
	rows := make([][]interface{}, 0, len(users))
	for _, u := range users {
		rows = append(rows, []interface{}{u.ID, u.Name, u.Email, u.Role.String()})
	}
	output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Name", "Email", "Role"}, rows)
	return nil
}

// ==========================
// Create / Update / Delete
// ==========================
func createUserCmd() *cobra.Command {
	var name, email, password, role string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Store()
			if err != nil {
				return err
			}
			r := models.ParseRole(role)
			user, err := config.Service(store).Users.Create(cmd.Context(), models.CreateUser{
				Name:     name,
				Email:    email,
				Password: password,
				Role:     &r,
			})
			if err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created user %d (%s).\n", user.ID, user.Email)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name")
	cmd.Flags().StringVar(&email, "email", "", "Email address")
	cmd.Flags().StringVar(&password, "password", "", "Initial password")
	cmd.Flags().StringVar(&role, "role", "user", "Role: admin or user")
	return cmd
}

// updateUserCmd only changes the fields whose flags are given; the rest are
// taken from the user as the API currently has it.
func updateUserCmd() *cobra.Command {
	var name, email, role string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := config.Store()
			if err != nil {
				return err
			}
			svc := config.Service(store)

			current, err := svc.Users.Get(cmd.Context(), id)
			if err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			in := models.UpdateUser{ID: id, Name: current.Name, Email: current.Email, Role: current.Role}
			if cmd.Flags().Changed("name") {
				in.Name = name
			}
			if cmd.Flags().Changed("email") {
				in.Email = email
			}
			if cmd.Flags().Changed("role") {
				in.Role = models.ParseRole(role)
			}

			user, err := svc.Users.Update(cmd.Context(), in)
			if err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated user %d (%s, %s).\n", id, user.Name, user.Role)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New display name")
	cmd.Flags().StringVar(&email, "email", "", "New email address")
	cmd.Flags().StringVar(&role, "role", "", "New role: admin or user")
	return cmd
}

func deleteUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a user",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			store, err := config.Store()
			if err != nil {
				return err
			}
			if err := config.Service(store).Users.Delete(cmd.Context(), id); err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted user %d.\n", id)
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
