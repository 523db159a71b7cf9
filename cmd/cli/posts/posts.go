package posts

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/blogster/blogster-client/cmd/cli/config"
	"github.com/blogster/blogster-client/cmd/cli/output"
	"github.com/blogster/blogster-client/internal/models"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

// InitPosts registers the posts command tree on the root command.
func InitPosts(rootCmd *cobra.Command) {
	rootCmd.AddCommand(postsCmd())
}

func postsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "posts",
		Short: "Manage blog posts",
	}
	cmd.AddCommand(listPostsCmd(), getPostCmd(), createPostCmd(), updatePostCmd(), deletePostCmd())
	return cmd
}

// listPostsCmd lists an author's posts, newest first. Without --author it
// lists the logged-in user's own posts.
func listPostsCmd() *cobra.Command {
	var author int
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List posts by author",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := config.Store()
			if err != nil {
				return err
			}
			if author <= 0 {
				sess, err := config.RequireSession(cmd.Context(), store)
				if err != nil {
					return err
				}
				author = sess.ID
			}

			posts, err := config.Service(store).Posts.ListByAuthor(cmd.Context(), author)
			if err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), posts)
			}

			rows := make([][]interface{}, 0, len(posts))
			for _, p := range posts {
				rows = append(rows, []interface{}{p.ID, p.Title, excerpt(p.Content, 40), created(p.CreatedAt)})
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Title", "Content", "Created"}, rows)
			return nil
		},
	}

	cmd.Flags().IntVar(&author, "author", 0, "Author user ID (default: yourself)")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func getPostCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "get ID",
		Short: "Show one post",
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
			post, err := config.Service(store).Posts.Get(cmd.Context(), id)
			if err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			if asJSON {
				return output.PrintJSON(cmd.OutOrStdout(), post)
			}
			output.RenderTable(cmd.OutOrStdout(), []string{"ID", "Title", "Author", "Created"},
				[][]interface{}{{post.ID, post.Title, post.AuthorID, created(post.CreatedAt)}})
			fmt.Fprintln(cmd.OutOrStdout(), post.Content)
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Output as JSON")
	return cmd
}

func createPostCmd() *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a post as the logged-in user",
		Long:  "Create a post. Pass --content - to read the body from stdin.",
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
			body, err := readContent(cmd, content)
			if err != nil {
				return err
			}

			post, err := config.Service(store).Posts.Create(cmd.Context(), models.CreatePost{
				Title:   title,
				Content: body,
				UserID:  sess.ID,
			})
			if err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created post %d.\n", post.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Post title")
	cmd.Flags().StringVar(&content, "content", "", "Post body, or - for stdin")
	return cmd
}

// updatePostCmd fetches the post first so the author and createdAt are sent
// back unchanged.
func updatePostCmd() *cobra.Command {
	var title, content string

	cmd := &cobra.Command{
		Use:   "update ID",
		Short: "Update a post",
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

			current, err := svc.Posts.Get(cmd.Context(), id)
			if err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			in := models.UpdatePost{
				ID:        id,
				Title:     current.Title,
				Content:   current.Content,
				UserID:    current.AuthorID,
				CreatedAt: current.CreatedAt,
			}
			if cmd.Flags().Changed("title") {
				in.Title = title
			}
			if cmd.Flags().Changed("content") {
				if in.Content, err = readContent(cmd, content); err != nil {
					return err
				}
			}

			if _, err := svc.Posts.Update(cmd.Context(), in); err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated post %d.\n", id)
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&content, "content", "", "New body, or - for stdin")
	return cmd
}

func deletePostCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a post",
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
			if err := config.Service(store).Posts.Delete(cmd.Context(), id); err != nil {
				return config.Unauthorized(cmd.Context(), store, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted post %d.\n", id)
			return nil
		},
	}
}

func readContent(cmd *cobra.Command, content string) (string, error) {
	if content != "-" {
		return content, nil
	}
	b, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return "", fmt.Errorf("read content: %w", err)
	}
	return strings.TrimSpace(string(b)), nil
}

func created(t models.Timestamp) string {
	if t.IsZero() {
		return ""
	}
	return t.Local().Format("2006-01-02 15:04") + " (" + humanize.Time(t.Time) + ")"
}

func excerpt(s string, n int) string {
	s = strings.Join(strings.Fields(s), " ")
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return id, nil
}
