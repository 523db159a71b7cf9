package main

import (
	"github.com/blogster/blogster-client/cmd/cli/auth"
	"github.com/blogster/blogster-client/cmd/cli/posts"
	"github.com/blogster/blogster-client/cmd/cli/root"
	"github.com/blogster/blogster-client/cmd/cli/users"
)

func main() {
	rootCmd := root.GetRoot()
	auth.InitAuth(rootCmd)
	users.InitUsers(rootCmd)
	posts.InitPosts(rootCmd)

	root.Execute()
}
