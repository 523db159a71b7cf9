package root

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
)

// Exported RootCmd
var RootCmd = &cobra.Command{
	Use:   "blogster",
	Short: "Blogster CLI",
	Long:  "Command line interface for managing posts and users on a Blogster blog API",
	// main prints the error once; usage is only shown for flag errors.
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the CLI. Ctrl-C cancels any API call in flight.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := RootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// Optional helper to return the RootCmd
func GetRoot() *cobra.Command {
	return RootCmd
}
