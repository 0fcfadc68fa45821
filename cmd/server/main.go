package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// @title           chatcore API
// @version         1.0
// @description     Conversations, reactions and notifications.

// @BasePath        /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func newRootCommand() *cobra.Command {
	serve := newServeCommand()

	cmd := &cobra.Command{
		Use:           "chatcore",
		Short:         "Messaging backend: conversations, reactions and notifications",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          serve.RunE,
	}

	cmd.AddCommand(
		serve,
		newMigrateCommand(),
		newUserCommand(),
	)
	return cmd
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "chatcore:", err)
		os.Exit(1)
	}
}
