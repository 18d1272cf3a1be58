package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/tasklist/core/cmd/api/commands"
)

// @title Tasklist API
// @version 1.0
// @description Personal to-do RPC API

// @host localhost:3000
// @BasePath /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	rootCmd := &cobra.Command{
		Use:   "tasklist",
		Short: "TaskList API Server",
		Long:  `TaskList is a personal to-do backend with categories, tags, comments, attachments and monthly reports.`,
	}

	rootCmd.AddCommand(commands.NewServeCommand())
	rootCmd.AddCommand(commands.NewMigrateCommand())
	rootCmd.AddCommand(commands.NewSeedCommand())
	rootCmd.AddCommand(commands.NewCacheCommand())
	rootCmd.AddCommand(commands.NewRemindersCommand())
	rootCmd.AddCommand(commands.NewUserCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	if err := rootCmd.Execute(); err != nil {
		log.Printf("Command execution failed: %v", err)
		os.Exit(1)
	}
}
