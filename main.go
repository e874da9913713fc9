package main

import (
	"fmt"
	"os"

	"github.com/mattsolo1/grove-core/cli"
	"github.com/spf13/cobra"

	"github.com/RyanGreenup/lilium-sub000/cmd"
	"github.com/RyanGreenup/lilium-sub000/cmd/config"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var (
	svc   *service.Service
	owner string
)

// skipService lists commands that run without opening the database.
var skipService = map[string]bool{
	"version":    true,
	"help":       true,
	"completion": true,
}

func main() {
	rootCmd := cli.NewStandardCommand(
		"lilium",
		"A hierarchical note store with materialized paths",
	)
	config.AddGlobalFlags(rootCmd)
	cobra.OnInitialize(config.InitConfig)

	rootCmd.PersistentPreRunE = func(c *cobra.Command, args []string) error {
		// This runs once before any subcommand
		for p := c; p != nil; p = p.Parent() {
			if skipService[p.Name()] {
				return nil
			}
		}

		owner = config.ResolveOwner()

		var err error
		svc, err = config.InitService()
		if err != nil {
			return fmt.Errorf("failed to initialize service: %w", err)
		}
		return nil
	}
	rootCmd.PersistentPostRunE = func(c *cobra.Command, args []string) error {
		if svc == nil {
			return nil
		}
		return svc.Close()
	}

	// Add subcommands
	rootCmd.AddCommand(cmd.NewMkdirCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewNewCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewRenameCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewMvCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewRmCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewConvertCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewPathCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewResolveCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewAncestorsCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewLsCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewFindCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewTreeCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewCatCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewEditCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewSyntaxCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewSearchCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewHistoryCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewCheckCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewRebuildCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewBackupCmd(&svc))
	rootCmd.AddCommand(cmd.NewExportCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewImportCmd(&svc, &owner))
	rootCmd.AddCommand(cmd.NewVersionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
