package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/cmd/config"
	"github.com/RyanGreenup/lilium-sub000/pkg/backup"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var backupUlog = grovelogging.NewUnifiedLogger("lilium.cmd.backup")

func NewBackupCmd(svc **service.Service) *cobra.Command {
	var (
		once bool
		list bool
	)

	cmd := &cobra.Command{
		Use:   "backup",
		Short: "Take tiered snapshots of the database",
		Long: `Take snapshots of the database into hourly, daily, weekly and monthly
tiers, pruning each tier to its configured size. Without --once the
command keeps running and snapshots whenever a tier falls due.

Tiers are configured under backup.tiers in the config file:

  backup:
    dir: ~/.local/share/lilium/backups
    tiers:
      - {name: hourly, interval: 1h, keep: 24}
      - {name: daily, interval: 24h, keep: 7}`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			tiers, err := config.BackupTiers()
			if err != nil {
				return fmt.Errorf("read backup tiers: %w", err)
			}
			snap := backup.New(s, config.BackupDir(), tiers, config.NewLogger())

			if list {
				return listSnapshots(snap)
			}

			if once {
				taken, err := snap.RunOnce(contextOf(cmd), time.Now().UTC())
				if err != nil {
					return err
				}
				if len(taken) == 0 {
					backupUlog.Info("No tier due").
						Pretty("No snapshot due").
						PrettyOnly().
						Emit()
					return nil
				}
				for _, t := range taken {
					backupUlog.Success("Snapshot taken").
						Field("tier", t.Tier).
						Field("path", t.Path).
						Pretty(fmt.Sprintf("%-8s %s", t.Tier, t.Path)).
						PrettyOnly().
						Emit()
				}
				return nil
			}

			ctx, stop := signal.NotifyContext(contextOf(cmd), os.Interrupt, syscall.SIGTERM)
			defer stop()

			backupUlog.Info("Snapshotter running").
				Field("dir", config.BackupDir()).
				Pretty(fmt.Sprintf("Writing snapshots to %s (Ctrl-C to stop)", config.BackupDir())).
				PrettyOnly().
				Emit()

			if err := snap.Run(ctx, config.BackupCheckInterval()); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&once, "once", false, "Take the snapshots that are due and exit")
	cmd.Flags().BoolVarP(&list, "list", "l", false, "List existing snapshots")

	return cmd
}

func contextOf(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

func listSnapshots(snap *backup.Snapshotter) error {
	var b strings.Builder
	total := 0
	for _, tier := range snap.Tiers() {
		snaps, err := snap.List(tier.Name)
		if err != nil {
			return err
		}
		b.WriteString(fmt.Sprintf("%s (%d/%d)\n", tier.Name, len(snaps), tier.Keep))
		for _, s := range snaps {
			b.WriteString(fmt.Sprintf("  %s  %s\n", s.CreatedAt.Local().Format("2006-01-02 15:04:05"), s.Path))
		}
		total += len(snaps)
	}

	backupUlog.Info("Snapshots").
		Field("count", total).
		Pretty(strings.TrimRight(b.String(), "\n")).
		PrettyOnly().
		Emit()
	return nil
}
