package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var checkUlog = grovelogging.NewUnifiedLogger("lilium.cmd.check")

func NewCheckCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify every cached path against the tree",
		Long: `Recompute the path of every folder and note from the tree and compare
it with the cached path. Exits non-zero when they disagree; run
'lilium rebuild' to repair.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			report, err := s.Check(context.Background(), *owner)
			if err != nil {
				return explain(err)
			}

			if report.OK() {
				checkUlog.Success("Path cache consistent").
					Field("folders", report.Folders).
					Field("notes", report.Notes).
					Pretty(fmt.Sprintf("OK: %d folders, %d notes", report.Folders, report.Notes)).
					PrettyOnly().
					Emit()
				return nil
			}

			var b strings.Builder
			b.WriteString(fmt.Sprintf("%d problems in %d folders, %d notes:", len(report.Problems), report.Folders, report.Notes))
			for _, p := range report.Problems {
				b.WriteString("\n  " + p.Error())
			}
			checkUlog.Info("Path cache inconsistent").
				Field("folders", report.Folders).
				Field("notes", report.Notes).
				Field("problems", len(report.Problems)).
				Pretty(b.String()).
				PrettyOnly().
				Emit()
			return fmt.Errorf("path cache has %d inconsistent entries; run 'lilium rebuild' to recompute paths", len(report.Problems))
		},
	}

	return cmd
}

var rebuildUlog = grovelogging.NewUnifiedLogger("lilium.cmd.rebuild")

func NewRebuildCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rebuild",
		Short: "Recompute every cached path from the tree",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			stats, err := s.Rebuild(context.Background(), *owner)
			if err != nil {
				return explain(err)
			}

			rebuildUlog.Success("Path cache rebuilt").
				Field("layers", stats.Layers).
				Field("folders", stats.Folders).
				Field("notes", stats.Notes).
				Pretty(fmt.Sprintf("Rebuilt %d folders in %d layers and %d notes", stats.Folders, stats.Layers, stats.Notes)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	return cmd
}
