package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var historyUlog = grovelogging.NewUnifiedLogger("lilium.cmd.history")

func NewHistoryCmd(svc **service.Service, owner *string) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show recent changes to the tree, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			entries, err := s.History(context.Background(), *owner, limit)
			if err != nil {
				return explain(err)
			}

			if len(entries) == 0 {
				historyUlog.Info("No history").
					Pretty("No changes recorded").
					PrettyOnly().
					Emit()
				return nil
			}

			lines := make([]string, len(entries))
			for i, e := range entries {
				lines[i] = historyLine(e)
			}

			historyUlog.Info("History").
				Field("count", len(entries)).
				Pretty(strings.Join(lines, "\n")).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of entries to show")

	return cmd
}

func historyLine(e *models.HistoryEntry) string {
	when := e.CreatedAt.Local().Format("2006-01-02 15:04:05")
	switch {
	case e.BeforePath == "":
		return fmt.Sprintf("%s  %-17s %s", when, e.Op, e.AfterPath)
	case e.AfterPath == "" || e.AfterPath == e.BeforePath:
		return fmt.Sprintf("%s  %-17s %s", when, e.Op, e.BeforePath)
	}
	return fmt.Sprintf("%s  %-17s %s -> %s", when, e.Op, e.BeforePath, e.AfterPath)
}
