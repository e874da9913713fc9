package cmd

import (
	"context"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var findUlog = grovelogging.NewUnifiedLogger("lilium.cmd.find")

func NewFindCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find <folder-id>",
		Short: "List everything below a folder",
		Long:  "List every folder and note below a folder, ordered by path.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			nodes, err := s.GetDescendantsByPrefix(context.Background(), *owner, args[0])
			if err != nil {
				return explain(err)
			}

			if len(nodes) == 0 {
				findUlog.Info("No descendants").
					Field("folder_id", args[0]).
					Pretty("(empty)").
					PrettyOnly().
					Emit()
				return nil
			}

			findUlog.Info("Descendants").
				Field("folder_id", args[0]).
				Field("count", len(nodes)).
				Pretty(nodeLines(nodes)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	return cmd
}
