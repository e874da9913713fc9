package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var rmUlog = grovelogging.NewUnifiedLogger("lilium.cmd.rm")

func NewRmCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rm <id>...",
		Short: "Delete folders or notes",
		Long:  "Delete folders or notes. Deleting a folder deletes everything inside it.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			ctx := context.Background()

			for _, id := range args {
				path, err := s.GetPath(ctx, *owner, id)
				if err != nil {
					return explain(err)
				}
				if err := s.Delete(ctx, *owner, id); err != nil {
					return explain(err)
				}
				rmUlog.Success("Deleted").
					Field("id", id).
					Field("path", path).
					Pretty(fmt.Sprintf("Deleted %s", path)).
					PrettyOnly().
					Emit()
			}
			return nil
		},
	}

	return cmd
}
