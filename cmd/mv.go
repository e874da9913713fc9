package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var mvUlog = grovelogging.NewUnifiedLogger("lilium.cmd.mv")

func NewMvCmd(svc **service.Service, owner *string) *cobra.Command {
	var (
		target string
		toRoot bool
	)

	cmd := &cobra.Command{
		Use:   "mv <id>",
		Short: "Move a folder or note",
		Long: `Move a folder or note into another folder, or to the root.

Examples:
  lilium mv 9a2e... --to 4f1c...
  lilium mv 9a2e... --root`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			if target == "" && !toRoot {
				return fmt.Errorf("a destination is required: pass --to <folder-id> or --root")
			}
			if target != "" && toRoot {
				return fmt.Errorf("--to and --root are mutually exclusive")
			}

			node, err := s.Move(context.Background(), *owner, args[0], target)
			if err != nil {
				return explain(err)
			}

			mvUlog.Success("Moved").
				Field("id", node.ID).
				Field("parent_id", node.ParentID).
				Field("path", node.Path).
				Pretty(fmt.Sprintf("Moved to %s", node.Path)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().StringVar(&target, "to", "", "Destination folder id")
	cmd.Flags().BoolVar(&toRoot, "root", false, "Move to the root")

	return cmd
}
