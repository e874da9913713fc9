package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/models"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var lsUlog = grovelogging.NewUnifiedLogger("lilium.cmd.ls")

func NewLsCmd(svc **service.Service, owner *string) *cobra.Command {
	var (
		recursive  bool
		jsonOutput bool
	)

	cmd := &cobra.Command{
		Use:   "ls [folder-id]",
		Short: "List the children of a folder",
		Long: `List the direct children of a folder, or the root when no id is given.
Folders are listed before notes.

Examples:
  lilium ls
  lilium ls 4f1c... -r       # everything below the folder, by path
  lilium ls --json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc
			ctx := context.Background()

			var folderID string
			if len(args) == 1 {
				folderID = args[0]
			}

			var (
				nodes []*models.Node
				err   error
			)
			if recursive && folderID != "" {
				nodes, err = s.GetDescendantsByPrefix(ctx, *owner, folderID)
			} else if recursive {
				nodes, err = allNodes(ctx, s, *owner)
			} else {
				nodes, err = s.GetChildren(ctx, *owner, folderID)
			}
			if err != nil {
				return explain(err)
			}

			if jsonOutput {
				data, err := json.MarshalIndent(nodes, "", "  ")
				if err != nil {
					return fmt.Errorf("failed to marshal nodes to JSON: %w", err)
				}
				fmt.Println(string(data))
				return nil
			}

			if len(nodes) == 0 {
				lsUlog.Info("Empty").
					Field("folder_id", folderID).
					Pretty("(empty)").
					PrettyOnly().
					Emit()
				return nil
			}

			lsUlog.Info("Listing").
				Field("folder_id", folderID).
				Field("count", len(nodes)).
				Pretty(nodeLines(nodes)).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().BoolVarP(&recursive, "recursive", "r", false, "List everything below the folder")
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

// allNodes returns every node of owner ordered by path.
func allNodes(ctx context.Context, s *service.Service, owner string) ([]*models.Node, error) {
	folders, err := s.ListFolders(ctx, owner)
	if err != nil {
		return nil, err
	}
	notes, err := s.ListNotes(ctx, owner)
	if err != nil {
		return nil, err
	}

	nodes := make([]*models.Node, 0, len(folders)+len(notes))
	for _, f := range folders {
		nodes = append(nodes, models.FolderNode(f))
	}
	for _, n := range notes {
		nodes = append(nodes, models.NoteNode(n))
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].Path < nodes[j].Path })
	return nodes, nil
}
