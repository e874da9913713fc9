package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/exporter"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var exportUlog = grovelogging.NewUnifiedLogger("lilium.cmd.export")

func NewExportCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "Write the tree to a directory",
		Long: `Write every folder as a directory and every note as a file at its full
path, with the note's metadata as YAML frontmatter.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			res, err := exporter.Export(context.Background(), s, *owner, args[0])
			if err != nil {
				return explain(err)
			}

			exportUlog.Success("Exported").
				Field("dir", args[0]).
				Field("folders", res.Folders).
				Field("notes", res.Notes).
				Pretty(fmt.Sprintf("Exported %d folders and %d notes to %s", res.Folders, res.Notes, args[0])).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	return cmd
}

var importUlog = grovelogging.NewUnifiedLogger("lilium.cmd.import")

func NewImportCmd(svc **service.Service, owner *string) *cobra.Command {
	var parentID string

	cmd := &cobra.Command{
		Use:   "import <dir>",
		Short: "Recreate a directory tree as folders and notes",
		Long: `Walk a directory and create a folder for each sub-directory and a note
for each file. The file extension becomes the note's syntax; YAML
frontmatter, when present, supplies the abstract. Hidden entries and
files without an extension are skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			res, err := exporter.Import(context.Background(), s, *owner, args[0], parentID)
			if err != nil {
				return explain(err)
			}

			pretty := fmt.Sprintf("Imported %d folders and %d notes from %s", res.Folders, res.Notes, args[0])
			if len(res.Skipped) > 0 {
				pretty += fmt.Sprintf("\nSkipped %d entries:\n  %s", len(res.Skipped), strings.Join(res.Skipped, "\n  "))
			}

			importUlog.Success("Imported").
				Field("dir", args[0]).
				Field("folders", res.Folders).
				Field("notes", res.Notes).
				Field("skipped", len(res.Skipped)).
				Pretty(pretty).
				PrettyOnly().
				Emit()
			return nil
		},
	}

	cmd.Flags().StringVarP(&parentID, "parent", "p", "", "Folder id to import into (default: root)")

	return cmd
}
