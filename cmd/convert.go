package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	grovelogging "github.com/mattsolo1/grove-core/logging"

	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

var convertUlog = grovelogging.NewUnifiedLogger("lilium.cmd.convert")

func NewConvertCmd(svc **service.Service, owner *string) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "convert",
		Short: "Convert between notes and folders",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "to-folder <note-id>",
		Short: "Turn a note into a folder holding it as its index note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			conv, err := s.ConvertNoteToFolder(context.Background(), *owner, args[0])
			if err != nil {
				return explain(err)
			}

			convertUlog.Success("Converted note to folder").
				Field("folder_id", conv.Folder.ID).
				Field("note_id", conv.Note.ID).
				Field("path", conv.Folder.Path).
				Pretty(fmt.Sprintf("Created folder %s/ (%s); note is now %s", conv.Folder.Path, conv.Folder.ID, conv.Note.Path)).
				PrettyOnly().
				Emit()
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "to-note <folder-id>",
		Short: "Collapse a folder holding at most an index note into a note",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			note, err := s.ConvertFolderToNote(context.Background(), *owner, args[0])
			if err != nil {
				return explain(err)
			}

			convertUlog.Success("Converted folder to note").
				Field("folder_id", args[0]).
				Field("note_id", note.ID).
				Field("path", note.Path).
				Pretty(fmt.Sprintf("Folder replaced by %s (%s)", note.Path, note.ID)).
				PrettyOnly().
				Emit()
			return nil
		},
	})

	return cmd
}
