package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RyanGreenup/lilium-sub000/pkg/frontmatter"
	"github.com/RyanGreenup/lilium-sub000/pkg/service"
)

func NewCatCmd(svc **service.Service, owner *string) *cobra.Command {
	var withFrontmatter bool

	cmd := &cobra.Command{
		Use:   "cat <note-id>",
		Short: "Print a note's content",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s := *svc

			note, err := s.GetNote(context.Background(), *owner, args[0])
			if err != nil {
				return explain(err)
			}

			if withFrontmatter {
				fmt.Print(frontmatter.BuildContent(frontmatter.FromNote(note), note.Content))
				return nil
			}
			fmt.Print(note.Content)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&withFrontmatter, "frontmatter", "f", false, "Prefix the content with YAML frontmatter")

	return cmd
}
