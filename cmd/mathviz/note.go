package main

import (
	"fmt"

	"github.com/muesli/reflow/truncate"
	"github.com/spf13/cobra"

	"mathviz/internal/notes"
)

// maxDerivedTitle bounds titles taken from the description.
const maxDerivedTitle = 60

func (a *app) noteCmd() *cobra.Command {
	var (
		title string
		tags  []string
		links []string
		index string
	)

	c := &cobra.Command{
		Use:   `note "<description>"`,
		Short: "Write a vault note describing the generated animation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var grouping notes.Grouping
			if index != "" {
				var err error
				if grouping, err = notes.ParseGrouping(index); err != nil {
					return err
				}
			}

			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}

			res, err := a.generate(args[0])
			if err != nil {
				return fmt.Errorf("generation failed: %w", err)
			}

			mirror, err := a.openMirror(cfg)
			if err != nil {
				return err
			}
			defer mirror.Close()

			ingestor, err := notes.NewIngestor(mirror, cfg.Notes.VaultDir, a.logger)
			if err != nil {
				return err
			}

			if title == "" {
				title = truncate.String(args[0], maxDerivedTitle)
			}
			notePath, err := ingestor.WriteAnimationNote(title, res, tags, links)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "note: %s\n", notePath)

			if index != "" {
				indexPath, err := ingestor.BuildIndex(grouping)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "index: %s\n", indexPath)
			}
			return nil
		},
	}

	c.Flags().StringVarP(&title, "title", "t", "", "note title (default: the description)")
	c.Flags().StringSliceVar(&tags, "tags", nil, "tags for the note frontmatter")
	c.Flags().StringSliceVar(&links, "links", nil, "related notes to link")
	c.Flags().StringVar(&index, "index", "", "rebuild the vault index afterwards, grouped by category or tag")
	return c
}
