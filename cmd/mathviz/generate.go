package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"mathviz/internal/report"
)

func (a *app) generateCmd() *cobra.Command {
	var (
		noValidate bool
		pretty     bool
		batch      string
		limit      int
		width      int
	)

	c := &cobra.Command{
		Use:   `generate ["<description>"]`,
		Short: "Generate a Manim scene from a description and print the result",
		Long: `Generate runs the description through the pipeline and prints the result
as JSON. With --pretty the result is rendered as a terminal report instead.
With --batch each non-empty line of the file ("-" for stdin) is processed and
the results are printed as a JSON array in input order.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.newPipeline()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()

			if batch != "" {
				descriptions, err := readBatch(batch, cmd.InOrStdin())
				if err != nil {
					return err
				}
				results, err := p.ProcessBatch(cmd.Context(), descriptions, !noValidate, limit)
				if err != nil {
					return err
				}
				return writeJSON(out, results)
			}

			if len(args) == 0 {
				return errors.New("a description or --batch is required")
			}

			res := p.Process(args[0], !noValidate)
			if pretty {
				rendered, err := report.RenderTerminal(report.Markdown(res), report.DetectStyle(styleTimeout), width)
				if err != nil {
					return err
				}
				fmt.Fprint(out, rendered)
			} else if err := writeJSON(out, res); err != nil {
				return err
			}

			if !res.Success {
				return fmt.Errorf("generation failed: %s", res.Error)
			}
			return nil
		},
	}

	c.Flags().BoolVar(&noValidate, "no-validate", false, "skip the accuracy validator")
	c.Flags().BoolVar(&pretty, "pretty", false, "print a rendered report instead of JSON")
	c.Flags().StringVar(&batch, "batch", "", `file with one description per line ("-" for stdin)`)
	c.Flags().IntVar(&limit, "parallel", 4, "maximum descriptions processed at once in batch mode")
	c.Flags().IntVar(&width, "width", 100, "wrap width for --pretty")
	c.MarkFlagsMutuallyExclusive("batch", "pretty")
	return c
}

// readBatch reads one description per line, skipping blank lines and # comments.
func readBatch(name string, stdin io.Reader) ([]string, error) {
	r := stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return nil, fmt.Errorf("failed to open batch file: %w", err)
		}
		defer f.Close()
		r = f
	}

	var descriptions []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		descriptions = append(descriptions, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read batch file: %w", err)
	}
	if len(descriptions) == 0 {
		return nil, errors.New("batch file contains no descriptions")
	}
	return descriptions, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	return nil
}
