package main

import (
	"io"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"brain2-canvas/internal/infrastructure/jsoncanvas"
)

func newExportCommand() *cobra.Command {
	var (
		out string
		all bool
	)
	cmd := &cobra.Command{
		Use:   "export BOARD",
		Short: "Load a JSON Canvas document and write it back normalised",
		Long: `export loads a JSON Canvas board, derives group membership from geometry
when the document carries none and writes the result. Nodes flagged
exclude_from_export are dropped unless --all is given.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := loadBoard(args[0], zap.NewNop())
			if err != nil {
				return err
			}
			doc := jsoncanvas.Export(store, jsoncanvas.ExportOptions{IncludeExcluded: all})

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			return jsoncanvas.Encode(w, doc)
		},
	}
	cmd.Flags().StringVarP(&out, "output", "o", "", "Write to a file instead of stdout")
	cmd.Flags().BoolVar(&all, "all", false, "Keep nodes flagged exclude_from_export")
	return cmd
}
