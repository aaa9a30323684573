package cmd

import (
	"bytes"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/stateful/blocky/pkg/blocks"
)

func importCmd() *cobra.Command {
	var (
		to            string
		output        string
		fromClipboard bool
	)

	cmd := cobra.Command{
		Use:   "import [file|-]",
		Short: "Convert Markdown into a block tree.",
		Long: `Parse Markdown and write the equivalent block tree as JSON or YAML in the
block editor's format. Every block gets a fresh client ID.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				data []byte
				err  error
			)
			if fromClipboard {
				data, err = readClipboard()
			} else {
				data, _, err = readInput(cmd, args)
			}
			if err != nil {
				return err
			}

			bs, err := fromMarkdown(data)
			if err != nil {
				return err
			}

			var buf bytes.Buffer
			switch to {
			case "json":
				err = blocks.EncodeJSON(&buf, bs)
			case "yaml", "yml":
				err = blocks.EncodeYAML(&buf, bs)
			default:
				return errors.Errorf("unsupported output format %q, expected json or yaml", to)
			}
			if err != nil {
				return err
			}

			return writeOutput(cmd, output, false, buf.String())
		},
	}

	cmd.Flags().StringVar(&to, "to", "json", "Output format: json or yaml.")
	setOutputFlags(cmd.Flags(), &output, nil)
	cmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "Read Markdown from the clipboard.")

	return &cmd
}
