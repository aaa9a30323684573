package cmd

import (
	"github.com/spf13/cobra"
)

func fmtCmd() *cobra.Command {
	var (
		format string
		output string
	)

	cmd := cobra.Command{
		Use:   "fmt [file|-]",
		Short: "Normalise Markdown by converting it to blocks and back.",
		Long: `Parse Markdown into a block tree and render it again, either as canonical
Markdown or in another grammar. Running fmt on its own output is a no-op.`,
		Example: `Convert a README to Trac wiki markup:
  blocky fmt --format trac README.md
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, _, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			bs, err := fromMarkdown(data)
			if err != nil {
				return err
			}

			profile, err := profileFor(format)
			if err != nil {
				return err
			}

			result, renderErr := render(cmd, newSerializer(profile, conf.SniffLanguage), bs)
			if err := writeOutput(cmd, output, false, result); err != nil {
				return err
			}
			return renderErr
		},
	}

	setFormatFlag(cmd.Flags(), &format)
	setOutputFlags(cmd.Flags(), &output, nil)

	return &cmd
}
