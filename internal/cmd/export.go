package cmd

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/stateful/blocky/internal/log"
)

func exportCmd() *cobra.Command {
	var (
		format        string
		output        string
		toClipboard   bool
		sniffLanguage bool
	)

	cmd := cobra.Command{
		Use:   "export [file|-]",
		Short: "Render a block tree as Markdown or Trac markup.",
		Long: `Render a block tree, stored as JSON or YAML in the block editor's format,
into the markup of a grammar.

Blocks that cannot be rendered are reported on stderr and omitted; the rest of
the document is still written and the command exits with an error.`,
		Example: `Export a post to Trac wiki markup:
  blocky export --format trac post.json

Copy the Markdown rendering of a YAML tree to the clipboard:
  cat post.yaml | blocky export --clipboard
`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, name, err := readInput(cmd, args)
			if err != nil {
				return err
			}

			bs, err := decodeTree(name, data, false)
			if err != nil {
				return err
			}

			profile, err := profileFor(format)
			if err != nil {
				return err
			}

			sniff := conf.SniffLanguage
			if cmd.Flags().Changed("sniff-language") {
				sniff = sniffLanguage
			}

			log.Get().Info("exporting blocks", zap.String("grammar", profile.Name), zap.Int("blocks", len(bs)))

			result, renderErr := render(cmd, newSerializer(profile, sniff), bs)
			if err := writeOutput(cmd, output, toClipboard, result); err != nil {
				return err
			}
			return renderErr
		},
	}

	setFormatFlag(cmd.Flags(), &format)
	setOutputFlags(cmd.Flags(), &output, &toClipboard)
	cmd.Flags().BoolVar(&sniffLanguage, "sniff-language", false, "Guess the language of code blocks without one from a leading \"<?php\" or \"#!\" line.")

	return &cmd
}
