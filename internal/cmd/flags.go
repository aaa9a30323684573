package cmd

import "github.com/spf13/pflag"

const (
	formatF    = "format"
	outputF    = "output"
	clipboardF = "clipboard"
)

func setFormatFlag(flagSet *pflag.FlagSet, format *string) {
	flagSet.StringVarP(format, formatF, "f", "", "Grammar to render. Defaults to the configured format.")
}

func setOutputFlags(flagSet *pflag.FlagSet, output *string, toClipboard *bool) {
	flagSet.StringVarP(output, outputF, "o", "", "Write the result to a file instead of stdout.")
	if toClipboard != nil {
		flagSet.BoolVar(toClipboard, clipboardF, false, "Copy the result to the clipboard instead of printing it.")
	}
}
