package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/gabriel-vasile/mimetype"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/stateful/blocky/internal/log"
	"github.com/stateful/blocky/pkg/blocks"
	"github.com/stateful/blocky/pkg/blocks/grammar"
	"github.com/stateful/blocky/pkg/blocks/reconstruct"
	"github.com/stateful/blocky/pkg/blocks/serializer"
)

var errNoInput = errors.New("no input: pass a file name or pipe data to stdin")

// readInput reads the file named by the first argument, or stdin when there
// is no argument or it is "-".
func readInput(cmd *cobra.Command, args []string) (data []byte, name string, _ error) {
	if len(args) > 0 && args[0] != "-" {
		name = args[0]
		data, err := os.ReadFile(name)
		if err != nil {
			return nil, name, errors.Wrapf(err, "failed to read file %q", name)
		}
		return data, name, nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && isTerminal(f) {
		return nil, "", errNoInput
	}

	data, err := io.ReadAll(in)
	if err != nil {
		return nil, "", errors.Wrap(err, "failed to read from stdin")
	}
	return data, "", nil
}

func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func readClipboard() ([]byte, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return nil, errors.Wrap(err, "failed to read from clipboard")
	}
	return []byte(text), nil
}

type inputFormat int

const (
	inputUnknown inputFormat = iota
	inputJSON
	inputYAML
	inputMarkdown
)

// detectInput guesses the format of data by file extension and then by
// content.
func detectInput(name string, data []byte) inputFormat {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		return inputJSON
	case ".yaml", ".yml":
		return inputYAML
	case ".md", ".markdown":
		return inputMarkdown
	}

	if mimetype.Detect(data).Is("application/json") {
		return inputJSON
	}
	return inputUnknown
}

// decodeTree decodes a block tree. Input of unknown format is tried as YAML
// and, when allowMarkdown is set, finally parsed as Markdown.
func decodeTree(name string, data []byte, allowMarkdown bool) ([]*blocks.Block, error) {
	switch detectInput(name, data) {
	case inputJSON:
		return blocks.DecodeJSON(bytes.NewReader(data))
	case inputYAML:
		return blocks.DecodeYAML(bytes.NewReader(data))
	case inputMarkdown:
		if allowMarkdown {
			return fromMarkdown(data)
		}
		return nil, errors.Errorf("%q is a Markdown file; use \"blocky fmt\" or \"blocky import\"", name)
	}

	bs, err := blocks.DecodeYAML(bytes.NewReader(data))
	if err == nil || !allowMarkdown {
		return bs, err
	}
	return fromMarkdown(data)
}

func fromMarkdown(data []byte) ([]*blocks.Block, error) {
	r := reconstruct.New(reconstruct.WithLogger(log.Get()))
	bs, err := r.FromMarkdown(data)
	if err != nil {
		return nil, errors.Wrap(err, "failed to parse Markdown")
	}
	return blocks.Prune(bs), nil
}

// profileFor resolves a grammar name against the configured grammars. An
// empty name selects the configured default.
func profileFor(name string) (*grammar.Profile, error) {
	if name == "" {
		name = conf.Format
	}
	reg, err := conf.Registry()
	if err != nil {
		return nil, err
	}
	return reg.Lookup(name)
}

func newSerializer(profile *grammar.Profile, sniff bool) *serializer.Serializer {
	return serializer.New(
		profile,
		serializer.WithLogger(log.Get()),
		serializer.WithLanguageSniffing(sniff),
	)
}

// render renders bs and reports every block that failed on stderr. The
// returned error is non-nil when any block failed.
func render(cmd *cobra.Command, s *serializer.Serializer, bs []*blocks.Block) (string, error) {
	out, err := s.Render(bs)
	if err == nil {
		return out, nil
	}

	errs := multierr.Errors(err)
	for _, e := range errs {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", e)
	}
	return out, errors.Errorf("%d block(s) could not be rendered", len(errs))
}

// writeOutput writes result to the named file, the clipboard, or stdout.
func writeOutput(cmd *cobra.Command, output string, toClipboard bool, result string) error {
	if toClipboard {
		return errors.Wrap(clipboard.WriteAll(result), "failed to write to clipboard")
	}

	if result != "" && !strings.HasSuffix(result, "\n") {
		result += "\n"
	}

	if output != "" && output != "-" {
		err := os.WriteFile(output, []byte(result), 0o644)
		return errors.Wrapf(err, "failed to write file %q", output)
	}

	_, err := io.WriteString(cmd.OutOrStdout(), result)
	return errors.Wrap(err, "failed to write result")
}
