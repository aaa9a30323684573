package cmd

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fatih/color"
	"github.com/gobwas/glob"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/stateful/blocky/internal/log"
	"github.com/stateful/blocky/pkg/blocks/grammar"
	"github.com/stateful/blocky/pkg/blocks/serializer"
)

func batchCmd() *cobra.Command {
	var (
		format      string
		pattern     string
		outDir      string
		concurrency int
	)

	cmd := cobra.Command{
		Use:   "batch <dir>",
		Short: "Export every block tree in a directory.",
		Long: `Render every JSON or YAML block tree under a directory whose path matches
a glob pattern. Each result is written next to its input, or under --out-dir
with the same relative path, using the grammar's file extension.`,
		Example: `Render every exported post to Trac wiki pages:
  blocky batch --format trac --pattern "posts/**.json" --out-dir wiki .
`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if pattern == "" {
				pattern = conf.Batch.Pattern
			}
			if !cmd.Flags().Changed("concurrency") {
				concurrency = conf.Batch.Concurrency
			}
			if concurrency <= 0 {
				concurrency = runtime.NumCPU()
			}

			matcher, err := glob.Compile(pattern, '/')
			if err != nil {
				return errors.Wrapf(err, "invalid pattern %q", pattern)
			}

			profile, err := profileFor(format)
			if err != nil {
				return err
			}

			b := &batch{
				root:    args[0],
				outDir:  outDir,
				profile: profile,
				s:       newSerializer(profile, conf.SniffLanguage),
				logger:  log.Get(),
			}

			files, err := b.collect(matcher)
			if err != nil {
				return err
			}

			err = b.run(cmd, files, concurrency)

			summary := color.New(color.FgGreen)
			if err != nil {
				summary = color.New(color.FgRed)
			}
			_, _ = summary.Fprintf(
				cmd.ErrOrStderr(),
				"converted %d of %d file(s)\n",
				b.converted.Load(), len(files),
			)
			return err
		},
	}

	setFormatFlag(cmd.Flags(), &format)
	cmd.Flags().StringVar(&pattern, "pattern", "", "Glob matched against paths relative to <dir>. Defaults to the configured pattern.")
	cmd.Flags().StringVar(&outDir, "out-dir", "", "Directory for the results. Defaults to the input directory.")
	cmd.Flags().IntVarP(&concurrency, "concurrency", "j", 0, "Number of files converted at once. Defaults to the number of CPUs.")

	return &cmd
}

type batch struct {
	root    string
	outDir  string
	profile *grammar.Profile
	s       *serializer.Serializer
	logger  *zap.Logger

	mu        sync.Mutex
	errs      error
	converted atomic.Int64
}

// collect returns the slash-separated paths, relative to the root, of the
// block tree files matching m.
func (b *batch) collect(m glob.Glob) ([]string, error) {
	var files []string
	err := filepath.WalkDir(b.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}

		rel, err := filepath.Rel(b.root, p)
		if err != nil {
			return errors.WithStack(err)
		}
		rel = filepath.ToSlash(rel)

		switch strings.ToLower(path.Ext(rel)) {
		case ".json", ".yaml", ".yml":
		default:
			return nil
		}
		if strings.TrimSuffix(path.Base(rel), path.Ext(rel)) == configName {
			return nil
		}
		if !m.Match(rel) {
			return nil
		}
		files = append(files, rel)
		return nil
	})
	return files, errors.Wrapf(err, "failed to walk %q", b.root)
}

// run converts files concurrently. A failing file does not stop the others;
// all failures are returned together.
func (b *batch) run(cmd *cobra.Command, files []string, concurrency int) error {
	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(concurrency)

	for _, rel := range files {
		rel := rel
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			out, err := b.convert(cmd, rel)
			if err != nil {
				b.logger.Info("failed to convert file", zap.String("file", rel), zap.Error(err))
				b.mu.Lock()
				b.errs = multierr.Append(b.errs, errors.Wrapf(err, "%s", rel))
				b.mu.Unlock()
				return nil
			}

			b.converted.Add(1)
			b.logger.Debug("converted file", zap.String("file", rel), zap.String("output", out))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return errors.WithStack(err)
	}
	return b.errs
}

func (b *batch) convert(cmd *cobra.Command, rel string) (string, error) {
	name := filepath.Join(b.root, filepath.FromSlash(rel))

	data, err := os.ReadFile(name)
	if err != nil {
		return "", errors.WithStack(err)
	}

	bs, err := decodeTree(name, data, false)
	if err != nil {
		return "", err
	}

	result, renderErr := b.s.Render(bs)

	dir := b.root
	if b.outDir != "" {
		dir = b.outDir
	}
	out := filepath.Join(dir, filepath.FromSlash(strings.TrimSuffix(rel, path.Ext(rel))+"."+b.profile.Extension))

	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return "", errors.WithStack(err)
	}
	if result != "" {
		result += "\n"
	}
	if err := os.WriteFile(out, []byte(result), 0o644); err != nil {
		return "", errors.WithStack(err)
	}

	if renderErr != nil {
		b.mu.Lock()
		for _, e := range multierr.Errors(renderErr) {
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s: %s\n", rel, e)
		}
		b.mu.Unlock()
		return out, renderErr
	}
	return out, nil
}
