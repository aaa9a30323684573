package config

import (
	"io/fs"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// Loader allows to load configuration files from a file system.
type Loader struct {
	// configRootPath is a root path for the configuration file.
	// Typically, it's the current working directory.
	configRootPath fs.FS

	// configName is a name of the configuration file.
	configName string

	// configTypes are the accepted extensions, in order of preference.
	// Together with configName they form the configuration file names.
	configTypes []string

	logger *zap.Logger
}

type LoaderOption func(*Loader)

func WithLogger(logger *zap.Logger) LoaderOption {
	return func(l *Loader) {
		l.logger = logger
	}
}

// WithConfigTypes sets the accepted configuration file types. The default
// is YAML then TOML.
func WithConfigTypes(types ...string) LoaderOption {
	return func(l *Loader) {
		l.configTypes = types
	}
}

func NewLoader(configName string, configRootPath fs.FS, opts ...LoaderOption) *Loader {
	if configName == "" {
		panic("config name is not set")
	}

	l := &Loader{
		configRootPath: configRootPath,
		configName:     configName,
		configTypes:    []string{TypeYAML, TypeTOML},
	}

	for _, opt := range opts {
		opt(l)
	}

	if l.logger == nil {
		l.logger = zap.NewNop()
	}

	return l
}

// Load parses every configuration file from the root down to the directory
// of name, with deeper files overriding shallower ones. Without any file it
// returns the defaults.
func (l *Loader) Load(name string) (*Config, error) {
	for _, configType := range l.configTypes {
		chain, err := l.FindConfigChain(name, configType)
		if err != nil {
			return nil, err
		}
		if len(chain) == 0 {
			continue
		}
		l.logger.Debug("loading config chain", zap.String("type", configType), zap.Int("files", len(chain)))
		return Parse(configType, chain...)
	}
	return Default(), nil
}

// FindConfigChain returns the contents of the configuration files of the
// given type found on the path to name.
func (l *Loader) FindConfigChain(name, configType string) ([][]byte, error) {
	paths, err := l.findConfigFilesOnPath(name, l.configName+"."+configType)
	if err != nil {
		return nil, err
	}
	return l.readFiles(paths...)
}

func (l *Loader) findConfigFilesOnPath(name, configFullName string) (result []string, _ error) {
	name, err := l.parsePath(name)
	if err != nil {
		return nil, err
	}
	l.logger.Debug("finding config files on path", zap.String("name", name))

	// Find the root configuration file and add it to the result if exists.
	_, err = fs.Stat(l.configRootPath, configFullName)
	if err == nil {
		result = append(result, configFullName)
	} else if !errors.Is(err, fs.ErrNotExist) {
		l.logger.Debug("root configuration file not found", zap.Error(err))
		return nil, err
	}

	// Split the path and iterate over the fragments to find nested configuration files.
	fragments := strings.Split(filepath.ToSlash(name), "/")
	if len(fragments) > 0 && fragments[0] == "." {
		fragments = fragments[1:]
	}
	l.logger.Debug("path fragments", zap.Strings("fragments", fragments))

	curDir := ""
	for _, fragment := range fragments {
		// Use [path.Join] instead of [filepath.Join] to support Windows paths.
		// It works well with [fs.FS].
		curDir = path.Join(curDir, fragment)

		configPath := path.Join(curDir, configFullName)
		l.logger.Debug("checking nested configuration file", zap.String("path", configPath))
		_, err := fs.Stat(l.configRootPath, configPath)
		if err == nil {
			result = append(result, configPath)
		} else if !errors.Is(err, fs.ErrNotExist) {
			l.logger.Debug("nested configuration file not found", zap.String("path", configPath), zap.Error(err))
			return nil, err
		}
	}

	l.logger.Debug("found config files on path", zap.String("name", name), zap.Strings("files", result))

	return result, nil
}

func (l *Loader) parsePath(name string) (string, error) {
	if name == "" {
		name = "."
	}

	info, err := fs.Stat(l.configRootPath, name)
	if err != nil {
		return "", errors.Wrapf(err, "failed to get the path info for %q", name)
	}

	if info.IsDir() {
		return path.Clean(name), nil
	}
	return path.Dir(name), nil
}

func (l *Loader) readFiles(paths ...string) (result [][]byte, _ error) {
	for _, path := range paths {
		data, err := fs.ReadFile(l.configRootPath, path)
		if err != nil {
			return nil, err
		}
		result = append(result, data)
	}
	return result, nil
}
