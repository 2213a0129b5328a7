package engine

import (
	"context"
	"errors"
	"os"

	"bundlecore/internal/config"
	"bundlecore/internal/logging"
	"bundlecore/internal/packagejson"
	"bundlecore/internal/plugin"
	"bundlecore/internal/resolver"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"golang.org/x/sync/semaphore"
)

// TaskContext holds the handles shared by every load task of a build. None
// of them is mutated after NewTaskContext returns.
type TaskContext struct {
	Config   *config.Config
	Resolver resolver.Resolver
	Driver   *plugin.Driver
	Fs       afero.Fs
	Cwd      string
	Logger   *log.Logger

	external config.ExternalFunc
	fileSem  *semaphore.Weighted
}

// TaskContextOptions overrides the defaults derived from the config. Zero
// fields are filled in.
type TaskContextOptions struct {
	Resolver resolver.Resolver
	Plugins  []plugin.Plugin
	Fs       afero.Fs
	Logger   *log.Logger
}

func NewTaskContext(cfg *config.Config, opts TaskContextOptions) (*TaskContext, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}
	cwd := cfg.Input.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cwd = wd
	}
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	res := opts.Resolver
	if res == nil {
		ext := cfg.Resolve.Extensions
		if len(ext) == 0 {
			ext = resolver.DefaultExtensions()
		}
		mainFields := cfg.Resolve.MainFields
		if len(mainFields) == 0 {
			mainFields = resolver.DefaultMainFields()
		}
		res = resolver.NewFSResolver(fsys, resolver.Options{
			Cwd:        cwd,
			Extensions: ext,
			MainFields: mainFields,
			Alias:      cfg.AliasMap(),
		})
	}
	logger := opts.Logger
	if logger == nil {
		logger = logging.New("loader")
	}
	files := cfg.Runtime.FileConcurrency
	if files <= 0 {
		files = 1
	}
	return &TaskContext{
		Config:   cfg,
		Resolver: res,
		Driver:   plugin.NewDriver(res, opts.Plugins...),
		Fs:       fsys,
		Cwd:      cwd,
		Logger:   logger,
		external: cfg.ExternalClassifier(),
		fileSem:  semaphore.NewWeighted(int64(files)),
	}, nil
}

// readFile reads p, bounded by the build-wide file semaphore.
func (tc *TaskContext) readFile(ctx context.Context, p string) ([]byte, error) {
	if err := tc.fileSem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer tc.fileSem.Release(1)
	return afero.ReadFile(tc.Fs, p)
}

// nearestPackageJSON asks the resolver for the package enclosing p. It
// returns nil when the resolver cannot answer.
func (tc *TaskContext) nearestPackageJSON(p string) *packagejson.PackageJSON {
	loc, ok := tc.Resolver.(resolver.PackageJSONLocator)
	if !ok {
		return nil
	}
	pkg, err := loc.NearestPackageJSON(p)
	if err != nil {
		tc.Logger.Debug("package.json lookup failed", "path", p, "err", err)
		return nil
	}
	return pkg
}
