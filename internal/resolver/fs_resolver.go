package resolver

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"syscall"

	"bundlecore/internal/module"
	"bundlecore/internal/packagejson"

	"github.com/spf13/afero"
)

// FSResolver is the default node-style resolver over an afero filesystem.
// Successful lookups are memoized and concurrent identical lookups share one
// filesystem walk.
type FSResolver struct {
	fs   afero.Fs
	opts Options

	resolutions memo[*Resolution]
	packages    memo[*packagejson.PackageJSON]
}

func NewFSResolver(fsys afero.Fs, opts Options) *FSResolver {
	if len(opts.Extensions) == 0 {
		opts.Extensions = DefaultExtensions()
	}
	if len(opts.MainFields) == 0 {
		opts.MainFields = DefaultMainFields()
	}
	return &FSResolver{fs: fsys, opts: opts}
}

func (r *FSResolver) Resolve(ctx context.Context, specifier, importer string, kind module.ImportKind) (*Resolution, error) {
	if strings.TrimSpace(specifier) == "" {
		return nil, newError(KindInvalidSpecifier, specifier, importer, errors.New("empty specifier"))
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	target, err := expandAlias(specifier, r.opts.Alias)
	if err != nil {
		return nil, newError(KindCyclic, specifier, importer, err)
	}

	baseDir := r.baseDir(importer)
	key := baseDir + "\x00" + target + "\x00" + string(kind)

	res, err := r.resolutions.get(key, func() (*Resolution, error) {
		return r.resolve(target, baseDir, kind)
	})
	if err != nil {
		var rerr *Error
		if errors.As(err, &rerr) {
			// Shared flights report the caller's own specifier.
			return nil, newError(rerr.Kind, specifier, importer, rerr.Err)
		}
		return nil, err
	}
	return res, nil
}

func (r *FSResolver) baseDir(importer string) string {
	if importer == "" || module.IsVirtualID(importer) {
		return r.opts.Cwd
	}
	p := module.ParseResolvedPath(importer).Path
	if !filepath.IsAbs(p) {
		p = filepath.Join(r.opts.Cwd, p)
	}
	return filepath.Dir(p)
}

func (r *FSResolver) resolve(specifier, baseDir string, kind module.ImportKind) (*Resolution, error) {
	if module.IsVirtualID(specifier) {
		return nil, newError(KindNotFound, specifier, "", errors.New("no plugin handled the virtual id"))
	}

	rp := module.ParseResolvedPath(specifier)
	var (
		found string
		err   error
	)
	if isRelative(rp.Path) || filepath.IsAbs(rp.Path) {
		target := rp.Path
		if !filepath.IsAbs(target) {
			target = filepath.Join(baseDir, target)
		}
		found, err = r.resolvePath(target)
	} else {
		found, err = r.resolveBare(rp.Path, baseDir, kind)
	}
	if err != nil {
		return nil, err
	}
	if found == "" {
		return nil, newError(KindNotFound, specifier, "", nil)
	}

	pkg, err := r.nearestPackageJSON(filepath.Dir(found))
	if err != nil {
		return nil, err
	}
	return &Resolution{
		Path:        module.ResolvedPath{Path: found, Query: rp.Query},
		Format:      DetectFormat(found, pkg),
		PackageJSON: pkg,
	}, nil
}

func isRelative(p string) bool {
	return p == "." || p == ".." || strings.HasPrefix(p, "./") || strings.HasPrefix(p, "../")
}

// DetectFormat refines the extension-based format with the enclosing
// package's "type" field.
func DetectFormat(p string, pkg *packagejson.PackageJSON) module.ModuleDefFormat {
	format := module.FormatFromPath(p)
	if format != module.FormatJs || pkg == nil {
		return format
	}
	switch pkg.Type {
	case "module":
		return module.FormatEsmPackageJSON
	case "commonjs":
		return module.FormatCjsPackageJSON
	default:
		return format
	}
}

// resolvePath tries target as a file, then with each extension, then as a
// directory.
func (r *FSResolver) resolvePath(target string) (string, error) {
	found, err := r.resolveFile(target)
	if err != nil || found != "" {
		return found, err
	}
	return r.resolveDir(target)
}

func (r *FSResolver) resolveFile(target string) (string, error) {
	ok, err := r.isFile(target)
	if err != nil || ok {
		return target, err
	}
	for _, ext := range r.opts.Extensions {
		candidate := target + ext
		ok, err := r.isFile(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return "", nil
}

func (r *FSResolver) resolveDir(dir string) (string, error) {
	ok, err := r.isDir(dir)
	if err != nil || !ok {
		return "", err
	}
	pkg, err := r.loadPackageJSON(filepath.Join(dir, packagejson.FileName))
	if err != nil {
		return "", err
	}
	if pkg != nil && pkg.Main != "" {
		found, err := r.resolveFile(filepath.Join(dir, pkg.Main))
		if err != nil || found != "" {
			return found, err
		}
		found, err = r.resolveIndex(filepath.Join(dir, pkg.Main))
		if err != nil || found != "" {
			return found, err
		}
	}
	return r.resolveIndex(dir)
}

func (r *FSResolver) resolveIndex(dir string) (string, error) {
	for _, ext := range r.opts.Extensions {
		candidate := filepath.Join(dir, "index"+ext)
		ok, err := r.isFile(candidate)
		if err != nil {
			return "", err
		}
		if ok {
			return candidate, nil
		}
	}
	return "", nil
}

// resolveBare walks node_modules directories from baseDir up to the root.
func (r *FSResolver) resolveBare(specifier, baseDir string, kind module.ImportKind) (string, error) {
	name, subpath, err := splitPackageSpecifier(specifier)
	if err != nil {
		return "", newError(KindInvalidSpecifier, specifier, "", err)
	}

	dir := baseDir
	for {
		if filepath.Base(dir) != "node_modules" {
			pkgDir := filepath.Join(dir, "node_modules", name)
			ok, err := r.isDir(pkgDir)
			if err != nil {
				return "", err
			}
			if ok {
				if subpath != "" {
					return r.resolvePath(filepath.Join(pkgDir, subpath))
				}
				return r.resolvePackageEntry(pkgDir, kind)
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func (r *FSResolver) resolvePackageEntry(pkgDir string, kind module.ImportKind) (string, error) {
	pkg, err := r.loadPackageJSON(filepath.Join(pkgDir, packagejson.FileName))
	if err != nil {
		return "", err
	}
	if pkg != nil {
		for _, field := range r.opts.MainFields {
			var entry string
			switch field {
			case "module":
				if kind == module.ImportKindRequire {
					continue
				}
				entry = pkg.Module
			case "main":
				entry = pkg.Main
			}
			if entry == "" {
				continue
			}
			found, err := r.resolvePath(filepath.Join(pkgDir, entry))
			if err != nil || found != "" {
				return found, err
			}
		}
	}
	return r.resolveIndex(pkgDir)
}

// splitPackageSpecifier separates "@scope/name/sub/path" into the package
// name and the subpath within it.
func splitPackageSpecifier(specifier string) (name, subpath string, err error) {
	parts := strings.Split(specifier, "/")
	n := 1
	if strings.HasPrefix(specifier, "@") {
		if len(parts) < 2 || parts[1] == "" {
			return "", "", errors.New("scoped package specifier is missing a name")
		}
		n = 2
	}
	for _, p := range parts[:n] {
		if p == "" || p == "." || p == ".." {
			return "", "", errors.New("malformed package name")
		}
	}
	return strings.Join(parts[:n], "/"), strings.Join(parts[n:], "/"), nil
}

func (r *FSResolver) loadPackageJSON(p string) (*packagejson.PackageJSON, error) {
	return r.packages.get("file:"+p, func() (*packagejson.PackageJSON, error) {
		ok, err := r.isFile(p)
		if err != nil || !ok {
			return nil, err
		}
		pkg, err := packagejson.Load(r.fs, p)
		if err != nil {
			return nil, newError(KindPackageJSON, "", "", err)
		}
		return pkg, nil
	})
}

// nearestPackageJSON returns the closest package.json at or above dir.
func (r *FSResolver) nearestPackageJSON(dir string) (*packagejson.PackageJSON, error) {
	return r.packages.get("dir:"+dir, func() (*packagejson.PackageJSON, error) {
		pkg, err := r.loadPackageJSON(filepath.Join(dir, packagejson.FileName))
		if err != nil || pkg != nil {
			return pkg, err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		return r.nearestPackageJSON(parent)
	})
}

// NearestPackageJSON exposes the package lookup used during resolution, for
// modules whose path did not come from this resolver.
func (r *FSResolver) NearestPackageJSON(p string) (*packagejson.PackageJSON, error) {
	if p == "" || module.IsVirtualID(p) {
		return nil, nil
	}
	return r.nearestPackageJSON(filepath.Dir(module.ParseResolvedPath(p).Path))
}

func (r *FSResolver) isFile(p string) (bool, error) {
	info, err := r.stat(p)
	if err != nil || info == nil {
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func (r *FSResolver) isDir(p string) (bool, error) {
	info, err := r.stat(p)
	if err != nil || info == nil {
		return false, err
	}
	return info.IsDir(), nil
}

func (r *FSResolver) stat(p string) (fs.FileInfo, error) {
	info, err := r.fs.Stat(p)
	if err == nil {
		return info, nil
	}
	if errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR) {
		return nil, nil
	}
	return nil, newError(KindIO, p, "", err)
}
