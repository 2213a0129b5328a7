package resolver

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bundlecore/internal/module"
	"bundlecore/internal/packagejson"
)

// Resolver maps a specifier written in importer to a concrete module.
// Implementations must be safe for concurrent use by many load tasks.
type Resolver interface {
	Resolve(ctx context.Context, specifier, importer string, kind module.ImportKind) (*Resolution, error)
}

// PackageJSONLocator is implemented by resolvers that can find the
// package.json enclosing an arbitrary path. It returns nil, nil when there is
// none.
type PackageJSONLocator interface {
	NearestPackageJSON(p string) (*packagejson.PackageJSON, error)
}

// Resolution is a successful lookup. PackageJSON is the nearest package.json
// enclosing the resolved file, if any.
type Resolution struct {
	Path        module.ResolvedPath
	Format      module.ModuleDefFormat
	PackageJSON *packagejson.PackageJSON
}

// Options configures the default file-system resolver.
type Options struct {
	// Cwd is the base directory for entries and for virtual importers.
	Cwd string
	// Extensions are probed in order, dot included.
	Extensions []string
	// MainFields are the package.json entry fields tried for bare
	// specifiers. "module" is skipped for require().
	MainFields []string
	// Alias rewrites a specifier, or a specifier prefix followed by "/",
	// before resolution.
	Alias map[string]string
}

func DefaultExtensions() []string {
	return []string{".js", ".mjs", ".cjs", ".jsx", ".ts", ".mts", ".cts", ".tsx", ".json"}
}

func DefaultMainFields() []string {
	return []string{"module", "main"}
}

// expandAlias applies alias rules until none match. The longest matching key
// wins. A rule chain that revisits a specifier is reported as cyclic.
func expandAlias(specifier string, alias map[string]string) (string, error) {
	if len(alias) == 0 {
		return specifier, nil
	}
	keys := make([]string, 0, len(alias))
	for k := range alias {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if len(keys[i]) != len(keys[j]) {
			return len(keys[i]) > len(keys[j])
		}
		return keys[i] < keys[j]
	})

	chain := []string{specifier}
	current := specifier
	for {
		next, ok := applyAlias(current, keys, alias)
		if !ok {
			return current, nil
		}
		for _, seen := range chain {
			if seen == next {
				return "", fmt.Errorf("alias cycle detected: %s -> %s", strings.Join(chain, " -> "), next)
			}
		}
		chain = append(chain, next)
		current = next
	}
}

func applyAlias(specifier string, keys []string, alias map[string]string) (string, bool) {
	for _, k := range keys {
		if specifier == k {
			return alias[k], true
		}
		if strings.HasPrefix(specifier, k+"/") {
			return alias[k] + strings.TrimPrefix(specifier, k), true
		}
	}
	return "", false
}
