package builtin

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"bundlecore/internal/plugin"
)

// AliasPlugin rewrites specifiers before resolution. An entry matches the
// whole specifier or a prefix followed by "/".
type AliasPlugin struct {
	entries []aliasEntry
}

type aliasEntry struct {
	find    string
	replace string
}

func NewAlias(entries map[string]string) *AliasPlugin {
	p := &AliasPlugin{}
	for find, replace := range entries {
		p.entries = append(p.entries, aliasEntry{find: find, replace: replace})
	}
	p.sortEntries()
	return p
}

func (p *AliasPlugin) Name() string {
	return "alias"
}

func (p *AliasPlugin) Description() string {
	return "Rewrites import specifiers (e.g. @/ to ./src/) and resolves the result through the remaining plugins."
}

func (p *AliasPlugin) Options() []plugin.Option {
	return []plugin.Option{
		{
			Name:        "entries",
			Description: "Comma-separated find=replace pairs (e.g. @=./src,react=preact/compat).",
		},
	}
}

func (p *AliasPlugin) Configure(opts map[string]string) error {
	p.entries = nil
	pairs, err := parsePairs(opts["entries"])
	if err != nil {
		return fmt.Errorf("alias: %w", err)
	}
	for _, pair := range pairs {
		p.entries = append(p.entries, aliasEntry{find: pair[0], replace: pair[1]})
	}
	p.sortEntries()
	return nil
}

// Longest find first so more specific entries win.
func (p *AliasPlugin) sortEntries() {
	sort.Slice(p.entries, func(i, j int) bool {
		if len(p.entries[i].find) != len(p.entries[j].find) {
			return len(p.entries[i].find) > len(p.entries[j].find)
		}
		return p.entries[i].find < p.entries[j].find
	})
}

func (p *AliasPlugin) ResolveID(ctx context.Context, args *plugin.ResolveIDArgs) (*plugin.ResolveIDOutput, error) {
	for _, e := range p.entries {
		var rewritten string
		switch {
		case args.Specifier == e.find:
			rewritten = e.replace
		case strings.HasPrefix(args.Specifier, e.find+"/"):
			rewritten = e.replace + strings.TrimPrefix(args.Specifier, e.find)
		default:
			continue
		}
		if args.Resolve == nil {
			return &plugin.ResolveIDOutput{ID: rewritten}, nil
		}
		return args.Resolve(ctx, rewritten)
	}
	return nil, nil
}

func init() {
	plugin.Register("alias", func() plugin.Plugin { return &AliasPlugin{} })
}
