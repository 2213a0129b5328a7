package plugin

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Factory builds a fresh, unconfigured plugin instance.
type Factory func() Plugin

var (
	registry = make(map[string]Factory)
	mu       sync.RWMutex
)

func Register(name string, f Factory) {
	mu.Lock()
	defer mu.Unlock()
	if _, exists := registry[name]; exists {
		panic(fmt.Sprintf("plugin %s already registered", name))
	}
	registry[name] = f
}

func newInstance(f Factory) Plugin {
	// Every instance gets include/exclude filtering for free.
	return &FilterWrapper{Plugin: f()}
}

// List returns one new instance of every registered plugin, sorted by name.
func List() []Plugin {
	mu.RLock()
	defer mu.RUnlock()
	var plugins []Plugin
	for _, f := range registry {
		plugins = append(plugins, newInstance(f))
	}
	sort.Slice(plugins, func(i, j int) bool {
		return plugins[i].Name() < plugins[j].Name()
	})
	return plugins
}

// Resolve instantiates the plugins named in a comma-separated selector, in
// selector order. Hook order follows plugin order, so the order matters.
// An empty selector selects nothing.
func Resolve(selector string) ([]Plugin, error) {
	mu.RLock()
	defer mu.RUnlock()

	if strings.TrimSpace(selector) == "" {
		return nil, nil
	}

	var selected []Plugin
	seen := map[string]bool{}
	for _, name := range strings.Split(selector, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if seen[name] {
			return nil, fmt.Errorf("plugin selected twice: %s", name)
		}
		seen[name] = true
		f, ok := registry[name]
		if !ok {
			return nil, fmt.Errorf("plugin not found: %s", name)
		}
		selected = append(selected, newInstance(f))
	}
	return selected, nil
}
