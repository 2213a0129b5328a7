package module

import (
	"fmt"
	"strings"
)

// HookSideEffects is a side-effects declaration supplied by a plugin hook.
type HookSideEffects string

const (
	HookSideEffectsTrue        HookSideEffects = "true"
	HookSideEffectsFalse       HookSideEffects = "false"
	HookSideEffectsNoTreeshake HookSideEffects = "no-treeshake"
)

func ParseHookSideEffects(raw string) (HookSideEffects, error) {
	switch v := HookSideEffects(strings.ToLower(strings.TrimSpace(raw))); v {
	case HookSideEffectsTrue, HookSideEffectsFalse, HookSideEffectsNoTreeshake:
		return v, nil
	default:
		return "", fmt.Errorf("invalid side effects value %q (must be one of: true, false, no-treeshake)", raw)
	}
}

// Ptr is a convenience for optional hook fields.
func (h HookSideEffects) Ptr() *HookSideEffects {
	return &h
}

type SideEffectsKind string

const (
	SideEffectsUserDefined SideEffectsKind = "user-defined"
	SideEffectsAnalyzed    SideEffectsKind = "analyzed"
	SideEffectsNoTreeshake SideEffectsKind = "no-treeshake"
)

// DeterminedSideEffects is the final tree-shaking classification of a module.
// The zero value is not meaningful; use the constructors.
type DeterminedSideEffects struct {
	Kind  SideEffectsKind `json:"kind"`
	Value bool            `json:"value"`
}

func UserDefinedSideEffects(v bool) DeterminedSideEffects {
	return DeterminedSideEffects{Kind: SideEffectsUserDefined, Value: v}
}

func AnalyzedSideEffects(v bool) DeterminedSideEffects {
	return DeterminedSideEffects{Kind: SideEffectsAnalyzed, Value: v}
}

func NoTreeshakeSideEffects() DeterminedSideEffects {
	return DeterminedSideEffects{Kind: SideEffectsNoTreeshake, Value: true}
}

// HasSideEffects reports whether the module must be kept even if unused.
func (d DeterminedSideEffects) HasSideEffects() bool {
	if d.Kind == SideEffectsNoTreeshake {
		return true
	}
	return d.Value
}

func (d DeterminedSideEffects) String() string {
	if d.Kind == SideEffectsNoTreeshake {
		return "NoTreeshake"
	}
	name := "Analyzed"
	if d.Kind == SideEffectsUserDefined {
		name = "UserDefined"
	}
	return fmt.Sprintf("%s(%t)", name, d.Value)
}
