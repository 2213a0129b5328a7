package engine

import "bundlecore/internal/module"

// determineSideEffects applies the precedence: a hook "false" or
// "no-treeshake" decides outright, then the package's sideEffects field, then
// statement analysis. pkg and analyzed are only called when reached.
func determineSideEffects(hook *module.HookSideEffects, pkg func() (bool, bool), analyzed func() bool) module.DeterminedSideEffects {
	if hook != nil {
		switch *hook {
		case module.HookSideEffectsFalse:
			return module.UserDefinedSideEffects(false)
		case module.HookSideEffectsNoTreeshake:
			return module.NoTreeshakeSideEffects()
		}
	}
	if pkg != nil {
		if v, ok := pkg(); ok {
			return module.UserDefinedSideEffects(v)
		}
	}
	return module.AnalyzedSideEffects(analyzed())
}
