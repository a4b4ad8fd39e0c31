package sandbox

// RunGuard is exported for testing purposes only.
type RunGuard = runGuard

// Do is exported for testing purposes only.
func (g *RunGuard) Do(f func()) { g.do(f) }

// Finish is exported for testing purposes only.
func (g *RunGuard) Finish() { g.finish() }
