package machine

// Frame records one call, whether to a compiled *Function or to a built-in
// Callable. For a *Function call, ip and slotBase are live for the
// duration of the call: ip is the next instruction to execute and slotBase
// is the index into Thread.stack where this call's locals begin, so the
// collector can find every local (and every cell a local holds) by walking
// Thread.stack without needing a separate locals array.
type Frame struct {
	callable Value
	ip       int
	slotBase int
}

// Name returns a human-readable label for the current point of execution in
// this frame, used in runtime error backtraces. Pinpointing it down to a
// file/line/column (as a compiler.Position) requires the compiler's
// pc-to-line table, which is not wired up yet.
func (fr *Frame) Name() string {
	if c, ok := fr.callable.(Callable); ok {
		return c.Name()
	}
	return "<builtin>"
}
