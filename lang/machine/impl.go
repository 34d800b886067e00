package machine

import "fmt"

// Some machine opcodes are more complex and/or need to be exposed via a
// low-level interface to be available for higher-level APIs. Those functions
// belong in this file.

// Call calls the function or Callable value fn with the specified positional
// arguments.
func Call(thread *Thread, fn Value, args *Tuple) (Value, error) {
	c, ok := fn.(Callable)
	if !ok {
		return nil, fmt.Errorf("invalid call of non-function (%s)", fn.Type())
	}

	thread.init()

	if thread.MaxCallStackDepth > 0 && len(thread.frames) >= thread.MaxCallStackDepth {
		return nil, thread.evalError(fmt.Errorf("exceeded maximum call stack depth (%d)", thread.MaxCallStackDepth))
	}

	fr := &Frame{callable: c}
	thread.frames = append(thread.frames, fr)

	// Use defer to ensure that panics from built-ins pass through the
	// interpreter without leaving it in a bad state.
	defer func() {
		thread.frames = thread.frames[:len(thread.frames)-1]
	}()

	result, err := c.CallInternal(thread, args)

	if result == nil && err == nil {
		err = fmt.Errorf("internal error: nil returned from %s", fn)
	}

	if err != nil {
		if _, ok := err.(*EvalError); !ok {
			err = thread.evalError(err)
		}
	}

	return result, err
}
