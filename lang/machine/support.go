package machine

// GetIndex, SetIndex, GetRange, GetAttr and SetField re-export eval.go's
// container/attribute primitives so that lang/interp's tree-walking
// evaluator can apply the exact same indexing, slicing and attribute
// semantics as the bytecode VM's CONTAINER_GET/CONTAINER_SET/
// CONTAINER_GET_RANGE/GET_PROPERTY/SET_PROPERTY opcodes without duplicating
// their logic. Iterate, shared the same way, is exported from eval.go.

// GetIndex evaluates x[i] for any Indexable or Mapping value.
func GetIndex(x, i Value) (Value, error) { return getIndex(x, i) }

// SetIndex evaluates x[i] = v.
func SetIndex(x, i, v Value) error { return setIndex(x, i, v) }

// GetRange evaluates a slice expression x[lo:hi].
func GetRange(x, lo, hi Value) (Value, error) { return getRange(x, lo, hi) }

// GetAttr evaluates x.name for a plain property read.
func GetAttr(x Value, name string) (Value, error) { return getAttr(x, name) }

// SetField evaluates x.name = v.
func SetField(x Value, name string, v Value) error { return setField(x, name, v) }
