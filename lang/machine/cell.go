package machine

import "github.com/vellum-lang/vellum/lang/heap"

// A cell is a box containing a Value. Local variables captured by a nested
// function (the resolver's Cell scope) hold their value indirectly through
// a cell so that the outer frame and every closure over it observe the same
// mutable storage; the GET_LOCAL_CELL/SET_LOCAL_CELL and GET_UPVALUE/
// SET_UPVALUE opcodes are the only ones that ever touch one.
type cell struct {
	id heap.ID
	v  Value
}

var (
	_ Value       = (*cell)(nil)
	_ heap.Object = (*cell)(nil)
)

func (c *cell) String() string { return "cell" }
func (c *cell) Type() string   { return "cell" }

func (c *cell) HeapID() heap.ID { return c.id }
func (c *cell) Kind() string    { return "cell" }
func (c *cell) References() []heap.ID {
	if ho, ok := c.v.(heapObject); ok {
		return []heap.ID{ho.HeapID()}
	}
	return nil
}
