package machine

import "fmt"

// List represents a mutable list of values.
type List struct {
	elems     []Value
	itercount uint32 // number of active iterators
}

var (
	_ Value       = (*List)(nil)
	_ Indexable   = (*List)(nil)
	_ HasSetIndex = (*List)(nil)
	_ Iterable    = (*List)(nil)
)

// NewList returns a list containing the specified elements. Callers should
// not subsequently modify elems directly.
func NewList(elems []Value) *List { return &List{elems: elems} }

func (l *List) String() string { return fmt.Sprintf("list(%p)", l) }
func (l *List) Type() string   { return "list" }
func (l *List) Len() int       { return len(l.elems) }
func (l *List) Index(i int) Value {
	return l.elems[i]
}

func (l *List) checkMutable(verb string) error {
	if l.itercount > 0 {
		return fmt.Errorf("cannot %s list during iteration", verb)
	}
	return nil
}

func (l *List) SetIndex(i int, v Value) error {
	if err := l.checkMutable("assign to element of"); err != nil {
		return err
	}
	l.elems[i] = v
	return nil
}

func (l *List) Append(v Value) error {
	if err := l.checkMutable("append to"); err != nil {
		return err
	}
	l.elems = append(l.elems, v)
	return nil
}

func (l *List) Pop() (Value, error) {
	if err := l.checkMutable("pop from"); err != nil {
		return nil, err
	}
	if len(l.elems) == 0 {
		return nil, fmt.Errorf("pop from empty list")
	}
	v := l.elems[len(l.elems)-1]
	l.elems = l.elems[:len(l.elems)-1]
	return v, nil
}

func (l *List) Iterate() Iterator {
	l.itercount++
	return &listIterator{l: l}
}

type listIterator struct {
	l *List
	i int
}

func (it *listIterator) Next(p *Value) bool {
	if it.i < len(it.l.elems) {
		*p = it.l.elems[it.i]
		it.i++
		return true
	}
	return false
}

func (it *listIterator) Done() { it.l.itercount-- }
