package machine

// Bool is the machine's boolean value type.
type Bool bool

const (
	False = Bool(false)
	True  = Bool(true)
)

var (
	_ Value   = Bool(false)
	_ Ordered = Bool(false)
)

func (b Bool) String() string {
	if b {
		return "true"
	}
	return "false"
}
func (b Bool) Type() string { return "bool" }
func (b Bool) Truth() bool  { return bool(b) }

func (b Bool) Cmp(y Value) (int, error) {
	c := y.(Bool)
	switch {
	case b == c:
		return 0, nil
	case b == false: // b < c
		return -1, nil
	default:
		return +1, nil
	}
}
