package machine

import "strconv"

// Int is the machine's integer value type: a 64-bit signed integer.
type Int int64

var (
	_ Value   = Int(0)
	_ Ordered = Int(0)
)

func (i Int) String() string { return strconv.FormatInt(int64(i), 10) }
func (i Int) Type() string   { return "int" }

func (i Int) Cmp(y Value) (int, error) {
	j := y.(Int)
	switch {
	case i < j:
		return -1, nil
	case i > j:
		return +1, nil
	default:
		return 0, nil
	}
}

func (i Int) Truth() bool { return i != 0 }
