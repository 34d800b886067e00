package machine

import (
	"strconv"
	"strings"
)

// String is the machine's text value type: an immutable sequence of bytes
// holding UTF-8 text.
type String string

var (
	_ Value     = String("")
	_ Ordered   = String("")
	_ Indexable = String("")
)

func (s String) String() string    { return strconv.Quote(string(s)) }
func (s String) Type() string      { return "string" }
func (s String) Truth() bool       { return len(s) > 0 }
func (s String) Len() int          { return len(s) }
func (s String) Index(i int) Value { return s[i : i+1] }

func (s String) Cmp(y Value) (int, error) {
	t := y.(String)
	return strings.Compare(string(s), string(t)), nil
}

// Concat implements string concatenation for the '+' operator.
func (s String) Concat(y String) String { return s + y }
