package scanner

import (
	"strconv"
	"strings"

	"github.com/vellum-lang/vellum/lang/token"
)

// number scans a decimal integer or floating-point literal starting at the
// scanner's current position, which has already been verified to be a digit
// or a '.' followed by a digit.
func (s *Scanner) number() (tok token.Token, lit string) {
	startOff := s.off
	tok = token.INT

	digsep := s.digits()
	if s.cur == '.' {
		tok = token.FLOAT
		s.advance()
		digsep |= s.digits()
	}
	if e := lower(s.cur); e == 'e' {
		s.advance()
		tok = token.FLOAT
		if s.cur == '+' || s.cur == '-' {
			s.advance()
		}
		ds := s.digits()
		if ds == 0 {
			s.error(s.off, "exponent has no digits")
		}
	}
	if digsep == 0 {
		s.error(startOff, "malformed number literal")
	}

	lit = string(s.src[startOff:s.off])
	if i := invalidSep(lit); i >= 0 {
		s.error(startOff+i, "'_' must separate successive digits")
	}
	return tok, lit
}

func isDecimal(rn rune) bool { return '0' <= rn && rn <= '9' }

// digits accepts the sequence { digit | '_' } and reports whether at least
// one digit was seen.
func (s *Scanner) digits() (seen int) {
	for isDecimal(s.cur) || s.cur == '_' {
		if s.cur != '_' {
			seen = 1
		}
		s.advance()
	}
	return seen
}

// invalidSep returns the index of the first misplaced '_' in x, or -1: an
// underscore must have a digit on both sides.
func invalidSep(x string) int {
	for i := 0; i < len(x); i++ {
		if x[i] != '_' {
			continue
		}
		if i == 0 || i == len(x)-1 || !isDecimal(rune(x[i-1])) || !isDecimal(rune(x[i+1])) {
			return i
		}
	}
	return -1
}

func lower(ch rune) rune { return ('a' - 'A') | ch }

func numberToInt(lit string) (int64, error) {
	return strconv.ParseInt(strings.ReplaceAll(lit, "_", ""), 10, 64)
}

func numberToFloat(lit string) (float64, error) {
	return strconv.ParseFloat(strings.ReplaceAll(lit, "_", ""), 64)
}
