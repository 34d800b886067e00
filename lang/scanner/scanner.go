// Some of the scanner package is adapted from the Go source code:
// https://cs.opensource.google/go/go/+/refs/tags/go1.22.1:src/go/scanner/scanner.go
//
// Copyright 2009 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package scanner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"go/scanner"
	"os"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/vellum-lang/vellum/lang/token"
)

type (
	Error     = scanner.Error
	ErrorList = scanner.ErrorList
)

var PrintError = scanner.PrintError

// TokenAndValue combines a scanned token's kind with its payload.
type TokenAndValue struct {
	Token token.Token
	Value token.Value
}

// ScanFiles tokenizes each of the given source files in turn and returns the
// resulting token stream per file alongside the FileSet they were added to.
// The error, if non-nil, is a scanner.ErrorList, or ctx.Err() if ctx is done
// before every file is scanned.
func ScanFiles(ctx context.Context, files ...string) (*token.FileSet, [][]TokenAndValue, error) {
	if len(files) == 0 {
		return nil, nil, nil
	}

	var (
		s      Scanner
		tokVal token.Value
		el     ErrorList
	)

	fs := token.NewFileSet()
	tokensByFile := make([][]TokenAndValue, len(files))
	for i, file := range files {
		select {
		case <-ctx.Done():
			return fs, tokensByFile, ctx.Err()
		default:
		}

		b, err := os.ReadFile(file)
		if err != nil {
			el.Add(token.Position{Filename: file}, err.Error())
			continue
		}

		fsf := fs.AddFile(file, -1, len(b))
		s.Init(fsf, b, el.Add)
		for {
			tok := s.Scan(&tokVal)
			tokensByFile[i] = append(tokensByFile[i], TokenAndValue{Token: tok, Value: tokVal})
			if tok == token.EOF {
				break
			}
		}
	}
	el.Sort()
	return fs, tokensByFile, el.Err()
}

// Scanner tokenizes a single source file for the parser to consume.
type Scanner struct {
	file *token.File
	src  []byte
	err  func(pos token.Position, msg string)

	sb               strings.Builder
	pendingSurrogate rune
	invalidByte      byte
	cur              rune
	off              int
	roff             int
}

var bom = [2]byte{0xFE, 0xFF}

// Init initializes the scanner to tokenize a new file. It panics if the
// file size does not match len(src).
func (s *Scanner) Init(file *token.File, src []byte, errHandler func(token.Position, string)) {
	if file.Size() != len(src) {
		panic(fmt.Sprintf("file size (%d) does not match src len (%d)", file.Size(), len(src)))
	}

	s.file = file
	s.src = src
	s.err = errHandler

	s.sb.Reset()
	s.pendingSurrogate = 0
	s.invalidByte = 0
	s.cur = ' '
	s.off = 0
	s.roff = 0

	if len(src) >= len(bom) && bytes.Equal(src[:len(bom)], bom[:]) {
		s.off += len(bom)
		s.roff += len(bom)
	}
	s.advance()
}

func (s *Scanner) peek() byte {
	if s.roff < len(s.src) {
		return s.src[s.roff]
	}
	return 0
}

// State is a saved scanning position, used by the parser to backtrack a
// single token of lookahead (e.g. disambiguating `for (x in y)` from a
// C-style for loop). It deliberately excludes the string-builder scratch
// space, which is reset at the start of every string scan and so
// needs no snapshotting.
type State struct {
	cur              rune
	off, roff        int
	invalidByte      byte
	pendingSurrogate rune
}

// Snapshot captures the scanner's current position.
func (s *Scanner) Snapshot() State {
	return State{cur: s.cur, off: s.off, roff: s.roff, invalidByte: s.invalidByte, pendingSurrogate: s.pendingSurrogate}
}

// Restore rewinds the scanner to a previously captured position.
func (s *Scanner) Restore(st State) {
	s.cur, s.off, s.roff = st.cur, st.off, st.roff
	s.invalidByte, s.pendingSurrogate = st.invalidByte, st.pendingSurrogate
}

func (s *Scanner) advance() {
	if s.roff >= len(s.src) {
		s.off = len(s.src)
		if s.cur == '\n' {
			s.file.AddLine(s.off)
		}
		s.cur = -1
		return
	}

	s.off = s.roff
	if s.cur == '\n' {
		s.file.AddLine(s.off)
	}

	s.invalidByte = 0
	r, w := rune(s.src[s.roff]), 1
	if r >= utf8.RuneSelf {
		r, w = utf8.DecodeRune(s.src[s.roff:])
		if r == utf8.RuneError && w == 1 {
			s.error(s.off, "illegal UTF-8 encoding")
			s.invalidByte = s.src[s.roff]
		}
	}
	s.roff += w
	s.cur = r
}

func (s *Scanner) error(off int, msg string) {
	if s.err != nil {
		s.err(s.file.Position(s.file.Pos(off)), msg)
	}
}

func (s *Scanner) errorf(off int, format string, args ...any) {
	s.error(off, fmt.Sprintf(format, args...))
}

func (s *Scanner) advanceIf(matches ...byte) bool {
	if bytes.ContainsRune(matches, s.cur) {
		s.advance()
		return true
	}
	return false
}

// Scan returns the next token in the source file, along with its payload in
// tokVal.
func (s *Scanner) Scan(tokVal *token.Value) (tok token.Token) {
	s.skipWhitespaceAndComments()

	pos := s.file.Pos(s.off)
	start := s.off

	switch cur := s.cur; {
	case isLetter(cur):
		lit := s.ident()
		tok = token.IDENT
		if len(lit) > 1 {
			tok = token.LookupKw(lit)
		}
		*tokVal = token.Value{Raw: lit, Pos: pos}

	case isDecimal(cur) || (cur == '.' && isDecimal(rune(s.peek()))):
		var lit string
		tok, lit = s.number()
		*tokVal = token.Value{Raw: lit, Pos: pos}
		if tok == token.INT {
			v, err := numberToInt(lit)
			if err != nil && errors.Is(err, strconv.ErrRange) {
				s.error(start, "integer literal value out of range")
			}
			tokVal.Int = v
		} else {
			v, err := numberToFloat(lit)
			if err != nil && errors.Is(err, strconv.ErrRange) {
				s.error(start, "float literal value out of range")
			}
			tokVal.Float = v
		}

	default:
		s.advance() // always make progress
		switch cur {
		case '"', '\'':
			tok = token.STRING
			lit, val := s.shortString(cur)
			*tokVal = token.Value{Raw: lit, Pos: pos, String: val}

		case '=':
			tok = token.EQ
			if s.advanceIf('=') {
				tok = token.EQEQ
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '!':
			tok = token.BANG
			if s.advanceIf('=') {
				tok = token.BANGEQ
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '>':
			tok = token.GT
			if s.advanceIf('=') {
				tok = token.GE
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '<':
			tok = token.LT
			if s.advanceIf('=') {
				tok = token.LE
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '+':
			tok = token.PLUS
			if s.advanceIf('+') {
				tok = token.PLUSPLUS
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '-':
			tok = token.MINUS
			if s.advanceIf('-') {
				tok = token.MINUSMINUS
			} else if s.advanceIf('>') {
				tok = token.ARROW
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '*':
			tok = token.STAR
			if s.advanceIf('*') {
				tok = token.STARSTAR
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '/':
			tok = token.SLASH
			if s.advanceIf('/') {
				s.lineComment()
				return s.Scan(tokVal)
			} else if s.advanceIf('*') {
				s.blockComment()
				return s.Scan(tokVal)
			}
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '%':
			tok = token.PERCENT
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '?':
			tok = token.QUESTION
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case ':':
			tok = token.COLON
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case ',':
			tok = token.COMMA
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '.':
			tok = token.DOT
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case ';':
			tok = token.SEMI
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '(':
			tok = token.LPAREN
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case ')':
			tok = token.RPAREN
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '{':
			tok = token.LBRACE
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '}':
			tok = token.RBRACE
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '[':
			tok = token.LBRACK
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case ']':
			tok = token.RBRACK
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case '|':
			tok = token.PIPE
			*tokVal = token.Value{Raw: tok.String(), Pos: pos}

		case -1:
			tok = token.EOF
			*tokVal = token.Value{Raw: "", Pos: pos}

		default:
			if cur == utf8.RuneError && s.invalidByte > 0 {
				cur = rune(s.invalidByte)
				s.invalidByte = 0
			}
			s.errorf(start, "illegal character %#U", cur)
			tok = token.ILLEGAL
			*tokVal = token.Value{Raw: string(cur), Pos: pos}
		}
	}
	return tok
}

func (s *Scanner) ident() string {
	start := s.off
	for isLetter(s.cur) || isDigit(s.cur) {
		s.advance()
	}
	return string(s.src[start:s.off])
}

func (s *Scanner) skipWhitespaceAndComments() {
	for isWhitespace(s.cur) {
		s.advance()
	}
}

func isWhitespace(rn rune) bool {
	return rn == ' ' || rn == '\t' || rn == '\n' || rn == '\r'
}

func isLetter(rn rune) bool {
	return 'a' <= rn && rn <= 'z' ||
		'A' <= rn && rn <= 'Z' ||
		rn == '_' ||
		rn >= utf8.RuneSelf && unicode.IsLetter(rn)
}

func isDigit(rn rune) bool {
	return '0' <= rn && rn <= '9' ||
		rn >= utf8.RuneSelf && unicode.IsDigit(rn)
}
