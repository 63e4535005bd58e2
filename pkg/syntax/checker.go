// Package syntax performs a structural pre-check of Python source.
//
// The checker is not a parser. It tokenizes just enough of the language to
// catch the errors beginners hit before a script ever runs: unbalanced or
// mismatched brackets, unterminated strings, and compound-statement headers
// missing their colon. Anything it cannot classify passes; a clean result
// is not a guarantee the interpreter will accept the file.
//
// Check never fails. Any input, including empty source and binary garbage,
// produces a (possibly empty) problem list.
package syntax

import "fmt"

// Problem is one structural issue found in the source.
type Problem struct {
	Line    int    `json:"line"`          // 1-based line number
	Col     int    `json:"col,omitempty"` // 1-based column, 0 when unknown
	Message string `json:"message"`
}

// compoundKeywords are statement keywords whose logical line must carry a
// colon at bracket depth zero.
var compoundKeywords = map[string]bool{
	"def":     true,
	"class":   true,
	"if":      true,
	"elif":    true,
	"else":    true,
	"for":     true,
	"while":   true,
	"try":     true,
	"except":  true,
	"finally": true,
	"with":    true,
	"async":   true,
	"match":   false, // soft keyword, also a common variable name
	"case":    false,
}

// closerFor maps closing brackets to their openers.
var closerFor = map[rune]rune{')': '(', ']': '[', '}': '{'}

type opener struct {
	ch   rune
	line int
	col  int
}

// Check scans source and reports structural problems in scan order.
func Check(source string) []Problem {
	var problems []Problem
	var stack []opener

	line, col := 1, 0

	// String state.
	var (
		inStr     bool
		strQuote  rune
		strTriple bool
		strRaw    bool
		strLine   int
	)
	inComment := false

	// Logical-line state. A logical line spans physical lines while a
	// bracket is open or a backslash continuation is pending.
	var (
		firstWord   []rune
		wordDone    bool
		sigSeen     bool
		colonSeen   bool // ':' at bracket depth zero
		logicalLine int
	)
	resetLogical := func() {
		firstWord = firstWord[:0]
		wordDone = false
		sigSeen = false
		colonSeen = false
		logicalLine = 0
	}
	endLogical := func() {
		if sigSeen && compoundKeywords[string(firstWord)] && !colonSeen {
			problems = append(problems, Problem{
				Line:    logicalLine,
				Message: fmt.Sprintf("expected ':' at the end of the %q statement", string(firstWord)),
			})
		}
		resetLogical()
	}

	runes := []rune(source)
	for i := 0; i < len(runes); i++ {
		ch := runes[i]
		col++

		if ch == '\n' {
			if inStr && !strTriple {
				problems = append(problems, Problem{
					Line:    strLine,
					Message: "unterminated string literal",
				})
				inStr = false
			}
			inComment = false
			if !inStr && len(stack) == 0 {
				endLogical()
			}
			line++
			col = 0
			continue
		}
		if inComment || ch == '\r' {
			continue
		}

		if inStr {
			switch {
			case ch == '\\' && !strRaw:
				// Escape: the next rune is literal, even a quote.
				if i+1 < len(runes) {
					i++
					if runes[i] == '\n' {
						line++
						col = 0
					} else {
						col++
					}
				}
			case ch == strQuote:
				if !strTriple {
					inStr = false
				} else if i+2 < len(runes) && runes[i+1] == strQuote && runes[i+2] == strQuote {
					inStr = false
					i += 2
					col += 2
				}
				if !inStr {
					sigSeen = true
					wordDone = true
				}
			}
			continue
		}

		switch {
		case ch == '#':
			inComment = true
			continue

		case ch == ' ' || ch == '\t':
			continue

		case ch == '\\':
			// Explicit line continuation; anything else after a
			// backslash is the interpreter's problem, not ours.
			if i+1 < len(runes) && runes[i+1] == '\n' {
				i++
				line++
				col = 0
			} else if i+2 < len(runes) && runes[i+1] == '\r' && runes[i+2] == '\n' {
				i += 2
				line++
				col = 0
			}
			continue

		case ch == '\'' || ch == '"':
			inStr = true
			strQuote = ch
			strLine = line
			strRaw = hasRawPrefix(runes, i)
			strTriple = i+2 < len(runes) && runes[i+1] == ch && runes[i+2] == ch
			if strTriple {
				i += 2
				col += 2
			}
			if logicalLine == 0 {
				logicalLine = line
			}
			continue
		}

		// Significant character.
		if logicalLine == 0 {
			logicalLine = line
		}
		sigSeen = true

		if !wordDone {
			if isIdentRune(ch, len(firstWord) > 0) {
				firstWord = append(firstWord, ch)
			} else {
				wordDone = true
			}
		}

		switch ch {
		case '(', '[', '{':
			stack = append(stack, opener{ch: ch, line: line, col: col})

		case ')', ']', '}':
			want := closerFor[ch]
			if len(stack) == 0 {
				problems = append(problems, Problem{
					Line:    line,
					Col:     col,
					Message: fmt.Sprintf("unmatched %q", string(ch)),
				})
				break
			}
			top := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if top.ch != want {
				problems = append(problems, Problem{
					Line:    line,
					Col:     col,
					Message: fmt.Sprintf("%q closes %q opened on line %d", string(ch), string(top.ch), top.line),
				})
			}

		case ':':
			if len(stack) == 0 {
				colonSeen = true
			}

		case ';':
			if len(stack) == 0 {
				endLogical()
			}
		}
	}

	if inStr {
		msg := "unterminated string literal"
		if strTriple {
			msg = "unterminated triple-quoted string"
		}
		problems = append(problems, Problem{Line: strLine, Message: msg})
	}
	endLogical()
	for _, op := range stack {
		problems = append(problems, Problem{
			Line:    op.line,
			Col:     op.col,
			Message: fmt.Sprintf("%q was never closed", string(op.ch)),
		})
	}

	return problems
}

// hasRawPrefix reports whether the quote at index i carries a raw-string
// prefix such as r"", rb"", or fR''.
func hasRawPrefix(runes []rune, i int) bool {
	for j := i - 1; j >= 0 && j >= i-3; j-- {
		switch runes[j] {
		case 'r', 'R':
			return true
		case 'b', 'B', 'f', 'F', 'u', 'U':
			continue
		default:
			return false
		}
	}
	return false
}

func isIdentRune(ch rune, notFirst bool) bool {
	if ch == '_' || (ch >= 'a' && ch <= 'z') || (ch >= 'A' && ch <= 'Z') {
		return true
	}
	return notFirst && ch >= '0' && ch <= '9'
}
