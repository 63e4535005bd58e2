package syntax

import (
	"strings"
	"testing"
)

func TestCheckCleanSource(t *testing.T) {
	sources := map[string]string{
		"empty":   "",
		"minimal": "print('hi')\n",
		"function": `def greet(name):
    """Say hello."""
    print(f"hello {name}")
`,
		"class": `class Point:
    def __init__(self, x, y):
        self.x = x
        self.y = y
`,
		"compound one-liner": "if x: pass\n",
		"multiline call": `result = sum(
    [1, 2, 3],
    start=0,
)
`,
		"backslash continuation": "total = 1 + \\\n    2\n",
		"dict literal":           "config = {'debug': True, 'level': 3}\n",
		"annotations":            "count: int = 0\n",
		"escaped quote":          `s = "she said \"hi\""` + "\n",
		"raw string":             `path = r"C:\some\dir"` + "\n",
		"nested brackets":        "m = {('a', 1): [x for x in (1, 2)]}\n",
		"semicolons":             "a = 1; b = 2\n",
		"comment with bracket":   "x = 1  # not really open (\n",
		"hash in string":         "s = '# not a comment'\n",
		"try chain": `try:
    risky()
except ValueError:
    pass
finally:
    cleanup()
`,
	}

	for name, src := range sources {
		t.Run(name, func(t *testing.T) {
			if got := Check(src); len(got) != 0 {
				t.Errorf("Check reported %d problems for valid source: %+v", len(got), got)
			}
		})
	}
}

func TestCheckMalformedHeader(t *testing.T) {
	problems := Check("def f(:\n    pass")
	if len(problems) == 0 {
		t.Fatal("no problems reported")
	}
	for _, p := range problems {
		if p.Line != 1 {
			t.Errorf("problem on line %d, want all on line 1: %+v", p.Line, p)
		}
	}
}

func TestCheckMissingColon(t *testing.T) {
	tests := []struct {
		name string
		src  string
		line int
	}{
		{"def", "def f()\n    pass\n", 1},
		{"if", "x = 1\nif x > 2\n    pass\n", 2},
		{"else", "if x:\n    pass\nelse\n    pass\n", 3},
		{"while", "while True\n    break\n", 1},
		{"class", "class Widget\n    pass\n", 1},
		{"last line no newline", "for i in range(3)", 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			problems := Check(tt.src)
			if len(problems) != 1 {
				t.Fatalf("got %d problems, want 1: %+v", len(problems), problems)
			}
			p := problems[0]
			if p.Line != tt.line {
				t.Errorf("Line = %d, want %d", p.Line, tt.line)
			}
			if !strings.Contains(p.Message, "':'") {
				t.Errorf("Message = %q, want mention of ':'", p.Message)
			}
		})
	}
}

func TestCheckBrackets(t *testing.T) {
	t.Run("never closed", func(t *testing.T) {
		problems := Check("x = foo(1, 2\ny = 3\n")
		if len(problems) != 1 {
			t.Fatalf("got %d problems, want 1: %+v", len(problems), problems)
		}
		if problems[0].Line != 1 || problems[0].Col != 8 {
			t.Errorf("position = %d:%d, want 1:8", problems[0].Line, problems[0].Col)
		}
		if !strings.Contains(problems[0].Message, "never closed") {
			t.Errorf("Message = %q", problems[0].Message)
		}
	})

	t.Run("unmatched closer", func(t *testing.T) {
		problems := Check("x = 1)\n")
		if len(problems) != 1 {
			t.Fatalf("got %d problems, want 1: %+v", len(problems), problems)
		}
		if !strings.Contains(problems[0].Message, "unmatched") {
			t.Errorf("Message = %q", problems[0].Message)
		}
	})

	t.Run("mismatched pair", func(t *testing.T) {
		problems := Check("x = [1, 2)\n")
		if len(problems) != 1 {
			t.Fatalf("got %d problems, want 1: %+v", len(problems), problems)
		}
		if !strings.Contains(problems[0].Message, "line 1") {
			t.Errorf("Message = %q, want reference to the opener's line", problems[0].Message)
		}
	})

	t.Run("implicit continuation is not an error", func(t *testing.T) {
		src := "names = [\n    'a',\n    'b',\n]\n"
		if got := Check(src); len(got) != 0 {
			t.Errorf("Check = %+v, want none", got)
		}
	})
}

func TestCheckStrings(t *testing.T) {
	t.Run("unterminated single line", func(t *testing.T) {
		problems := Check("s = 'oops\nx = 1\n")
		if len(problems) != 1 {
			t.Fatalf("got %d problems, want 1: %+v", len(problems), problems)
		}
		if problems[0].Line != 1 {
			t.Errorf("Line = %d, want 1", problems[0].Line)
		}
		if !strings.Contains(problems[0].Message, "unterminated") {
			t.Errorf("Message = %q", problems[0].Message)
		}
	})

	t.Run("unterminated triple", func(t *testing.T) {
		problems := Check("x = 1\ns = \"\"\"doc\nmore\n")
		if len(problems) != 1 {
			t.Fatalf("got %d problems, want 1: %+v", len(problems), problems)
		}
		if problems[0].Line != 2 {
			t.Errorf("Line = %d, want 2", problems[0].Line)
		}
	})

	t.Run("triple spans lines cleanly", func(t *testing.T) {
		src := "s = \"\"\"first\nsecond ( [ {\nthird\"\"\"\n"
		if got := Check(src); len(got) != 0 {
			t.Errorf("Check = %+v, want none", got)
		}
	})

	t.Run("string ends at eof without newline", func(t *testing.T) {
		if got := Check(`s = "done"`); len(got) != 0 {
			t.Errorf("Check = %+v, want none", got)
		}
	})
}

func TestCheckNeverPanics(t *testing.T) {
	inputs := []string{
		"\x00\x01\x02\xff",
		strings.Repeat("(", 1000),
		strings.Repeat(")", 1000),
		"\\",
		"'",
		"\"\"\"",
		"def",
		"#",
		"\r\n\r\n",
	}
	for _, src := range inputs {
		got := Check(src)
		_ = got
	}
}
