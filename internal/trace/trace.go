// Package trace parses allocation trace scripts.
//
// A trace is a line-oriented text file:
//
//	# comment
//	alloc a 16
//	alloc b 4000
//	free a
//	check
//
// Blank lines and lines starting with '#' are ignored. Input is UTF-8 unless
// it starts with a UTF-16 byte order mark.
package trace

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	commentPrefix = "#"

	scannerInitialBufferSize = 4 << 10
	scannerMaxLineSize       = 1 << 20
)

// ErrSyntax is wrapped by every parse error.
var ErrSyntax = errors.New("trace: syntax error")

// Kind identifies a trace operation.
type Kind int

const (
	Alloc Kind = iota + 1
	Free
	Check
)

func (k Kind) String() string {
	switch k {
	case Alloc:
		return "alloc"
	case Free:
		return "free"
	case Check:
		return "check"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Op is one trace line.
type Op struct {
	Kind  Kind
	Name  string // block name, empty for Check
	Bytes int    // request size, Alloc only
	Line  int    // 1-based source line
}

func (o Op) String() string {
	switch o.Kind {
	case Alloc:
		return fmt.Sprintf("alloc %s %d", o.Name, o.Bytes)
	case Free:
		return "free " + o.Name
	default:
		return o.Kind.String()
	}
}

// Script is a parsed trace.
type Script struct {
	Ops []Op
}

// Count returns the number of ops of kind k.
func (s *Script) Count(k Kind) int {
	n := 0
	for _, op := range s.Ops {
		if op.Kind == k {
			n++
		}
	}
	return n
}

// ParseFile parses the trace at path.
func ParseFile(path string) (*Script, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Parse(f)
}

// Parse reads a trace from r.
func Parse(r io.Reader) (*Script, error) {
	// UTF-8 by default; a UTF-16 BOM switches the decoder.
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())
	scanner := bufio.NewScanner(transform.NewReader(r, decoder))
	scanner.Buffer(make([]byte, 0, scannerInitialBufferSize), scannerMaxLineSize)

	s := &Script{}
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, commentPrefix) {
			continue
		}

		op, err := parseLine(text)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %w", ErrSyntax, line, err)
		}
		op.Line = line
		s.Ops = append(s.Ops, op)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("trace: reading line %d: %w", line+1, err)
	}
	return s, nil
}

func parseLine(text string) (Op, error) {
	fields := strings.Fields(text)

	switch fields[0] {
	case "alloc":
		if len(fields) != 3 {
			return Op{}, fmt.Errorf("want \"alloc <name> <bytes>\", got %q", text)
		}
		n, err := strconv.Atoi(fields[2])
		if err != nil {
			return Op{}, fmt.Errorf("bad size %q", fields[2])
		}
		if n <= 0 {
			return Op{}, fmt.Errorf("size must be positive, got %d", n)
		}
		return Op{Kind: Alloc, Name: fields[1], Bytes: n}, nil

	case "free":
		if len(fields) != 2 {
			return Op{}, fmt.Errorf("want \"free <name>\", got %q", text)
		}
		return Op{Kind: Free, Name: fields[1]}, nil

	case "check":
		if len(fields) != 1 {
			return Op{}, fmt.Errorf("check takes no arguments, got %q", text)
		}
		return Op{Kind: Check}, nil

	default:
		return Op{}, fmt.Errorf("unknown op %q", fields[0])
	}
}
