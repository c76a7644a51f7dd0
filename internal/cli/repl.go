package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterh/liner"
)

// errQuit ends the loop.
var errQuit = errors.New("quit")

// lineReader is the input side of the REPL. *liner.State satisfies it on a
// terminal; scanReader covers pipes and tests.
type lineReader interface {
	Prompt(prompt string) (string, error)
	AppendHistory(item string)
}

type scanReader struct {
	sc  *bufio.Scanner
	out io.Writer
}

func newScanReader(in io.Reader, out io.Writer) *scanReader {
	return &scanReader{sc: bufio.NewScanner(in), out: out}
}

func (s *scanReader) Prompt(prompt string) (string, error) {
	fmt.Fprint(s.out, prompt)
	if !s.sc.Scan() {
		if err := s.sc.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.sc.Text(), nil
}

func (s *scanReader) AppendHistory(string) {}

// runREPL reads lines from r and hands them to a.Exec until EOF, Ctrl-C,
// "exit" or ctx cancellation. Command errors are reported and the loop
// carries on.
func runREPL(ctx context.Context, a *App, r lineReader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := r.Prompt(a.prompt())
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, liner.ErrPromptAborted) {
				fmt.Fprintln(a.out, "\nBye!")
				return nil
			}
			return fmt.Errorf("reading input: %w", err)
		}

		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		r.AppendHistory(line)

		args, err := splitArgs(line)
		if err != nil {
			fmt.Fprintln(a.errOut, "error:", err)
			continue
		}

		err = a.Exec(ctx, args)
		if errors.Is(err, errQuit) {
			fmt.Fprintln(a.out, "Bye!")
			return nil
		}
		if err != nil {
			fmt.Fprintln(a.errOut, "error:", err)
		}
	}
}

// splitArgs splits a command line on whitespace. Single or double quotes
// group words and a backslash escapes the next character.
func splitArgs(line string) ([]string, error) {
	var (
		args    []string
		cur     strings.Builder
		inWord  bool
		quote   rune
		escaped bool
	)
	for _, r := range line {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\' && quote != '\'':
			escaped = true
			inWord = true
		case quote != 0:
			if r == quote {
				quote = 0
			} else {
				cur.WriteRune(r)
			}
		case r == '"' || r == '\'':
			quote = r
			inWord = true
		case r == ' ' || r == '\t':
			if inWord {
				args = append(args, cur.String())
				cur.Reset()
				inWord = false
			}
		default:
			cur.WriteRune(r)
			inWord = true
		}
	}
	if quote != 0 {
		return nil, fmt.Errorf("unterminated %c quote", quote)
	}
	if escaped {
		return nil, errors.New("trailing backslash")
	}
	if inWord {
		args = append(args, cur.String())
	}
	return args, nil
}
