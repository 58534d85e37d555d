package shell

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"golang.org/x/term"
	"tsh/internal/config"
)

type lineReader interface {
	Readline() (string, error)
	Close() error
}

// newReader uses readline on an interactive terminal and a plain line reader
// otherwise, so that piped input and -p behave like a driver expects.
func newReader(cfg *config.Config, in *os.File, out io.Writer) (lineReader, error) {
	if cfg.EmitPrompt && term.IsTerminal(int(in.Fd())) {
		return readline.NewEx(&readline.Config{
			Prompt: cfg.Prompt,
			Stdin:  in,
			Stdout: out,
		})
	}
	prompt := ""
	if cfg.EmitPrompt {
		prompt = cfg.Prompt
	}
	return &plainReader{in: bufio.NewReader(in), out: out, prompt: prompt}, nil
}

type plainReader struct {
	in     *bufio.Reader
	out    io.Writer
	prompt string
}

func (r *plainReader) Readline() (string, error) {
	if r.prompt != "" {
		fmt.Fprint(r.out, r.prompt)
	}
	line, err := r.in.ReadString('\n')
	if err == io.EOF && line != "" {
		return line, nil
	}
	return strings.TrimSuffix(line, "\n"), err
}

func (r *plainReader) Close() error {
	return nil
}
