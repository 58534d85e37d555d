package shell

import (
	"fmt"
	"strings"

	"github.com/kballard/go-shellquote"
	"tsh/internal/proc"
)

// parse splits a command line into a pipeline. Operators (|, <, >) must be
// separate words; a trailing & may be attached to the last word.
func parse(line string) (proc.Pipeline, error) {
	var p proc.Pipeline

	words, err := shellquote.Split(line)
	if err != nil {
		return p, fmt.Errorf("error parsing command: %w", err)
	}
	if n := len(words); n > 0 {
		if last := words[n-1]; last == "&" {
			p.Background = true
			words = words[:n-1]
		} else if strings.HasSuffix(last, "&") {
			p.Background = true
			words[n-1] = strings.TrimSuffix(last, "&")
		}
	}

	var stage []string
	for i := 0; i < len(words); i++ {
		switch w := words[i]; w {
		case "|":
			if len(stage) == 0 {
				return p, syntaxError(w)
			}
			p.Stages = append(p.Stages, stage)
			stage = nil
		case "<", ">":
			if i+1 >= len(words) {
				return p, syntaxError(w)
			}
			i++
			if w == "<" {
				p.Input = words[i]
			} else {
				p.Output = words[i]
			}
		default:
			stage = append(stage, w)
		}
	}

	if len(stage) == 0 {
		if len(p.Stages) > 0 || p.Input != "" || p.Output != "" {
			return proc.Pipeline{}, syntaxError("newline")
		}
		return proc.Pipeline{}, nil
	}
	p.Stages = append(p.Stages, stage)
	return p, nil
}

func syntaxError(token string) error {
	return fmt.Errorf("syntax error near %q", token)
}
