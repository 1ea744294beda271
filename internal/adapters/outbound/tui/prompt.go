package tui

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/go-vendor-tools/go-vendor-tools/internal/domain/licensing"
)

// IgnoreKeyword skips a file when entered at the license prompt.
const IgnoreKeyword = "IGNORE"

const promptText = "Enter SPDX expression (or IGNORE)"

// validateAnswer accepts IGNORE, an empty answer, or a valid SPDX
// expression.
func validateAnswer(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || s == IgnoreKeyword {
		return nil
	}
	if _, err := licensing.Simplify(s, licensing.Strict); err != nil {
		return err
	}
	return nil
}

func interpret(answer string) (string, bool, error) {
	answer = strings.TrimSpace(answer)
	switch answer {
	case IgnoreKeyword:
		return "", true, nil
	case "":
		return "", false, nil
	}
	expr, err := licensing.Simplify(answer, licensing.Strict)
	if err != nil {
		return "", false, err
	}
	return expr, false, nil
}

// FormPrompter asks with an interactive huh form.
type FormPrompter struct {
	theme *huh.Theme
}

func NewFormPrompter() *FormPrompter {
	return &FormPrompter{theme: huh.ThemeCharm()}
}

func (p *FormPrompter) PromptLicense(path string) (string, bool, error) {
	var answer string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().
			Title("Undetected license: " + path).
			Description(promptText).
			Validate(validateAnswer).
			Value(&answer),
	)).WithTheme(p.theme).Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return "", false, fmt.Errorf("prompt aborted")
		}
		return "", false, err
	}
	return interpret(answer)
}

// LinePrompter reads answers line by line, for pipes and tests. Invalid
// answers are reported and asked again.
type LinePrompter struct {
	in  *bufio.Reader
	out io.Writer
}

func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{in: bufio.NewReader(in), out: out}
}

func (p *LinePrompter) PromptLicense(path string) (string, bool, error) {
	fmt.Fprintf(p.out, "* Undetected license: %s\n", path)
	for {
		fmt.Fprintf(p.out, "%s: ", promptText)
		line, err := p.in.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			if errors.Is(err, io.EOF) {
				return "", false, fmt.Errorf("no answer for %s: %w", path, io.ErrUnexpectedEOF)
			}
			return "", false, err
		}
		expr, ignore, perr := interpret(line)
		if perr != nil {
			fmt.Fprintf(p.out, "Invalid expression: %v\n", perr)
			if err != nil {
				return "", false, perr
			}
			continue
		}
		if ignore {
			fmt.Fprintln(p.out, "Ignoring...")
		} else {
			fmt.Fprintf(p.out, "Expression simplified to %q\n", expr)
		}
		return expr, ignore, nil
	}
}
