package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"udfconv/internal/preflight"
)

func isTerminal(file *os.File) bool {
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// promptConfirmer asks yes/no questions on the terminal. Default answer is no.
type promptConfirmer struct {
	in  io.Reader
	out io.Writer
}

func newPromptConfirmer(in io.Reader, out io.Writer) preflight.Confirmer {
	return &promptConfirmer{in: in, out: out}
}

func (p *promptConfirmer) Confirm(question string) (bool, error) {
	fmt.Fprintf(p.out, "%s [y/N] ", question)
	reader := bufio.NewReader(p.in)
	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
