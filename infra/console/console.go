// Package console implements the interactive driver confirmation strategy:
// candidates are offered as a numbered menu on the terminal and the finished
// assignment table needs a y/n approval before any remote call is made.
package console

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/routeup/routeup/core/model"
)

// Strategy prompts on In/Out, which default to the process terminal. The
// reader is buffered on first use, so a single Strategy must serve the whole
// resolution pass.
type Strategy struct {
	In  io.Reader
	Out io.Writer

	scanner *bufio.Scanner
}

// New returns a Strategy bound to stdin and stdout.
func New() *Strategy {
	return &Strategy{In: os.Stdin, Out: os.Stdout}
}

// Propose shows the menu for one route and returns the operator's pick as a
// 1-based index. Non-numeric input is re-prompted; range checking is left to
// the resolver, which asks again. The pick list is the matched candidates,
// or the full roster when nothing matched.
func (s *Strategy) Propose(route string, candidates, all []model.Driver) (int, error) {
	presented := candidates
	if len(presented) == 0 {
		presented = all
		s.printf("\nRoute %q matched no driver, pick from the full roster:\n", route)
	} else {
		s.printf("\nRoute %q:\n", route)
	}
	for i, d := range presented {
		mark := ""
		if !d.Active {
			mark = " (inactive)"
		}
		s.printf("  %d. %s <%s>%s\n", i+1, d.Name, d.Email, mark)
	}
	for {
		s.printf("Driver for %q [1-%d]: ", route, len(presented))
		line, err := s.readLine()
		if err != nil {
			return 0, fmt.Errorf("read selection: %w", err)
		}
		n, err := strconv.Atoi(line)
		if err != nil {
			s.printf("enter a number from the list\n")
			continue
		}
		return n, nil
	}
}

// Review prints the assignment table and asks for approval. Anything but an
// explicit yes rejects the table and restarts the selection pass.
func (s *Strategy) Review(assignments []model.RouteAssignment) (bool, error) {
	s.printf("\nAssignments:\n")
	for _, a := range assignments {
		s.printf("  %-24s -> %s\n", a.RouteTitle, a.Driver.Name)
	}
	s.printf("Proceed with these assignments? [y/N] ")
	line, err := s.readLine()
	if err != nil {
		return false, fmt.Errorf("read approval: %w", err)
	}
	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

func (s *Strategy) printf(format string, args ...any) {
	out := s.Out
	if out == nil {
		out = os.Stdout
	}
	_, _ = fmt.Fprintf(out, format, args...)
}

func (s *Strategy) readLine() (string, error) {
	if s.scanner == nil {
		in := s.In
		if in == nil {
			in = os.Stdin
		}
		s.scanner = bufio.NewScanner(in)
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return strings.TrimSpace(s.scanner.Text()), nil
}
