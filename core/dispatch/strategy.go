package dispatch

import (
	"fmt"
	"strings"

	"github.com/routeup/routeup/core/model"
)

// ConfirmStrategy settles driver assignments the title match cannot decide
// alone. Propose is asked for every route without exactly one candidate: it
// receives the matching candidates (or, when nothing matched, the full
// roster is presented instead) and returns a 1-based index into the
// presented list. Review sees the complete table before any remote call; a
// false return restarts the selection pass.
type ConfirmStrategy interface {
	Propose(route string, candidates, all []model.Driver) (int, error)
	Review(assignments []model.RouteAssignment) (bool, error)
}

// StaticStrategy answers from a fixed route-to-driver table. The value may
// be the driver's id, name or email. Unattended runs use it in place of an
// interactive prompt.
type StaticStrategy struct {
	Assignments map[string]string
}

// Propose picks the configured driver out of the presented list.
func (s StaticStrategy) Propose(route string, candidates, all []model.Driver) (int, error) {
	presented := candidates
	if len(presented) == 0 {
		presented = all
	}
	want, ok := s.Assignments[route]
	if !ok || want == "" {
		return 0, fmt.Errorf("no driver configured for route %q", route)
	}
	for i, d := range presented {
		if d.ID == want || strings.EqualFold(d.Name, want) || strings.EqualFold(d.Email, want) {
			return i + 1, nil
		}
	}
	return 0, fmt.Errorf("configured driver %q for route %q not among the %d presented", want, route, len(presented))
}

// Review accepts every table.
func (s StaticStrategy) Review([]model.RouteAssignment) (bool, error) { return true, nil }
