package dispatch

import (
	"fmt"
	"strings"

	"github.com/routeup/routeup/core/logger"
	"github.com/routeup/routeup/core/model"
)

// conjunctions are dropped when tokenizing route titles, so "Ana & Bob"
// matches drivers named Ana or Bob but not a driver named And.
var conjunctions = map[string]struct{}{
	"&":   {},
	"and": {},
}

// titleTokens splits a route title into the tokens used for driver matching.
// Conjunctions and single-character tokens carry no signal and are dropped.
func titleTokens(title string) []string {
	var out []string
	for _, tok := range strings.Fields(title) {
		if len([]rune(tok)) < 2 {
			continue
		}
		if _, ok := conjunctions[strings.ToLower(tok)]; ok {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// matchDrivers returns the drivers whose name contains any title token,
// case-insensitively, in roster order.
func matchDrivers(title string, drivers []model.Driver) []model.Driver {
	toks := titleTokens(title)
	var out []model.Driver
	for _, d := range drivers {
		name := strings.ToLower(d.Name)
		for _, t := range toks {
			if strings.Contains(name, strings.ToLower(t)) {
				out = append(out, d)
				break
			}
		}
	}
	return out
}

// Resolver maps route titles to drivers from the remote roster.
type Resolver struct {
	strategy      ConfirmStrategy
	log           logger.Logger
	allowInactive bool
}

// NewResolver creates a resolver using the given confirmation strategy.
func NewResolver(strategy ConfirmStrategy, log logger.Logger, allowInactive bool) *Resolver {
	return &Resolver{strategy: strategy, log: log, allowInactive: allowInactive}
}

// Resolve assigns one driver to every route title. A title matching exactly
// one driver is assigned automatically; everything else goes through the
// strategy. The finished table is handed to Review, and a rejection restarts
// the whole pass. Unless inactive drivers are allowed, an assignment to an
// inactive driver fails the resolution, naming every affected route.
func (r *Resolver) Resolve(routes []string, drivers []model.Driver) ([]model.RouteAssignment, error) {
	if len(drivers) == 0 {
		return nil, fmt.Errorf("no drivers available on the remote roster")
	}
	var assignments []model.RouteAssignment
	for {
		assignments = assignments[:0]
		for _, title := range routes {
			d, err := r.resolveOne(title, drivers)
			if err != nil {
				return nil, err
			}
			assignments = append(assignments, model.RouteAssignment{RouteTitle: title, Driver: d})
		}
		ok, err := r.strategy.Review(assignments)
		if err != nil {
			return nil, fmt.Errorf("review assignments: %w", err)
		}
		if ok {
			break
		}
		r.log.Infof("assignments rejected, restarting driver selection")
	}
	if !r.allowInactive {
		var inactive []string
		for _, a := range assignments {
			if !a.Driver.Active {
				inactive = append(inactive, fmt.Sprintf("%s (%s)", a.RouteTitle, a.Driver.Name))
			}
		}
		if len(inactive) > 0 {
			return nil, fmt.Errorf("inactive drivers assigned: %s", strings.Join(inactive, ", "))
		}
	}
	return assignments, nil
}

func (r *Resolver) resolveOne(title string, drivers []model.Driver) (model.Driver, error) {
	candidates := matchDrivers(title, drivers)
	if len(candidates) == 1 {
		r.log.Debugf("route %q matched driver %s", title, candidates[0].Name)
		return candidates[0], nil
	}
	presented := candidates
	if len(presented) == 0 {
		r.log.Debugf("route %q matched no driver, presenting full roster", title)
		presented = drivers
	}
	for {
		idx, err := r.strategy.Propose(title, candidates, drivers)
		if err != nil {
			return model.Driver{}, fmt.Errorf("select driver for route %q: %w", title, err)
		}
		if idx < 1 || idx > len(presented) {
			r.log.Warnf("driver selection %d for route %q out of range, asking again", idx, title)
			continue
		}
		return presented[idx-1], nil
	}
}
