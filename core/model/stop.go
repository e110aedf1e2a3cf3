package model

import "strings"

// StopRecord is one delivery stop as read from an input manifest. Records are
// trusted as validated upstream; no geocoding or normalization happens here.
type StopRecord struct {
	RouteTitle   string `json:"route_title"` // title of the route the stop belongs to
	Name         string `json:"name"`        // recipient name
	Street       string `json:"street"`      // street line 1
	Unit         string `json:"unit,omitempty"`
	City         string `json:"city"`
	State        string `json:"state"`
	Zip          string `json:"zip"`
	Phone        string `json:"phone,omitempty"`
	Email        string `json:"email,omitempty"`
	Notes        string `json:"notes,omitempty"`
	OrderCount   int    `json:"order_count"` // number of packages for the stop
	BoxType      string `json:"box_type"`    // product type placed in orderInfo
	Neighborhood string `json:"neighborhood,omitempty"`
}

// DisplayAddress renders the one-line address the remote service geocodes.
func (s StopRecord) DisplayAddress() string {
	parts := make([]string, 0, 3)
	if s.Street != "" {
		parts = append(parts, s.Street)
	}
	if s.Unit != "" {
		parts = append(parts, s.Unit)
	}
	if s.City != "" {
		parts = append(parts, s.City)
	}
	return strings.Join(parts, ", ")
}

// RouteTitles returns the distinct route titles of the given stops in order
// of first appearance.
func RouteTitles(stops []StopRecord) []string {
	seen := make(map[string]bool, len(stops))
	titles := make([]string, 0, len(stops))
	for _, s := range stops {
		if !seen[s.RouteTitle] {
			seen[s.RouteTitle] = true
			titles = append(titles, s.RouteTitle)
		}
	}
	return titles
}

// GroupByRoute splits stops per route title, preserving stop order within
// each route.
func GroupByRoute(stops []StopRecord) map[string][]StopRecord {
	grouped := make(map[string][]StopRecord)
	for _, s := range stops {
		grouped[s.RouteTitle] = append(grouped[s.RouteTitle], s)
	}
	return grouped
}
