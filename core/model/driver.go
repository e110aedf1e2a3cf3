package model

// Driver is a driver known to the remote routing service.
type Driver struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Active bool   `json:"active"` // inactive drivers cannot be assigned
}

// RouteAssignment pairs a route title with its resolved driver.
type RouteAssignment struct {
	RouteTitle string `json:"route_title"`
	Driver     Driver `json:"driver"`
}
