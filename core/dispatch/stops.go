package dispatch

import (
	"github.com/routeup/routeup/core/circuit"
	"github.com/routeup/routeup/core/model"
)

// defaultCountry is sent with every stop address. The remote geocoder
// requires a country and all serviced routes are domestic.
const defaultCountry = "US"

// buildStopInput converts one manifest row into the remote stop payload,
// pinned to the assigned driver. The one-line display address rides in
// address.name so the remote shows the full location even when geocoding
// only resolves the street line.
func buildStopInput(s model.StopRecord, driverID string) circuit.StopInput {
	count := s.OrderCount
	if count < 1 {
		count = 1
	}
	in := circuit.StopInput{
		Address: circuit.StopAddress{
			AddressLine1: s.Street,
			AddressLine2: s.Unit,
			Name:         s.DisplayAddress(),
			State:        s.State,
			Zip:          s.Zip,
			Country:      defaultCountry,
		},
		AllowedDrivers: []string{driverID},
		PackageCount:   count,
		Notes:          s.Notes,
	}
	if s.BoxType != "" {
		in.OrderInfo = circuit.OrderInfo{Products: []string{s.BoxType}}
	}
	if s.Name != "" || s.Phone != "" || s.Email != "" {
		in.Recipient = &circuit.Recipient{Name: s.Name, Phone: s.Phone, Email: s.Email}
	}
	return in
}

// buildStopInputs converts a route's manifest rows in order.
func buildStopInputs(stops []model.StopRecord, driverID string) []circuit.StopInput {
	out := make([]circuit.StopInput, len(stops))
	for i, s := range stops {
		out[i] = buildStopInput(s, driverID)
	}
	return out
}

// batchStops splits the inputs into import-sized chunks preserving order.
func batchStops(stops []circuit.StopInput, size int) [][]circuit.StopInput {
	if size < 1 || size > maxImportBatch {
		size = maxImportBatch
	}
	var out [][]circuit.StopInput
	for start := 0; start < len(stops); start += size {
		end := start + size
		if end > len(stops) {
			end = len(stops)
		}
		out = append(out, stops[start:end])
	}
	return out
}
