// Package export writes the per-route outcome table of an upload run to
// CSV, JSON or a standalone HTML report.
package export

import (
	"encoding/csv"
	"encoding/json"
	"io"
	"strconv"

	"github.com/routeup/routeup/core/model"
)

// WriteJSON writes the outcome table to w as indented JSON.
func WriteJSON(w io.Writer, records []model.PlanRecord) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

// WriteCSV writes the outcome table to w. Stage columns render true or
// false; an unconfirmed stage renders as an empty cell.
func WriteCSV(w io.Writer, records []model.PlanRecord) error {
	cw := csv.NewWriter(w)
	header := []string{
		"route_title", "driver", "plan_id", "start_date",
		"initialized", "stops_uploaded", "optimized", "distributed", "failure",
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, r := range records {
		rec := []string{
			r.RouteTitle,
			r.Driver.Name,
			r.PlanID,
			r.StartDate.Format("2006-01-02"),
			stageCell(r.Initialized),
			stageCell(r.StopsUploaded),
			stageCell(r.Optimized),
			stageCell(r.Distributed),
			r.Failure,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func stageCell(v *bool) string {
	if v == nil {
		return ""
	}
	return strconv.FormatBool(*v)
}
