package export

import (
	"bytes"
	"fmt"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/routeup/routeup/core/model"
)

// ChartHTML renders the outcome table as a self-contained HTML page with a
// bar chart of per-stage completed, failed and unconfirmed route counts.
func ChartHTML(records []model.PlanRecord) (string, error) {
	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    "Upload outcome",
			Subtitle: fmt.Sprintf("%d routes", len(records)),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Stage"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Routes"}),
	)

	var (
		xAxis                    []string
		completed, failed, blank []opts.BarData
	)
	for _, stage := range model.Stages {
		xAxis = append(xAxis, stage.String())
		var done, lost, unknown int
		for i := range records {
			switch v := records[i].StageValue(stage); {
			case v == nil:
				unknown++
			case *v:
				done++
			default:
				lost++
			}
		}
		completed = append(completed, opts.BarData{Value: done})
		failed = append(failed, opts.BarData{Value: lost})
		blank = append(blank, opts.BarData{Value: unknown})
	}

	bar.SetXAxis(xAxis).
		AddSeries("completed", completed).
		AddSeries("failed", failed).
		AddSeries("unconfirmed", blank)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", fmt.Errorf("failed to render chart: %v", err)
	}
	return buf.String(), nil
}
