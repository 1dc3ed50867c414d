package tracker

import (
	"fmt"
	"io"
	"sort"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/components"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/pkg/errors"

	"github.com/fiorenza2/RL-Algorithms/utils/floatutils"
)

// SmoothingWindow is the number of episodes averaged over by the
// smoothed series of a Report
const SmoothingWindow = 100

// Report writes an HTML page to w holding a line chart of each series
// of episodic returns together with its moving average over
// SmoothingWindow episodes
func Report(w io.Writer, title string, series map[string][]float64) error {
	if len(series) == 0 {
		return errors.New("report: no data")
	}

	names := make([]string, 0, len(series))
	numEpisodes := 0
	for name, returns := range series {
		names = append(names, name)
		if len(returns) > numEpisodes {
			numEpisodes = len(returns)
		}
	}
	sort.Strings(names)

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: title}),
		charts.WithTitleOpts(opts.Title{Title: title}),
		charts.WithTooltipOpts(opts.Tooltip{Trigger: "axis"}),
		charts.WithXAxisOpts(opts.XAxis{Name: "episode"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "return"}),
	)

	episodes := make([]string, numEpisodes)
	for i := range episodes {
		episodes[i] = fmt.Sprintf("%d", i+1)
	}
	line.SetXAxis(episodes)

	for _, name := range names {
		returns := series[name]
		line.AddSeries(name, lineData(returns))
		line.AddSeries(fmt.Sprintf("%v (avg %d)", name, SmoothingWindow),
			lineData(floatutils.MovingAverage(returns, SmoothingWindow)))
	}

	page := components.NewPage()
	page.PageTitle = title
	page.AddCharts(line)
	return errors.Wrap(page.Render(w), "report")
}

func lineData(values []float64) []opts.LineData {
	items := make([]opts.LineData, len(values))
	for i, v := range values {
		items[i] = opts.LineData{Value: v}
	}
	return items
}
