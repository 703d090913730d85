package report

import (
	"fmt"
	"html/template"
	"io"
	"strings"
)

// HTMLRenderer produces the downloadable report artifact: one
// self-contained HTML document with inline SVG charts, no external
// assets. Display rounding to two decimals happens here.
type HTMLRenderer struct {
	tmpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	funcs := template.FuncMap{
		"round2": func(v float64) string { return fmt.Sprintf("%.2f", v) },
		"gb":     func(v uint64) string { return fmt.Sprintf("%.2f", float64(v)/(1024*1024*1024)) },
	}
	return &HTMLRenderer{
		tmpl: template.Must(template.New("report").Funcs(funcs).Parse(reportTemplate)),
	}
}

type chartSeries struct {
	Label  string
	Color  string
	Points []float64
}

type statRow struct {
	Label string
	Stats Stats
}

type reportSection struct {
	Title string
	Chart template.HTML
	Rows  []statRow
}

type reportView struct {
	Agg      *Aggregate
	Sections []reportSection
}

func (r *HTMLRenderer) Render(w io.Writer, agg *Aggregate) error {
	toKB := func(points []float64) []float64 { return scale(points, 1.0/1024) }
	toMB := func(points []float64) []float64 { return scale(points, 1.0/(1024*1024)) }
	kbStats := func(s Stats) Stats { return Stats{Avg: s.Avg / 1024, Min: s.Min / 1024, Max: s.Max / 1024} }
	mbStats := func(s Stats) Stats {
		const mb = 1024 * 1024
		return Stats{Avg: s.Avg / mb, Min: s.Min / mb, Max: s.Max / mb}
	}

	sections := []reportSection{
		{
			Title: "CPU & Memory Usage",
			Chart: lineChart(
				chartSeries{"CPU (%)", "#3b82f6", agg.Cpu.Points},
				chartSeries{"Memory (%)", "#22c55e", agg.Memory.Points},
			),
			Rows: []statRow{
				{"CPU usage (%)", agg.Cpu.Stats},
				{"Memory usage (%)", agg.Memory.Stats},
			},
		},
	}

	if agg.Gpu != nil {
		sec := reportSection{
			Title: "GPU Usage",
			Rows: []statRow{
				{"GPU load (%)", agg.Gpu.Load.Stats},
				{"GPU memory (%)", agg.Gpu.MemPercent.Stats},
			},
		}
		series := []chartSeries{
			{"Load (%)", "#8b5cf6", agg.Gpu.Load.Points},
			{"Memory (%)", "#f59e0b", agg.Gpu.MemPercent.Points},
		}
		if agg.Gpu.Temperature != nil {
			series = append(series, chartSeries{"Temp (C)", "#ef4444", agg.Gpu.Temperature.Points})
			sec.Rows = append(sec.Rows, statRow{"GPU temperature (C)", agg.Gpu.Temperature.Stats})
		}
		sec.Chart = lineChart(series...)
		sections = append(sections, sec)
	}

	sections = append(sections,
		reportSection{
			Title: "Network Traffic",
			Chart: lineChart(
				chartSeries{"Upload (KB/s)", "#f59e0b", toKB(agg.NetSent.Points)},
				chartSeries{"Download (KB/s)", "#06b6d4", toKB(agg.NetRecv.Points)},
			),
			Rows: []statRow{
				{"Upload speed (KB/s)", kbStats(agg.NetSent.Stats)},
				{"Download speed (KB/s)", kbStats(agg.NetRecv.Stats)},
			},
		},
		reportSection{
			Title: "Disk I/O",
			Chart: lineChart(
				chartSeries{"Read (MB/s)", "#22c55e", toMB(agg.DiskRead.Points)},
				chartSeries{"Write (MB/s)", "#ef4444", toMB(agg.DiskWrite.Points)},
			),
			Rows: []statRow{
				{"Read speed (MB/s)", mbStats(agg.DiskRead.Stats)},
				{"Write speed (MB/s)", mbStats(agg.DiskWrite.Stats)},
			},
		},
	)

	return r.tmpl.Execute(w, reportView{Agg: agg, Sections: sections})
}

func scale(points []float64, factor float64) []float64 {
	out := make([]float64, len(points))
	for i, p := range points {
		out[i] = p * factor
	}
	return out
}

const (
	chartWidth  = 640
	chartHeight = 180
	chartPad    = 10
)

// lineChart renders the series as SVG polylines, scaled to the shared
// min/max of all series so they overlay on one axis.
func lineChart(series ...chartSeries) template.HTML {
	lo, hi := chartBounds(series)

	var b strings.Builder
	fmt.Fprintf(&b, `<svg viewBox="0 0 %d %d" width="%d" height="%d" style="background:#f8fafc;border:1px solid #e2e8f0">`,
		chartWidth, chartHeight, chartWidth, chartHeight)

	for i, s := range series {
		if len(s.Points) > 1 {
			fmt.Fprintf(&b, `<polyline fill="none" stroke="%s" stroke-width="1.5" points="%s"/>`,
				s.Color, polylinePoints(s.Points, lo, hi))
		}
		fmt.Fprintf(&b, `<text x="%d" y="%d" font-size="11" fill="%s">%s</text>`,
			chartPad+i*150, 14, s.Color, template.HTMLEscapeString(s.Label))
	}
	b.WriteString(`</svg>`)
	return template.HTML(b.String())
}

func chartBounds(series []chartSeries) (lo, hi float64) {
	first := true
	for _, s := range series {
		for _, v := range s.Points {
			if first {
				lo, hi = v, v
				first = false
				continue
			}
			if v < lo {
				lo = v
			}
			if v > hi {
				hi = v
			}
		}
	}
	if hi == lo {
		hi = lo + 1
	}
	return lo, hi
}

func polylinePoints(points []float64, lo, hi float64) string {
	innerW := float64(chartWidth - 2*chartPad)
	innerH := float64(chartHeight - 2*chartPad)
	step := innerW / float64(len(points)-1)

	var b strings.Builder
	for i, v := range points {
		x := float64(chartPad) + float64(i)*step
		y := float64(chartPad) + innerH*(1-(v-lo)/(hi-lo))
		if i > 0 {
			b.WriteByte(' ')
		}
		fmt.Fprintf(&b, "%.1f,%.1f", x, y)
	}
	return b.String()
}

const reportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>System Resource Report</title>
<style>
body { font-family: sans-serif; max-width: 720px; margin: 24px auto; color: #0f172a; }
h1 { text-align: center; }
h2 { color: #2563eb; margin-top: 28px; }
table { border-collapse: collapse; width: 100%; margin: 10px 0; }
th, td { border: 1px solid #e2e8f0; padding: 6px 10px; font-size: 13px; text-align: left; }
th { background: #3b82f6; color: #fff; }
tr:nth-child(even) td { background: #f1f5f9; }
</style>
</head>
<body>
<h1>System Resource Report</h1>

<table>
<tr><th>Item</th><th>Value</th></tr>
<tr><td>Recording start</td><td>{{.Agg.StartLabel}}</td></tr>
<tr><td>Recording end</td><td>{{.Agg.EndLabel}}</td></tr>
<tr><td>Samples</td><td>{{.Agg.SampleCount}}</td></tr>
<tr><td>Operating system</td><td>{{.Agg.System.Platform}} {{.Agg.System.Release}}</td></tr>
<tr><td>Hostname</td><td>{{.Agg.System.Hostname}}</td></tr>
<tr><td>Processor</td><td>{{.Agg.System.Processor}}</td></tr>
</table>

{{range .Sections}}
<h2>{{.Title}}</h2>
{{.Chart}}
<table>
<tr><th>Metric</th><th>Avg</th><th>Min</th><th>Max</th></tr>
{{range .Rows}}
<tr><td>{{.Label}}</td><td>{{round2 .Stats.Avg}}</td><td>{{round2 .Stats.Min}}</td><td>{{round2 .Stats.Max}}</td></tr>
{{end}}
</table>
{{end}}

{{if .Agg.Partitions}}
<h2>Disk Partition Usage</h2>
<table>
<tr><th>Mount</th><th>Total (GB)</th><th>Used (GB)</th><th>Free (GB)</th><th>Used (%)</th></tr>
{{range .Agg.Partitions}}
<tr><td>{{.Mount}}</td><td>{{gb .Total}}</td><td>{{gb .Used}}</td><td>{{gb .Free}}</td><td>{{round2 .Percent}}</td></tr>
{{end}}
</table>
{{end}}

</body>
</html>
`
