package templates

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/a-h/templ"
)

const datastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@v1.0.0-RC.1/bundles/datastar.js"
const chartScript = "https://cdn.jsdelivr.net/npm/chart.js@4.4.3/dist/chart.umd.min.js"

// DashboardView carries the filter choices offered on first render.
type DashboardView struct {
	Countries []string
	From      string
	To        string
	Clusters  int
}

// Dashboard renders the page shell. Every panel starts empty and is filled by
// the /sse endpoints once the page loads.
func Dashboard(view DashboardView) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		var b strings.Builder

		b.WriteString(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Retail Insights</title>
<script type="module" src="` + datastarScript + `"></script>
<script src="` + chartScript + `"></script>
<style>
body{font-family:system-ui,sans-serif;margin:0;background:#f5f6fa;color:#222}
header{padding:1.5rem 2rem;background:#1f2a44;color:#fff}
header p{margin:.25rem 0 0;opacity:.8}
main{padding:1.5rem 2rem;display:grid;gap:1.5rem}
.filters{display:flex;gap:1rem;flex-wrap:wrap;align-items:end}
.kpis{display:grid;grid-template-columns:repeat(auto-fit,minmax(180px,1fr));gap:1rem}
.kpi-card,.panel{background:#fff;border-radius:8px;padding:1rem;box-shadow:0 1px 3px rgba(0,0,0,.08)}
.kpi-card h3{margin:0;font-size:.85rem;color:#666}
.kpi-card p{margin:.5rem 0 0;font-size:1.5rem;font-weight:600}
.modern-table{width:100%;border-collapse:collapse}
.modern-table th,.modern-table td{padding:.5rem;border-bottom:1px solid #eee;text-align:left}
.warning{color:#9a6700}
</style>
</head>
<body>
`)
		fmt.Fprintf(&b, `<div data-signals="{from: '%s', to: '%s', countries: [], k: %d, monthlyData: [], weekdayData: [], tierData: [], clusterData: []}">
`, templ.EscapeString(view.From), templ.EscapeString(view.To), view.Clusters)

		b.WriteString(`<header>
<h1>Retail Insights</h1>
<p>Revenue, product tiers and market segments from online retail transactions</p>
</header>
<main data-on-load="@get('/sse/refresh-all')">
<section class="panel filters">
<label>From <input type="date" data-bind-from></label>
<label>To <input type="date" data-bind-to></label>
<label>Countries <select multiple size="4" data-bind-countries>
`)
		for _, c := range view.Countries {
			fmt.Fprintf(&b, "<option value=\"%[1]s\">%[1]s</option>\n", templ.EscapeString(c))
		}
		b.WriteString(`</select></label>
<label>Segments <input type="number" min="1" max="20" data-bind-k></label>
<button data-on-click="@get('/sse/refresh-all')">Apply</button>
</section>

<section id="kpi-cards" class="kpis"></section>

<section class="panel">
<h2>Revenue by Country</h2>
<div id="country-content"></div>
</section>

<section class="panel">
<h2>Monthly Revenue</h2>
<canvas id="monthly-chart" data-effect="window.drawSeries('monthly-chart', $monthlyData, 'line')"></canvas>
</section>

<section class="panel">
<h2>Revenue by Weekday</h2>
<canvas id="weekday-chart" data-effect="window.drawSeries('weekday-chart', $weekdayData, 'bar')"></canvas>
</section>

<section class="panel">
<h2>ABC Product Tiers</h2>
<canvas id="tier-chart" data-effect="window.drawTiers('tier-chart', $tierData)"></canvas>
</section>

<section class="panel">
<h2>Country Segments</h2>
<canvas id="cluster-chart" data-effect="window.drawClusters('cluster-chart', $clusterData)"></canvas>
</section>

<section id="warnings" class="panel"></section>
</main>
</div>
<script>
const charts = {};
function draw(id, config) {
  if (charts[id]) charts[id].destroy();
  charts[id] = new Chart(document.getElementById(id), config);
}
window.drawSeries = (id, rows, type) => {
  if (!rows || !rows.length) return;
  draw(id, {type, data: {labels: rows.map(r => r.key), datasets: [{label: 'Revenue (£)', data: rows.map(r => Number(r.revenue))}]}});
};
window.drawTiers = (id, rows) => {
  if (!rows || !rows.length) return;
  draw(id, {type: 'bar', data: {labels: rows.map(r => r.tier), datasets: [{label: 'Products', data: rows.map(r => r.products)}]}});
};
window.drawClusters = (id, rows) => {
  if (!rows || !rows.length) return;
  const groups = {};
  rows.forEach(r => (groups[r.cluster] ||= []).push({x: Number(r.revenue), y: r.orders, label: r.country}));
  draw(id, {type: 'scatter', data: {datasets: Object.entries(groups).map(([c, pts]) => ({label: 'Segment ' + c, data: pts}))},
    options: {scales: {x: {type: 'logarithmic', title: {display: true, text: 'Revenue (£)'}}, y: {type: 'logarithmic', title: {display: true, text: 'Orders'}}}}});
};
</script>
</body>
</html>
`)

		_, err := io.WriteString(w, b.String())
		return err
	})
}
