package dashboard

// indexTemplate renders the leaderboard page. Probabilities are drawn as
// horizontal bars so relative standing is readable at a glance.
const indexTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>KalshiPulse</title>
<style>
  body { font-family: -apple-system, "Segoe UI", sans-serif; margin: 0; background: #f5f6f8; color: #1c2530; }
  header { background: #14233c; color: #fff; padding: 16px 24px; }
  header h1 { margin: 0; font-size: 20px; }
  nav { padding: 12px 24px; }
  nav a { margin-right: 12px; text-decoration: none; color: #14233c; padding: 6px 12px; border-radius: 4px; background: #e3e8ef; }
  nav a.active { background: #14233c; color: #fff; }
  main { padding: 0 24px 24px; max-width: 880px; }
  .event { background: #fff; border-radius: 8px; padding: 16px; margin-bottom: 12px; box-shadow: 0 1px 2px rgba(0,0,0,.08); }
  .event h2 { margin: 0 0 4px; font-size: 16px; }
  .meta { color: #5b6877; font-size: 13px; margin-bottom: 10px; }
  .option { display: flex; align-items: center; margin: 4px 0; font-size: 14px; }
  .option .name { flex: 0 0 220px; overflow: hidden; text-overflow: ellipsis; white-space: nowrap; }
  .option .bar { flex: 1; background: #e3e8ef; border-radius: 3px; height: 14px; margin: 0 8px; }
  .option .bar span { display: block; height: 100%; background: #2f7d5d; border-radius: 3px; }
  .option .pct { flex: 0 0 46px; text-align: right; font-variant-numeric: tabular-nums; }
  .change.up { color: #2f7d5d; }
  .change.down { color: #b23a3a; }
  .empty { color: #5b6877; padding: 24px 0; }
  .banner { background: #fbe9e9; color: #b23a3a; border-radius: 8px; padding: 12px 16px; margin-bottom: 12px; }
</style>
</head>
<body>
<header><h1>KalshiPulse &mdash; Kalshi market leaderboards</h1></header>
<nav>
{{- range .Categories }}
  <a href="/?category={{ . }}&sort={{ $.Sort }}" {{ if eq . $.Category }}class="active"{{ end }}>{{ . }}</a>
{{- end }}
  <a href="/?category={{ .Category }}&sort=volume" {{ if eq .Sort "volume" }}class="active"{{ end }}>By volume</a>
  <a href="/?category={{ .Category }}&sort=price_change" {{ if eq .Sort "price_change" }}class="active"{{ end }}>By movers</a>
</nav>
<main>
{{- if .Error }}
  <div class="banner">{{ .Error }}</div>
{{- else if not .Events }}
  <p class="empty">No active events found for {{ .Category }}.</p>
{{- end }}
{{- range $i, $e := .Events }}
  <div class="event">
    <h2>{{ $e.Title }}</h2>
    <div class="meta">{{ $e.NumMarkets }} markets &middot; 24h volume {{ $e.TotalVolume }}{{ if eq $.Sort "price_change" }} &middot; max move {{ $e.MaxPriceChange }}%{{ end }}</div>
    {{- range $e.Options }}
    <div class="option">
      <div class="name">{{ .Name }}</div>
      <div class="bar"><span style="width: {{ .Probability }}%"></span></div>
      <div class="pct">{{ .Probability }}%</div>
      {{- if and (eq $.Sort "price_change") (ne .PriceChange24h 0) }}
      <div class="change {{ if gt .PriceChange24h 0 }}up{{ else }}down{{ end }}">{{ if gt .PriceChange24h 0 }}+{{ end }}{{ .PriceChange24h }}%</div>
      {{- end }}
    </div>
    {{- end }}
  </div>
{{- end }}
</main>
</body>
</html>
`
