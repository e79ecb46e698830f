package web

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/yashikart/gurukul-backend--sub002/internal/status"
)

var indexTmpl = template.Must(template.New("index").Funcs(template.FuncMap{
	"uptime": func(d time.Duration) string {
		d = d.Truncate(time.Second)
		days := int(d.Hours()) / 24
		h := int(d.Hours()) % 24
		m := int(d.Minutes()) % 60
		s := int(d.Seconds()) % 60
		if days > 0 {
			return fmt.Sprintf("%dd %dh %dm %ds", days, h, m, s)
		}
		if h > 0 {
			return fmt.Sprintf("%dh %dm %ds", h, m, s)
		}
		if m > 0 {
			return fmt.Sprintf("%dm %ds", m, s)
		}
		return fmt.Sprintf("%ds", s)
	},
	"stateOrUnknown": func(s string) string {
		if s == "" {
			return "UNKNOWN"
		}
		return s
	},
	"stateClass": func(s string) string {
		switch s {
		case "ON_TASK":
			return "ontask"
		case "DEEP_FOCUS":
			return "deepfocus"
		case "THINKING":
			return "thinking"
		case "IDLE":
			return "idle"
		case "DISTRACTED":
			return "distracted"
		case "AWAY":
			return "away"
		case "OFF_TASK":
			return "offtask"
		default:
			return "unknown"
		}
	},
}).Parse(indexHTML))

const indexHTML = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>Engagement Sensor</title>
<style>
body { font-family: monospace; max-width: 600px; margin: 2em auto; padding: 0 1em; }
h1 { font-size: 1.4em; }
table { border-collapse: collapse; width: 100%; margin: 1em 0; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #ddd; }
th { width: 40%; }
.ontask { color: green; font-weight: bold; }
.deepfocus { color: darkgreen; font-weight: bold; }
.thinking { color: steelblue; }
.idle { color: #888; }
.distracted { color: orange; }
.away { color: red; }
.offtask { color: red; font-weight: bold; }
.unknown { color: orange; }
.connected { color: green; }
.disconnected { color: red; }
</style>
</head>
<body>
<h1>Engagement Sensor</h1>

<h2>Cognitive State</h2>
<table>
<tr><th>State</th><td class="{{stateClass (printf "%s" .State)}}">{{stateOrUnknown (printf "%s" .State)}}</td></tr>
<tr><th>Held For</th><td>{{uptime .StateDuration}}</td></tr>
<tr><th>Focus Score</th><td>{{.LastFocusScore}}</td></tr>
<tr><th>Packets Emitted</th><td>{{.PacketsEmitted}}</td></tr>
<tr><th>Transitions</th><td>{{.Transitions}}</td></tr>
</table>

<h2>Connectivity</h2>
<table>
<tr><th>Sink</th><td>{{.Config.Sink}}</td></tr>
<tr><th>Status</th><td class="{{if .SinkConnected}}connected{{else}}disconnected{{end}}">{{if .SinkConnected}}connected{{else}}disconnected{{end}}</td></tr>
{{if .Config.Broker}}<tr><th>Broker</th><td>{{.Config.Broker}}</td></tr>{{end}}
</table>

{{if .Recent}}<h2>Recent Transitions</h2>
<table>
<tr><th>Time</th><th>Change</th><th>Reason</th></tr>
{{range .Recent}}<tr><td>{{.Timestamp.UTC.Format "15:04:05"}}</td><td><span class="{{stateClass (printf "%s" .From)}}">{{.From}}</span> &rarr; <span class="{{stateClass (printf "%s" .To)}}">{{.To}}</span></td><td>{{.Reason}}</td></tr>
{{end}}</table>
{{end}}
<h2>System</h2>
<table>
<tr><th>Uptime</th><td>{{uptime .Uptime}}</td></tr>
<tr><th>Started</th><td>{{.StartTime.UTC.Format "2006-01-02T15:04:05Z"}}</td></tr>
<tr><th>Source</th><td>{{.Config.Source}}</td></tr>
<tr><th>Poll</th><td>{{.Config.PollMs}}ms</td></tr>
<tr><th>Evaluate</th><td>{{.Config.EvalMs}}ms</td></tr>
<tr><th>Emit</th><td>{{.Config.EmitMs}}ms</td></tr>
<tr><th>HTTP</th><td>{{.Config.HTTPAddr}}</td></tr>
</table>

<p><a href="/index.json">JSON</a></p>
</body>
</html>
`

func renderHTML(w io.Writer, snap status.Snapshot) {
	// Snapshot has Uptime()/StateDuration() methods but the template needs
	// Duration fields.
	data := struct {
		status.Snapshot
		Uptime        time.Duration
		StateDuration time.Duration
	}{
		Snapshot:      snap,
		Uptime:        snap.Uptime(),
		StateDuration: snap.StateDuration(),
	}
	indexTmpl.Execute(w, data)
}
