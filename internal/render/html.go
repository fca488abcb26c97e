package render

import (
	"html/template"
	"io"
	"strings"
)

var funcs = template.FuncMap{
	// html/template rewrites unknown URL schemes to #ZgotmplZ; magnet links
	// are built by MagnetLink and only pass through when they look like one.
	"magnet": func(link string) template.URL {
		if !strings.HasPrefix(link, "magnet:?xt=urn:btih:") {
			return "#"
		}
		return template.URL(link)
	},
}

var resultsTemplate = template.Must(template.New("results").Funcs(funcs).Parse(
	`<p class="results-meta">{{.Meta}}</p>
{{- if .Empty}}
<div class="empty-state">` + EmptyText + `</div>
{{- else}}
<div class="results">
{{- range .Cards}}
<div class="result-card glass">
  <div class="info text-truncate">
    <h3 class="text-truncate" title="{{.Name}}">{{range .Segments}}{{if .Match}}<mark>{{.Text}}</mark>{{else}}{{.Text}}{{end}}{{end}}</h3>
    <div class="stats">
      <span class="size">{{.SizeGB}} GB</span>
      <span class="seeders">S: {{.Seeders}}</span>
      <span class="leechers">L: {{.Leechers}}</span>
      {{- if .ShowCompleted}}
      <span class="completed">C: {{.Completed}}</span>
      {{- end}}
    </div>
  </div>
  <a href="{{magnet .Magnet}}" class="magnet-btn">Magnet</a>
</div>
{{- end}}
</div>
{{- end}}
`))

// WriteHTML renders v as an HTML fragment. All row text is escaped.
func WriteHTML(w io.Writer, v View) error {
	return resultsTemplate.Execute(w, v)
}
