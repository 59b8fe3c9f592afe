package export

import (
	"html/template"
	"io"
)

var documentTemplate = template.Must(template.New("document").Funcs(template.FuncMap{
	"dataURL": func(s string) template.URL { return template.URL(s) },
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body { font-family: sans-serif; margin: 2rem; }
figure { display: inline-block; margin: 0 1rem 1rem 0; }
img { max-width: 320px; max-height: 240px; }
.unavailable { color: #888; }
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{range .Sections}}<section>
{{if .Heading}}<h2>{{.Heading}}</h2>
{{end}}{{if .Body}}<p>{{.Body}}</p>
{{end}}{{range .Assets}}<figure>{{if .Unavailable}}<em class="unavailable">{{.Label}}</em>{{else}}<img src="{{dataURL .DataURL}}" alt="">{{end}}</figure>
{{end}}</section>
{{end}}<footer><small>Generated {{.GeneratedAt.UTC.Format "2006-01-02 15:04 MST"}}</small></footer>
</body>
</html>
`))

// RenderHTML writes doc as a self-contained HTML page. Embedded media is
// inlined as data URIs; unavailable media is shown as an italic label.
func RenderHTML(w io.Writer, doc *Rendered) error {
	return documentTemplate.Execute(w, doc)
}
