package site

import (
	"fmt"
	"html/template"
	"io"
)

var pageTemplate = template.Must(template.New("about").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
</head>
<body style="max-width: 42rem; margin: 2rem auto; font-family: sans-serif;">
<h1>{{.Icon}} {{.Title}}</h1>
<h3>{{.Heading}}</h3>
<p>{{.Description}}</p>
{{- if .Features}}
<p>Our solution can:</p>
<ul>
{{- range .Features}}
<li>{{.}}</li>
{{- end}}
</ul>
{{- end}}
<hr>
<h3>📞 {{.Contact.Heading}}</h3>
<p>{{.Contact.Prompt}}</p>
<p>👉 <a href="{{.Link}}">Chat with us on WhatsApp</a></p>
</body>
</html>
`))

// Render writes the page as HTML
func (p Page) Render(w io.Writer) error {
	data := struct {
		Page
		Link string
	}{Page: p, Link: p.WhatsAppLink()}

	if err := pageTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("rendering page: %w", err)
	}
	return nil
}
