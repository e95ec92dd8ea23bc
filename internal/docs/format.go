package docs

import (
	"fmt"
	"html/template"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/markdown"
)

const defaultTitle = "subfilter pipelines"

// Formatter renders a DocModel to a writer.
type Formatter interface {
	Format(w io.Writer, model *DocModel) error
}

// NewFormatter returns a formatter for the given format name.
func NewFormatter(format string) (Formatter, error) {
	switch strings.ToLower(format) {
	case "markdown", "md", "":
		return &MarkdownFormatter{}, nil
	case "html":
		return &HTMLFormatter{}, nil
	default:
		return nil, fmt.Errorf("unsupported docs format: %s", format)
	}
}

func title(model *DocModel) string {
	if model.Title != "" {
		return model.Title
	}

	return defaultTitle
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}

	return s
}

// ---------------------------------------------------------------------------
// Markdown
// ---------------------------------------------------------------------------

// MarkdownFormatter renders documentation as Markdown.
type MarkdownFormatter struct{}

func (f *MarkdownFormatter) Format(w io.Writer, model *DocModel) error {
	md := markdown.NewMarkdown(w)

	md.H1(title(model))
	md.PlainText("")

	if model.Version != "" {
		md.PlainText(fmt.Sprintf("**Engine version:** `%s`", model.Version))
		md.PlainText("")
	}

	writeFeatures(md, model)
	writeDirectionSummary(md, model)

	for _, d := range model.Directions {
		writeDirection(md, d)
	}

	return md.Build()
}

func writeFeatures(md *markdown.Markdown, model *DocModel) {
	md.H2("Features")
	md.PlainText("")

	if len(model.Features) == 0 {
		md.Note("No features enabled. Every direction runs its canonical pipeline.")
		md.PlainText("")

		return
	}

	rows := make([][]string, 0, len(model.Features))
	for _, feat := range model.Features {
		rows = append(rows, []string{
			"`" + feat.Name + "`",
			orDash(feat.Extends),
			orDash(feat.Requires),
			strconv.Itoa(feat.Rules),
			orDash(feat.Description),
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Feature", "Extends", "Requires", "Rules", "Description"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeDirectionSummary(md *markdown.Markdown, model *DocModel) {
	md.H2("Directions")
	md.PlainText("")

	rows := make([][]string, 0, len(model.Directions))
	for _, d := range model.Directions {
		altered := "no"
		if d.Altered() {
			altered = "yes"
		}

		rows = append(rows, []string{
			"`" + d.Name + "`",
			"`" + d.Alias + "`",
			d.Description,
			strconv.Itoa(len(d.Steps)),
			altered,
		})
	}

	md.Table(markdown.TableSet{
		Header: []string{"Direction", "Alias", "Description", "Steps", "Altered"},
		Rows:   rows,
	})
	md.PlainText("")
}

func writeDirection(md *markdown.Markdown, d DirectionInfo) {
	md.H3(d.Name)
	md.PlainText("")
	md.PlainText(d.Description + ".")
	md.PlainText("")

	items := make([]string, 0, len(d.Steps))
	for _, s := range d.Steps {
		item := "`" + s.Name + "`"
		if s.Added {
			item += " (added by features)"
		}

		items = append(items, item)
	}

	md.OrderedList(items...)
	md.PlainText("")

	if len(d.Removed) > 0 {
		md.Warningf("Removed by features: %s", strings.Join(d.Removed, ", "))
		md.PlainText("")
	}
}

// ---------------------------------------------------------------------------
// HTML
// ---------------------------------------------------------------------------

// HTMLFormatter renders documentation as a standalone HTML page.
type HTMLFormatter struct{}

var htmlTpl = template.Must(template.New("docs").Funcs(template.FuncMap{
	"join":   strings.Join,
	"orDash": orDash,
}).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>
body{font-family:sans-serif;margin:2em;line-height:1.6}
table{border-collapse:collapse;width:100%;margin-bottom:1em}
th,td{border:1px solid #ddd;padding:8px;text-align:left}
th{background:#f5f5f5}
code{background:#f0f0f0;padding:2px 4px;border-radius:3px}
.added{color:#1a7f37}
</style>
</head>
<body>
<h1>{{.Title}}</h1>
{{if .Version}}<p><strong>Engine version:</strong> <code>{{.Version}}</code></p>{{end}}

<h2>Features</h2>
{{if .Features}}
<table>
<tr><th>Feature</th><th>Extends</th><th>Requires</th><th>Rules</th><th>Description</th></tr>
{{range .Features}}<tr><td><code>{{.Name}}</code></td><td>{{orDash .Extends}}</td><td>{{orDash .Requires}}</td><td>{{.Rules}}</td><td>{{orDash .Description}}</td></tr>
{{end}}
</table>
{{else}}
<p>No features enabled. Every direction runs its canonical pipeline.</p>
{{end}}

<h2>Directions</h2>
{{range .Directions}}
<h3><code>{{.Name}}</code> ({{.Alias}})</h3>
<p>{{.Description}}.</p>
<ol>
{{range .Steps}}<li><code>{{.Name}}</code>{{if .Added}} <span class="added">(added by features)</span>{{end}}</li>
{{end}}
</ol>
{{if .Removed}}<p><strong>Removed by features:</strong> {{join .Removed ", "}}</p>{{end}}
{{end}}
</body>
</html>
`))

type htmlModel struct {
	*DocModel
	Title string
}

func (f *HTMLFormatter) Format(w io.Writer, model *DocModel) error {
	return htmlTpl.Execute(w, htmlModel{DocModel: model, Title: title(model)})
}
