package service

import (
	"bytes"
	"html/template"
	"strings"
)

// FallbackMeta is the archive metadata embedded into a synthesized document
// when the live capture of a URL fails.
type FallbackMeta struct {
	Title     string
	Authors   []string
	Publisher string
	Date      string
	Chapter   string
	Tags      []string
	Remarks   string
}

var fallbackTemplate = template.Must(template.New("fallback").Parse(`<!DOCTYPE html>
<html lang="zh">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<h1>{{.Title}}</h1>
<p><strong>自动抓取失败</strong> — automatic capture of the original page failed.</p>
<p>原文链接: <a href="{{.OriginalURL}}">{{.OriginalURL}}</a></p>
{{if .Authors}}<p>作者: {{.Authors}}</p>{{end}}
{{if .Publisher}}<p>来源: {{.Publisher}}</p>{{end}}
{{if .Date}}<p>日期: {{.Date}}</p>{{end}}
{{if .Chapter}}<p>章节: {{.Chapter}}</p>{{end}}
{{if .Tags}}<p>标签: {{.Tags}}</p>{{end}}
{{if .Remarks}}<p>备注: {{.Remarks}}</p>{{end}}
</body>
</html>
`))

// renderFallbackDocument produces a minimal valid HTML document recording the
// failed URL and the supplied metadata. Pure and deterministic: same inputs,
// same bytes.
func renderFallbackDocument(meta FallbackMeta, originalURL string) []byte {
	data := struct {
		Title       string
		OriginalURL string
		Authors     string
		Publisher   string
		Date        string
		Chapter     string
		Tags        string
		Remarks     string
	}{
		Title:       meta.Title,
		OriginalURL: originalURL,
		Authors:     strings.Join(meta.Authors, ", "),
		Publisher:   meta.Publisher,
		Date:        meta.Date,
		Chapter:     meta.Chapter,
		Tags:        strings.Join(meta.Tags, ", "),
		Remarks:     meta.Remarks,
	}

	var buf bytes.Buffer
	// the template is static and the data struct matches it; an execution
	// error here is a programming bug
	if err := fallbackTemplate.Execute(&buf, data); err != nil {
		panic(err)
	}
	return buf.Bytes()
}
