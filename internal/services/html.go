package services

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
)

const htmlPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
</head>
<body>
%s</body>
</html>
`

var markdownEngine = goldmark.New(
	goldmark.WithExtensions(extension.GFM),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
)

// RenderHTML converts the markdown report into a standalone HTML page
func RenderHTML(title, markdown string) ([]byte, error) {
	var body bytes.Buffer
	if err := markdownEngine.Convert([]byte(markdown), &body); err != nil {
		return nil, fmt.Errorf("markdown render: %w", err)
	}

	return []byte(fmt.Sprintf(htmlPage, html.EscapeString(title), body.String())), nil
}
