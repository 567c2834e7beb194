package compiler

import (
	"bytes"
	"fmt"
	"html"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	goldhtml "github.com/yuin/goldmark/renderer/html"
)

var markdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Footnote),
	goldmark.WithParserOptions(parser.WithAutoHeadingID()),
	goldmark.WithRendererOptions(goldhtml.WithUnsafe()),
)

const pageStyle = `@page { size: A4; margin: 20mm; }
body { font-family: serif; font-size: 11pt; line-height: 1.5; }
h1, h2, h3 { font-family: sans-serif; }
pre, code { font-family: monospace; font-size: 9.5pt; }
table { border-collapse: collapse; }
th, td { border: 1px solid #999; padding: 2px 6px; }
.pagebreak { break-after: page; }`

// renderHTML converts Markdown to a standalone HTML page ready to print.
func renderHTML(source, title, author string) (string, error) {
	var body bytes.Buffer
	if err := markdown.Convert([]byte(source), &body); err != nil {
		return "", fmt.Errorf("markdown: %w", err)
	}

	var page bytes.Buffer
	page.WriteString("<!DOCTYPE html>\n<html>\n<head>\n<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&page, "<title>%s</title>\n", html.EscapeString(title))
	if author != "" {
		fmt.Fprintf(&page, "<meta name=\"author\" content=\"%s\">\n", html.EscapeString(author))
	}
	fmt.Fprintf(&page, "<style>\n%s\n</style>\n</head>\n<body>\n", pageStyle)
	page.Write(body.Bytes())
	page.WriteString("</body>\n</html>\n")
	return page.String(), nil
}
