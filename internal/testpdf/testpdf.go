// Package testpdf writes small, structurally valid PDF files for tests.
package testpdf

import (
	"bytes"
	"fmt"
)

// Page is a page size in points.
type Page struct {
	Width, Height float64
}

// Letter is US Letter in points.
var Letter = Page{Width: 612, Height: 792}

// Options describes the generated document.
type Options struct {
	Pages  []Page
	Title  string
	Author string
}

// New returns a PDF with n Letter pages.
func New(n int, title string) []byte {
	pages := make([]Page, n)
	for i := range pages {
		pages[i] = Letter
	}
	return Build(Options{Pages: pages, Title: title})
}

// Build returns a PDF with the given pages and Info dictionary, with a
// correct cross-reference table.
func Build(opts Options) []byte {
	var objs []string
	objs = append(objs, "<< /Type /Catalog /Pages 2 0 R >>")

	kids := new(bytes.Buffer)
	for i := range opts.Pages {
		fmt.Fprintf(kids, "%d 0 R ", i+3)
	}
	objs = append(objs, fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", kids.String(), len(opts.Pages)))
	for _, p := range opts.Pages {
		objs = append(objs, fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 %g %g] /Resources << >> >>", p.Width, p.Height))
	}
	objs = append(objs, fmt.Sprintf("<< /Title (%s) /Author (%s) /Producer (testpdf) >>", opts.Title, opts.Author))
	info := len(objs)

	buf := new(bytes.Buffer)
	buf.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objs))
	for i, body := range objs {
		offsets[i] = buf.Len()
		fmt.Fprintf(buf, "%d 0 obj\n%s\nendobj\n", i+1, body)
	}

	xref := buf.Len()
	fmt.Fprintf(buf, "xref\n0 %d\n", len(objs)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(buf, "trailer\n<< /Size %d /Root 1 0 R /Info %d 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(objs)+1, info, xref)
	return buf.Bytes()
}
