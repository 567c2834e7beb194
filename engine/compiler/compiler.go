// Package compiler turns source files into PDF bytes. PDF sources pass
// through; Markdown is rendered to HTML and printed by headless Chrome; YAML
// sources fill a Markdown template first.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Logger is injected by main.
var Logger *slog.Logger = slog.Default()

// ErrUnsupported is returned for source types the compiler does not accept.
var ErrUnsupported = errors.New("unsupported source type")

// DefaultTimeout bounds a single compilation.
const DefaultTimeout = 2 * time.Minute

var acceptable = map[string]bool{
	".pdf":      true,
	".md":       true,
	".markdown": true,
	".yml":      true,
	".yaml":     true,
}

// IsAcceptable reports whether path has an extension the compiler accepts.
func IsAcceptable(path string) bool {
	return acceptable[strings.ToLower(filepath.Ext(path))]
}

// Output is a compiled document.
type Output struct {
	SourcePath string
	PDF        []byte
	Title      string
	Author     string
	PageCount  int
	// ModTime is the source's modification time when it was read.
	ModTime time.Time
}

// Compiler compiles sources. The zero value compiles PDF sources only.
type Compiler struct {
	// TemplatePath is where the search for a templates directory starts.
	TemplatePath string
	// Printer turns HTML into PDF. Required for Markdown and YAML sources.
	Printer Printer
	Timeout time.Duration
}

// New returns a compiler printing through Chrome at chromePath (empty means
// let chromedp find it).
func New(templatePath, chromePath string) *Compiler {
	return &Compiler{
		TemplatePath: templatePath,
		Printer:      &ChromePrinter{ExecPath: chromePath},
		Timeout:      DefaultTimeout,
	}
}

// Compile reads path and produces PDF bytes plus metadata.
func (c *Compiler) Compile(ctx context.Context, path string) (*Output, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if !IsAcceptable(abs) {
		return nil, fmt.Errorf("%s: %w", filepath.Base(abs), ErrUnsupported)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", abs)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	start := time.Now()
	out := &Output{SourcePath: abs, ModTime: info.ModTime()}
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".pdf":
		out.PDF, err = os.ReadFile(abs)
	case ".md", ".markdown":
		err = c.compileMarkdownFile(ctx, out)
	case ".yml", ".yaml":
		err = c.compileYAMLFile(ctx, out)
	}
	if err != nil {
		return nil, err
	}

	meta, err := inspect(out.PDF)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(abs), err)
	}
	out.PageCount = meta.PageCount
	if out.Title == "" {
		out.Title = meta.Title
	}
	if out.Author == "" {
		out.Author = meta.Author
	}

	Logger.Info("Compiled source", "path", abs, "pages", out.PageCount,
		"bytes", len(out.PDF), "duration", time.Since(start))
	return out, nil
}

func (c *Compiler) compileMarkdownFile(ctx context.Context, out *Output) error {
	text, err := readText(out.SourcePath)
	if err != nil {
		return err
	}
	out.PDF, err = c.compileMarkdown(ctx, text, out.Title, out.Author)
	return err
}

func (c *Compiler) compileMarkdown(ctx context.Context, markdown, title, author string) ([]byte, error) {
	if c.Printer == nil {
		return nil, errors.New("no printer configured for Markdown sources")
	}
	page, err := renderHTML(markdown, title, author)
	if err != nil {
		return nil, err
	}
	pdf, err := c.Printer.PrintPDF(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("print: %w", err)
	}
	return pdf, nil
}
