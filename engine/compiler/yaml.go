package compiler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"go.yaml.in/yaml/v3"
)

// ErrTemplatesNotFound is returned when no templates directory exists at or
// above the compiler's TemplatePath.
var ErrTemplatesNotFound = errors.New("templates folder not found")

// yamlSource is the part of a YAML source the compiler interprets. The
// whole document is also passed to the template.
type yamlSource struct {
	Title    string `yaml:"title"`
	Author   string `yaml:"author"`
	Template string `yaml:"template"`
}

func (c *Compiler) compileYAMLFile(ctx context.Context, out *Output) error {
	text, err := readText(out.SourcePath)
	if err != nil {
		return err
	}
	md, src, err := c.expandYAML([]byte(text))
	if err != nil {
		return fmt.Errorf("%s: %w", filepath.Base(out.SourcePath), err)
	}
	out.Title, out.Author = src.Title, src.Author
	out.PDF, err = c.compileMarkdown(ctx, md, out.Title, out.Author)
	return err
}

// expandYAML executes the source's template with the whole YAML document
// and returns the resulting Markdown.
func (c *Compiler) expandYAML(data []byte) (string, yamlSource, error) {
	var src yamlSource
	if err := yaml.Unmarshal(data, &src); err != nil {
		return "", src, fmt.Errorf("yaml: %w", err)
	}
	var values map[string]any
	if err := yaml.Unmarshal(data, &values); err != nil {
		return "", src, fmt.Errorf("yaml: %w", err)
	}
	if src.Template == "" {
		return "", src, errors.New("yaml: no template given")
	}

	dir, err := FindTemplates(c.TemplatePath)
	if err != nil {
		return "", src, err
	}
	tmplPath := filepath.Join(dir, filepath.Base(src.Template))
	tmpl, err := template.New(filepath.Base(tmplPath)).Option("missingkey=zero").ParseFiles(tmplPath)
	if err != nil {
		return "", src, fmt.Errorf("template: %w", err)
	}

	var md bytes.Buffer
	if err := tmpl.Execute(&md, values); err != nil {
		return "", src, fmt.Errorf("template %s: %w", src.Template, err)
	}
	Logger.Debug("Expanded YAML template", "template", tmplPath, "bytes", md.Len())
	return md.String(), src, nil
}

// FindTemplates walks up from start looking for a directory named
// templates.
func FindTemplates(start string) (string, error) {
	if start == "" {
		start = "."
	}
	dir, err := filepath.Abs(start)
	if err != nil {
		return "", err
	}
	for {
		candidate := filepath.Join(dir, "templates")
		if info, err := os.Stat(candidate); err == nil && info.IsDir() {
			return candidate, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", ErrTemplatesNotFound
		}
		dir = parent
	}
}
