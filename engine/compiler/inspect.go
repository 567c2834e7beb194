package compiler

import (
	"bytes"
	"fmt"

	"github.com/ledongthuc/pdf"
)

type metadata struct {
	PageCount int
	Title     string
	Author    string
}

// inspect reads the page count and Info dictionary of a PDF.
func inspect(data []byte) (meta metadata, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return meta, fmt.Errorf("not a PDF: %w", err)
	}
	meta.PageCount = r.NumPage()
	info := r.Trailer().Key("Info")
	meta.Title = info.Key("Title").Text()
	meta.Author = info.Key("Author").Text()
	return meta, nil
}
