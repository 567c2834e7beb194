package compiler

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/net/html/charset"
	"golang.org/x/text/transform"
)

// readText reads a text source and decodes it to UTF-8. The encoding is
// taken from a byte order mark when present; otherwise UTF-8 is assumed if
// the bytes are valid UTF-8, and Windows-1252 if not.
func readText(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return decodeText(raw)
}

func decodeText(raw []byte) (string, error) {
	enc, name, _ := charset.DetermineEncoding(raw, "text/plain")
	decoded, _, err := transform.Bytes(enc.NewDecoder(), raw)
	if err != nil {
		return "", fmt.Errorf("decode %s: %w", name, err)
	}
	return strings.TrimPrefix(string(decoded), "\ufeff"), nil
}
