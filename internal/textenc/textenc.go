// Package textenc resolves character encoding names and wraps readers and
// writers so the rest of the pipeline only ever sees UTF-8.
package textenc

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

// UTF8 is the default encoding name.
const UTF8 = "utf-8"

// Lookup resolves a WHATWG encoding label such as "utf-8", "latin1",
// "windows-1252" or "utf-16le". An empty name means UTF-8.
func Lookup(name string) (encoding.Encoding, error) {
	if IsUTF8(name) {
		return unicode.UTF8, nil
	}
	enc, err := htmlindex.Get(strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	return enc, nil
}

// IsUTF8 reports whether name denotes UTF-8.
func IsUTF8(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "unicode-1-1-utf-8":
		return true
	}
	return false
}

// NewReader decodes r from the named encoding into UTF-8. A leading byte
// order mark is honoured and stripped.
func NewReader(r io.Reader, name string) (io.Reader, error) {
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return transform.NewReader(r, unicode.BOMOverride(enc.NewDecoder())), nil
}

// NewWriter encodes UTF-8 text written to it into the named encoding.
// Close must be called to flush buffered output; it does not close w.
func NewWriter(w io.Writer, name string) (io.WriteCloser, error) {
	if IsUTF8(name) {
		return nopCloser{w}, nil
	}
	enc, err := Lookup(name)
	if err != nil {
		return nil, err
	}
	return transform.NewWriter(w, enc.NewEncoder()), nil
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }
