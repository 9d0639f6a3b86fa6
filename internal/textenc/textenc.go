// Package textenc detects and re-applies the byte-level conventions of a
// text file (UTF-8 BOM, line endings, trailing newline) so rewritten files
// differ from the original only where their content changed.
package textenc

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/indaco/versync/internal/atomicfile"
	"github.com/indaco/versync/internal/backup"
	"golang.org/x/text/encoding/unicode"
)

// ErrInvalidEncoding is returned for content that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid encoding")

// BOM is the UTF-8 byte-order mark.
var BOM = []byte{0xEF, 0xBB, 0xBF}

var readFileFn = os.ReadFile

// Characteristics are the conventions Apply restores.
type Characteristics struct {
	HasBOM          bool
	UsesCRLF        bool
	EndsWithNewline bool
}

// Detect inspects raw file bytes.
func Detect(data []byte) Characteristics {
	body := bytes.TrimPrefix(data, BOM)
	return Characteristics{
		HasBOM:          len(body) != len(data),
		UsesCRLF:        bytes.Contains(body, []byte("\r\n")),
		EndsWithNewline: bytes.HasSuffix(body, []byte("\n")),
	}
}

// DetectFile reads path and detects its characteristics.
func DetectFile(path string) (Characteristics, error) {
	data, err := readFileFn(path)
	if err != nil {
		return Characteristics{}, err
	}
	return Detect(data), nil
}

// Apply rewrites content to match c: line endings are normalized to the
// detected style, the trailing terminator is added or removed, and the BOM
// is restored or stripped. Content is always treated as UTF-8.
func Apply(content []byte, c Characteristics) []byte {
	body := bytes.TrimPrefix(content, BOM)
	body = bytes.ReplaceAll(body, []byte("\r\n"), []byte("\n"))

	if c.EndsWithNewline {
		if len(body) > 0 && !bytes.HasSuffix(body, []byte("\n")) {
			body = append(body, '\n')
		}
	} else {
		body = bytes.TrimSuffix(body, []byte("\n"))
	}

	if c.UsesCRLF {
		body = bytes.ReplaceAll(body, []byte("\n"), []byte("\r\n"))
	}

	if !c.HasBOM {
		return body
	}
	out := make([]byte, 0, len(BOM)+len(body))
	out = append(out, BOM...)
	return append(out, body...)
}

// Normalize strips the BOM and converts CRLF to LF, giving updaters a single
// canonical form to match against.
func Normalize(data []byte) []byte {
	return bytes.ReplaceAll(bytes.TrimPrefix(data, BOM), []byte("\r\n"), []byte("\n"))
}

// ValidateUTF8 decodes data as UTF-8 (dropping a leading BOM), re-encodes
// it, and compares the result with the original bytes. Any ill-formed
// sequence is replaced during decoding, so it shows up as a difference.
func ValidateUTF8(data []byte) error {
	body := bytes.TrimPrefix(data, BOM)

	decoded, err := unicode.UTF8BOM.NewDecoder().Bytes(data)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	encoded, err := unicode.UTF8.NewEncoder().Bytes(decoded)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEncoding, err)
	}
	if !bytes.Equal(encoded, body) {
		return fmt.Errorf("%w: content is not valid UTF-8", ErrInvalidEncoding)
	}
	return nil
}

// ValidateFile runs ValidateUTF8 on the file at path.
func ValidateFile(path string) error {
	data, err := readFileFn(path)
	if err != nil {
		return err
	}
	if err := ValidateUTF8(data); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}

// WriteFile applies c to content and writes the result to path through r,
// so the file is backed up and replaced atomically.
func WriteFile(r *atomicfile.Replacer, path string, content []byte, c Characteristics, tracker atomicfile.Tracker) (*backup.Record, error) {
	return r.WriteAtomic(path, Apply(content, c), tracker)
}
