package coauthor

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"

	"github.com/matzehuels/authornet/pkg/errors"
)

// MaxLineCapacity bounds a single JSONL line.
const MaxLineCapacity = 1024 * 1024

// Author is a paper author.
type Author struct {
	First string `json:"first"`
	Last  string `json:"last"`
}

// Name returns "First Last" with whitespace collapsed.
func (a Author) Name() string {
	return strings.Join(strings.Fields(a.First+" "+a.Last), " ")
}

// ID returns the normalized node id: the lowercased name with spaces
// replaced by hyphens. Two spellings that differ only in case or spacing
// are the same author.
func (a Author) ID() string {
	return strings.ReplaceAll(strings.ToLower(a.Name()), " ", "-")
}

// Initials returns the uppercased first letter of every name part.
// "Ada King-Lovelace" is "AKL".
func (a Author) Initials() string {
	var b strings.Builder
	parts := strings.FieldsFunc(a.Name(), func(r rune) bool {
		return unicode.IsSpace(r) || r == '-' || r == '.'
	})
	for _, p := range parts {
		for _, r := range p {
			b.WriteRune(unicode.ToUpper(r))
			break
		}
	}
	if b.Len() == 0 {
		for _, r := range a.Name() {
			return string(unicode.ToUpper(r))
		}
	}
	return b.String()
}

// Reference is one paper of the input.
type Reference struct {
	ID      string   `json:"id"`
	Title   string   `json:"title,omitempty"`
	Authors []Author `json:"authors"`
}

// Read decodes references from JSONL. Empty lines are skipped.
func Read(r io.Reader) ([]Reference, error) {
	scanner := bufio.NewScanner(r)
	buf := make([]byte, MaxLineCapacity)
	scanner.Buffer(buf, MaxLineCapacity)

	var refs []Reference
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(strings.TrimSpace(string(line))) == 0 {
			continue
		}

		var ref Reference
		if err := json.Unmarshal(line, &ref); err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parsing line %d", lineNum)
		}
		refs = append(refs, ref)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading references: %w", err)
	}
	return refs, nil
}

// ReadFile reads references from a JSONL file.
func ReadFile(path string) ([]Reference, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "references file %s", path)
		}
		return nil, fmt.Errorf("opening references file: %w", err)
	}
	defer f.Close()
	return Read(f)
}
