// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package records reads and writes batches of fund records.
//
// Three encodings are supported: a JSON array (or a single JSON object),
// JSON Lines with one object per line, and YAML holding a sequence of
// mappings (or a single mapping, across one or more documents). Numbers
// keep their literal digits in every encoding.
package records

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/fundscore/pkg/types"
)

// Format identifies a record encoding.
type Format string

const (
	FormatJSON  Format = "json"
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

// ErrUnknownFormat is returned for file extensions or format names that do
// not map to a supported encoding.
var ErrUnknownFormat = errors.New("unknown record format")

// maxLineBytes bounds a single JSON Lines record.
const maxLineBytes = 16 << 20

// ParseFormat maps a format name to a Format. It accepts the names used as
// file extensions (json, jsonl, ndjson, yaml, yml).
func ParseFormat(name string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(name), ".")) {
	case "json":
		return FormatJSON, nil
	case "jsonl", "ndjson":
		return FormatJSONL, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// FormatFromPath infers the format from the file extension of path.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", fmt.Errorf("%w: %s has no extension", ErrUnknownFormat, path)
	}
	return ParseFormat(ext)
}

// ReadFile reads every record in the file at path, inferring the format
// from its extension.
func ReadFile(path string) ([]types.Record, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	recs, err := Read(f, format)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return recs, nil
}

// Read decodes every record in r.
func Read(r io.Reader, format Format) ([]types.Record, error) {
	switch format {
	case FormatJSON:
		return readJSON(r)
	case FormatJSONL:
		return readJSONL(r)
	case FormatYAML:
		return readYAML(r)
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

func readJSON(r io.Reader) ([]types.Record, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading JSON: %w", err)
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, nil
	}

	if trimmed[0] == '{' {
		var rec types.Record
		if err := json.Unmarshal(trimmed, &rec); err != nil {
			return nil, jsonError(trimmed, err)
		}
		return []types.Record{rec}, nil
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(trimmed, &raw); err != nil {
		return nil, jsonError(trimmed, err)
	}
	recs := make([]types.Record, 0, len(raw))
	for i, msg := range raw {
		rec, err := decodeObject(msg)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i, err)
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

func readJSONL(r io.Reader) ([]types.Record, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)

	var recs []types.Record
	line := 0
	for sc.Scan() {
		line++
		text := bytes.TrimSpace(sc.Bytes())
		if len(text) == 0 {
			continue
		}
		rec, err := decodeObject(text)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		recs = append(recs, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("line %d: %w", line+1, err)
	}
	return recs, nil
}

// decodeObject decodes one JSON object. Anything else is an error.
func decodeObject(data []byte) (types.Record, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return nil, errors.New("record is not a JSON object")
	}
	var rec types.Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// jsonError adds the line number to JSON syntax errors.
func jsonError(data []byte, err error) error {
	var syn *json.SyntaxError
	if errors.As(err, &syn) {
		line := 1 + bytes.Count(data[:min(int(syn.Offset), len(data))], []byte("\n"))
		return fmt.Errorf("line %d: %w", line, err)
	}
	return err
}

func readYAML(r io.Reader) ([]types.Record, error) {
	dec := yaml.NewDecoder(r)
	var recs []types.Record
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			return recs, nil
		}
		if err != nil {
			return nil, fmt.Errorf("parsing YAML: %w", err)
		}
		if len(doc.Content) == 0 {
			continue
		}

		root := doc.Content[0]
		switch root.Kind {
		case yaml.MappingNode:
			rec, err := decodeMapping(root)
			if err != nil {
				return nil, err
			}
			recs = append(recs, rec)
		case yaml.SequenceNode:
			for _, item := range root.Content {
				rec, err := decodeMapping(item)
				if err != nil {
					return nil, err
				}
				recs = append(recs, rec)
			}
		case yaml.ScalarNode:
			if root.ShortTag() == "!!null" {
				continue
			}
			return nil, fmt.Errorf("line %d: document is neither a record nor a list of records", root.Line)
		default:
			return nil, fmt.Errorf("line %d: document is neither a record nor a list of records", root.Line)
		}
	}
}

func decodeMapping(n *yaml.Node) (types.Record, error) {
	if n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	if n.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: record is not a mapping", n.Line)
	}
	rec := types.Record{}
	if err := n.Decode(&rec); err != nil {
		return nil, fmt.Errorf("line %d: %w", n.Line, err)
	}
	return rec, nil
}

// Write encodes recs to w. JSON is written as an indented array, YAML as a
// sequence of mappings.
func Write(w io.Writer, recs []types.Record, format Format) error {
	switch format {
	case FormatJSON:
		if recs == nil {
			recs = []types.Record{}
		}
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(recs)
	case FormatJSONL:
		enc := json.NewEncoder(w)
		for i, rec := range recs {
			if err := enc.Encode(rec); err != nil {
				return fmt.Errorf("record %d: %w", i, err)
			}
		}
		return nil
	case FormatYAML:
		return WriteYAML(w, recs)
	}
	return fmt.Errorf("%w: %q", ErrUnknownFormat, format)
}

// WriteYAML encodes v as a YAML document with two-space indentation.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
