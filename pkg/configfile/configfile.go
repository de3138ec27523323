// Package configfile decodes the YAML and JSON definition files the catalog
// daemon reads (endpoints, publishers).
package configfile

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Load reads the file at path and decodes it into out. The extension picks the
// format: .yaml/.yml or .json, and files without an extension are read as YAML,
// which also accepts JSON documents. Unknown keys are rejected so a misspelt
// option fails loudly instead of being ignored. name labels errors, e.g. "endpoints".
func Load(path, name string, out any) error {
	path = strings.TrimSpace(path)
	if path == "" {
		return fmt.Errorf("%s file path is empty", name)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s file: %w", name, err)
	}
	if len(bytes.TrimSpace(raw)) == 0 {
		return fmt.Errorf("%s file %s is empty", name, path)
	}

	if err := Decode(raw, filepath.Ext(path), out); err != nil {
		return fmt.Errorf("parse %s file %s: %w", name, path, err)
	}
	return nil
}

// Decode strictly unmarshals raw into out using the format named by ext.
func Decode(raw []byte, ext string, out any) error {
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		return dec.Decode(out)
	case ".yaml", ".yml", "":
		dec := yaml.NewDecoder(bytes.NewReader(raw))
		dec.KnownFields(true)
		if err := dec.Decode(out); err != nil {
			if errors.Is(err, io.EOF) {
				return errors.New("no document found")
			}
			return err
		}
		return nil
	default:
		return fmt.Errorf("unsupported extension %q (expected .yaml, .yml or .json)", ext)
	}
}
