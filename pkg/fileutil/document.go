package fileutil

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/hostenv/internal/errors"
)

// Format is a structured document encoding.
type Format string

// Supported document formats.
const (
	FormatYAML Format = "YAML"
	FormatJSON Format = "JSON"
	FormatTOML Format = "TOML"
)

// FormatOf picks a Format from the extension of path, case-insensitively.
func FormatOf(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, true
	case ".json":
		return FormatJSON, true
	case ".toml":
		return FormatTOML, true
	}
	return "", false
}

// Decode unmarshals data into v. JSON decoding rejects unknown fields.
func Decode(f Format, data []byte, v any) error {
	switch f {
	case FormatYAML:
		return yaml.Unmarshal(data, v)
	case FormatJSON:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.DisallowUnknownFields()
		return dec.Decode(v)
	case FormatTOML:
		return toml.Unmarshal(data, v)
	}
	return errors.Wrapf(errors.ErrUnsupportedFormat, "document format %q", f)
}

// Encode marshals v, always ending the output with a newline.
func Encode(f Format, v any) (data []byte, err error) {
	switch f {
	case FormatYAML:
		// yaml.v3 panics on values it cannot represent
		defer func() {
			if r := recover(); r != nil {
				err = errors.Newf("marshaling YAML: %v", r)
			}
		}()
		data, err = yaml.Marshal(v)
	case FormatJSON:
		data, err = json.MarshalIndent(v, "", "  ")
	case FormatTOML:
		data, err = toml.Marshal(v)
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedFormat, "document format %q", f)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "marshaling %s", f)
	}
	if len(data) == 0 || data[len(data)-1] != '\n' {
		data = append(data, '\n')
	}
	return data, nil
}

// WriteDocument encodes v in the format named by the extension of path and
// writes it atomically with perm.
func WriteDocument(path string, v any, perm os.FileMode) error {
	f, ok := FormatOf(path)
	if !ok {
		return errors.Wrapf(errors.ErrUnsupportedFormat, "extension %q", filepath.Ext(path))
	}
	data, err := Encode(f, v)
	if err != nil {
		return err
	}
	return AtomicWriteFile(path, data, perm)
}
