package doctor

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/hostenv/internal/errors"
)

// per-file outcomes
const (
	fileStatusPass    = "pass"
	fileStatusError   = "error"
	fileStatusMissing = "info"
)

// ConfigSyntaxCheck parses hostenv's config file and the runtime profile
// and reports syntax errors with line and column where available.
type ConfigSyntaxCheck struct {
	files []string
}

var _ Check = (*ConfigSyntaxCheck)(nil)

// NewConfigSyntaxCheck creates a check over the given files. Empty paths
// are ignored.
func NewConfigSyntaxCheck(files ...string) *ConfigSyntaxCheck {
	var fs []string
	for _, f := range files {
		if f != "" {
			fs = append(fs, f)
		}
	}
	return &ConfigSyntaxCheck{files: fs}
}

// Name returns the unique identifier for this check.
func (c *ConfigSyntaxCheck) Name() string {
	return "config-syntax"
}

// Category returns the grouping for this check.
func (c *ConfigSyntaxCheck) Category() string {
	return "config"
}

type syntaxFileResult struct {
	Path    string `json:"path" yaml:"path"`
	Status  string `json:"status" yaml:"status"`
	Message string `json:"message,omitempty" yaml:"message,omitempty"`
}

// Run validates each file.
func (c *ConfigSyntaxCheck) Run() *CheckResult {
	if len(c.files) == 0 {
		return newResult(c, SeverityInfo, "no config files to validate")
	}

	fileResults := make([]syntaxFileResult, 0, len(c.files))
	var errorCount, passCount, missingCount int
	for _, path := range c.files {
		fr := validateFile(path)
		fileResults = append(fileResults, fr)
		switch fr.Status {
		case fileStatusPass:
			passCount++
		case fileStatusError:
			errorCount++
		case fileStatusMissing:
			missingCount++
		}
	}

	var result *CheckResult
	switch {
	case errorCount > 0:
		result = newResult(c, SeverityError, fmt.Sprintf("%d config file(s) have syntax errors", errorCount))
		result.FixHint = "review the error details and fix the syntax in each file"
	case passCount > 0:
		result = newResult(c, SeverityPass, fmt.Sprintf("%d config file(s) validated successfully", passCount))
	default:
		result = newResult(c, SeverityInfo, "no config files found to validate")
	}
	result.Details = map[string]any{
		"files":   fileResults,
		"checked": len(fileResults),
		"passed":  passCount,
		"errors":  errorCount,
		"missing": missingCount,
	}
	return result
}

func validateFile(path string) syntaxFileResult {
	fr := syntaxFileResult{Path: path}

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		fr.Status = fileStatusMissing
		fr.Message = "file does not exist"
		return fr
	case errors.Is(err, os.ErrPermission):
		fr.Status = fileStatusError
		fr.Message = fmt.Sprintf("permission denied: %v", err)
		return fr
	case err != nil:
		fr.Status = fileStatusError
		fr.Message = fmt.Sprintf("read error: %v", err)
		return fr
	}

	if len(strings.TrimSpace(string(data))) == 0 {
		fr.Status = fileStatusPass
		fr.Message = "empty file"
		return fr
	}

	var msg string
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		msg = validateJSON(data)
	case ".toml":
		msg = validateTOML(data)
	case ".yaml", ".yml":
		msg = validateYAML(data)
	default:
		// unknown extension: accept whichever of YAML or TOML parses
		msg = validateYAML(data)
		if msg != "" && validateTOML(data) == "" {
			msg = ""
		}
	}

	if msg != "" {
		fr.Status = fileStatusError
		fr.Message = msg
		return fr
	}
	fr.Status = fileStatusPass
	return fr
}

// Each validator returns "" on success or a positioned error message.

func validateJSON(data []byte) string {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return formatJSONError(err, data)
	}
	return ""
}

func validateTOML(data []byte) string {
	var v any
	if err := toml.Unmarshal(data, &v); err != nil {
		return formatTOMLError(err)
	}
	return ""
}

func validateYAML(data []byte) string {
	var v any
	if err := yaml.Unmarshal(data, &v); err != nil {
		return formatYAMLError(err)
	}
	return ""
}

func formatJSONError(err error, data []byte) string {
	var syntaxErr *json.SyntaxError
	if errors.As(err, &syntaxErr) {
		line, col := offsetToLineCol(data, int(syntaxErr.Offset))
		return fmt.Sprintf("JSON syntax error at line %d, column %d: %s", line, col, syntaxErr.Error())
	}

	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		line, col := offsetToLineCol(data, int(typeErr.Offset))
		return fmt.Sprintf("JSON type error at line %d, column %d: %s", line, col, typeErr.Error())
	}

	return fmt.Sprintf("JSON error: %v", err)
}

func formatTOMLError(err error) string {
	var decodeErr *toml.DecodeError
	if errors.As(err, &decodeErr) {
		row, col := decodeErr.Position()
		return fmt.Sprintf("TOML syntax error at line %d, column %d: %s", row, col, decodeErr.Error())
	}
	return fmt.Sprintf("TOML error: %v", err)
}

// formatYAMLError keeps yaml.v3's own "line N:" position.
func formatYAMLError(err error) string {
	var typeErr *yaml.TypeError
	if errors.As(err, &typeErr) {
		return "YAML type error: " + strings.Join(typeErr.Errors, "; ")
	}
	return "YAML syntax error: " + strings.TrimPrefix(err.Error(), "yaml: ")
}

// offsetToLineCol converts a byte offset to 1-indexed line and column.
func offsetToLineCol(data []byte, offset int) (line, col int) {
	offset = max(0, min(offset, len(data)))

	line = 1
	lineStart := 0
	for i := range offset {
		if data[i] == '\n' {
			line++
			lineStart = i + 1
		}
	}
	return line, offset - lineStart + 1
}
