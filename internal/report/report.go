// Package report gathers everything hostenv knows about the host into one
// document and renders it as JSON or YAML.
package report

import (
	"encoding/json"
	"io"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thoreinstein/hostenv/internal/environment"
	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/runtimeconfig"
	"github.com/thoreinstein/hostenv/internal/server"
	"github.com/thoreinstein/hostenv/internal/system"
	"github.com/thoreinstein/hostenv/internal/units"
)

// Format is an output encoding.
type Format string

// Supported formats.
const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// ParseFormat validates a --format value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatJSON:
		return FormatJSON, nil
	case FormatYAML, "yml":
		return FormatYAML, nil
	default:
		return "", errors.Wrapf(errors.ErrUnsupportedFormat, "report format %q (want json or yaml)", s)
	}
}

// Runtime summarises the interpreter.
type Runtime struct {
	Version           string   `json:"version" yaml:"version"`
	SAPI              string   `json:"sapi,omitempty" yaml:"sapi,omitempty"`
	Extensions        []string `json:"extensions" yaml:"extensions"`
	DisabledFunctions []string `json:"disabled_functions,omitempty" yaml:"disabled_functions,omitempty"`
	MemoryLimit       string   `json:"memory_limit" yaml:"memory_limit"`
	MemoryUsage       string   `json:"memory_usage" yaml:"memory_usage"`
	UploadMaxFilesize string   `json:"upload_max_filesize,omitempty" yaml:"upload_max_filesize,omitempty"`
	PostMaxSize       string   `json:"post_max_size,omitempty" yaml:"post_max_size,omitempty"`
	MaxExecutionTime  int      `json:"max_execution_time" yaml:"max_execution_time"`
	MaxInputVars      int      `json:"max_input_vars,omitempty" yaml:"max_input_vars,omitempty"`
}

// Server summarises the web server.
type Server struct {
	Type          server.Type `json:"type" yaml:"type"`
	Software      string      `json:"software" yaml:"software"`
	Cloudflare    bool        `json:"cloudflare" yaml:"cloudflare"`
	URLRewriting  bool        `json:"url_rewriting" yaml:"url_rewriting"`
	Htaccess      bool        `json:"htaccess" yaml:"htaccess"`
	Gzip          bool        `json:"gzip" yaml:"gzip"`
	Brotli        bool        `json:"brotli" yaml:"brotli"`
	ApacheModules []string    `json:"apache_modules,omitempty" yaml:"apache_modules,omitempty"`
}

// Report is the full host document. Runtime is nil when no interpreter
// snapshot was available.
type Report struct {
	GeneratedAt time.Time        `json:"generated_at" yaml:"generated_at"`
	Runtime     *Runtime         `json:"runtime,omitempty" yaml:"runtime,omitempty"`
	Environment environment.Info `json:"environment" yaml:"environment"`
	Server      Server           `json:"server" yaml:"server"`
	System      system.Info      `json:"system" yaml:"system"`
}

// Sources are the components a report is built from. Runtime may be nil.
type Sources struct {
	Runtime     *runtimeconfig.Config
	Environment *environment.Classifier
	Server      *server.Identity
	System      *system.System
	DiskPath    string
}

// Build queries every source.
func Build(src Sources) *Report {
	r := &Report{
		GeneratedAt: time.Now().UTC(),
		Environment: src.Environment.Info(),
		Server:      NewServer(src.Server),
		System:      src.System.Info(src.DiskPath),
	}
	if src.Runtime != nil {
		r.Runtime = NewRuntime(src.Runtime)
	}
	return r
}

// NewRuntime summarises c.
func NewRuntime(c *runtimeconfig.Config) *Runtime {
	snap := c.Snapshot()
	exts := slices.Clone(snap.Extensions)
	slices.Sort(exts)

	rt := &Runtime{
		Version:           c.Version(),
		SAPI:              c.SAPI(),
		Extensions:        exts,
		DisabledFunctions: c.DisabledFunctions(),
		MemoryUsage:       units.FormatBytes(c.MemoryUsage()),
		MaxExecutionTime:  c.MaxExecutionTime(),
		MaxInputVars:      c.MaxInputVars(),
	}
	if limit, err := c.MemoryLimit(); err == nil {
		rt.MemoryLimit = units.FormatBytes(limit)
	} else {
		rt.MemoryLimit = "invalid"
	}
	if _, ok := c.IniGet(runtimeconfig.IniUploadMaxFilesize); ok {
		if n, err := c.UploadMaxFilesize(); err == nil {
			rt.UploadMaxFilesize = units.FormatBytes(n)
		}
	}
	if _, ok := c.IniGet(runtimeconfig.IniPostMaxSize); ok {
		if n, err := c.PostMaxSize(); err == nil {
			rt.PostMaxSize = units.FormatBytes(n)
		}
	}
	return rt
}

// NewServer summarises id. It may run apachectl.
func NewServer(id *server.Identity) Server {
	info := id.Info()
	s := Server{
		Type:         info.Type,
		Software:     info.Software,
		Cloudflare:   id.IsCloudflare(),
		URLRewriting: id.SupportsURLRewriting(),
		Htaccess:     id.SupportsHtaccess(),
		Gzip:         id.SupportsGzip(),
		Brotli:       id.SupportsBrotli(),
	}
	s.ApacheModules, _ = id.ApacheModules()
	return s
}

// Write renders r to w.
func (r *Report) Write(w io.Writer, f Format) error {
	return Encode(w, f, r)
}

// Encode renders any report section to w in format f.
func Encode(w io.Writer, f Format, v any) error {
	switch f {
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return errors.Wrap(enc.Encode(v), "encoding JSON report")
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return errors.Wrap(err, "encoding YAML report")
		}
		return errors.Wrap(enc.Close(), "encoding YAML report")
	default:
		return errors.Wrapf(errors.ErrUnsupportedFormat, "report format %q", f)
	}
}
