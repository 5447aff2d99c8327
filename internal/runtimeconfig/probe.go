package runtimeconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"sort"
	"strconv"
	"time"

	"github.com/thoreinstein/hostenv/internal/errors"
)

// DefaultProbeTimeout bounds a single interpreter probe.
const DefaultProbeTimeout = 10 * time.Second

// probeScript dumps everything a Snapshot needs as one JSON document.
const probeScript = `$e = get_loaded_extensions();
$v = [];
foreach ($e as $x) { $r = phpversion($x); if ($r !== false) { $v[$x] = $r; } }
$f = get_defined_functions();
echo json_encode([
  'version' => PHP_VERSION,
  'sapi' => PHP_SAPI,
  'extensions' => $e,
  'extension_versions' => (object) $v,
  'functions' => $f['internal'],
  'classes' => get_declared_classes(),
  'ini' => (object) ini_get_all(null, false),
  'memory_usage' => memory_get_usage(),
]);`

// probeOutput mirrors the script output. Ini values may be null or numbers.
type probeOutput struct {
	Version           string            `json:"version"`
	SAPI              string            `json:"sapi"`
	Extensions        []string          `json:"extensions"`
	ExtensionVersions map[string]string `json:"extension_versions"`
	Functions         []string          `json:"functions"`
	Classes           []string          `json:"classes"`
	Ini               map[string]any    `json:"ini"`
	MemoryUsage       int64             `json:"memory_usage"`
}

// Probe runs the given PHP binary and captures a Snapshot of the live
// interpreter. An empty binary means "php" from PATH. If ctx has no
// deadline, DefaultProbeTimeout applies.
func Probe(ctx context.Context, binary string) (*Snapshot, error) {
	if binary == "" {
		binary = "php"
	}

	path, err := exec.LookPath(binary)
	if err != nil {
		return nil, errors.WithHint(
			errors.Wrapf(errors.ErrNotFound, "php binary %q", binary),
			"install the PHP CLI or point runtime.profile at a saved profile",
		)
	}

	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, DefaultProbeTimeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path, "-d", "display_errors=stderr", "-r", probeScript)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := bytes.TrimSpace(stderr.Bytes()); len(msg) > 0 {
			return nil, errors.Wrapf(err, "running %s: %s", path, msg)
		}
		return nil, errors.Wrapf(err, "running %s", path)
	}

	return parseProbeOutput(stdout.Bytes())
}

func parseProbeOutput(data []byte) (*Snapshot, error) {
	var out probeOutput
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, errors.Wrap(err, "decoding probe output")
	}
	if out.Version == "" {
		return nil, errors.New("probe output has no version")
	}

	ini := make(map[string]string, len(out.Ini))
	for k, v := range out.Ini {
		ini[k] = iniString(v)
	}

	sort.Strings(out.Functions)
	sort.Strings(out.Classes)

	return &Snapshot{
		Version:           out.Version,
		SAPI:              out.SAPI,
		Extensions:        out.Extensions,
		ExtensionVersions: out.ExtensionVersions,
		Functions:         out.Functions,
		Classes:           out.Classes,
		Ini:               ini,
		MemoryUsage:       out.MemoryUsage,
	}, nil
}

// iniString renders an ini value the way ini_get would return it.
func iniString(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case bool:
		if x {
			return "1"
		}
		return ""
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
