// Package system reports facts about the host operating system: its family,
// disk usage and load average.
package system

import (
	"log/slog"
	"math"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/host"
	"github.com/shirou/gopsutil/v4/load"

	"github.com/thoreinstein/hostenv/internal/units"
)

// DefaultLoadThreshold is the 1-minute load above which the host counts as
// busy.
const DefaultLoadThreshold = 2.0

// DefaultLoadAvgFile is read when the native load query yields nothing.
const DefaultLoadAvgFile = "/proc/loadavg"

// DiskSpace describes one filesystem. Used is always Total - Free.
type DiskSpace struct {
	Total   uint64  `json:"total" yaml:"total"`
	Free    uint64  `json:"free" yaml:"free"`
	Used    uint64  `json:"used" yaml:"used"`
	Percent float64 `json:"percent" yaml:"percent"`
}

// LoadAverage holds the 1, 5 and 15 minute load averages.
type LoadAverage struct {
	Load1  float64 `json:"load1" yaml:"load1"`
	Load5  float64 `json:"load5" yaml:"load5"`
	Load15 float64 `json:"load15" yaml:"load15"`
}

// Info is a snapshot of the host.
type Info struct {
	OSFamily string       `json:"os_family" yaml:"os_family"`
	Arch     string       `json:"arch" yaml:"arch"`
	CPUs     int          `json:"cpus" yaml:"cpus"`
	Kernel   string       `json:"kernel,omitempty" yaml:"kernel,omitempty"`
	Hostname string       `json:"hostname,omitempty" yaml:"hostname,omitempty"`
	DiskPath string       `json:"disk_path" yaml:"disk_path"`
	Disk     *DiskSpace   `json:"disk,omitempty" yaml:"disk,omitempty"`
	Load     *LoadAverage `json:"load,omitempty" yaml:"load,omitempty"`
}

// System answers host questions. The zero value is not usable; use New.
type System struct {
	family    string
	usage     func(path string) (*disk.UsageStat, error)
	loadAvg   func() (*load.AvgStat, error)
	loadFile  string
	readFile  func(name string) ([]byte, error)
	hostname  func() (string, error)
	kernel    func() (string, error)
	converter units.Converter
	logger    *slog.Logger
}

// Option configures a System.
type Option func(*System)

// WithOSFamily overrides the OS family string (for example "Windows").
func WithOSFamily(family string) Option {
	return func(s *System) { s.family = family }
}

// WithDiskUsage replaces the filesystem usage query.
func WithDiskUsage(fn func(path string) (*disk.UsageStat, error)) Option {
	return func(s *System) { s.usage = fn }
}

// WithLoadAvg replaces the native load average query. A nil fn disables it.
func WithLoadAvg(fn func() (*load.AvgStat, error)) Option {
	return func(s *System) { s.loadAvg = fn }
}

// WithLoadAvgFile sets the pseudo-file parsed as a load average fallback
// and the function used to read it.
func WithLoadAvgFile(path string, readFile func(string) ([]byte, error)) Option {
	return func(s *System) {
		s.loadFile = path
		if readFile != nil {
			s.readFile = readFile
		}
	}
}

// WithHostname replaces the hostname lookup.
func WithHostname(fn func() (string, error)) Option {
	return func(s *System) { s.hostname = fn }
}

// WithKernelVersion replaces the kernel version lookup.
func WithKernelVersion(fn func() (string, error)) Option {
	return func(s *System) { s.kernel = fn }
}

// WithConverter sets the size string converter.
func WithConverter(c units.Converter) Option {
	return func(s *System) {
		if c != nil {
			s.converter = c
		}
	}
}

// WithLogger sets the logger used for debug output.
func WithLogger(l *slog.Logger) Option {
	return func(s *System) {
		if l != nil {
			s.logger = l
		}
	}
}

// New returns a System for the running host.
func New(opts ...Option) *System {
	s := &System{
		family:    osFamily(runtime.GOOS),
		usage:     disk.Usage,
		loadAvg:   load.Avg,
		loadFile:  DefaultLoadAvgFile,
		readFile:  os.ReadFile,
		hostname:  os.Hostname,
		kernel:    host.KernelVersion,
		converter: units.Default,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// osFamily maps a GOOS value to the family names PHP reports.
func osFamily(goos string) string {
	switch goos {
	case "windows":
		return "Windows"
	case "darwin", "ios":
		return "Darwin"
	case "linux", "android":
		return "Linux"
	case "freebsd", "openbsd", "netbsd", "dragonfly":
		return "BSD"
	case "solaris", "illumos":
		return "Solaris"
	default:
		return "Unknown"
	}
}

// OSFamily returns the OS family string.
func (s *System) OSFamily() string {
	return s.family
}

func (s *System) familyIs(prefix string) bool {
	return strings.HasPrefix(strings.ToUpper(s.family), prefix)
}

// IsWindows reports whether the OS family starts with "WIN".
func (s *System) IsWindows() bool { return s.familyIs("WIN") }

// IsLinux reports whether the OS family starts with "LINUX".
func (s *System) IsLinux() bool { return s.familyIs("LINUX") }

// IsMacOS reports whether the OS family starts with "DARWIN".
func (s *System) IsMacOS() bool { return s.familyIs("DARWIN") }

// DiskSpace returns usage for the filesystem holding path. It is absent
// when path is not a directory or the usage query fails.
func (s *System) DiskSpace(path string) (*DiskSpace, bool) {
	fi, err := os.Stat(path)
	if err != nil || !fi.IsDir() {
		return nil, false
	}
	u, ok := s.diskUsage(path)
	if !ok {
		return nil, false
	}

	free := min(u.Free, u.Total)
	ds := &DiskSpace{Total: u.Total, Free: free, Used: u.Total - free}
	if ds.Total > 0 {
		ds.Percent = math.Round(float64(ds.Used)/float64(ds.Total)*100*100) / 100
	}
	return ds, true
}

func (s *System) diskUsage(path string) (*disk.UsageStat, bool) {
	if s.usage == nil {
		return nil, false
	}
	u, err := s.usage(path)
	if err != nil || u == nil {
		s.logger.Debug("disk usage unavailable", "path", path, "error", err)
		return nil, false
	}
	return u, true
}

// FreeDiskSpace returns the free bytes on the filesystem holding path.
func (s *System) FreeDiskSpace(path string) (uint64, bool) {
	u, ok := s.diskUsage(path)
	if !ok {
		return 0, false
	}
	return min(u.Free, u.Total), true
}

// HasSufficientDiskSpace reports whether at least required (a size string
// such as "500M") is free on the filesystem holding path.
func (s *System) HasSufficientDiskSpace(required, path string) bool {
	free, ok := s.FreeDiskSpace(path)
	if !ok {
		return false
	}
	need, err := s.converter.ToBytes(required)
	if err != nil || need < 0 {
		return false
	}
	return free >= uint64(need)
}

// LoadAverage returns the system load averages. It is absent on Windows
// and when neither the native query nor the load pseudo-file yields data.
func (s *System) LoadAverage() (*LoadAverage, bool) {
	if s.IsWindows() {
		return nil, false
	}
	if s.loadAvg != nil {
		a, err := s.loadAvg()
		if err == nil && a != nil {
			return &LoadAverage{Load1: a.Load1, Load5: a.Load5, Load15: a.Load15}, true
		}
		s.logger.Debug("native load average unavailable", "error", err)
	}
	if s.loadFile == "" {
		return nil, false
	}
	data, err := s.readFile(s.loadFile)
	if err != nil {
		return nil, false
	}
	return parseLoadAvg(string(data))
}

// parseLoadAvg reads the first three fields of a /proc/loadavg line.
func parseLoadAvg(line string) (*LoadAverage, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return nil, false
	}
	var vals [3]float64
	for i := range vals {
		v, err := strconv.ParseFloat(fields[i], 64)
		if err != nil || v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, false
		}
		vals[i] = v
	}
	return &LoadAverage{Load1: vals[0], Load5: vals[1], Load15: vals[2]}, true
}

// IsHighLoad reports whether the 1-minute load exceeds threshold. An
// unavailable load average is never high.
func (s *System) IsHighLoad(threshold float64) bool {
	la, ok := s.LoadAverage()
	return ok && la.Load1 > threshold
}

// Hostname returns the machine hostname.
func (s *System) Hostname() (string, bool) {
	if s.hostname == nil {
		return "", false
	}
	h, err := s.hostname()
	if err != nil || h == "" {
		return "", false
	}
	return h, true
}

// Info gathers a snapshot of the host, using path for disk usage.
func (s *System) Info(path string) Info {
	info := Info{
		OSFamily: s.family,
		Arch:     runtime.GOARCH,
		CPUs:     runtime.NumCPU(),
		DiskPath: path,
	}
	if s.kernel != nil {
		if k, err := s.kernel(); err == nil {
			info.Kernel = k
		}
	}
	info.Hostname, _ = s.Hostname()
	info.Disk, _ = s.DiskSpace(path)
	info.Load, _ = s.LoadAverage()
	return info
}
