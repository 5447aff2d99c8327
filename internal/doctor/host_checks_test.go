package doctor

import (
	"testing"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thoreinstein/hostenv/internal/environment"
	"github.com/thoreinstein/hostenv/internal/server"
	"github.com/thoreinstein/hostenv/internal/settings"
	"github.com/thoreinstein/hostenv/internal/system"
)

const mib = 1024 * 1024

func diskSystem(total, free uint64) *system.System {
	return system.New(system.WithDiskUsage(func(path string) (*disk.UsageStat, error) {
		return &disk.UsageStat{Path: path, Total: total, Free: free}, nil
	}))
}

func TestDiskSpaceCheck(t *testing.T) {
	dir := t.TempDir()
	sys := diskSystem(100*mib, 40*mib)

	result := (&DiskSpaceCheck{System: sys, Path: dir}).Run()
	assert.Equal(t, SeverityPass, result.Status)
	assert.Equal(t, 60.0, result.Details["percent"])

	result = (&DiskSpaceCheck{System: sys, Path: dir, Required: "10M"}).Run()
	assert.Equal(t, SeverityPass, result.Status)

	result = (&DiskSpaceCheck{System: sys, Path: dir, Required: "50M"}).Run()
	assert.Equal(t, SeverityError, result.Status)
	assert.Equal(t, "50M", result.Details["required"])

	result = (&DiskSpaceCheck{System: sys, Path: dir + "/missing"}).Run()
	assert.Equal(t, SeverityWarning, result.Status)
	assert.Nil(t, result.Details)
}

func TestSystemLoadCheck(t *testing.T) {
	withLoad := func(l1 float64) *system.System {
		return system.New(system.WithOSFamily("Linux"), system.WithLoadAvg(func() (*load.AvgStat, error) {
			return &load.AvgStat{Load1: l1, Load5: 1, Load15: 1}, nil
		}))
	}

	assert.Equal(t, SeverityPass, (&SystemLoadCheck{System: withLoad(1.5), Threshold: 2}).Run().Status)

	result := (&SystemLoadCheck{System: withLoad(3.25), Threshold: 2}).Run()
	assert.Equal(t, SeverityWarning, result.Status)
	assert.Contains(t, result.Message, "3.25")

	assert.Equal(t, SeverityPass, (&SystemLoadCheck{System: withLoad(2), Threshold: 2}).Run().Status,
		"a load equal to the threshold is not high")

	windows := system.New(system.WithOSFamily("Windows"))
	assert.Equal(t, SeverityInfo, (&SystemLoadCheck{System: windows, Threshold: 2}).Run().Status)
}

func TestURLRewritingCheck(t *testing.T) {
	tests := []struct {
		name string
		id   *server.Identity
		want Severity
		hint bool
	}{
		{
			name: "nginx",
			id:   server.New(server.WithVars(server.MapVars{server.VarServerSoftware: "nginx/1.25"})),
			want: SeverityPass,
		},
		{
			name: "apache without rewrite",
			id: server.New(server.WithVars(server.MapVars{server.VarServerSoftware: "Apache"}),
				server.WithModuleLister(server.StaticModules{"mod_ssl"})),
			want: SeverityWarning,
			hint: true,
		},
		{
			name: "no software",
			id:   server.New(server.WithVars(server.MapVars{})),
			want: SeverityInfo,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := (&URLRewritingCheck{Server: tt.id}).Run()
			assert.Equal(t, tt.want, result.Status)
			assert.Equal(t, tt.hint, result.FixHint != "")
		})
	}
}

func TestEnvironmentCheck(t *testing.T) {
	env := environment.New(
		environment.WithSiteURL("https://staging.example.com"),
		environment.WithSettings(settings.Map{"PANTHEON_ENVIRONMENT": "test"}),
		environment.WithRoot(t.TempDir()),
		environment.WithHostname(func() (string, error) { return "app01", nil }),
	)
	result := (&EnvironmentCheck{
		Env:       env,
		Constants: map[string]string{"DB_PASSWORD": "hunter22", "DB_NAME": "wp"},
	}).Run()

	assert.Equal(t, SeverityInfo, result.Status)
	assert.Equal(t, "staging environment on Pantheon", result.Message)
	assert.Equal(t, "staging.example.com", result.Details["site_host"])

	constants, ok := result.Details["constants"].(map[string]string)
	require.True(t, ok)
	assert.Equal(t, "****er22", constants["DB_PASSWORD"])
	assert.Equal(t, "wp", constants["DB_NAME"])
}
