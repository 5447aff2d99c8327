package server

import (
	"context"
	"errors"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingLister struct{}

func (failingLister) Modules(context.Context) ([]string, error) {
	return nil, errors.New("apachectl unavailable")
}

type fakeCaps struct {
	extensions []string
	functions  []string
}

func (f fakeCaps) HasExtension(name string) bool {
	for _, e := range f.extensions {
		if e == name {
			return true
		}
	}
	return false
}

func (f fakeCaps) HasFunction(name string) bool {
	for _, fn := range f.functions {
		if fn == name {
			return true
		}
	}
	return false
}

func TestIdentity_ApacheScenario(t *testing.T) {
	id := New(
		WithVars(MapVars{VarServerSoftware: "Apache/2.4.41 (Ubuntu) mod_rewrite/2.0"}),
		WithModuleLister(StaticModules{"mod_rewrite", "mod_ssl"}),
	)

	assert.True(t, id.IsApache())
	assert.True(t, id.HasModRewrite())
	assert.True(t, id.SupportsHtaccess())
	assert.True(t, id.SupportsURLRewriting())
	assert.Equal(t, Info{Type: TypeApache, Software: "Apache/2.4.41 (Ubuntu) mod_rewrite/2.0"}, id.Info())

	mods, ok := id.ApacheModules()
	require.True(t, ok)
	assert.Equal(t, []string{"mod_rewrite", "mod_ssl"}, mods)
}

func TestIdentity_Type(t *testing.T) {
	tests := []struct {
		software string
		want     Type
	}{
		{"Apache/2.4.58", TypeApache},
		{"apache behind nginx", TypeApache},
		{"nginx/1.25.3", TypeNginx},
		{"Flywheel/5.1.0", TypeNginx},
		{"LiteSpeed", TypeLiteSpeed},
		{"Microsoft-IIS/10.0", TypeIIS},
		{"ExpressionDevelopmentServer/1.0", TypeIIS},
		{"Caddy", TypeUnknown},
		{"", TypeUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.software, func(t *testing.T) {
			id := New(WithVars(MapVars{VarServerSoftware: tt.software}))
			assert.Equal(t, tt.want, id.Type())
		})
	}
}

func TestIdentity_NginxAliases(t *testing.T) {
	id := New(WithVars(MapVars{VarServerSoftware: "Flywheel/5.1.0"}), WithNginxAliases())
	assert.False(t, id.IsNginx(), "aliases can be removed")

	id = New(WithVars(MapVars{VarServerSoftware: "RocketHost/2"}), WithNginxAliases(" RocketHost "))
	assert.True(t, id.IsNginx())
}

func TestIdentity_SoftwareSanitizedAndCached(t *testing.T) {
	vars := MapVars{VarServerSoftware: "nginx/1.25\r\n\x00"}
	id := New(WithVars(vars))

	assert.Equal(t, "nginx/1.25", id.Software())

	vars[VarServerSoftware] = "Apache"
	assert.Equal(t, "nginx/1.25", id.Software(), "value is cached")

	id.ResetCache()
	assert.Equal(t, "Apache", id.Software())
}

func TestIdentity_SoftwareConcurrent(t *testing.T) {
	id := New(WithVars(MapVars{VarServerSoftware: "nginx"}))

	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.Equal(t, "nginx", id.Software())
		}()
	}
	wg.Wait()
}

func TestIdentity_SoftwareAbsent(t *testing.T) {
	id := New(WithVars(MapVars{}))
	assert.Equal(t, "", id.Software())
	assert.Equal(t, TypeUnknown, id.Type())
}

func TestIdentity_IsCloudflare(t *testing.T) {
	assert.True(t, New(WithVars(MapVars{VarCFRay: "8a1b"})).IsCloudflare())
	assert.True(t, New(WithVars(MapVars{VarCFConnectingIP: "203.0.113.9"})).IsCloudflare())
	assert.False(t, New(WithVars(MapVars{"HTTP_X_FORWARDED_FOR": "1.1.1.1"})).IsCloudflare())
}

func TestIdentity_HasModRewrite(t *testing.T) {
	tests := []struct {
		name   string
		vars   MapVars
		lister ModuleLister
		want   bool
	}{
		{
			name: "not apache",
			vars: MapVars{VarServerSoftware: "nginx", VarModRewrite: "On"},
			want: false,
		},
		{
			name:   "lister without rewrite",
			vars:   MapVars{VarServerSoftware: "Apache", VarModRewrite: "On"},
			lister: StaticModules{"mod_ssl"},
			want:   false,
		},
		{
			name: "env fallback",
			vars: MapVars{VarServerSoftware: "Apache", VarModRewrite: "On"},
			want: true,
		},
		{
			name: "redirect env fallback",
			vars: MapVars{VarServerSoftware: "Apache", VarRedirectModRewrite: "On"},
			want: true,
		},
		{
			name: "env fallback off",
			vars: MapVars{VarServerSoftware: "Apache", VarModRewrite: "Off"},
			want: false,
		},
		{
			name:   "lister failure falls back",
			vars:   MapVars{VarServerSoftware: "Apache", VarModRewrite: "On"},
			lister: failingLister{},
			want:   true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := New(WithVars(tt.vars), WithModuleLister(tt.lister))
			assert.Equal(t, tt.want, id.HasModRewrite())
			assert.Equal(t, tt.want, id.SupportsHtaccess())
		})
	}
}

func TestIdentity_SupportsURLRewriting(t *testing.T) {
	tests := []struct {
		name string
		vars MapVars
		want bool
	}{
		{name: "nginx", vars: MapVars{VarServerSoftware: "nginx"}, want: true},
		{name: "litespeed", vars: MapVars{VarServerSoftware: "LiteSpeed"}, want: true},
		{name: "iis with module", vars: MapVars{VarServerSoftware: "Microsoft-IIS/10.0", VarIISURLRewriteModule: "7.1"}, want: true},
		{name: "iis without module", vars: MapVars{VarServerSoftware: "Microsoft-IIS/10.0"}, want: false},
		{name: "apache without rewrite", vars: MapVars{VarServerSoftware: "Apache"}, want: false},
		{name: "unknown", vars: MapVars{VarServerSoftware: "Caddy"}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, New(WithVars(tt.vars)).SupportsURLRewriting())
		})
	}
}

func TestIdentity_ApacheModulesAbsent(t *testing.T) {
	_, ok := New(WithVars(MapVars{VarServerSoftware: "nginx"}), WithModuleLister(StaticModules{"mod_rewrite"})).ApacheModules()
	assert.False(t, ok, "not apache")

	_, ok = New(WithVars(MapVars{VarServerSoftware: "Apache"})).ApacheModules()
	assert.False(t, ok, "no lister")

	_, ok = New(WithVars(MapVars{VarServerSoftware: "Apache"}), WithModuleLister(failingLister{})).ApacheModules()
	assert.False(t, ok, "listing failed")
}

// countingLister records how often the modules were listed.
type countingLister struct {
	calls int
	mods  []string
	err   error
}

func (l *countingLister) Modules(context.Context) ([]string, error) {
	l.calls++
	return l.mods, l.err
}

func TestIdentity_ModuleListingCached(t *testing.T) {
	lister := &countingLister{mods: []string{"mod_rewrite", "mod_ssl"}}
	id := New(WithVars(MapVars{VarServerSoftware: "Apache/2.4.58"}), WithModuleLister(lister))

	assert.True(t, id.HasModRewrite())
	assert.True(t, id.SupportsHtaccess())
	assert.True(t, id.SupportsURLRewriting())
	mods, ok := id.ApacheModules()
	require.True(t, ok)
	assert.Equal(t, 1, lister.calls, "one apachectl run answers every query")

	mods[0] = "mangled"
	again, _ := id.ApacheModules()
	assert.Equal(t, "mod_rewrite", again[0], "callers get a copy")

	id.ResetCache()
	lister.mods = []string{"mod_ssl"}
	assert.False(t, id.HasModRewrite())
	assert.Equal(t, 2, lister.calls, "reset lists again")
}

func TestIdentity_FailedListingCached(t *testing.T) {
	lister := &countingLister{err: errors.New("apachectl: not found")}
	id := New(WithVars(MapVars{VarServerSoftware: "Apache", VarModRewrite: "On"}), WithModuleLister(lister))

	assert.True(t, id.HasModRewrite(), "falls back to the marker variable")
	_, ok := id.ApacheModules()
	assert.False(t, ok)
	assert.Equal(t, 1, lister.calls)
}

func TestIdentity_Compression(t *testing.T) {
	id := New(WithVars(MapVars{}))
	assert.False(t, id.SupportsGzip(), "no capability source")
	assert.False(t, id.SupportsBrotli())

	id = New(WithCapabilities(fakeCaps{extensions: []string{"zlib"}}))
	assert.True(t, id.SupportsGzip())
	assert.False(t, id.SupportsBrotli())

	id = New(WithCapabilities(fakeCaps{functions: []string{"gzencode", "brotli_compress"}}))
	assert.True(t, id.SupportsGzip())
	assert.True(t, id.SupportsBrotli())
}

func TestDefault_IsShared(t *testing.T) {
	assert.Same(t, Default(), Default())
}

func TestHTTPVars(t *testing.T) {
	r := httptest.NewRequest("GET", "https://example.com/", nil)
	r.Header.Set("CF-Ray", "8a1b-LHR")
	r.Header.Set("X-Forwarded-Proto", "https")

	vars := HTTPVars(r, "nginx/1.25")

	v, ok := vars.Var(VarCFRay)
	assert.True(t, ok)
	assert.Equal(t, "8a1b-LHR", v)

	v, _ = vars.Var("HTTP_X_FORWARDED_PROTO")
	assert.Equal(t, "https", v)

	id := New(WithVars(vars))
	assert.True(t, id.IsCloudflare())
	assert.True(t, id.IsNginx())

	_, ok = HTTPVars(nil, "").Var(VarServerSoftware)
	assert.False(t, ok)
}

func TestEnvVars(t *testing.T) {
	t.Setenv(VarServerSoftware, "LiteSpeed")
	id := New()
	assert.Equal(t, TypeLiteSpeed, id.Type())
}

func TestChainVars(t *testing.T) {
	t.Setenv(VarCFRay, "8a1b")
	t.Setenv(VarServerSoftware, "Apache")

	vars := ChainVars{MapVars{VarServerSoftware: "nginx/1.25"}, nil, EnvVars{}}

	v, ok := vars.Var(VarServerSoftware)
	assert.True(t, ok)
	assert.Equal(t, "nginx/1.25", v, "earlier source wins")

	v, ok = vars.Var(VarCFRay)
	assert.True(t, ok)
	assert.Equal(t, "8a1b", v)

	_, ok = vars.Var("HTTP_X_NOT_SET_ANYWHERE")
	assert.False(t, ok)

	id := New(WithVars(vars))
	assert.True(t, id.IsNginx())
	assert.True(t, id.IsCloudflare())
}
