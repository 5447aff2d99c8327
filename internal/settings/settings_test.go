package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func envOf(m map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := m[k]
		return v, ok
	}
}

func TestResolver_Precedence(t *testing.T) {
	r := NewWithEnv(
		envOf(map[string]string{"WP_ENV": "staging"}),
		map[string]string{"WP_ENV": "production", "WP_DEBUG": "true"},
	)

	v, ok := r.Lookup("WP_ENV")
	assert.True(t, ok)
	assert.Equal(t, "staging", v, "environment should win over constant")

	v, ok = r.Lookup("WP_DEBUG")
	assert.True(t, ok)
	assert.Equal(t, "true", v, "constant should be used when env is unset")

	_, ok = r.Lookup("MISSING")
	assert.False(t, ok)
}

func TestResolver_EmptyEnvValueStillWins(t *testing.T) {
	r := NewWithEnv(envOf(map[string]string{"WP_ENV": ""}), map[string]string{"WP_ENV": "staging"})

	v, ok := r.Lookup("WP_ENV")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestResolver_NilEnv(t *testing.T) {
	r := NewWithEnv(nil, map[string]string{"A": "1"})
	assert.Equal(t, "1", Get(r, "A"))
	assert.False(t, Defined(r, "PATH"))
}

func TestNew_UsesProcessEnvironment(t *testing.T) {
	t.Setenv("HOSTENV_SETTINGS_TEST", "from-env")
	r := New(map[string]string{"HOSTENV_SETTINGS_TEST": "from-constant"})
	assert.Equal(t, "from-env", Get(r, "HOSTENV_SETTINGS_TEST"))
}

func TestResolver_ConstantsCopied(t *testing.T) {
	in := map[string]string{"A": "1"}
	r := NewWithEnv(nil, in)
	in["A"] = "2"
	assert.Equal(t, "1", Get(r, "A"))

	out := r.Constants()
	out["A"] = "3"
	assert.Equal(t, "1", Get(r, "A"))
}

func TestBool(t *testing.T) {
	tests := []struct {
		value string
		set   bool
		want  bool
	}{
		{value: "1", set: true, want: true},
		{value: "true", set: true, want: true},
		{value: "TRUE", set: true, want: true},
		{value: " yes ", set: true, want: true},
		{value: "on", set: true, want: true},
		{value: "0", set: true, want: false},
		{value: "false", set: true, want: false},
		{value: "", set: true, want: false},
		{set: false, want: false},
	}
	for _, tt := range tests {
		m := Map{}
		if tt.set {
			m["WP_DEBUG"] = tt.value
		}
		assert.Equal(t, tt.want, Bool(m, "WP_DEBUG"), "value %q set=%v", tt.value, tt.set)
	}
}

func TestEqualFold(t *testing.T) {
	m := Map{"APP_ENV": " Staging "}
	assert.True(t, EqualFold(m, "APP_ENV", "staging"))
	assert.False(t, EqualFold(m, "APP_ENV", "stage"))
	assert.False(t, EqualFold(m, "WP_ENV", "staging"))
}
