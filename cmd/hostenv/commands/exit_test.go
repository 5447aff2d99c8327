package commands

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/thoreinstein/hostenv/internal/config"
	"github.com/thoreinstein/hostenv/internal/doctor"
	"github.com/thoreinstein/hostenv/internal/errors"
	"github.com/thoreinstein/hostenv/internal/server"
)

func TestHandleError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOut  []string
	}{
		{name: "nil", err: nil, wantCode: 0},
		{name: "doctor errors", err: errDoctorErrors, wantCode: doctor.ExitErrors},
		{name: "doctor warnings", err: errDoctorWarnings, wantCode: doctor.ExitWarnings},
		{
			name:     "user error with suggestion",
			err:      errors.NewUserError(errors.New("bad flag"), "try --help"),
			wantCode: errors.ExitUser,
			wantOut:  []string{"Error: bad flag", "hint: try --help"},
		},
		{
			name:     "system error with attached hint",
			err:      errors.NewExitError(errors.WithHint(errors.New("probe failed"), "install php"), errors.ExitSystem),
			wantCode: errors.ExitSystem,
			wantOut:  []string{"Error: probe failed", "hint: install php"},
		},
		{
			name:     "suggestion only",
			err:      errors.NewUserError(nil, "cannot use --quiet and --verbose together"),
			wantCode: errors.ExitUser,
			wantOut:  []string{"Error: cannot use --quiet and --verbose together"},
		},
		{
			name:     "plain error",
			err:      errors.New("boom"),
			wantCode: errors.ExitUser,
			wantOut:  []string{"Error: boom"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			assert.Equal(t, tt.wantCode, HandleError(&buf, tt.err))
			for _, want := range tt.wantOut {
				assert.Contains(t, buf.String(), want)
			}
			if len(tt.wantOut) == 0 {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestHandleError_BareExitCode(t *testing.T) {
	var buf bytes.Buffer
	assert.Equal(t, errors.ExitUser, HandleError(&buf, errors.NewExitError(nil, errors.ExitUser)))
	assert.Empty(t, buf.String())
}

func TestConstantsFrom(t *testing.T) {
	c := config.Default()
	c.Constants = map[string]string{"wp_debug": "true", "DB_HOST": "db"}
	assert.Equal(t, map[string]string{"WP_DEBUG": "true", "DB_HOST": "db"}, constantsFrom(c))

	assert.Empty(t, constantsFrom(config.Default()))
}

func TestServerVars(t *testing.T) {
	t.Setenv(server.VarServerSoftware, "Apache")
	t.Setenv(server.VarCFRay, "8a1b")

	c := config.Default()
	v, _ := serverVars(c).Var(server.VarServerSoftware)
	assert.Equal(t, "Apache", v, "environment without override")

	c.Server.Software = "nginx/1.25"
	vars := serverVars(c)
	v, _ = vars.Var(server.VarServerSoftware)
	assert.Equal(t, "nginx/1.25", v, "configured software wins")
	_, ok := vars.Var(server.VarCFRay)
	assert.True(t, ok, "other keys still come from the environment")
}
