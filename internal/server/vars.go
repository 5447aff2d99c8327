package server

import (
	"net/http"
	"os"
	"strings"
)

// Vars exposes request metadata under CGI-style keys such as
// SERVER_SOFTWARE or HTTP_CF_RAY.
type Vars interface {
	Var(name string) (string, bool)
}

// EnvVars reads keys from the process environment, which is where CGI and
// FastCGI front ends place them.
type EnvVars struct{}

// Var implements Vars.
func (EnvVars) Var(name string) (string, bool) {
	return os.LookupEnv(name)
}

// MapVars is a Vars backed by a map.
type MapVars map[string]string

// Var implements Vars.
func (m MapVars) Var(name string) (string, bool) {
	v, ok := m[name]
	return v, ok
}

// ChainVars consults each Vars in order and returns the first hit.
type ChainVars []Vars

// Var implements Vars.
func (c ChainVars) Var(name string) (string, bool) {
	for _, v := range c {
		if v == nil {
			continue
		}
		if val, ok := v.Var(name); ok {
			return val, true
		}
	}
	return "", false
}

// HTTPVars adapts an incoming request. Each header becomes HTTP_<NAME>
// with dashes turned into underscores; software is reported as
// SERVER_SOFTWARE.
func HTTPVars(r *http.Request, software string) Vars {
	m := MapVars{}
	if software != "" {
		m["SERVER_SOFTWARE"] = software
	}
	if r == nil {
		return m
	}
	for name, values := range r.Header {
		if len(values) == 0 {
			continue
		}
		key := "HTTP_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
		m[key] = values[0]
	}
	return m
}
