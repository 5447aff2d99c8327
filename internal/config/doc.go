// Package config provides configuration management for the hostenv CLI.
//
// Values come from, in increasing precedence: built-in defaults, the config
// file, HOSTENV_* environment variables, and command-line flags bound by the
// commands package. Nested keys map to environment variables with dots
// replaced by underscores (server.software is HOSTENV_SERVER_SOFTWARE).
//
// # Configuration File
//
// The default configuration file location is ~/.config/hostenv/config.yaml;
// ./config.yaml is searched first:
//
//	version: 1
//	site_url: https://example.com
//	local_domains: [example.internal]
//	constants:
//	  WP_ENVIRONMENT_TYPE: staging
//	runtime:
//	  profile: ~/.cache/hostenv/runtime.yaml
//	  binary: php
//	  timeout: 10s
//	server:
//	  software: nginx/1.25.3
//	  nginx_aliases: [flywheel]
//	system:
//	  disk_path: /var/www
//	  load_threshold: 2
//	requirements:
//	  runtime_version: "8.1"
//	  extensions: [curl, mbstring]
//	  memory: 128M
//	  disk_space: 1G
//
// # Validation
//
// [Load] validates what it reads and returns every field error at once,
// marked with errors.ErrInvalidConfig:
//
//	cfg, err := config.Load("")
//	if errors.Is(err, errors.ErrInvalidConfig) {
//	    for _, e := range config.Validate(cfg) {
//	        fmt.Println(e)
//	    }
//	}
package config
