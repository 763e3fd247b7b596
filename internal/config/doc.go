// Package config loads and validates the nightwatch configuration.
//
// Configuration comes from a TOML file resolved from (in order) an explicit
// path, the NIGHTWATCH_CONFIG environment variable, ./nightwatch.toml, and
// ~/.config/nightwatch/config.toml. NIGHTWATCH_* environment variables
// override individual fields after the file is parsed. Load returns an
// explicit Config value; there is no cached process-wide state.
package config
