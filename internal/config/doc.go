// Package config loads server configuration from a YAML file with
// ${VAR} expansion, applies environment variable overrides, and fills
// in local-demo defaults for anything left unset.
package config
