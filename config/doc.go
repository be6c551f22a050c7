// Package config handles loading and parsing of configuration from YAML
// files and environment variables. It defines the application
// configuration structure including the circuit state store location,
// retry tuning, recovery paths, and the synchronized services.
package config
