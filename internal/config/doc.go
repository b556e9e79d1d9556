// Package config manages the TOML configuration file holding the cache
// folder location, optimization quality, maximum resolution and the set
// of registered library folders.
package config
