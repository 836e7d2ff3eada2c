// Package config loads, merges and validates the configuration of the store
// server and the client CLI.
//
// Configuration is assembled from the following sources, later sources
// overriding non-zero fields of earlier ones:
//  1. Built-in defaults
//  2. JSON or YAML config file (path from CONFIG or -c / -config)
//  3. Environment variables
//  4. Command-line flags
//
// The entry points are [GetServerConfig] and [GetClientConfig].
package config
