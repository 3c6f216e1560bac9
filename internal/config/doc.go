// Package config loads client settings from a TOML or YAML file.
//
// The encoding is chosen by file extension (.yaml and .yml select YAML;
// anything else is read as TOML). ${VAR} references are expanded from the
// environment before decoding, and durations are written as strings such
// as "30s". Fields missing from the file keep their Default values.
package config
