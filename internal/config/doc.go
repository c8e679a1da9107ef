// Package config defines the release coordinates used to build the manifest
// and provides helpers to load and validate them from YAML.
//
// Every field has a built-in default, so a settings file is optional.
package config
