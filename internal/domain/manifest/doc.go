// Package manifest defines the latest.json document read by the Tauri updater,
// its canonical encoding and the JSON Schema it is checked against before being written.
package manifest
