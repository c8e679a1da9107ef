// Package generator produces the latest.json manifest consumed by the desktop updater.
//
// It finds the installer and its detached signature for one version in the
// bundle directory, builds the manifest, checks it against the schema, writes
// it next to the installer and echoes it to stdout. No file is written unless
// every step before it succeeded.
package generator
