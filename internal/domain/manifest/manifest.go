package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"
)

// TimestampLayout is RFC 3339 with whole seconds and the literal Z designator.
const TimestampLayout = "2006-01-02T15:04:05Z"

// Platform describes the downloadable artifact for one platform key.
type Platform struct {
	// Signature is the detached signature of the installer, as produced by the bundler.
	Signature string `json:"signature"`
	// URL is where the update client downloads the installer from.
	URL string `json:"url"`
}

// Manifest is the latest.json document consumed by the update client.
// Field order is the order of keys in the encoded document.
type Manifest struct {
	// Version is the release version, exactly as supplied by the caller.
	Version string `json:"version"`
	// Notes is free-form release notes.
	Notes string `json:"notes"`
	// PubDate is the publication timestamp formatted with TimestampLayout.
	PubDate string `json:"pub_date"`
	// Platforms maps a platform key to its artifact.
	Platforms map[string]Platform `json:"platforms"`
}

// New assembles a manifest holding a single platform entry.
func New(version, notes string, publishedAt time.Time, platform string, artifact Platform) *Manifest {
	return &Manifest{
		Version: version,
		Notes:   notes,
		PubDate: Timestamp(publishedAt),
		Platforms: map[string]Platform{
			platform: artifact,
		},
	}
}

// Timestamp renders t in UTC truncated to whole seconds.
func Timestamp(t time.Time) string {
	return t.UTC().Truncate(time.Second).Format(TimestampLayout)
}

// Tag returns the release tag for version.
func Tag(version string) string {
	return "v" + version
}

// Encode serializes the manifest with 2-space indentation.
// HTML-sensitive and non-ASCII characters, line separators included, are kept literal
// and no trailing newline is added.
func Encode(m *Manifest) ([]byte, error) {
	var buf bytes.Buffer

	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(false)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(m); err != nil {
		return nil, fmt.Errorf("encode manifest: %w", err)
	}

	return unescapeLineSeparators(bytes.TrimSuffix(buf.Bytes(), []byte("\n"))), nil
}

// unescapeLineSeparators turns the \u2028 and \u2029 escapes emitted by encoding/json
// back into literal characters. Backslashes in encoded JSON always come in escape
// pairs, so walking pair by pair leaves an escaped backslash followed by "u2028" intact.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))

	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])

			continue
		}

		if rest := data[i+1:]; bytes.HasPrefix(rest, []byte("u2028")) || bytes.HasPrefix(rest, []byte("u2029")) {
			separator := '\u2028'
			if rest[4] == '9' {
				separator = '\u2029'
			}

			out = utf8.AppendRune(out, separator)
			i += len("u2028")

			continue
		}

		out = append(out, data[i], data[i+1])
		i++
	}

	return out
}
