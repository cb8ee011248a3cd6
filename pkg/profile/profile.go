// Package profile defines the profile card data model.
//
// A Profile is the single input document for the rendering pipeline: a
// username, an ordered list of label/value attribute lines, and an optional
// multi-line bio. Profiles are plain values with no identity; they are passed
// by value into the pipeline each time they change and are never persisted.
package profile

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Line is a single key/value attribute rendered as "Label: Value".
type Line struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Profile holds the content of a profile card.
// Line order is significant and duplicate labels are allowed.
type Profile struct {
	Username string `json:"username"`
	Lines    []Line `json:"lines"`
	Bio      string `json:"bio,omitempty"`
}

// Default returns the profile shown before any user input.
func Default() Profile {
	return Profile{
		Username: "@rin",
		Lines: []Line{
			{Label: "Languages", Value: "Python"},
			{Label: "Location", Value: "Germany"},
			{Label: "Skills", Value: "Backend, Cloud Native"},
		},
		Bio: "Good Job!",
	}
}

// HasBio reports whether the profile carries a non-empty bio.
func (p Profile) HasBio() bool {
	return p.Bio != ""
}

// BioLines returns the bio split into display lines.
// An empty bio yields nil.
func (p Profile) BioLines() []string {
	if p.Bio == "" {
		return nil
	}
	return strings.Split(p.Bio, "\n")
}

// MaxLineLength returns the longest display line in characters: the username,
// any "Label: Value" attribute (label + value + 2 for ": "), or any bio line.
// Returns 0 for a fully empty profile.
func (p Profile) MaxLineLength() int {
	maxLen := len(p.Username)
	for _, l := range p.Lines {
		if n := len(l.Label) + len(l.Value) + 2; n > maxLen {
			maxLen = n
		}
	}
	for _, b := range p.BioLines() {
		if len(b) > maxLen {
			maxLen = len(b)
		}
	}
	return maxLen
}

// Slug returns the username lowered with every non-alphanumeric rune
// replaced by an underscore, for use in export filenames.
func (p Profile) Slug() string {
	var b strings.Builder
	for _, r := range strings.ToLower(p.Username) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
	}
	return b.String()
}

// Filename returns the export filename for the given extension,
// e.g. "retro-profile-_rin.gif".
func (p Profile) Filename(ext string) string {
	return fmt.Sprintf("retro-profile-%s.%s", p.Slug(), strings.TrimPrefix(ext, "."))
}

// Read decodes a JSON profile from r.
func Read(r io.Reader) (Profile, error) {
	var p Profile
	dec := json.NewDecoder(r)
	if err := dec.Decode(&p); err != nil {
		return Profile{}, fmt.Errorf("decode profile: %w", err)
	}
	return p, nil
}

// Marshal encodes the profile as indented JSON.
func Marshal(p Profile) ([]byte, error) {
	return json.MarshalIndent(p, "", "  ")
}
