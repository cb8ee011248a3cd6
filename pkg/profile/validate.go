package profile

import (
	"unicode"

	"github.com/watanaberin/retro-bio/pkg/errors"
)

const (
	maxUsernameLen = 64
	maxLabelLen    = 64
	maxValueLen    = 256
	maxBioLen      = 4096
	maxLines       = 64
)

// Validate checks the profile for renderability. An entirely empty profile is
// valid (the layout engine still yields a minimum-size canvas); Validate only
// rejects content that cannot be drawn sensibly: control characters outside
// the bio's newlines, and oversized fields.
func (p Profile) Validate() error {
	if len(p.Username) > maxUsernameLen {
		return errors.New(errors.ErrCodeInvalidProfile, "username too long (max %d characters)", maxUsernameLen)
	}
	if err := checkControl("username", p.Username, false); err != nil {
		return err
	}

	if len(p.Lines) > maxLines {
		return errors.New(errors.ErrCodeInvalidProfile, "too many attribute lines (max %d)", maxLines)
	}
	for i, l := range p.Lines {
		if len(l.Label) > maxLabelLen {
			return errors.New(errors.ErrCodeInvalidProfile, "line %d: label too long (max %d characters)", i, maxLabelLen)
		}
		if len(l.Value) > maxValueLen {
			return errors.New(errors.ErrCodeInvalidProfile, "line %d: value too long (max %d characters)", i, maxValueLen)
		}
		if err := checkControl("label", l.Label, false); err != nil {
			return err
		}
		if err := checkControl("value", l.Value, false); err != nil {
			return err
		}
	}

	if len(p.Bio) > maxBioLen {
		return errors.New(errors.ErrCodeInvalidProfile, "bio too long (max %d characters)", maxBioLen)
	}
	return checkControl("bio", p.Bio, true)
}

// checkControl rejects control characters. Newlines are permitted only when
// allowNewline is set (the bio is the only multi-line field).
func checkControl(field, s string, allowNewline bool) error {
	for _, r := range s {
		if r == '\n' && allowNewline {
			continue
		}
		if unicode.IsControl(r) {
			return errors.New(errors.ErrCodeInvalidProfile, "%s contains control characters", field)
		}
	}
	return nil
}
