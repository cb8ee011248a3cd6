package profile

import (
	"strings"
	"testing"

	"github.com/watanaberin/retro-bio/pkg/errors"
)

func TestSlug(t *testing.T) {
	tests := []struct {
		name     string
		username string
		want     string
	}{
		{name: "handle", username: "@rin", want: "_rin"},
		{name: "mixed case and punctuation", username: "@Rin!", want: "_rin_"},
		{name: "plain", username: "alice42", want: "alice42"},
		{name: "spaces", username: "a b c", want: "a_b_c"},
		{name: "empty", username: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Profile{Username: tt.username}
			if got := p.Slug(); got != tt.want {
				t.Errorf("Slug() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilename(t *testing.T) {
	p := Profile{Username: "@rin"}
	if got := p.Filename("gif"); got != "retro-profile-_rin.gif" {
		t.Errorf("Filename(gif) = %q", got)
	}
	if got := p.Filename(".svg"); got != "retro-profile-_rin.svg" {
		t.Errorf("Filename(.svg) = %q", got)
	}
}

func TestMaxLineLength(t *testing.T) {
	tests := []struct {
		name string
		p    Profile
		want int
	}{
		{
			name: "empty profile",
			p:    Profile{},
			want: 0,
		},
		{
			name: "username longest",
			p:    Profile{Username: "@averylongusername"},
			want: 18,
		},
		{
			name: "line longest includes separator",
			p: Profile{
				Username: "@x",
				Lines:    []Line{{Label: "Languages", Value: "Python"}},
			},
			want: len("Languages") + len("Python") + 2,
		},
		{
			name: "bio line longest",
			p: Profile{
				Username: "@x",
				Bio:      "short\n" + strings.Repeat("a", 40),
			},
			want: 40,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.MaxLineLength(); got != tt.want {
				t.Errorf("MaxLineLength() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestBioLines(t *testing.T) {
	p := Profile{Bio: "one\ntwo"}
	got := p.BioLines()
	if len(got) != 2 || got[0] != "one" || got[1] != "two" {
		t.Errorf("BioLines() = %v", got)
	}
	if (Profile{}).BioLines() != nil {
		t.Error("BioLines() on empty bio should be nil")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		p       Profile
		wantErr bool
	}{
		{name: "default profile", p: Default(), wantErr: false},
		{name: "empty profile", p: Profile{}, wantErr: false},
		{name: "multi-line bio", p: Profile{Bio: "a\nb"}, wantErr: false},
		{name: "control char in username", p: Profile{Username: "a\x00b"}, wantErr: true},
		{name: "newline in username", p: Profile{Username: "a\nb"}, wantErr: true},
		{name: "oversized username", p: Profile{Username: strings.Repeat("a", 65)}, wantErr: true},
		{name: "oversized bio", p: Profile{Bio: strings.Repeat("a", 4097)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.p.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errors.ErrCodeInvalidProfile) {
				t.Errorf("Validate() code = %v, want INVALID_PROFILE", errors.GetCode(err))
			}
		})
	}
}

func TestReadRoundTrip(t *testing.T) {
	data, err := Marshal(Default())
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	got, err := Read(strings.NewReader(string(data)))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if got.Username != "@rin" || len(got.Lines) != 3 || got.Bio != "Good Job!" {
		t.Errorf("round trip mismatch: %+v", got)
	}
}
