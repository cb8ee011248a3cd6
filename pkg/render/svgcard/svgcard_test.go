package svgcard

import (
	"bytes"
	"encoding/xml"
	"io"
	"strings"
	"testing"

	"github.com/watanaberin/retro-bio/pkg/profile"
	"github.com/watanaberin/retro-bio/pkg/render/crt"
)

func TestRenderWellFormed(t *testing.T) {
	p := profile.Default()
	out := Render(p, crt.DefaultConfig())

	dec := xml.NewDecoder(bytes.NewReader(out))
	for {
		_, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("output is not well-formed XML: %v", err)
		}
	}
}

func TestRenderContainsProfileContent(t *testing.T) {
	p := profile.Profile{
		Username: "@ada",
		Lines:    []profile.Line{{Label: "Languages", Value: "Go"}},
		Bio:      "hello world",
	}
	svg := string(Render(p, crt.DefaultConfig()))

	for _, want := range []string{"@ada", "Languages:", "Go", "hello world", "root@system:", "~ $ _"} {
		if !strings.Contains(svg, want) {
			t.Errorf("output missing %q", want)
		}
	}
	for _, filter := range []string{`id="glow"`, `id="text-glow"`, `id="scanlines"`, `id="vignette"`, `id="noise"`} {
		if !strings.Contains(svg, filter) {
			t.Errorf("output missing filter def %s", filter)
		}
	}
}

func TestRenderEscapesMarkup(t *testing.T) {
	p := profile.Profile{Username: `<script>alert("x")</script>`}
	svg := string(Render(p, crt.DefaultConfig()))

	if strings.Contains(svg, "<script>") {
		t.Error("markup in profile text must be escaped")
	}
	if !strings.Contains(svg, "&lt;script&gt;") {
		t.Error("expected escaped entity form of the username")
	}
}

func TestRenderOptions(t *testing.T) {
	p := profile.Default()
	cfg := crt.DefaultConfig()

	plain := string(Render(p, cfg))
	if strings.Contains(plain, "global-blur") {
		t.Error("blur filter should be absent without WithBlur")
	}
	if strings.Contains(plain, "<image") {
		t.Error("image element should be absent without WithImage")
	}

	full := string(Render(p, cfg,
		WithImage("data:image/png;base64,AAAA"),
		WithBlur(1.5),
		WithGrid(),
	))
	for _, want := range []string{"global-blur", `stdDeviation="1.50"`, "<image", "monitor-green", "<line"} {
		if !strings.Contains(full, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestRenderImageWidensCard(t *testing.T) {
	p := profile.Default()
	cfg := crt.DefaultConfig()

	plain := string(Render(p, cfg))
	withImg := string(Render(p, cfg, WithImage("data:image/png;base64,AAAA")))
	if plain == withImg {
		t.Fatal("embedding an image should change the rendered card")
	}
	if !strings.Contains(plain, `viewBox="0 0 530`) {
		t.Errorf("textless-image card should be 530 wide, got %s", plain[:80])
	}
}

func TestRenderNoiseOmittedAtZero(t *testing.T) {
	cfg := crt.DefaultConfig()
	cfg.NoiseStrength = 0
	svg := string(Render(profile.Default(), cfg))
	if strings.Contains(svg, `filter="url(#noise)"`) {
		t.Error("noise overlay should be skipped when strength is zero")
	}
}
