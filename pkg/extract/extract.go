// Package extract turns free-form text into a structured profile by calling
// a Gemini-compatible generateContent endpoint. The model is constrained to a
// JSON response schema, so parsing failures indicate a broken upstream rather
// than an unlucky prompt.
package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/watanaberin/retro-bio/pkg/errors"
	"github.com/watanaberin/retro-bio/pkg/httputil"
	"github.com/watanaberin/retro-bio/pkg/profile"
)

// Defaults for the hosted API.
const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	DefaultModel   = "gemini-2.5-flash"
)

// systemInstruction steers the model toward the profile schema.
const systemInstruction = `You are a retro terminal profile generator.
Extract user information from the input text into a JSON object.

Schema:
{
  "username": "string",
  "bio": "string",
  "lines": [
    { "label": "string", "value": "string" }
  ]
}

- "username": Extract or generate a suitable username/handle.
- "bio": A summary or bio if present.
- "lines": An array of attributes (e.g. Age, Location, Job).

Output JSON only.`

// Client calls the extraction endpoint.
type Client struct {
	baseURL string
	model   string
	apiKey  string
	http    *http.Client
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithBaseURL points the client at a different (e.g. self-hosted or test)
// endpoint.
func WithBaseURL(u string) ClientOption {
	return func(c *Client) { c.baseURL = strings.TrimRight(u, "/") }
}

// WithModel selects the model name.
func WithModel(m string) ClientOption { return func(c *Client) { c.model = m } }

// WithHTTPClient substitutes the underlying HTTP client.
func WithHTTPClient(h *http.Client) ClientOption { return func(c *Client) { c.http = h } }

// NewClient builds a client. The API key is required.
func NewClient(apiKey string, opts ...ClientOption) (*Client, error) {
	if apiKey == "" {
		return nil, errors.New(errors.ErrCodeExtraction, "api key is required")
	}
	c := &Client{
		baseURL: DefaultBaseURL,
		model:   DefaultModel,
		apiKey:  apiKey,
		http:    httputil.NewHTTPClient(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Request and response shapes for the generateContent wire format. Only the
// fields this client touches are declared.
type generateRequest struct {
	SystemInstruction genContent       `json:"systemInstruction"`
	Contents          []genContent     `json:"contents"`
	GenerationConfig  generationConfig `json:"generationConfig"`
}

type genContent struct {
	Parts []genPart `json:"parts"`
	Role  string    `json:"role,omitempty"`
}

type genPart struct {
	Text string `json:"text"`
}

type generationConfig struct {
	ResponseMIMEType string          `json:"responseMimeType"`
	ResponseSchema   json.RawMessage `json:"responseSchema"`
}

// responseSchema mirrors the profile JSON shape for constrained decoding.
var responseSchema = json.RawMessage(`{
  "type": "OBJECT",
  "properties": {
    "username": {"type": "STRING"},
    "bio": {"type": "STRING"},
    "lines": {
      "type": "ARRAY",
      "items": {
        "type": "OBJECT",
        "properties": {
          "label": {"type": "STRING"},
          "value": {"type": "STRING"}
        },
        "required": ["label", "value"]
      }
    }
  },
  "required": ["username", "lines"]
}`)

type generateResponse struct {
	Candidates []struct {
		Content genContent `json:"content"`
	} `json:"candidates"`
}

// Profile extracts a profile from free-form text. Transient upstream failures
// are retried with backoff; the returned profile is validated before use.
func (c *Client) Profile(ctx context.Context, text string) (profile.Profile, error) {
	if strings.TrimSpace(text) == "" {
		return profile.Profile{}, errors.New(errors.ErrCodeExtraction, "input text is empty")
	}

	body, err := json.Marshal(generateRequest{
		SystemInstruction: genContent{Parts: []genPart{{Text: systemInstruction}}},
		Contents:          []genContent{{Role: "user", Parts: []genPart{{Text: text}}}},
		GenerationConfig: generationConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   responseSchema,
		},
	})
	if err != nil {
		return profile.Profile{}, errors.Wrap(errors.ErrCodeInternal, err, "marshal extraction request")
	}

	var raw string
	err = httputil.RetryWithBackoff(ctx, func() error {
		raw, err = c.generate(ctx, body)
		return err
	})
	if err != nil {
		return profile.Profile{}, err
	}

	var p profile.Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return profile.Profile{}, errors.Wrap(errors.ErrCodeExtraction, err, "model returned malformed profile JSON")
	}
	if err := p.Validate(); err != nil {
		return profile.Profile{}, errors.Wrap(errors.ErrCodeExtraction, err, "model returned invalid profile")
	}
	return p, nil
}

func (c *Client) generate(ctx context.Context, body []byte) (string, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent", c.baseURL, c.model)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInternal, err, "build extraction request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-goog-api-key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return "", &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "call extraction endpoint")}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", &httputil.RetryableError{Err: errors.Wrap(errors.ErrCodeNetwork, err, "read extraction response")}
	}

	switch {
	case resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests:
		return "", &httputil.RetryableError{Err: errors.New(errors.ErrCodeNetwork, "extraction endpoint returned %d", resp.StatusCode)}
	case resp.StatusCode != http.StatusOK:
		return "", errors.New(errors.ErrCodeExtraction, "extraction endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(data)))
	}

	var parsed generateResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return "", errors.Wrap(errors.ErrCodeExtraction, err, "decode extraction response")
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 {
		return "", errors.New(errors.ErrCodeExtraction, "extraction response has no candidates")
	}
	return parsed.Candidates[0].Content.Parts[0].Text, nil
}
