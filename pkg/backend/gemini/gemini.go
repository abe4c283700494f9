// Package gemini implements backend.Backend on Google's Gemini API.
package gemini

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/abyan-ai/askme/pkg/backend"
	"github.com/abyan-ai/askme/pkg/models"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "gemini-2.5-flash"

// ErrMissingAPIKey is returned by New when no API key is configured.
var ErrMissingAPIKey = errors.New("gemini: API key is required")

// Config contains configuration for the Gemini backend.
type Config struct {
	APIKey string
	// Model is the model name (e.g., "gemini-2.5-flash").
	Model string
	// BaseURL overrides the API endpoint. Empty uses the SDK default.
	BaseURL string
}

// Backend sends conversations to Gemini.
type Backend struct {
	client *genai.Client
	model  string
}

// New creates a Gemini backend.
func New(ctx context.Context, cfg Config) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	cc := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		cc.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}
	client, err := genai.NewClient(ctx, cc)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}

	return &Backend{client: client, model: cfg.Model}, nil
}

// Model returns the model identifier.
func (b *Backend) Model() string { return b.model }

// Generate implements backend.Backend.
func (b *Backend) Generate(ctx context.Context, req backend.Request) (string, error) {
	contents, err := toContents(req.Turns())
	if err != nil {
		return "", err
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}
	return replyText(resp)
}

func toContents(turns []models.ChatMessage) ([]*genai.Content, error) {
	contents := make([]*genai.Content, 0, len(turns))
	for i, t := range turns {
		var parts []*genai.Part
		if t.Text != "" {
			parts = append(parts, &genai.Part{Text: t.Text})
		}
		if t.Image != nil && t.Image.Data != "" {
			data, err := base64.StdEncoding.DecodeString(t.Image.Data)
			if err != nil {
				return nil, fmt.Errorf("turn %d: decode inline image: %w", i, err)
			}
			parts = append(parts, &genai.Part{
				InlineData: &genai.Blob{MIMEType: t.Image.MIMEType, Data: data},
			})
		}
		if len(parts) == 0 {
			continue
		}

		role := string(genai.RoleUser)
		if t.Role == models.RoleModel {
			role = string(genai.RoleModel)
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}
	return contents, nil
}

// replyText joins the non-thought text parts of the first candidate.
func replyText(resp *genai.GenerateContentResponse) (string, error) {
	if fb := resp.PromptFeedback; fb != nil && fb.BlockReason != "" && fb.BlockReason != genai.BlockedReasonUnspecified {
		return "", fmt.Errorf("%w: %s", backend.ErrBlocked, fb.BlockReason)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", nil
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part == nil || part.Thought || part.Text == "" {
			continue
		}
		sb.WriteString(part.Text)
	}
	return sb.String(), nil
}
