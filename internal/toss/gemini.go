package toss

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"google.golang.org/genai"

	"cricketscore/internal/models"
)

// DefaultModel is used when no model is configured
const DefaultModel = "gemini-2.5-flash"

// GeminiConfig configures a GeminiClient. BaseURL is only set to point the
// client at another endpoint.
type GeminiConfig struct {
	APIKey  string
	Model   string
	BaseURL string
}

// GeminiClient asks Gemini to narrate a toss
type GeminiClient struct {
	client *genai.Client
	model  string
}

// NewGeminiClient creates a client for the Gemini API
func NewGeminiClient(ctx context.Context, cfg GeminiConfig) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      cfg.APIKey,
		Backend:     genai.BackendGeminiAPI,
		HTTPClient:  &http.Client{Timeout: 30 * time.Second},
		HTTPOptions: genai.HTTPOptions{BaseURL: cfg.BaseURL},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return &GeminiClient{client: client, model: cfg.Model}, nil
}

func tossPrompt(teamA, teamB string, call models.TossCall) string {
	return fmt.Sprintf(`Simulate a cricket coin toss between two teams: %q and %q.
The call from %s is %q.
Describe the coin toss with a little flair, like a commentator.
The outcome should be random.
Then, provide the result in the requested JSON format.`, teamA, teamB, teamA, string(call))
}

func tossSchema(teamA, teamB string) *genai.Schema {
	return &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"winner":    {Type: genai.TypeString, Description: fmt.Sprintf("The winning team, either %s or %s.", teamA, teamB)},
			"decision":  {Type: genai.TypeString, Description: "The winner's choice, either 'bat' or 'bowl'."},
			"narrative": {Type: genai.TypeString, Description: "A dramatic description of the toss and result."},
		},
		Required: []string{"winner", "decision", "narrative"},
	}
}

// Generate implements Generator.
func (c *GeminiClient) Generate(ctx context.Context, teamA, teamB string, call models.TossCall) (*Result, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model,
		genai.Text(tossPrompt(teamA, teamB, call)),
		&genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			ResponseSchema:   tossSchema(teamA, teamB),
		})
	if err != nil {
		return nil, fmt.Errorf("generate content failed: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("%w: no candidates", ErrMalformed)
	}

	var res Result
	text := strings.TrimSpace(resp.Text())
	if err := json.Unmarshal([]byte(text), &res); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return &res, nil
}
