// Package genmock generates realistic ledger drafts for a topic using
// Gemini. Seed data only; nothing here is persisted until the caller
// inserts the drafts through the record service.
package genmock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"adminsum/internal/core"
)

const modelName = "gemini-2.5-flash"

type Generator struct {
	client *genai.Client
}

// New creates a generator. An empty API key is not an error: generation is
// an optional feature, and Generate on a nil generator yields no drafts.
func New(ctx context.Context, apiKey string) (*Generator, error) {
	if apiKey == "" {
		return nil, nil
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:      apiKey,
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Generator{client: client}, nil
}

// Generate asks the model for 5 to 10 drafts about the topic. Failures are
// wrapped as core.ExternalServiceError so callers can keep the rest of the
// system running.
func (g *Generator) Generate(ctx context.Context, topic string) ([]core.Draft, error) {
	if g == nil || g.client == nil {
		return nil, nil
	}

	prompt := fmt.Sprintf(`Generate a list of 5 to 10 realistic data entries related to the topic: %q.
The content MUST be in Indonesian (Bahasa Indonesia).
The 'value' should be a number in Rupiah (IDR) scale (e.g. 50000, 1000000), but do not include formatting symbols in the JSON number.
The 'name' should be a descriptive label in Indonesian.
The 'category' should be one of: 'Umum', 'Keuangan', 'Inventaris', 'Penjualan'.`, topic)

	config := &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeArray,
			Items: &genai.Schema{
				Type: genai.TypeObject,
				Properties: map[string]*genai.Schema{
					"name": {
						Type:        genai.TypeString,
						Description: "The name or label of the entry in Indonesian",
					},
					"value": {
						Type:        genai.TypeNumber,
						Description: "The numerical value associated with the entry",
					},
					"category": {
						Type:        genai.TypeString,
						Description: "A short category tag for this item",
					},
				},
				Required: []string{"name", "value"},
			},
		},
	}

	contents := []*genai.Content{
		{Role: "user", Parts: []*genai.Part{{Text: prompt}}},
	}

	resp, err := g.client.Models.GenerateContent(ctx, modelName, contents, config)
	if err != nil {
		return nil, &core.ExternalServiceError{Service: "gemini", Err: err}
	}

	drafts, err := parseDrafts(resp.Text())
	if err != nil {
		return nil, &core.ExternalServiceError{Service: "gemini", Err: err}
	}
	return drafts, nil
}

// parseDrafts decodes the model output. The schema constrains the response,
// but fences and surrounding prose still show up often enough to strip.
func parseDrafts(raw string) ([]core.Draft, error) {
	clean := cleanModelJSON(raw)
	if clean == "" {
		return nil, fmt.Errorf("empty response from model")
	}

	var drafts []core.Draft
	if err := json.Unmarshal([]byte(clean), &drafts); err != nil {
		return nil, fmt.Errorf("unmarshal model response: %w", err)
	}

	for i, d := range drafts {
		if err := d.Validate(); err != nil {
			return nil, fmt.Errorf("draft %d: %w", i, err)
		}
	}
	return drafts, nil
}

func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		if idx := strings.LastIndex(s, "```"); idx != -1 {
			s = s[:idx]
		}
		s = strings.TrimSpace(s)
	}

	if start := strings.Index(s, "["); start != -1 {
		if end := strings.LastIndex(s, "]"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
