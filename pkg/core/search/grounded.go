package search

import (
	"context"
	"fmt"
	"regexp"

	"company_research/pkg/core/utils"

	"google.golang.org/genai"
)

var urlPattern = regexp.MustCompile(`https?://[^\s"'<>)\]]+`)

const groundedSystemPrompt = `You are a research assistant that finds publicly hosted documents.
Use Google Search. Reply ONLY with a JSON array of absolute URLs, best match first.
Prefer direct links to PDF files on the company's own investor relations domain.`

// GroundedSearcher asks Gemini, grounded on Google Search, for result URLs.
type GroundedSearcher struct {
	client *genai.Client
	model  string
}

// NewGroundedSearcher creates a Gemini client with the given API key.
func NewGroundedSearcher(ctx context.Context, apiKey, model string) (*GroundedSearcher, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}
	if model == "" {
		model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &GroundedSearcher{client: client, model: model}, nil
}

// Search returns the URLs from the model's JSON answer followed by any grounding sources.
func (g *GroundedSearcher) Search(ctx context.Context, query string, maxResults int) ([]string, error) {
	config := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(float32(0.1)),
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: groundedSystemPrompt}},
		},
		Tools: []*genai.Tool{
			{GoogleSearch: &genai.GoogleSearch{}},
		},
	}

	prompt := fmt.Sprintf("Search query: %s\nReturn at most %d URLs.", query, maxResults)
	result, err := g.client.Models.GenerateContent(ctx, g.model, genai.Text(prompt), config)
	if err != nil {
		return nil, fmt.Errorf("gemini generation failed: %w", err)
	}

	var sources []string
	if len(result.Candidates) > 0 {
		cand := result.Candidates[0]
		if cand.GroundingMetadata != nil {
			for _, chunk := range cand.GroundingMetadata.GroundingChunks {
				if chunk.Web != nil && chunk.Web.URI != "" {
					sources = append(sources, chunk.Web.URI)
				}
			}
		}
	}

	return mergeURLs(parseURLList(result.Text()), sources, maxResults), nil
}

// parseURLList reads the model answer as a JSON array, repairing it when needed,
// and falls back to scanning the text for URLs.
func parseURLList(text string) []string {
	var urls []string
	if _, err := utils.SmartParse(utils.CleanMarkdown(text), &urls); err == nil && len(urls) > 0 {
		return urls
	}
	return urlPattern.FindAllString(text, -1)
}

func mergeURLs(primary, secondary []string, limit int) []string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range [][]string{primary, secondary} {
		for _, u := range list {
			if u == "" || seen[u] {
				continue
			}
			seen[u] = true
			out = append(out, u)
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}
