// Package genai suggests canonical names for columns the deterministic
// strategies could not map. Suggestions go into the report for a human to
// review; they are never written into the specification itself.
package genai

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/status"
)

// geminiClient implements the Suggester interface using the Google Gemini API.
type geminiClient struct {
	client *genai.Client
	cfg    Config
}

// Suggester defines the interface for model-assisted naming proposals.
type Suggester interface {
	// SuggestCanonical proposes one canonical name for an unmapped column,
	// picked from the given candidates. Returns "" when the model finds no
	// plausible match.
	SuggestCanonical(ctx context.Context, columnName string, exampleValues, canonicalNames []string) (string, error)

	// IsAPIKeyValid checks if the configured API key is functional.
	IsAPIKeyValid(ctx context.Context) error

	// Close cleans up any resources used by the client.
	Close() error
}

// Config holds configuration for the GenAI client.
type Config struct {
	APIKey string
	Model  string
}

// NewClient creates a new Gemini client.
func NewClient(ctx context.Context, cfg Config) (Suggester, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("cannot create Gemini client: API key is missing")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	if cfg.Model == "" {
		cfg.Model = "gemini-1.5-flash-latest"
		log.Printf("INFO: Gemini model not specified, defaulting to %s", cfg.Model)
	}

	return &geminiClient{
		client: client,
		cfg:    cfg,
	}, nil
}

// Close cleans up the underlying Gemini client.
func (c *geminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// IsAPIKeyValid checks if the Gemini API key is valid by listing models.
func (c *geminiClient) IsAPIKeyValid(ctx context.Context) error {
	if c.client == nil {
		return fmt.Errorf("gemini client not initialized (likely missing API key)")
	}

	modelIterator := c.client.ListModels(ctx)
	_, err := modelIterator.Next() // Attempt to list one model
	if err != nil {
		if st, ok := status.FromError(err); ok {
			if st.Code() == 16 /* UNAUTHENTICATED */ || st.Code() == 7 /* PERMISSION_DENIED */ {
				return fmt.Errorf("invalid Gemini API key or insufficient permissions: %w", err)
			}
		}
		return fmt.Errorf("failed to verify Gemini API key by listing models: %w", err)
	}
	return nil
}

// SuggestCanonical asks the model to pick the canonical name that best
// describes the column, given its name and sample values. The model must
// choose from the provided candidates or answer empty; free-form inventions
// are discarded.
func (c *geminiClient) SuggestCanonical(ctx context.Context, columnName string, exampleValues, canonicalNames []string) (string, error) {
	if c.client == nil {
		return "", fmt.Errorf("gemini client not initialized")
	}
	if columnName == "" {
		return "", &ErrInvalidInput{Msg: "column name is empty"}
	}
	if len(canonicalNames) == 0 {
		return "", nil
	}

	prompt := fmt.Sprintf(`
	You are helping map columns of a statistical source extract onto a fixed
	set of canonical output column names.

	**Column Information:**
	- Column Name: %s
	- Example Values: [%s]

	**Allowed canonical names:**
	%s

	**Instructions:**
	1. Decide which single canonical name, if any, this column corresponds to.
	   Base the decision ONLY on the column name and the example values.
	2. If one of the allowed names clearly fits, output exactly that name
	   within <result></result> tags.
	3. If none fits, output empty <result></result> tags. Do NOT invent names
	   outside the allowed list.

	Provide your answer:
	`, columnName, strings.Join(exampleValues, ", "), strings.Join(canonicalNames, ", "))

	model := c.client.GenerativeModel(c.cfg.Model)
	model.SetTemperature(0.1)
	model.SetMaxOutputTokens(50)
	model.SetTopP(0.9)
	model.SetTopK(40)

	resp, err := withRetry(ctx, DefaultRetryOptions, func(ctx context.Context) (*genai.GenerateContentResponse, error) {
		r, callErr := model.GenerateContent(ctx, genai.Text(prompt))
		if callErr != nil {
			return nil, &ErrModelCall{Msg: "generate content", Err: callErr}
		}
		return r, nil
	})
	if err != nil {
		return "", fmt.Errorf("Gemini API call failed: %w", err)
	}

	suggestion, err := extractTextBetweenTags(resp, "<result>", "</result>")
	if err != nil {
		log.Printf("WARN: Could not extract suggestion from Gemini response for column %q: %v", columnName, err)
		return "", nil
	}
	suggestion = strings.TrimSpace(suggestion)
	if suggestion == "" {
		return "", nil
	}
	for _, name := range canonicalNames {
		if strings.EqualFold(name, suggestion) {
			log.Printf("INFO: Suggested canonical name %q for column %q using model %s.", name, columnName, c.cfg.Model)
			return name, nil
		}
	}
	log.Printf("WARN: Model suggested %q for column %q, which is not an allowed canonical name; discarding.", suggestion, columnName)
	return "", nil
}

// getFirstTextPart extracts the first text part from a Gemini response.
func getFirstTextPart(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		safetyRatings := "none"
		if resp != nil && len(resp.Candidates) > 0 {
			finishReason = resp.Candidates[0].FinishReason.String()
			if resp.Candidates[0].SafetyRatings != nil {
				safetyRatings = fmt.Sprintf("%v", resp.Candidates[0].SafetyRatings)
			}
		}
		return "", fmt.Errorf("empty or incomplete response from Gemini API. FinishReason: %s, SafetyRatings: %s", finishReason, safetyRatings)
	}
	part := resp.Candidates[0].Content.Parts[0]
	text, ok := part.(genai.Text)
	if !ok {
		return "", fmt.Errorf("unexpected response part type: %T", part)
	}
	return string(text), nil
}

// extractTextBetweenTags extracts text between the first occurrence of startTag and endTag.
func extractTextBetweenTags(resp *genai.GenerateContentResponse, startTag, endTag string) (string, error) {
	fullText, err := getFirstTextPart(resp)
	if err != nil {
		return "", fmt.Errorf("failed to get text part: %w", err)
	}

	content, found := extractContentBetween(fullText, startTag, endTag)
	if !found {
		return "", fmt.Errorf("tags '%s' and '%s' not found in response", startTag, endTag)
	}
	return content, nil
}

// extractContentBetween extracts content between start and end tags from a string.
func extractContentBetween(text, startTag, endTag string) (string, bool) {
	startIndex := strings.Index(text, startTag)
	if startIndex == -1 {
		return "", false
	}
	startIndex += len(startTag)
	endIndex := strings.Index(text[startIndex:], endTag)
	if endIndex == -1 {
		return "", false
	}
	return strings.TrimSpace(text[startIndex : startIndex+endIndex]), true
}
