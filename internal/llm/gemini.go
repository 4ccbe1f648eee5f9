package llm

import (
	"context"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient wraps the official SDK behind the Completer interface.
type GeminiClient struct {
	client *genai.Client
	model  string
}

func NewGeminiClient(apiKey, model string) (*GeminiClient, error) {
	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, &Error{Kind: KindUnavailable, Message: "create gemini client: " + err.Error()}
	}
	return &GeminiClient{client: client, model: model}, nil
}

func (c *GeminiClient) Name() string { return "gemini" }

func (c *GeminiClient) Close() {
	c.client.Close()
}

func (c *GeminiClient) Complete(ctx context.Context, req Request) (string, error) {
	model := c.client.GenerativeModel(c.model)
	temp := float32(req.temperature())
	model.SetTemperature(temp)
	model.SetTopP(0.95)
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if len(req.Stop) > 0 {
		model.StopSequences = req.Stop
	}
	if req.System != "" {
		model.SystemInstruction = &genai.Content{
			Parts: []genai.Part{genai.Text(req.System)},
		}
	}

	// The SDK takes one text part; fold context, history and question into
	// the same ordered layout the flat-prompt backends use.
	prompt := AssemblePrompt(Parts{
		Context:  req.Context,
		History:  req.History,
		Question: req.Question,
	})

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if ctx.Err() != nil {
			return "", &Error{Kind: KindTimeout, Message: err.Error()}
		}
		return "", &Error{Kind: KindUnavailable, Message: "gemini API error: " + err.Error()}
	}

	text := extractText(resp)
	if text == "" {
		return "", &Error{Kind: KindBadPayload, Message: "gemini returned no text candidates"}
	}
	return text, nil
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
