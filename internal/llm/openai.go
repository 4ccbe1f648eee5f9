package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// OpenAIClient talks to any chat-completions endpoint (OpenAI, Mistral,
// vLLM, LM Studio and friends).
type OpenAIClient struct {
	baseURL    string
	apiKey     string
	model      string
	name       string
	httpClient *http.Client
}

func NewOpenAIClient(baseURL, apiKey, model string) *OpenAIClient {
	return &OpenAIClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		name:       "openai",
		httpClient: newHTTPClient(),
	}
}

func (c *OpenAIClient) Name() string { return c.name }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// messages renders the ordered prompt parts as role/content pairs. The order
// matches the flat prompt assembly: system, context, history, question.
func (c *OpenAIClient) messages(req Request) []chatMessage {
	var msgs []chatMessage
	system := req.System
	if req.Context != "" {
		if system != "" {
			system += "\n\n"
		}
		system += req.Context
	}
	if system != "" {
		msgs = append(msgs, chatMessage{Role: "system", Content: system})
	}
	for _, t := range req.History {
		msgs = append(msgs, chatMessage{Role: t.Role, Content: t.Content})
	}
	msgs = append(msgs, chatMessage{Role: "user", Content: req.Question})
	return msgs
}

func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	body := map[string]interface{}{
		"model":       c.model,
		"messages":    c.messages(req),
		"temperature": req.temperature(),
		"stream":      false,
	}
	if req.MaxTokens > 0 {
		body["max_tokens"] = req.MaxTokens
	}
	if len(req.Stop) > 0 {
		body["stop"] = req.Stop
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Kind: KindBadPayload, Message: "marshal request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &Error{Kind: KindUnavailable, Message: "build request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(err)
	}
	if resp.StatusCode >= 300 {
		return "", &Error{
			Kind:    KindBadStatus,
			Message: "status " + resp.Status,
			Body:    truncateBody(raw),
		}
	}

	var parsed struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &Error{Kind: KindBadPayload, Message: "parse response: " + err.Error(), Body: truncateBody(raw)}
	}
	if len(parsed.Choices) == 0 {
		return "", &Error{Kind: KindBadPayload, Message: "empty choices", Body: truncateBody(raw)}
	}
	return parsed.Choices[0].Message.Content, nil
}
