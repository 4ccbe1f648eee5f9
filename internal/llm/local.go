package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
)

// LocalClient targets a llama.cpp server's /completion endpoint. It is the
// only backend that takes a raw flat prompt, so the assembler appends the
// trailing assistant cue for it.
type LocalClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewLocalClient(baseURL string) *LocalClient {
	return &LocalClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: newHTTPClient(),
	}
}

func (c *LocalClient) Name() string { return "local" }

func (c *LocalClient) Complete(ctx context.Context, req Request) (string, error) {
	prompt := AssemblePrompt(Parts{
		System:       req.System,
		Context:      req.Context,
		History:      req.History,
		Question:     req.Question,
		AssistantCue: true,
	})

	body := map[string]interface{}{
		"prompt":      prompt,
		"temperature": req.temperature(),
		"stream":      false,
	}
	if req.MaxTokens > 0 {
		body["n_predict"] = req.MaxTokens
	}
	if len(req.Stop) > 0 {
		body["stop"] = req.Stop
	}
	if req.Grammar != "" {
		body["grammar"] = req.Grammar
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", &Error{Kind: KindBadPayload, Message: "marshal request: " + err.Error()}
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/completion", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", &Error{Kind: KindUnavailable, Message: "build request: " + err.Error()}
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", classify(err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", classify(err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", &Error{
			Kind:    KindBadStatus,
			Message: "status " + resp.Status,
			Body:    truncateBody(raw),
		}
	}

	var parsed struct {
		Content string `json:"content"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return "", &Error{Kind: KindBadPayload, Message: "parse response: " + err.Error(), Body: truncateBody(raw)}
	}
	return parsed.Content, nil
}

// JSONGrammar constrains llama.cpp output to valid JSON. Passed for quiz and
// mindmap generation so the normalizer gets parseable text.
const JSONGrammar = `root   ::= object
value  ::= object | array | string | number | ("true" | "false" | "null") ws
object ::= "{" ws ( string ":" ws value ("," ws string ":" ws value)* )? "}" ws
array  ::= "[" ws ( value ("," ws value)* )? "]" ws
string ::= "\"" ( [^"\\\x7F\x00-\x1F] | "\\" (["\\bfnrt] | "u" [0-9a-fA-F]{4}) )* "\"" ws
number ::= ("-"? ([0-9] | [1-9] [0-9]*)) ("." [0-9]+)? ([eE] [-+]? [0-9]+)? ws
ws     ::= [ \t\n]{0,20}
`
