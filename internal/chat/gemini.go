package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Replies shown to the user instead of an error.
const (
	ReplyMissingKey    = "Please add your Gemini API key to the server configuration as GEMINI_API_KEY to enable AI responses."
	ReplyRateLimited   = "I'm receiving too many requests right now. Please wait a moment and try again."
	ReplyAuthIssue     = "There seems to be an authentication issue. Please check the API key configuration."
	ReplyBadRequest    = "There was an issue with the request format. Please try rephrasing your question."
	ReplyEmpty         = "I received an empty response. Please try asking your question again."
	ReplySafety        = "I'm sorry, but I cannot provide a response to that particular query due to safety guidelines. Please try rephrasing your health question."
	ReplyMaxTokens     = "My response was cut short due to length limits. Please ask a more specific question, and I'll provide a more focused answer."
	ReplyTimeout       = "The request timed out. Please try again with a shorter question."
	ReplyUnavailable   = "I'm sorry, I'm having trouble connecting right now. Please try again later or consult with a healthcare professional for medical concerns."
	ReplyTechnical     = "I apologize, but I'm experiencing technical difficulties. Please try again later."
	GreetingMessage    = "Hey there 👋 How can I help you with your health concerns today?"
	promptWordLimit    = 250
	defaultMaxTokens   = 1000
	defaultTemperature = 0.7
)

const promptTemplate = `You are a helpful AI health assistant. Keep your response under %d words. The user is asking about: "%s". 

Please provide helpful health information while being clear that:
1. You are not a doctor and cannot provide medical diagnosis
2. For serious concerns, they should consult a healthcare professional
3. This is for informational purposes only

Respond in a friendly, helpful manner with relevant health information. Keep it concise and complete.`

// BuildPrompt wraps the user's text in the medical assistant instructions.
func BuildPrompt(userText string) string {
	return fmt.Sprintf(promptTemplate, promptWordLimit, userText)
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
	Role  string `json:"role,omitempty"`
}

type generationConfig struct {
	Temperature     float64  `json:"temperature"`
	MaxOutputTokens int      `json:"maxOutputTokens"`
	TopP            float64  `json:"topP"`
	TopK            int      `json:"topK"`
	StopSequences   []string `json:"stopSequences"`
}

type safetySetting struct {
	Category  string `json:"category"`
	Threshold string `json:"threshold"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig generationConfig `json:"generationConfig"`
	SafetySettings   []safetySetting  `json:"safetySettings"`
}

type generateResponse struct {
	Candidates []struct {
		Content      *content `json:"content"`
		FinishReason string   `json:"finishReason"`
	} `json:"candidates"`
}

var safetySettings = []safetySetting{
	{Category: "HARM_CATEGORY_HARASSMENT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_HATE_SPEECH", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_SEXUALLY_EXPLICIT", Threshold: "BLOCK_NONE"},
	{Category: "HARM_CATEGORY_DANGEROUS_CONTENT", Threshold: "BLOCK_NONE"},
}

// Generator produces an assistant reply for one user message.
type Generator interface {
	Generate(ctx context.Context, userText string) (string, error)
}

// GeminiClient calls the Gemini generateContent endpoint over HTTP.
type GeminiClient struct {
	baseURL    string
	apiKey     string
	model      string
	timeout    time.Duration
	httpClient *http.Client
	log        *zap.Logger
}

func NewGeminiClient(baseURL, apiKey, model string, timeout time.Duration, log *zap.Logger) *GeminiClient {
	return &GeminiClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		apiKey:     apiKey,
		model:      model,
		timeout:    timeout,
		httpClient: &http.Client{},
		log:        log,
	}
}

// Generate never fails for upstream problems: every known failure mode is
// mapped onto a reply the user can read. The error return is reserved for
// the caller's own context being canceled.
func (c *GeminiClient) Generate(ctx context.Context, userText string) (string, error) {
	if c.apiKey == "" {
		return ReplyMissingKey, nil
	}

	reqCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		reqCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	reply, err := c.generate(reqCtx, userText)
	if err == nil {
		return reply, nil
	}
	if ctx.Err() != nil {
		return "", ctx.Err()
	}
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
		c.log.Warn("gemini request timed out", zap.Duration("timeout", c.timeout))
		return ReplyTimeout, nil
	}
	c.log.Error("gemini request failed", zap.Error(err))
	return ReplyUnavailable, nil
}

func (c *GeminiClient) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		c.baseURL, url.PathEscape(c.model), url.QueryEscape(c.apiKey))
}

func (c *GeminiClient) generate(ctx context.Context, userText string) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents: []content{{Parts: []part{{Text: BuildPrompt(userText)}}}},
		GenerationConfig: generationConfig{
			Temperature:     defaultTemperature,
			MaxOutputTokens: defaultMaxTokens,
			TopP:            0.9,
			TopK:            40,
			StopSequences:   []string{},
		},
		SafetySettings: safetySettings,
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("gemini http error: %w", err)
	}
	defer resp.Body.Close()

	c.log.Debug("gemini response", zap.Int("status", resp.StatusCode))

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		switch resp.StatusCode {
		case http.StatusTooManyRequests:
			return ReplyRateLimited, nil
		case http.StatusForbidden:
			return ReplyAuthIssue, nil
		case http.StatusBadRequest:
			return ReplyBadRequest, nil
		}
		return "", fmt.Errorf("gemini api error %d: %s", resp.StatusCode, string(respBody))
	}

	var data generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return replyFrom(data)
}

func replyFrom(data generateResponse) (string, error) {
	if len(data.Candidates) == 0 {
		return "", errors.New("unexpected response format from gemini api")
	}
	cand := data.Candidates[0]
	if cand.Content != nil && len(cand.Content.Parts) > 0 {
		text := cand.Content.Parts[0].Text
		if strings.TrimSpace(text) == "" {
			return ReplyEmpty, nil
		}
		return text, nil
	}
	switch cand.FinishReason {
	case "SAFETY":
		return ReplySafety, nil
	case "MAX_TOKENS":
		return ReplyMaxTokens, nil
	}
	return "", errors.New("unexpected response format from gemini api")
}
