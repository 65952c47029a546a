package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"calendly-backend/internal/engine"
)

// ErrNoKey means no usable API key is configured; callers fall back to the
// local planner.
var ErrNoKey = errors.New("ai: no api key configured")

const (
	groqURL   = "https://api.groq.com/openai/v1/chat/completions"
	openAIURL = "https://api.openai.com/v1/chat/completions"

	defaultGroqModel   = "llama-3.3-70b-versatile"
	defaultOpenAIModel = "gpt-4o"
)

type Client struct {
	APIKey string
	Model  string // optional override; empty picks a provider default
	HTTP   *http.Client
}

func New(apiKey, model string) *Client {
	return &Client{
		APIKey: apiKey,
		Model:  model,
		HTTP:   &http.Client{Timeout: 45 * time.Second},
	}
}

// GenerateSchedule asks the model for a scheduling plan. The provider is
// picked off the key prefix: gsk_ routes to Groq, sk- to OpenAI, anything
// else is treated as a Gemini key. Any error here means "use the local
// planner instead", never a user-visible failure.
func (c *Client) GenerateSchedule(
	ctx context.Context,
	userInput string,
	tasks []engine.TaskRecord,
	activities []engine.ActivityRecord,
	classes []engine.ClassRecord,
	now time.Time,
) (*engine.Result, error) {
	key := strings.TrimSpace(c.APIKey)
	if key == "" || strings.Contains(key, "YOUR_") {
		return nil, ErrNoKey
	}

	system := buildSystemPrompt(now)
	user := buildUserMessage(userInput, tasks, activities, classes)

	switch {
	case strings.HasPrefix(key, "gsk_"):
		return c.chatCompletions(ctx, groqURL, key, c.modelOr(defaultGroqModel), system, user)
	case strings.HasPrefix(key, "sk-"):
		return c.chatCompletions(ctx, openAIURL, key, c.modelOr(defaultOpenAIModel), system, user)
	default:
		return c.gemini(ctx, key, system, user)
	}
}

func (c *Client) modelOr(fallback string) string {
	if c.Model != "" {
		return c.Model
	}
	return fallback
}

func (c *Client) chatCompletions(ctx context.Context, url, key, model, system, user string) (*engine.Result, error) {
	body := map[string]interface{}{
		"model": model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"response_format": map[string]string{"type": "json_object"},
		"temperature":     0.1,
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+key)
	req.Header.Set("Content-Type", "application/json")

	res, err := c.HTTP.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(res.Body)
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("ai: status %d: %s", res.StatusCode, truncate(raw, 300))
	}

	var out struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	if len(out.Choices) == 0 || out.Choices[0].Message.Content == "" {
		return nil, errors.New("ai: empty completion")
	}
	return parseResult(out.Choices[0].Message.Content)
}

// gemini tries a short list of model versions, oldest API last.
func (c *Client) gemini(ctx context.Context, key, system, user string) (*engine.Result, error) {
	models := []struct{ ver, name string }{
		{"v1beta", "gemini-1.5-flash-latest"},
		{"v1beta", "gemini-1.5-flash"},
		{"v1", "gemini-pro"},
	}
	if c.Model != "" {
		models = append([]struct{ ver, name string }{{"v1beta", c.Model}}, models...)
	}

	body := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": system + "\n\n" + user}}},
		},
		"generationConfig": map[string]interface{}{
			"responseMimeType": "application/json",
			"temperature":      0.1,
		},
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	var lastErr error
	for _, m := range models {
		url := fmt.Sprintf("https://generativelanguage.googleapis.com/%s/models/%s:generateContent?key=%s", m.ver, m.name, key)
		req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(payload))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")

		res, err := c.HTTP.Do(req)
		if err != nil {
			lastErr = err
			continue
		}
		raw, _ := io.ReadAll(res.Body)
		res.Body.Close()

		if res.StatusCode != http.StatusOK {
			lastErr = fmt.Errorf("ai: %s status %d: %s", m.name, res.StatusCode, truncate(raw, 300))
			continue
		}

		var out struct {
			Candidates []struct {
				Content struct {
					Parts []struct {
						Text string `json:"text"`
					} `json:"parts"`
				} `json:"content"`
			} `json:"candidates"`
		}
		if err := json.Unmarshal(raw, &out); err != nil {
			lastErr = err
			continue
		}
		if len(out.Candidates) > 0 && len(out.Candidates[0].Content.Parts) > 0 {
			return parseResult(out.Candidates[0].Content.Parts[0].Text)
		}
		lastErr = errors.New("ai: empty gemini candidate")
	}
	return nil, lastErr
}

// parseResult decodes the model output and normalizes the slices so callers
// never see null arrays.
func parseResult(content string) (*engine.Result, error) {
	var res engine.Result
	if err := json.Unmarshal([]byte(content), &res); err != nil {
		return nil, fmt.Errorf("ai: malformed plan json: %w", err)
	}
	if res.Message == "" {
		return nil, errors.New("ai: plan missing message")
	}
	if res.NewTasks == nil {
		res.NewTasks = []engine.TaskRecord{}
	}
	if res.NewClasses == nil {
		res.NewClasses = []engine.ClassRecord{}
	}
	if res.NewActivities == nil {
		res.NewActivities = []engine.ActivityRecord{}
	}
	return &res, nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
