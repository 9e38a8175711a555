package apiclient

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/forPelevin/vidsub/internal/types"
)

type chatRequest struct {
	Model    string          `json:"model"`
	Stream   bool            `json:"stream"`
	Messages []types.Message `json:"messages"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content any `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Chat calls an OpenAI-compatible chat completions endpoint and returns the
// first choice's content.
func (c *Client) Chat(ctx context.Context, path, model string, msgs []types.Message) (string, error) {
	var raw chatResponse
	err := c.PostJSON(ctx, path, chatRequest{Model: model, Messages: msgs}, &raw)
	if err != nil {
		return "", err
	}
	if len(raw.Choices) == 0 {
		return "", fmt.Errorf("%s: no choices in response", c.name)
	}
	return MessageContentToString(raw.Choices[0].Message.Content)
}

func MessageContentToString(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		// Some providers return an array of {type,text} parts.
		var b strings.Builder
		for _, it := range x {
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			if t, ok := m["text"].(string); ok {
				b.WriteString(t)
			}
		}
		s := b.String()
		if strings.TrimSpace(s) == "" {
			return "", errors.New("empty content")
		}
		return s, nil
	default:
		return "", fmt.Errorf("unexpected content type %T", v)
	}
}
