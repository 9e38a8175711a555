package openrouter

import (
	"context"

	"github.com/forPelevin/vidsub/internal/ports/adapters/apiclient"
	"github.com/forPelevin/vidsub/internal/types"
)

const chatPath = "/api/v1/chat/completions"

var Endpoint = apiclient.Endpoint{
	EnvName:      "OPENROUTER_BASE_URL",
	AllowEnvName: "OPENROUTER_ALLOWED_HOSTS",
	DefaultURL:   "https://openrouter.ai",
	DefaultHosts: []string{"openrouter.ai", "api.openrouter.ai"},
}

type Adapter struct {
	client *apiclient.Client
	model  string
}

func New(apiKey, model, baseURL string) *Adapter {
	if model == "" {
		model = "anthropic/claude-3.5-sonnet"
	}
	return &Adapter{
		client: apiclient.New("openrouter", apiKey, Endpoint.Normalize(baseURL), 0),
		model:  model,
	}
}

func (a *Adapter) Generate(ctx context.Context, msgs []types.Message) (string, error) {
	return a.client.Chat(ctx, chatPath, a.model, msgs)
}
