package llm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewService(t *testing.T) {
	tests := []struct {
		name        string
		cfg         *Config
		expectError bool
	}{
		{
			name: "huggingface config",
			cfg: &Config{
				Provider: "huggingface",
				Model:    "m42-health/Llama3-Med42-8B",
				APIKey:   "hf_test",
			},
		},
		{
			name: "openai config",
			cfg: &Config{
				Provider:    "openai",
				Model:       "gpt-4o-mini",
				APIKey:      "test-key",
				MaxTokens:   800,
				Temperature: 0.2,
			},
		},
		{
			name: "ollama needs no api key",
			cfg: &Config{
				Provider: "ollama",
				Model:    "llama3.1",
			},
		},
		{
			name: "custom openai-compatible provider",
			cfg: &Config{
				Provider: "vllm",
				Model:    "custom-model",
				APIKey:   "test-key",
				BaseURL:  "http://localhost:8080/v1",
			},
		},
		{
			name: "missing api key",
			cfg: &Config{
				Provider: "huggingface",
				Model:    "m42-health/Llama3-Med42-8B",
			},
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, err := NewService(tt.cfg)
			if tt.expectError {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.NotNil(t, svc)
		})
	}
}

func TestNewServiceDefaults(t *testing.T) {
	svc, err := NewService(&Config{
		Provider: "huggingface",
		Model:    "m42-health/Llama3-Med42-8B",
		APIKey:   "hf_test",
	})
	require.NoError(t, err)

	impl, ok := svc.(*service)
	require.True(t, ok)
	require.Equal(t, 400, impl.maxTokens)
	require.InDelta(t, 0.5, float64(impl.temperature), 1e-6)
	require.Equal(t, 120, impl.timeout)
	require.Nil(t, impl.limiter, "no limiter without a rate limit")
}

func TestNewServiceRateLimiter(t *testing.T) {
	svc, err := NewService(&Config{
		Provider:          "openai",
		Model:             "gpt-4o-mini",
		APIKey:            "test-key",
		RequestsPerMinute: 30,
	})
	require.NoError(t, err)

	impl := svc.(*service)
	require.NotNil(t, impl.limiter)
}

func TestMessageHelpers(t *testing.T) {
	system := SystemPrompt("be helpful")
	require.Equal(t, "system", system.Role)
	require.Equal(t, "be helpful", system.Content)

	user := UserMessage("summarize this")
	require.Equal(t, "user", user.Role)

	converted := convertMessages([]Message{system, user})
	require.Len(t, converted, 2)
	require.Equal(t, "system", converted[0].Role)
	require.Equal(t, "summarize this", converted[1].Content)
}
