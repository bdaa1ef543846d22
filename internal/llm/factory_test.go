package llm

import (
	"errors"
	"strings"
	"testing"

	"github.com/samsaffron/mdstream/internal/config"
)

func TestParseProviderModel(t *testing.T) {
	tests := []struct {
		in           string
		wantProvider string
		wantModel    string
		wantErr      error
	}{
		{"anthropic", "anthropic", "", nil},
		{"openai:gpt-4o", "openai", "gpt-4o", nil},
		{" gemini : gemini-2.5-flash ", "gemini", "gemini-2.5-flash", nil},
		{"bogus:x", "", "", ErrUnknownProvider},
	}
	for _, tt := range tests {
		provider, model, err := ParseProviderModel(tt.in)
		if tt.wantErr != nil {
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("ParseProviderModel(%q) err = %v, want %v", tt.in, err, tt.wantErr)
			}
			continue
		}
		if err != nil || provider != tt.wantProvider || model != tt.wantModel {
			t.Errorf("ParseProviderModel(%q) = %q, %q, %v", tt.in, provider, model, err)
		}
	}

	if _, _, err := ParseProviderModel(":model"); err == nil {
		t.Error("empty provider accepted")
	}
}

func TestNewProvider(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.Config
		wantErr  error
		wantName string
	}{
		{
			name:    "missing anthropic key",
			cfg:     config.Config{Provider: "anthropic"},
			wantErr: ErrNoAPIKey,
		},
		{
			name:     "anthropic",
			cfg:      config.Config{Provider: "anthropic", Anthropic: config.AnthropicConfig{APIKey: "k", Model: "claude-sonnet-4-5"}},
			wantName: "Anthropic (claude-sonnet-4-5)",
		},
		{
			name:     "openai compatible without key",
			cfg:      config.Config{Provider: "openai", OpenAI: config.OpenAIConfig{Model: "llama", BaseURL: "http://localhost:11434/v1"}},
			wantName: "OpenAI (llama)",
		},
		{
			name:    "missing openai key",
			cfg:     config.Config{Provider: "openai"},
			wantErr: ErrNoAPIKey,
		},
		{
			name:     "gemini",
			cfg:      config.Config{Provider: "gemini", Gemini: config.GeminiConfig{APIKey: "k", Model: "gemini-3-flash-preview"}},
			wantName: "Gemini (gemini-3-flash-preview)",
		},
		{
			name:    "unknown",
			cfg:     config.Config{Provider: "zen"},
			wantErr: ErrUnknownProvider,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := NewProvider(&tt.cfg)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if _, ok := p.(*RetryProvider); !ok {
				t.Errorf("provider %T not wrapped with retry", p)
			}
			if !strings.EqualFold(p.Name(), tt.wantName) {
				t.Errorf("Name() = %q, want %q", p.Name(), tt.wantName)
			}
		})
	}
}
