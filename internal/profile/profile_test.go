package profile

import (
	"os"
	"testing"
)

func TestFromEnvDefaults(t *testing.T) {
	clearEnvVars()

	profile := &Profile{}
	profile.FromEnv()

	if profile.LLMProvider != "openai" {
		t.Errorf("LLMProvider: expected %q, got %q", "openai", profile.LLMProvider)
	}
	if profile.LLMBaseURL != "https://api.openai.com/v1" {
		t.Errorf("LLMBaseURL: expected provider default, got %q", profile.LLMBaseURL)
	}
	if profile.LLMModel != "gpt-4o-mini" {
		t.Errorf("LLMModel: expected provider default, got %q", profile.LLMModel)
	}
	if profile.LLMTimeout != 30 {
		t.Errorf("LLMTimeout: expected 30, got %d", profile.LLMTimeout)
	}
	if profile.IsFallbackEnabled() {
		t.Error("IsFallbackEnabled: expected false without an API key")
	}
}

func TestFromEnvOverrides(t *testing.T) {
	tests := []struct {
		name     string
		envVar   string
		envValue string
		field    func(*Profile) string
		expected string
	}{
		{
			name:     "provider override",
			envVar:   "INTENTGATE_LLM_PROVIDER",
			envValue: "deepseek",
			field:    func(p *Profile) string { return p.LLMProvider },
			expected: "deepseek",
		},
		{
			name:     "api key",
			envVar:   "INTENTGATE_LLM_API_KEY",
			envValue: "test-key",
			field:    func(p *Profile) string { return p.LLMAPIKey },
			expected: "test-key",
		},
		{
			name:     "base url override wins over provider default",
			envVar:   "INTENTGATE_LLM_BASE_URL",
			envValue: "http://proxy.internal/v1",
			field:    func(p *Profile) string { return p.LLMBaseURL },
			expected: "http://proxy.internal/v1",
		},
		{
			name:     "unknown provider falls back to openai",
			envVar:   "INTENTGATE_LLM_PROVIDER",
			envValue: "no-such-provider",
			field:    func(p *Profile) string { return p.LLMProvider },
			expected: "openai",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnvVars()
			os.Setenv(tt.envVar, tt.envValue)
			defer clearEnvVars()

			profile := &Profile{}
			profile.FromEnv()

			actual := tt.field(profile)
			if actual != tt.expected {
				t.Errorf("%s: expected %q, got %q", tt.name, tt.expected, actual)
			}
		})
	}
}

func TestValidateDriverDefaults(t *testing.T) {
	profile := &Profile{Mode: "dev", Driver: "bogus"}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if profile.Driver != "memory" {
		t.Errorf("Driver: expected fallback to memory, got %q", profile.Driver)
	}
}

func TestValidateSQLiteDSN(t *testing.T) {
	dir := t.TempDir()
	profile := &Profile{Mode: "dev", Driver: "sqlite", Data: dir}
	if err := profile.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if profile.DSN == "" {
		t.Error("DSN: expected a derived sqlite path")
	}
}

func TestIsFallbackEnabled(t *testing.T) {
	tests := []struct {
		name     string
		profile  Profile
		expected bool
	}{
		{"no key", Profile{LLMProvider: "openai"}, false},
		{"with key", Profile{LLMProvider: "openai", LLMAPIKey: "k"}, true},
		{"ollama needs no key", Profile{LLMProvider: "ollama"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.profile.IsFallbackEnabled(); got != tt.expected {
				t.Errorf("IsFallbackEnabled(): expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func clearEnvVars() {
	prefix := "INTENTGATE_LLM_"
	suffixes := []string{
		"PROVIDER",
		"API_KEY",
		"BASE_URL",
		"MODEL",
		"TIMEOUT_SECONDS",
	}
	for _, suffix := range suffixes {
		os.Unsetenv(prefix + suffix)
	}
	os.Unsetenv("INTENTGATE_ROUTER_CONFIG")
}
