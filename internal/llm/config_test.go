package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_GetModel(t *testing.T) {
	tests := []struct {
		name   string
		models map[ModelTier]string
		tier   ModelTier
		want   string
	}{
		{"exact tier", map[ModelTier]string{TierAdvanced: "pro", TierStandard: "flash"}, TierAdvanced, "pro"},
		{"falls back to standard", map[ModelTier]string{TierStandard: "flash", TierLite: "lite"}, TierAdvanced, "flash"},
		{"falls back to lite", map[ModelTier]string{TierLite: "lite"}, "unknown", "lite"},
		{"nothing configured", map[ModelTier]string{}, TierAdvanced, ""},
		{"nil map", nil, TierLite, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := &Config{Provider: ProviderGemini, Models: tt.models}
			assert.Equal(t, tt.want, cfg.GetModel(tt.tier))
		})
	}
}

func TestDefaultConfig_CoversEveryTier(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, ProviderGemini, cfg.Provider)
	for _, tier := range []ModelTier{TierLite, TierStandard, TierAdvanced} {
		assert.Contains(t, cfg.Models, tier)
		assert.Contains(t, cfg.GetModel(tier), "gemini")
	}
}

func TestConfig_CopiesDoNotShareModels(t *testing.T) {
	base := DefaultConfig()
	pro := base.GetModel(TierAdvanced)

	custom := base.WithModel(TierAdvanced, "custom-model").WithProvider(ProviderADK)

	assert.Equal(t, pro, base.GetModel(TierAdvanced))
	assert.Equal(t, ProviderGemini, base.Provider)
	assert.Equal(t, "custom-model", custom.GetModel(TierAdvanced))
	assert.Equal(t, ProviderADK, custom.Provider)
	assert.Equal(t, base.GetModel(TierLite), custom.GetModel(TierLite))
	assert.InDelta(t, base.Temperature, custom.Temperature, 1e-9)

	empty := (&Config{}).WithModel(TierLite, "lite")
	assert.Equal(t, "lite", empty.GetModel(TierAdvanced))
}

func TestParseProvider(t *testing.T) {
	tests := []struct {
		in      string
		want    Provider
		wantErr bool
	}{
		{in: "", want: ProviderGemini},
		{in: "gemini", want: ProviderGemini},
		{in: "genai", want: ProviderGenAI},
		{in: "adk", want: ProviderADK},
		{in: "openai", wantErr: true},
		{in: "Gemini", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseProvider(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewClient_RequiresAPIKey(t *testing.T) {
	for _, p := range []Provider{ProviderGemini, ProviderGenAI, ProviderADK} {
		t.Run(string(p), func(t *testing.T) {
			_, err := NewClient(t.Context(), DefaultConfig().WithProvider(p), "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), "API key is required")
		})
	}
}
