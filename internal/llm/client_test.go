package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient(t *testing.T) {
	anthropicClient, err := NewClient(ProviderAnthropic, "cle-test")
	require.NoError(t, err)
	assert.Equal(t, "anthropic", anthropicClient.Name())

	openaiClient, err := NewClient(ProviderOpenAI, "cle-test")
	require.NoError(t, err)
	assert.Equal(t, "openai", openaiClient.Name())
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	_, err := NewClient(ProviderAnthropic, "")
	assert.Error(t, err)

	_, err = NewClient(ProviderOpenAI, "")
	assert.Error(t, err)
}
