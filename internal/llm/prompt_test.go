package llm

import (
	"strings"
	"testing"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildMessages_Ordering(t *testing.T) {
	in := PromptInput{
		Policy: domain.TenantPolicy{BusinessName: "Zapateria Luna"},
		RecentTurns: []domain.ConversationTurn{
			{Role: domain.RoleUser, Text: "hola"},
			{Role: domain.RoleAgent, Text: "hola, bienvenida"},
		},
		UserMessage: "quiero botas",
	}

	messages := BuildMessages(in)

	require.GreaterOrEqual(t, len(messages), 4)
	assert.Equal(t, RoleSystem, messages[0].Role)
	assert.Contains(t, messages[0].Content, "Zapateria Luna")

	last := messages[len(messages)-1]
	assert.Equal(t, RoleUser, last.Role)
	assert.Equal(t, "quiero botas", last.Content)

	// recent turns in chronological order, mapped to chat roles
	assert.Equal(t, RoleUser, messages[len(messages)-3].Role)
	assert.Equal(t, "hola", messages[len(messages)-3].Content)
	assert.Equal(t, RoleAssistant, messages[len(messages)-2].Role)
}

func TestBuildMessages_SystemPromptCarriesActionInstruction(t *testing.T) {
	messages := BuildMessages(PromptInput{UserMessage: "hola"})
	assert.Contains(t, messages[0].Content, "<ACTION>")
	assert.Contains(t, messages[0].Content, "</ACTION>")
}

func TestBuildMessages_PolicyFields(t *testing.T) {
	messages := BuildMessages(PromptInput{
		Policy: domain.TenantPolicy{
			BusinessName:     "Clinica Sonrisa",
			BusinessProfile:  "dental clinic in Medellin",
			Tone:             "warm and professional",
			Language:         "es",
			ProhibitedTopics: []string{"pricing of competitors", "medical diagnoses"},
		},
		UserMessage: "hola",
	})

	system := messages[0].Content
	assert.Contains(t, system, "Clinica Sonrisa")
	assert.Contains(t, system, "dental clinic in Medellin")
	assert.Contains(t, system, "warm and professional")
	assert.Contains(t, system, "pricing of competitors, medical diagnoses")
}

func TestBuildMessages_ContextMessage(t *testing.T) {
	in := PromptInput{
		Summary: "user: hola | agent: buenas",
		Short: domain.ShortContext{
			ConversationState: domain.StateCollectingInfo,
			Facts:             map[string]any{"name": "Ana", "product": "botas"},
		},
		Documents: []domain.RetrievedDocument{
			{Text: "Botas de cuero, ref botas-001", Score: 0.9},
		},
		UserMessage: "cuanto cuestan",
	}

	messages := BuildMessages(in)
	require.GreaterOrEqual(t, len(messages), 3)

	ctxMsg := messages[1]
	assert.Equal(t, RoleSystem, ctxMsg.Role)
	assert.Contains(t, ctxMsg.Content, "user: hola | agent: buenas")
	assert.Contains(t, ctxMsg.Content, string(domain.StateCollectingInfo))
	assert.Contains(t, ctxMsg.Content, "Botas de cuero")

	// facts serialize in sorted key order
	nameIdx := strings.Index(ctxMsg.Content, "name: Ana")
	productIdx := strings.Index(ctxMsg.Content, "product: botas")
	require.NotEqual(t, -1, nameIdx)
	require.NotEqual(t, -1, productIdx)
	assert.Less(t, nameIdx, productIdx)
}

func TestBuildMessages_Deterministic(t *testing.T) {
	in := PromptInput{
		Short: domain.ShortContext{
			Facts: map[string]any{"z": 1, "a": 2, "m": 3},
		},
		UserMessage: "hola",
	}

	first := BuildMessages(in)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, BuildMessages(in))
	}
}

func TestBuildMessages_NoContextMessageWhenEmpty(t *testing.T) {
	messages := BuildMessages(PromptInput{UserMessage: "hola"})
	require.Len(t, messages, 2)
	assert.Equal(t, RoleSystem, messages[0].Role)
	assert.Equal(t, RoleUser, messages[1].Role)
}
