package llm

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Alejob60/meta-agent/internal/domain"
)

// PromptInput bundles everything the prompt builder needs. BuildMessages is
// deterministic for identical inputs and performs no I/O.
type PromptInput struct {
	Policy      domain.TenantPolicy
	Summary     string
	Short       domain.ShortContext
	Documents   []domain.RetrievedDocument
	RecentTurns []domain.ConversationTurn
	UserMessage string
}

// BuildMessages assembles the ordered message list for the chat call:
// system persona first, then retrieved context, then recent turns in
// chronological order, then the current user message last.
func BuildMessages(in PromptInput) []Message {
	messages := []Message{{Role: RoleSystem, Content: buildSystemPrompt(in)}}

	if ctxMsg := buildContextMessage(in); ctxMsg != "" {
		messages = append(messages, Message{Role: RoleSystem, Content: ctxMsg})
	}

	for _, turn := range in.RecentTurns {
		role := RoleUser
		if turn.Role == domain.RoleAgent {
			role = RoleAssistant
		}
		messages = append(messages, Message{Role: role, Content: turn.Text})
	}

	messages = append(messages, Message{Role: RoleUser, Content: in.UserMessage})

	return messages
}

func buildSystemPrompt(in PromptInput) string {
	var b strings.Builder

	name := in.Policy.BusinessName
	if name == "" {
		name = "the business"
	}
	fmt.Fprintf(&b, "You are the virtual assistant for %s.\n", name)

	if in.Policy.BusinessProfile != "" {
		fmt.Fprintf(&b, "Business profile: %s\n", in.Policy.BusinessProfile)
	}
	if in.Policy.Tone != "" {
		fmt.Fprintf(&b, "Tone: %s\n", in.Policy.Tone)
	}
	if in.Policy.Language != "" {
		fmt.Fprintf(&b, "Respond in: %s\n", in.Policy.Language)
	}
	if len(in.Policy.ProhibitedTopics) > 0 {
		fmt.Fprintf(&b, "Never discuss: %s\n", strings.Join(in.Policy.ProhibitedTopics, ", "))
	}

	b.WriteString("\nWhen the user asks for something that requires a side effect ")
	b.WriteString("(creating an order, scheduling, escalating to a human), emit it as ")
	b.WriteString(`<ACTION>{"type": "...", "params": {...}}</ACTION> after your reply text.`)
	b.WriteString("\nEmit one JSON object per ACTION block.")

	return b.String()
}

func buildContextMessage(in PromptInput) string {
	var b strings.Builder

	if in.Summary != "" {
		fmt.Fprintf(&b, "Conversation so far: %s\n", in.Summary)
	}

	if in.Short.ConversationState != "" {
		fmt.Fprintf(&b, "Conversation state: %s\n", in.Short.ConversationState)
	}
	if len(in.Short.Facts) > 0 {
		b.WriteString("Known facts:\n")
		for _, k := range sortedKeys(in.Short.Facts) {
			fmt.Fprintf(&b, "- %s: %v\n", k, in.Short.Facts[k])
		}
	}

	if len(in.Documents) > 0 {
		b.WriteString("Relevant knowledge:\n")
		for i, doc := range in.Documents {
			fmt.Fprintf(&b, "[%d] %s\n", i+1, doc.Text)
		}
	}

	return strings.TrimSpace(b.String())
}

// sortedKeys keeps fact serialization deterministic across calls
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
