package actions

import (
	"encoding/json"
	"strings"

	"github.com/Alejob60/meta-agent/internal/domain"
	"github.com/rs/zerolog/log"
)

const (
	openMarker  = "<ACTION>"
	closeMarker = "</ACTION>"
)

// Parser extracts structured action directives from LLM free text.
// Each <ACTION>...</ACTION> block wraps a single JSON object; a malformed
// block is logged and skipped without aborting the rest.
type Parser struct {
	registry *Registry
}

// NewParser creates a parser backed by the given schema registry
func NewParser(registry *Registry) *Parser {
	return &Parser{registry: registry}
}

type rawAction struct {
	Type   string         `json:"type"`
	Params map[string]any `json:"params"`
	Target string         `json:"target,omitempty"`
}

// ParseActions extracts and validates all action blocks in the response.
// Validation failures for a recognized type discard that action only.
func (p *Parser) ParseActions(responseText string) []domain.Action {
	actions := []domain.Action{}

	for _, block := range extractBlocks(responseText) {
		var raw rawAction
		if err := json.Unmarshal([]byte(block), &raw); err != nil {
			log.Warn().Err(err).Str("block", truncate(block, 120)).Msg("skipping unparseable action block")
			continue
		}

		action := domain.Action{
			Type:   raw.Type,
			Params: raw.Params,
			Status: domain.ActionPending,
			Target: raw.Target,
		}
		if action.Target == "" {
			action.Target = p.registry.DefaultTarget(action.Type)
		}

		if result := p.registry.Validate(action); !result.Valid {
			log.Warn().
				Str("type", action.Type).
				Strs("errors", result.Errors).
				Msg("discarding action that failed schema validation")
			continue
		}

		actions = append(actions, action)
	}

	return actions
}

// ExtractClean returns the response with all action blocks removed and
// surrounding whitespace trimmed. This is the user-visible text.
func (p *Parser) ExtractClean(responseText string) string {
	out := responseText
	for {
		start := strings.Index(out, openMarker)
		if start == -1 {
			break
		}
		end := strings.Index(out[start:], closeMarker)
		if end == -1 {
			// Unterminated block: drop everything from the marker on
			out = out[:start]
			break
		}
		out = out[:start] + out[start+end+len(closeMarker):]
	}
	return strings.TrimSpace(out)
}

// ValidateParams checks a constructed action without going through text
// extraction
func (p *Parser) ValidateParams(action domain.Action) domain.ActionValidation {
	return p.registry.Validate(action)
}

// extractBlocks returns the JSON payloads of all well-formed action blocks
// in order of appearance
func extractBlocks(text string) []string {
	var blocks []string
	rest := text
	for {
		start := strings.Index(rest, openMarker)
		if start == -1 {
			break
		}
		rest = rest[start+len(openMarker):]

		end := strings.Index(rest, closeMarker)
		if end == -1 {
			break
		}
		blocks = append(blocks, strings.TrimSpace(rest[:end]))
		rest = rest[end+len(closeMarker):]
	}
	return blocks
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
