package prompt

import (
	"fmt"
	"strings"

	"github.com/0xcro3dile/ragroute/internal/domain/entities"
)

// Assembler builds the final prompt from tenant configuration, context and query.
type Assembler struct{}

// NewAssembler creates an Assembler.
func NewAssembler() *Assembler {
	return &Assembler{}
}

// Assemble composes the prompt. A failed config lookup selects the default
// system message; an unknown persona is treated as an empty one. With no
// documents the prompt carries a canned answer and no context section.
func (a *Assembler) Assemble(
	query, tenantID, personaID string,
	lookup entities.TenantConfigResult,
	docs []string,
) entities.AssembledPrompt {
	out := entities.AssembledPrompt{
		TenantID:  tenantID,
		PersonaID: personaID,
	}

	var system string
	if cfg, ok := lookup.Config(); ok {
		system = SystemMessage(cfg, personaID)
		out.UsedExternalConfig = true
	} else {
		system = DefaultSystemMessage
	}

	var sb strings.Builder
	sb.WriteString(system)

	if len(docs) == 0 {
		sb.WriteString("\n\nQuestion: ")
		sb.WriteString(query)
		sb.WriteString("\n\nAnswer: ")
		sb.WriteString(NoContextAnswer)
		out.Text = sb.String()
		return out
	}

	sb.WriteString("\n\n")
	sb.WriteString(ContextHeader)
	sb.WriteString("\n")
	sb.WriteString(strings.Join(docs, "\n\n"))
	sb.WriteString("\n\nQuestion: ")
	sb.WriteString(query)
	sb.WriteString("\n\nAnswer:")

	out.Text = sb.String()
	out.HasContext = true
	out.ContextCount = len(docs)
	return out
}

// SystemMessage renders the tenant system message with its few-shot examples.
func SystemMessage(cfg entities.TenantConfig, personaID string) string {
	additional := cfg.Persona(personaID).AdditionalContext
	if additional == "" {
		additional = DefaultPersonaContext
	}

	return fmt.Sprintf(tenantSystemTemplate,
		cfg.CompanyName,
		cfg.Industry,
		cfg.Tone,
		cfg.SpecialInstructions,
		personaID,
		additional,
	) + fmt.Sprintf(fewShotTemplate, cfg.CompanyName)
}
