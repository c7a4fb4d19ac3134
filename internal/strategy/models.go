package strategy

import (
	"fmt"

	"realestate-agent/internal/common/errors"
)

// PromptRole identifies which workflow step a prompt template serves.
type PromptRole string

const (
	RoleIntent    PromptRole = "intent"
	RoleExtract   PromptRole = "extract"
	RoleGeneralQA PromptRole = "general_qa"
)

// requiredRoles are the templates a strategy must carry to run the workflow.
var requiredRoles = []PromptRole{RoleIntent, RoleExtract, RoleGeneralQA}

// Strategy bundles an LLM provider/model choice with its prompt templates.
// Read-only during a workflow run.
type Strategy struct {
	Name     string                `json:"name"`
	Provider string                `json:"provider"`
	Model    string                `json:"model"`
	Prompts  map[PromptRole]string `json:"prompts"`
}

// Prompt returns the template for a role, or CONFIGURATION_ERROR when the
// strategy is missing it.
func (s *Strategy) Prompt(role PromptRole) (string, error) {
	p, ok := s.Prompts[role]
	if !ok || p == "" {
		return "", errors.NewConfigurationError(
			fmt.Sprintf("strategy %q has no %s prompt configured", s.Name, role))
	}
	return p, nil
}

// Validate checks that every required prompt template is present.
func (s *Strategy) Validate() error {
	var missing []string
	for _, role := range requiredRoles {
		if s.Prompts[role] == "" {
			missing = append(missing, string(role))
		}
	}
	if len(missing) > 0 {
		return errors.NewConfigurationError(
			fmt.Sprintf("strategy %q is missing prompt templates: %v", s.Name, missing))
	}
	return nil
}
