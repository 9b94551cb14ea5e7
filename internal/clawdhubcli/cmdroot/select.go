package cmdroot

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"

	"github.com/clawdhub/clawdhub/internal/clawdhubcli/planner"
)

// selectItems prompts the user to choose which plan items to publish,
// grounded on stigmer-stigmer/client-apps/cli's survey.MultiSelect usage in
// its interactive workflow selection steps.
func selectItems(items []planner.PlanItem) ([]planner.PlanItem, error) {
	labels := make([]string, len(items))
	byLabel := make(map[string]planner.PlanItem, len(items))
	for i, item := range items {
		label := fmt.Sprintf("%s (%s)", item.Skill.Slug, item.Status)
		labels[i] = label
		byLabel[label] = item
	}

	var chosen []string
	prompt := &survey.MultiSelect{
		Message: "Select skills to publish:",
		Options: labels,
		Default: labels,
	}
	if err := survey.AskOne(prompt, &chosen); err != nil {
		return nil, fmt.Errorf("read selection prompt: %w", err)
	}

	selected := make([]planner.PlanItem, 0, len(chosen))
	for _, label := range chosen {
		selected = append(selected, byLabel[label])
	}
	return selected, nil
}
