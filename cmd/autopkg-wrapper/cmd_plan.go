package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"autopkgwrapper/internal/batching"
)

var (
	planTitleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D56F4")).
			Bold(true)
	planBatchStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#04B575")).
			Bold(true)
	planRecipeStyle = lipgloss.NewStyle().
			PaddingLeft(2)
	planMutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#626262"))
)

func newPlanCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "plan [recipe...]",
		Short: "Show the execution batches without running anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			recipes, ordered, err := planRecipes(a.cfg, args)
			if err != nil {
				return err
			}
			batches := batching.Describe(batching.Build(recipes, ordered))
			fmt.Fprint(cmd.OutOrStdout(), renderPlan(batches, a.cfg.Autopkg.Concurrency))
			return nil
		},
	}
}

func renderPlan(batches []batching.Description, concurrency int) string {
	var b strings.Builder
	total := 0
	for _, d := range batches {
		total += d.Count
	}
	b.WriteString(planTitleStyle.Render(fmt.Sprintf("%d recipe(s) in %d batch(es)", total, len(batches))))
	b.WriteString(" ")
	b.WriteString(planMutedStyle.Render(fmt.Sprintf("(concurrency %d)", concurrency)))
	b.WriteString("\n")

	for i, d := range batches {
		typ := d.Type
		if typ == "" {
			typ = "(no type)"
		}
		b.WriteString("\n")
		b.WriteString(planBatchStyle.Render(fmt.Sprintf("Batch %d: %s", i+1, typ)))
		b.WriteString(" ")
		b.WriteString(planMutedStyle.Render(fmt.Sprintf("[%d]", d.Count)))
		b.WriteString("\n")
		for _, r := range d.Recipes {
			b.WriteString(planRecipeStyle.Render(r))
			b.WriteString("\n")
		}
	}
	return b.String()
}
