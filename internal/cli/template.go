package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// NewTemplateCmd создаёт группу команд для управления шаблонами.
func NewTemplateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Manage workflow templates",
	}

	cmd.AddCommand(
		newTemplateListCmd(clientFn, outputFn),
		newTemplateCreateCmd(clientFn, outputFn),
		newTemplateComposeCmd(clientFn, outputFn),
		newTemplateShowCmd(clientFn, outputFn),
		newTemplateDeleteCmd(clientFn, outputFn),
		newTemplatePlanCmd(clientFn, outputFn),
		newTemplateGraphCmd(clientFn, outputFn),
	)

	return cmd
}

func newTemplateListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all templates (catalog presets and stored)",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			templates, err := client.ListTemplates()
			if err != nil {
				return err
			}

			headers := []string{"NAME", "SOURCE", "PHASES", "STEPS", "CREATED"}
			rows := make([][]string, len(templates))
			for i, t := range templates {
				rows[i] = []string{
					t.Name, t.Source, strings.Join(t.Phases, ","),
					strconv.Itoa(len(t.Steps)), t.CreatedAt,
				}
			}

			out.Print(headers, rows, templates)
			return nil
		},
	}
}

func newTemplateCreateCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var file string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a template from a JSON file",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("failed to read template file: %w", err)
			}

			var req CreateTemplateRequest
			if err := json.Unmarshal(data, &req); err != nil {
				return fmt.Errorf("template file is not valid JSON: %w", err)
			}

			tpl, err := client.CreateTemplate(req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Template created: %s", tpl.Name))
			out.Print(
				[]string{"ID", "NAME", "PHASES", "STEPS"},
				[][]string{{tpl.ID, tpl.Name, strings.Join(tpl.Phases, ","), strconv.Itoa(len(tpl.Steps))}},
				tpl,
			)
			return nil
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Path to template JSON file (required)")
	cmd.MarkFlagRequired("file")

	return cmd
}

func newTemplateComposeCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var goal string
	var tags []string
	var save bool

	cmd := &cobra.Command{
		Use:   "compose",
		Short: "Compose a template from a goal and requirement tags",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tpl, err := client.ComposeTemplate(ComposeTemplateRequest{
				Goal: goal,
				Tags: tags,
				Save: save,
			})
			if err != nil {
				return err
			}

			if save {
				out.Success(fmt.Sprintf("Template composed and saved: %s", tpl.Name))
			} else {
				out.Success(fmt.Sprintf("Template composed: %s", tpl.Name))
			}
			printTemplateSteps(out, tpl)
			return nil
		},
	}

	cmd.Flags().StringVar(&goal, "goal", "", "Composition goal, e.g. 'feature' (required)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Requirement tag (repeatable)")
	cmd.Flags().BoolVar(&save, "save", false, "Store the composed template so it can be run by name")
	cmd.MarkFlagRequired("goal")

	return cmd
}

func newTemplateShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show REF",
		Short: "Show template steps (REF is a name or UUID)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			tpl, err := client.GetTemplate(args[0])
			if err != nil {
				return err
			}

			printTemplateSteps(out, tpl)
			return nil
		},
	}
}

func newTemplateDeleteCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "delete REF",
		Short: "Delete a stored template",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			if err := client.DeleteTemplate(args[0]); err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Template deleted: %s", args[0]))
			return nil
		},
	}
}

func newTemplatePlanCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "plan REF",
		Short: "Show the execution plan (phases and batches)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			plan, err := client.GetPlan(args[0])
			if err != nil {
				return err
			}

			headers := []string{"PHASE", "BATCH", "KIND", "STEPS"}
			var rows [][]string
			for _, phase := range plan.Plan {
				for i, batch := range phase.Batches {
					names := make([]string, len(batch.Steps))
					for j, s := range batch.Steps {
						names[j] = s.Name
					}
					rows = append(rows, []string{
						phase.Phase, strconv.Itoa(i + 1), batch.Kind, strings.Join(names, ", "),
					})
				}
			}

			out.Print(headers, rows, plan)
			return nil
		},
	}
}

func newTemplateGraphCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "graph REF",
		Short: "Show declared step dependencies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			graph, err := client.GetGraph(args[0])
			if err != nil {
				return err
			}

			preds := make([]string, 0, len(graph.Adjacency))
			for pred := range graph.Adjacency {
				preds = append(preds, pred)
			}
			sort.Strings(preds)

			headers := []string{"STEP", "UNLOCKS"}
			rows := make([][]string, len(preds))
			for i, pred := range preds {
				rows[i] = []string{pred, strings.Join(graph.Adjacency[pred], ", ")}
			}

			out.Print(headers, rows, graph)

			for _, warning := range graph.Warnings {
				out.Success("Warning: " + warning)
			}
			return nil
		},
	}
}

// printTemplateSteps выводит шаблон как таблицу его шагов.
func printTemplateSteps(out *Output, tpl *TemplateResponse) {
	headers := []string{"STEP", "PHASE", "PARALLEL"}
	rows := make([][]string, len(tpl.Steps))
	for i, s := range tpl.Steps {
		rows[i] = []string{s.Name, s.Phase, strconv.FormatBool(s.ParallelEligible)}
	}
	out.Print(headers, rows, tpl)
}
