package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// NewRunCmd создаёт группу команд для управления runs.
func NewRunCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Manage runs",
	}

	cmd.AddCommand(
		newRunListCmd(clientFn, outputFn),
		newRunStartCmd(clientFn, outputFn),
		newRunShowCmd(clientFn, outputFn),
		newRunStepsCmd(clientFn, outputFn),
		newRunReportCmd(clientFn, outputFn),
	)

	return cmd
}

func newRunListCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var template string
	var status string
	var limit int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			runs, err := client.ListRuns(ListRunsOpts{
				Template: template,
				Status:   status,
				Limit:    limit,
			})
			if err != nil {
				return err
			}

			headers := []string{"ID", "TEMPLATE", "STATUS", "CREATED"}
			rows := make([][]string, len(runs))
			for i, r := range runs {
				rows[i] = []string{r.ID, r.TemplateName, r.Status, r.CreatedAt}
			}

			out.Print(headers, rows, runs)
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "Filter by template name")
	cmd.Flags().StringVar(&status, "status", "", "Filter by status (PENDING, RUNNING, COMPLETED, FAILED)")
	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results")

	return cmd
}

func newRunStartCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	var inputs []string
	var critical []string

	cmd := &cobra.Command{
		Use:   "start REF",
		Short: "Queue a run of a template (REF is a name or UUID)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			req := CreateRunRequest{
				CriticalPhases: critical,
			}

			if len(inputs) > 0 {
				req.Inputs = make(map[string]any)
				for _, kv := range inputs {
					parts := strings.SplitN(kv, "=", 2)
					if len(parts) != 2 {
						return fmt.Errorf("invalid input format %q, expected KEY=VALUE", kv)
					}
					req.Inputs[parts[0]] = parts[1]
				}
			}

			run, err := client.CreateRun(args[0], req)
			if err != nil {
				return err
			}

			out.Success(fmt.Sprintf("Run queued: %s", run.ID))
			out.Print(
				[]string{"ID", "TEMPLATE", "STATUS", "CREATED"},
				[][]string{{run.ID, run.TemplateName, run.Status, run.CreatedAt}},
				run,
			)
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&inputs, "input", nil, "Input values as KEY=VALUE (repeatable)")
	cmd.Flags().StringSliceVar(&critical, "critical", nil, "Override critical phases for this run (repeatable)")

	return cmd
}

func newRunShowCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "show ID",
		Short: "Show run details",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			out.Print(
				[]string{"ID", "TEMPLATE", "STATUS", "PHASE", "ERROR", "CREATED"},
				[][]string{{run.ID, run.TemplateName, run.Status, run.CurrentPhase, run.Error, run.CreatedAt}},
				run,
			)
			return nil
		},
	}
}

func newRunStepsCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "steps RUN_ID",
		Short: "List step results of a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			run, err := client.GetRun(args[0])
			if err != nil {
				return err
			}

			headers := []string{"STEP", "PHASE", "OK", "ERROR"}
			var rows [][]string
			// Phases хранит порядок входа в фазы, по нему и обходим
			for _, phase := range run.Phases {
				for _, res := range run.ResultsByPhase[phase] {
					rows = append(rows, []string{
						res.StepName, res.Phase, strconv.FormatBool(res.Success), res.Error,
					})
				}
			}

			out.Print(headers, rows, run.ResultsByPhase)
			return nil
		},
	}
}

func newRunReportCmd(clientFn func() *Client, outputFn func() *Output) *cobra.Command {
	return &cobra.Command{
		Use:   "report RUN_ID",
		Short: "Show the report of a finished run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client := clientFn()
			out := outputFn()

			report, err := client.GetRunReport(args[0])
			if err != nil {
				return err
			}

			headers := []string{"PHASE", "STEPS", "OK", "FAILED"}
			rows := make([][]string, len(report.PerPhase))
			for i, p := range report.PerPhase {
				rows[i] = []string{
					p.Phase, strconv.Itoa(p.StepCount),
					strconv.Itoa(p.SuccessCount), strconv.Itoa(p.ErrorCount),
				}
			}

			out.Success(fmt.Sprintf("Run %s: %s, %d/%d steps succeeded in %s",
				report.RunID, report.Status,
				report.TotalSuccesses, report.TotalSteps,
				time.Duration(report.Duration),
			))
			out.Print(headers, rows, report)
			return nil
		},
	}
}
