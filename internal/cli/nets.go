package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoroute/pkg/board"
	"github.com/matzehuels/autoroute/pkg/errors"
	"github.com/matzehuels/autoroute/pkg/pipeline"
	"github.com/matzehuels/autoroute/pkg/render"
	"github.com/matzehuels/autoroute/pkg/router"
)

var tableHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

// netsCommand creates the nets command.
func (c *CLI) netsCommand() *cobra.Command {
	var noCache bool

	cmd := &cobra.Command{
		Use:   "nets [scenario]",
		Short: "Route a scenario and list its electrical nets and connections",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runNets(cmd.Context(), args[0], noCache)
		},
		ValidArgsFunction: completeScenario,
	}
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable the route cache")
	return cmd
}

func (c *CLI) runNets(ctx context.Context, input string, noCache bool) error {
	b, err := board.Load(input)
	if err != nil {
		return err
	}
	runner, err := c.newRunner(noCache)
	if err != nil {
		return err
	}
	defer runner.Close()

	prog := newProgress(c.Logger)
	res, err := runner.Execute(ctx, pipeline.Options{
		Board:   b,
		Formats: []string{render.FormatJSON},
		Logger:  c.Logger,
	})
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Routed %d connections", len(res.Outcomes)))

	fmt.Println(StyleTitle.Render("Nets"))
	fmt.Println(netsTable(res.Snapshot))
	printNewline()
	fmt.Println(StyleTitle.Render("Connections"))
	fmt.Println(connectionsTable(res.Snapshot, res.Outcomes))
	return nil
}

// netsTable lists every net with its leads.
func netsTable(snap *router.Snapshot) string {
	rows := make([][]string, 0, len(snap.Nets))
	for _, n := range snap.Nets {
		names := make([]string, 0, len(n.Leads))
		for _, id := range n.Leads {
			names = append(names, leadName(snap, id))
		}
		rows = append(rows, []string{fmt.Sprint(n.ID), fmt.Sprint(len(n.Leads)), strings.Join(names, ", ")})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Net", "Leads", "Members").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			if col == 0 || col == 1 {
				return lipgloss.NewStyle().Foreground(colorCyan).Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Render()
}

// connectionsTable lists every routing outcome in request order.
func connectionsTable(snap *router.Snapshot, outcomes []router.Outcome) string {
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		detail := ""
		switch o.Status {
		case router.StatusRouted:
			detail = fmt.Sprintf("%d segments, %d cells", len(o.Lines), len(o.NewObstacles))
		case router.StatusFailed:
			detail = string(errors.GetCode(o.Err))
		}
		rows = append(rows, []string{
			leadName(snap, o.Start),
			leadName(snap, o.End),
			string(o.Status),
			fmt.Sprintf("%.1f", o.Length),
			detail,
		})
	}

	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("From", "To", "Status", "Length", "Detail").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return tableHeaderStyle
			}
			base := lipgloss.NewStyle().Padding(0, 1)
			if col != 2 || row < 0 || row >= len(outcomes) {
				return base
			}
			switch outcomes[row].Status {
			case router.StatusRouted:
				return base.Foreground(colorGreen)
			case router.StatusFailed:
				return base.Foreground(colorRed)
			}
			return base.Foreground(colorGray)
		}).
		Render()
}
