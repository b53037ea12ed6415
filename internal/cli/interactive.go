package cli

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/matzehuels/autoroute/pkg/board"
	"github.com/matzehuels/autoroute/pkg/router"
)

// interactiveCommand creates the interactive board command.
func (c *CLI) interactiveCommand() *cobra.Command {
	cfg := router.DefaultConfig()

	cmd := &cobra.Command{
		Use:     "interactive [scenario]",
		Aliases: []string{"i"},
		Short:   "Place leads and route connections in a terminal UI",
		Long: `Open an empty board (or the board of a scenario file) in a terminal UI.

Move the cursor with the arrow keys. c places a lead under the cursor, v a
via. l picks the lead under the cursor; picking a second lead queues a
connection between the two. r routes every queued connection.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				s   *router.Session
				err error
			)
			if len(args) == 1 {
				b, lerr := board.Load(args[0])
				if lerr != nil {
					return lerr
				}
				s, err = b.Build()
			} else {
				s, err = router.New(cfg)
			}
			if err != nil {
				return err
			}

			p := tea.NewProgram(NewBoardModel(cmd.Context(), s), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			final, err := p.Run()
			if err != nil {
				return fmt.Errorf("run interactive board: %w", err)
			}

			m := final.(BoardModel)
			snap := m.session.Snapshot()
			printSuccess("Board closed")
			printStats(len(snap.Routed()), 0, countFailed(m.Outcomes), false)
			return nil
		},
		ValidArgsFunction: completeScenario,
	}

	cmd.Flags().IntVar(&cfg.Width, "width", cfg.Width, "board width in cells")
	cmd.Flags().IntVar(&cfg.Height, "height", cfg.Height, "board height in cells")
	cmd.Flags().IntVar(&cfg.LeadHalfExtent, "pad", cfg.LeadHalfExtent, "lead pad half extent in cells")
	cmd.Flags().IntVarP(&cfg.Parallelism, "parallel", "p", cfg.Parallelism, "goroutines evaluating candidate endpoints")

	return cmd
}

func countFailed(outcomes []router.Outcome) int {
	n := 0
	for _, o := range outcomes {
		if o.Status == router.StatusFailed {
			n++
		}
	}
	return n
}
