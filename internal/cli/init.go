package cli

import (
	"bytes"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/matzehuels/autoroute/pkg/board"
)

// initCommand creates the init command, which writes an example scenario.
func (c *CLI) initCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write an example scenario file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "board.toml"
			if len(args) == 1 {
				path = args[0]
			}
			if err := writeExample(path, force); err != nil {
				return err
			}
			printSuccess("Wrote example scenario")
			printFile(path)
			printNewline()
			printNextStep("Route it", fmt.Sprintf("%s route %s", appName, path))
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func writeExample(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
	}
	var buf bytes.Buffer
	if err := board.Example().Encode(&buf); err != nil {
		return fmt.Errorf("encode example: %w", err)
	}
	return writeArtifact(path, buf.Bytes())
}
