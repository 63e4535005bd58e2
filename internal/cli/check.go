package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pystudio/pystudio/pkg/syntax"
)

// checkCommand creates the check command.
func (c *CLI) checkCommand() *cobra.Command {
	var (
		projectDir string
		asJSON     bool
	)

	cmd := &cobra.Command{
		Use:   "check <script>",
		Short: "Structurally pre-check a script",
		Long: `Check scans a script for the structural problems that stop the
interpreter before the first statement runs: unbalanced brackets,
unterminated strings, and compound statements missing their colon.
A clean result does not guarantee the interpreter accepts the file.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := c.newEngine(true)
			p, err := eng.OpenProject(projectDir)
			if err != nil {
				return err
			}

			problems, err := eng.CheckFile(p, args[0])
			if err != nil {
				return err
			}

			if asJSON {
				if problems == nil {
					problems = []syntax.Problem{}
				}
				return json.NewEncoder(os.Stdout).Encode(problems)
			}

			if len(problems) == 0 {
				printSuccess("%s looks structurally sound", args[0])
				return nil
			}
			for _, prob := range problems {
				pos := fmt.Sprintf("line %d", prob.Line)
				if prob.Col > 0 {
					pos += fmt.Sprintf(", col %d", prob.Col)
				}
				printError("%s: %s", StyleHighlight.Render(pos), prob.Message)
			}
			return fmt.Errorf("%d structural problems in %s", len(problems), args[0])
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "project directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit problems as JSON")

	return cmd
}
