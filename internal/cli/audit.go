package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pystudio/pystudio/pkg/engine"
)

// auditCommand creates the audit command.
func (c *CLI) auditCommand() *cobra.Command {
	var (
		projectDir string
		asJSON     bool
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "audit [script]",
		Short: "Report which imported distributions are missing",
		Long: `Audit scans import statements, resolves each import to the distribution
that provides it, and checks the project's virtual environment for it.
With a script argument only that file is scanned; otherwise every Python
file in the project is.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := c.newEngine(noCache)
			p, err := eng.OpenProject(projectDir)
			if err != nil {
				return err
			}

			prog := newProgress(c.Logger)
			var report *engine.Report
			if len(args) == 1 {
				report, err = eng.AuditFile(cmd.Context(), p, args[0])
			} else {
				report, err = eng.AuditProject(cmd.Context(), p)
			}
			if err != nil {
				return err
			}
			prog.done(fmt.Sprintf("Audited %d imports", len(report.Dependencies)))

			if asJSON {
				return json.NewEncoder(os.Stdout).Encode(report)
			}
			printReport(report)
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "project directory")
	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the package-snapshot cache")

	return cmd
}

// printReport renders an audit report for humans.
func printReport(report *engine.Report) {
	if report.EnvState != "ready" {
		printWarning("environment is %s", report.EnvState)
		if report.EnvState == "absent" {
			printNextStep("Create one", "pystudio env create")
		}
	}

	if len(report.Dependencies) == 0 {
		printInfo("No external imports found")
		return
	}

	for _, d := range report.Dependencies {
		printDependency(d.ImportName, d.Distribution, string(d.Status), d.Version)
	}

	printNewline()
	if len(report.Missing) == 0 {
		printSuccess("All dependencies installed")
		return
	}
	printError("%d missing", len(report.Missing))
	printNextStep("Install them", "pystudio install")
}
