package cli

import (
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pystudio/pystudio/pkg/errors"
)

// installCommand creates the install command.
func (c *CLI) installCommand() *cobra.Command {
	var (
		projectDir string
		noCache    bool
		quiet      bool
	)

	cmd := &cobra.Command{
		Use:   "install [distribution...]",
		Short: "Install missing distributions into the project environment",
		Long: `Install runs one batched package-manager invocation for the named
distributions. Without arguments the whole project is audited first and
whatever is missing gets installed.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := c.newEngine(noCache)
			p, err := eng.OpenProject(projectDir)
			if err != nil {
				return err
			}

			names := args
			if len(names) == 0 {
				report, err := eng.AuditProject(cmd.Context(), p)
				if err != nil {
					return err
				}
				names = report.Missing
			}
			if len(names) == 0 {
				printSuccess("Nothing to install")
				return nil
			}

			printInfo("Installing %s", strings.Join(names, ", "))
			onLine := func(line string) {
				if !quiet {
					printDetail("%s", line)
				}
			}

			prog := newProgress(c.Logger)
			err = eng.InstallMissing(cmd.Context(), p, names, onLine)

			var pie *errors.PartialInstallError
			switch {
			case err == nil:
				prog.done(fmt.Sprintf("Installed %d distributions", len(names)))
				printSuccess("Environment is up to date")
				return nil
			case stderrors.As(err, &pie):
				printError("Still missing after install: %s", strings.Join(pie.Residual, ", "))
				return err
			default:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "project directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the package-snapshot cache")
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "hide package-manager output")

	return cmd
}
