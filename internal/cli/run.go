package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pystudio/pystudio/pkg/runner"
)

// runCommand creates the run command.
func (c *CLI) runCommand() *cobra.Command {
	var (
		projectDir     string
		installMissing bool
		noCache        bool
		useTUI         bool
	)

	cmd := &cobra.Command{
		Use:   "run <script> [args...]",
		Short: "Run a script under the project environment",
		Long: `Run executes a script with the project's interpreter and the project
root as working directory, streaming its output as it arrives. Anything
after the script name is passed to the script unchanged. Ctrl-C asks the
script to stop and kills it after a grace period.

With --install-missing the script is audited first and missing
distributions are installed before the run.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			script := args[0]
			scriptArgs := args[1:]
			eng := c.newEngine(noCache)
			p, err := eng.OpenProject(projectDir)
			if err != nil {
				return err
			}

			if installMissing {
				report, err := eng.AuditFile(cmd.Context(), p, script)
				if err != nil {
					return err
				}
				if len(report.Missing) > 0 {
					printInfo("Installing %s", strings.Join(report.Missing, ", "))
					err = eng.InstallMissing(cmd.Context(), p, report.Missing, func(line string) {
						printDetail("%s", line)
					})
					if err != nil {
						return err
					}
				}
			}

			sess, err := eng.Run(cmd.Context(), p, script, scriptArgs...)
			if err != nil {
				return err
			}

			// A canceled context (Ctrl-C) stops the script, not the CLI.
			go func() {
				<-cmd.Context().Done()
				sess.Cancel()
			}()

			if useTUI {
				if err := runSessionTUI(script, sess); err != nil {
					return err
				}
			} else {
				streamSession(sess)
			}
			return finishSession(cmd.Context(), sess)
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "project directory")
	cmd.Flags().BoolVar(&installMissing, "install-missing", false, "install missing distributions before running")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the package-snapshot cache")
	cmd.Flags().BoolVar(&useTUI, "tui", false, "show a live output view instead of raw streaming")

	return cmd
}

// streamSession copies session output to the terminal until the session
// settles.
func streamSession(sess *runner.Session) {
	for ev := range sess.Events() {
		switch ev.Stream {
		case runner.StreamStdout:
			fmt.Println(ev.Text)
		case runner.StreamStderr:
			fmt.Fprintln(os.Stderr, styleStderr.Render(ev.Text))
		}
	}
}

// finishSession reports the terminal state and maps it to the process exit
// convention.
func finishSession(ctx context.Context, sess *runner.Session) error {
	<-sess.Done()
	switch sess.State() {
	case runner.StateCompleted:
		printSuccess("Script completed")
		return nil
	case runner.StateTerminated:
		printWarning("script terminated")
		if ctx.Err() != nil {
			return context.Canceled
		}
		return nil
	default:
		return fmt.Errorf("script exited with status %d", sess.ExitCode())
	}
}
