package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// envCommand creates the env command group.
func (c *CLI) envCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Create and inspect the project's virtual environment",
	}

	cmd.AddCommand(c.envCreateCommand())
	cmd.AddCommand(c.envInfoCommand())

	return cmd
}

// envCreateCommand creates the "env create" subcommand.
func (c *CLI) envCreateCommand() *cobra.Command {
	var projectDir string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a virtual environment for the project",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := c.newEngine(true)
			p, err := eng.OpenProject(projectDir)
			if err != nil {
				return err
			}
			if p.Env != nil {
				printInfo("Environment already exists at %s", p.Env.Path)
				return nil
			}

			s := newSpinnerWithContext(cmd.Context(), "Creating virtual environment...")
			s.Start()
			env, err := eng.CreateEnv(cmd.Context(), p)
			if err != nil {
				s.StopWithError("Environment creation failed")
				return err
			}
			s.StopWithSuccess(fmt.Sprintf("Environment ready at %s", env.Path))
			printNextStep("Audit the project", "pystudio audit")
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "project directory")
	return cmd
}

// envInfoCommand creates the "env info" subcommand.
func (c *CLI) envInfoCommand() *cobra.Command {
	var (
		projectDir string
		noCache    bool
	)

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the detected environment and its packages",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng := c.newEngine(noCache)
			p, err := eng.OpenProject(projectDir)
			if err != nil {
				return err
			}
			if p.Env == nil {
				printWarning("no environment detected in %s", p.Root)
				printNextStep("Create one", "pystudio env create")
				return nil
			}

			printKeyValue("Path", p.Env.Path)
			printKeyValue("Interpreter", p.Env.Interpreter)
			printKeyValue("State", string(p.Env.State()))
			if detail := p.Env.StateDetail(); detail != "" {
				printDetail("%s", detail)
			}

			snap, err := eng.Manager.InstalledPackages(cmd.Context(), p.Env)
			if err != nil {
				return err
			}
			printKeyValue("Packages", fmt.Sprintf("%d", len(snap)))
			return nil
		},
	}

	cmd.Flags().StringVarP(&projectDir, "project", "p", ".", "project directory")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "bypass the package-snapshot cache")
	return cmd
}
