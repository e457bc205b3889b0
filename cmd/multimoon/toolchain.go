package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lone-outpost-oss/multimoon/internal/service"
)

func newShowCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the installed toolchain",
		Args:  cobra.NoArgs,
		RunE:  a.runShow,
	}
}

func newUpdateCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Update MoonBit to the latest toolchain",
		Args:  cobra.NoArgs,
		RunE:  a.runUpdateLatest,
	}
}

func newToolchainCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "toolchain",
		Short: "List, update or roll back MoonBit toolchains",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Show the installed toolchain",
			Args:  cobra.NoArgs,
			RunE:  a.runShow,
		},
		&cobra.Command{
			Use:   "list",
			Short: "List all toolchains in the registry",
			Args:  cobra.NoArgs,
			RunE:  a.runList,
		},
		newToolchainUpdateCmd(a, "update", "Update to the latest or a specific toolchain"),
		newToolchainUpdateCmd(a, "rollback", "Roll back to a specific toolchain (same as update)"),
	)
	return cmd
}

func newToolchainUpdateCmd(a *app, use, short string) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   use + " [TOOLCHAIN]",
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				return a.runUpdateLatest(cmd, args)
			}
			return a.runUpdate(cmd, args[0], force)
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "reinstall even if the toolchain is already installed")
	return cmd
}

func (a *app) toolchainService() (*service.ToolchainService, error) {
	return service.NewToolchainService(a.serviceOptions())
}

func (a *app) runShow(cmd *cobra.Command, _ []string) error {
	svc, err := a.toolchainService()
	if err != nil {
		return err
	}
	a.printHome()

	current, err := svc.Show(cmd.Context())
	if err != nil {
		return err
	}
	if current == nil {
		fmt.Fprintln(a.stdout, "using a toolchain not listed in the registry.",
			mutedStyle.Render("(run `moon version` to see version)"))
		return nil
	}
	fmt.Fprintf(a.stdout, "using %s toolchain.\n", currentStyle.Render(current.Name))
	return nil
}

func (a *app) runList(cmd *cobra.Command, _ []string) error {
	svc, err := a.toolchainService()
	if err != nil {
		return err
	}
	a.printHome()

	toolchains, err := svc.List(cmd.Context())
	if err != nil {
		return err
	}
	for _, st := range toolchains {
		line := st.Toolchain.Name + " toolchain"
		if st.Current {
			line = currentStyle.Render(line + " (current)")
		}
		fmt.Fprintln(a.stdout, line, mutedStyle.Render("moon "+st.Toolchain.MoonVer))
	}
	return nil
}

func (a *app) runUpdateLatest(cmd *cobra.Command, _ []string) error {
	svc, err := a.toolchainService()
	if err != nil {
		return err
	}
	a.printHome()

	res, err := svc.UpdateLatest(cmd.Context())
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintf(a.stdout, "current installed toolchain is already latest version (%s)\n", res.Toolchain.Name)
		return nil
	}
	fmt.Fprintf(a.stdout, "toolchain %s installed.\n", currentStyle.Render(res.Toolchain.Name))
	return nil
}

func (a *app) runUpdate(cmd *cobra.Command, name string, force bool) error {
	svc, err := a.toolchainService()
	if err != nil {
		return err
	}
	a.printHome()

	res, err := svc.Update(cmd.Context(), name, force)
	if err != nil {
		return err
	}
	if res.Skipped {
		fmt.Fprintf(a.stdout, "current installed toolchain is already %s. %s\n",
			res.Toolchain.Name, cmdStyle.Render("(add --force to reinstall)"))
		return nil
	}
	fmt.Fprintf(a.stdout, "toolchain %s installed.\n", currentStyle.Render(res.Toolchain.Name))
	return nil
}
