package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lone-outpost-oss/multimoon/internal/service"
)

func newCoreCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "core",
		Short: "Back up and restore the MoonBit core library",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List core library backups, oldest first",
			Args:  cobra.NoArgs,
			RunE:  a.runCoreList,
		},
		&cobra.Command{
			Use:   "backup [NAME]",
			Short: "Back up the core library (NAME defaults to the current date and time)",
			Args:  cobra.MaximumNArgs(1),
			RunE:  a.runCoreBackup,
		},
		&cobra.Command{
			Use:   "restore NAME",
			Short: "Restore a core library backup",
			Args:  cobra.ExactArgs(1),
			RunE:  a.runCoreRestore,
		},
	)
	return cmd
}

func (a *app) coreService() *service.CoreService {
	return service.NewCoreService(a.serviceOptions())
}

func (a *app) printStorage() {
	a.printHome()
	fmt.Fprintln(a.stdout, titleStyle.Render("MultiMoon storage dir:"), a.cfg.MultiMoonHome)
}

func (a *app) runCoreList(cmd *cobra.Command, _ []string) error {
	a.printStorage()

	entries, err := a.coreService().List(cmd.Context())
	if err != nil {
		return err
	}
	if len(entries) == 0 {
		fmt.Fprintln(a.stdout, "no core backups yet.", mutedStyle.Render("(run `multimoon core backup` to create one)"))
		return nil
	}
	for _, e := range entries {
		fmt.Fprintln(a.stdout, e.Name, mutedStyle.Render(e.ModTime.Format("2006-01-02 15:04:05")))
	}
	return nil
}

func (a *app) runCoreBackup(cmd *cobra.Command, args []string) error {
	a.printStorage()

	name := ""
	if len(args) > 0 {
		name = args[0]
	}
	entry, err := a.coreService().Backup(cmd.Context(), name)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.stdout, "wrote backup file", entry.Path)
	fmt.Fprintf(a.stdout, "core backup complete. backup name: %s\n", currentStyle.Render(entry.Name))
	return nil
}

func (a *app) runCoreRestore(cmd *cobra.Command, args []string) error {
	a.printStorage()

	entry, err := a.coreService().Restore(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "core restore complete. restored backup: %s\n", currentStyle.Render(entry.Name))
	return nil
}
