package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// releasesURL is where new multimoon versions are published.
const releasesURL = "https://github.com/lone-outpost-oss/multimoon/releases"

func newUpdateSelfCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "update-self",
		Short: "Show how to update multimoon itself",
		Args:  cobra.NoArgs,
		// Needs no configuration.
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		RunE: func(*cobra.Command, []string) error {
			fmt.Fprintln(a.stdout, "multimoon cannot update itself yet.")
			fmt.Fprintln(a.stdout)
			fmt.Fprintln(a.stdout, "The latest version of multimoon can be downloaded at:")
			fmt.Fprintln(a.stdout)
			fmt.Fprintln(a.stdout, "  "+cmdStyle.Render(releasesURL))
			return nil
		},
	}
}
