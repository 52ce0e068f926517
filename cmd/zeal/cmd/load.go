package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var loadCmd = &cobra.Command{
	Use:   "load",
	Short: "Load the catalog, rebuilding it if the source changed",
	RunE:  runLoad,
}

func runLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	info, err := a.Load(ctx)
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(info)
	}
	fmt.Print(formatLoad(info))
	return nil
}
