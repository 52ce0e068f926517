package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show catalog and vocabulary statistics",
	RunE:  runStats,
}

func runStats(cmd *cobra.Command, args []string) error {
	a, err := loadedApp(cmd.Context())
	if err != nil {
		return err
	}
	defer a.Close()

	status := a.Status()
	if jsonOut {
		return printJSON(status)
	}
	fmt.Print(formatStatus(status, a.Catalog()))
	return nil
}
