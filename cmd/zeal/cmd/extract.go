package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var extractCmd = &cobra.Command{
	Use:   "extract <query>",
	Short: "Show the dish, cuisine and location extracted from a query",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	q, err := a.Extract(ctx, strings.Join(args, " "))
	if err != nil {
		return err
	}
	if jsonOut {
		return printJSON(q)
	}
	fmt.Println(formatQuery(q))
	return nil
}
