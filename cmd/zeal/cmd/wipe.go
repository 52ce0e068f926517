package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/corey/zeal/internal/app"
	"github.com/spf13/cobra"
)

var wipeForce bool

var wipeCmd = &cobra.Command{
	Use:   "wipe",
	Short: "Invalidate the cached catalog",
	Long:  "Clears the stored source hash so the next load rebuilds the catalog, and removes runtime files.",
	RunE:  runWipe,
}

func init() {
	wipeCmd.Flags().BoolVar(&wipeForce, "force", false, "Skip confirmation prompt")
}

func runWipe(cmd *cobra.Command, args []string) error {
	if !wipeForce {
		fmt.Printf("⚠ This will invalidate the %s catalog cache. Continue? [y/N] ", settings.Cache.Backend)
		reader := bufio.NewReader(os.Stdin)
		answer, _ := reader.ReadString('\n')
		answer = strings.TrimSpace(strings.ToLower(answer))
		if answer != "y" && answer != "yes" {
			fmt.Println("cancelled")
			return nil
		}
	}

	ctx := cmd.Context()
	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	if _, ok, err := a.StoredHash(ctx); err == nil && !ok {
		fmt.Println("⚡ no cached catalog to wipe")
		return nil
	}
	if err := a.Invalidate(ctx); err != nil {
		return err
	}
	app.NewPaths(projectRoot()).CleanEphemeral()

	fmt.Println("⚡ catalog cache wiped")
	return nil
}
