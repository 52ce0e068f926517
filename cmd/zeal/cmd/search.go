package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/corey/zeal/internal/ports"
	"github.com/spf13/cobra"
)

var (
	searchDish     string
	searchCuisine  string
	searchLocation string
	searchText     string
	searchLimit    int
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Search the catalog",
	Long: `Search the catalog.

With a query argument, the dish, cuisine and location are extracted by the
language model (llm.api_key required). With --dish/--cuisine/--location the
structured filter runs directly. With --text a plain substring search runs
over names, descriptions, tags, cuisines and dishes.`,
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().StringVar(&searchDish, "dish", "", "Dish substring")
	searchCmd.Flags().StringVar(&searchCuisine, "cuisine", "", "Cuisine substring")
	searchCmd.Flags().StringVar(&searchLocation, "location", "", "City or state substring")
	searchCmd.Flags().StringVar(&searchText, "text", "", "Free-text filter, no extraction")
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", 0, "Show at most n results (0 = all)")
}

func runSearch(cmd *cobra.Command, args []string) error {
	structured := searchDish != "" || searchCuisine != "" || searchLocation != ""
	query := strings.TrimSpace(strings.Join(args, " "))

	modes := 0
	for _, on := range []bool{structured, searchText != "", query != ""} {
		if on {
			modes++
		}
	}
	if modes != 1 {
		return errors.New("give exactly one of: a query, --text, or --dish/--cuisine/--location")
	}

	ctx := cmd.Context()
	a, err := loadedApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var (
		q       *ports.ExtractedQuery
		results []ports.Restaurant
	)
	switch {
	case searchText != "":
		results = a.Find(searchText)
	case structured:
		results = a.SearchStructured(ports.ExtractedQuery{
			Dish:     &searchDish,
			Cuisine:  &searchCuisine,
			Location: &searchLocation,
		})
		last := a.LastSearch().Query
		q = &last
	default:
		results, err = a.Search(ctx, query)
		if err != nil {
			return err
		}
		last := a.LastSearch().Query
		q = &last
	}

	if searchLimit > 0 && len(results) > searchLimit {
		results = results[:searchLimit]
	}
	if jsonOut {
		return printJSON(map[string]any{"query": q, "count": len(results), "results": results})
	}
	fmt.Print(formatResults(q, results))
	return nil
}
