package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/corey/zeal/internal/app"
	"github.com/corey/zeal/internal/ports"
)

// ANSI color codes for terminal output.
const (
	colorReset   = "\033[0m"
	colorBold    = "\033[1m"
	colorCyan    = "\033[36m"
	colorMagenta = "\033[35m"
	colorGreen   = "\033[32m"
	colorYellow  = "\033[33m"
	colorGray    = "\033[90m"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// formatLoad formats a LoadInfo for terminal display.
func formatLoad(info app.LoadInfo) string {
	cache := fmt.Sprintf("%s%s%s", colorYellow, info.Outcome, colorReset)
	if info.CacheHit {
		cache = fmt.Sprintf("%shit%s", colorGreen, colorReset)
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d restaurants%s │ cache %s", colorBold, info.Restaurants, colorReset, cache))
	if !info.CacheHit {
		sb.WriteString(fmt.Sprintf(" │ built in %s", info.BuildTime.Round(time.Microsecond)))
	}
	sb.WriteString("\n")
	sb.WriteString(fmt.Sprintf("  Source:  %s\n", info.Source))
	sb.WriteString(fmt.Sprintf("  Hash:    %s%s%s\n", colorGray, info.Hash, colorReset))
	return sb.String()
}

// formatQuery renders an extracted query as dish/cuisine/location with
// wildcards for absent fields.
func formatQuery(q ports.ExtractedQuery) string {
	return fmt.Sprintf("dish=%s  cuisine=%s  location=%s",
		orAny(q.Dish), orAny(q.Cuisine), orAny(q.Location))
}

func orAny(s *string) string {
	if s == nil {
		return colorGray + "*" + colorReset
	}
	return colorCyan + *s + colorReset
}

// formatResults formats ranked restaurants for terminal display.
//
//	⚡ 2 results │ dish=taco  cuisine=*  location=CA
//	  4.6  Taqueria La Estrella  Los Angeles, CA
//	       mexican tex-mex  │  burrito tacos
func formatResults(q *ports.ExtractedQuery, results []ports.Restaurant) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ %d results%s", colorBold, len(results), colorReset))
	if q != nil {
		sb.WriteString(" │ " + formatQuery(*q))
	}
	sb.WriteString("\n")

	for _, r := range results {
		rating := "  - "
		if r.Rating != nil {
			rating = fmt.Sprintf("%.1f", *r.Rating)
		}
		sb.WriteString(fmt.Sprintf("  %s%s%s  %s%s%s", colorGreen, rating, colorReset, colorBold, r.Name, colorReset))
		if loc := location(r); loc != "" {
			sb.WriteString(fmt.Sprintf("  %s%s%s", colorGray, loc, colorReset))
		}
		sb.WriteString("\n")
		if len(r.Cuisines) > 0 || len(r.PopularDishes) > 0 {
			sb.WriteString(fmt.Sprintf("       %s%s%s  │  %s\n",
				colorMagenta, strings.Join(r.Cuisines, " "), colorReset,
				strings.Join(r.PopularDishes, " ")))
		}
	}
	return sb.String()
}

func location(r ports.Restaurant) string {
	var parts []string
	if r.City != nil {
		parts = append(parts, *r.City)
	}
	if r.State != nil {
		parts = append(parts, *r.State)
	}
	return strings.Join(parts, ", ")
}

// formatStatus formats the App status plus per-vocabulary coverage.
func formatStatus(s app.Status, catalog []ports.Restaurant) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s⚡ zeal stats%s\n", colorBold, colorReset))
	if s.Load != nil {
		sb.WriteString(fmt.Sprintf("  Restaurants:  %d (%s)\n", s.Load.Restaurants, s.Load.Outcome))
		sb.WriteString(fmt.Sprintf("  Source:       %s\n", s.Load.Source))
	}
	sb.WriteString(fmt.Sprintf("  Cache:        %s\n", s.CacheBackend))
	sb.WriteString(fmt.Sprintf("  Sentiment:    %s\n", s.Scorer))
	extraction := fmt.Sprintf("%snot configured%s", colorYellow, colorReset)
	if s.Extraction {
		extraction = fmt.Sprintf("%sready%s", colorGreen, colorReset)
	}
	sb.WriteString(fmt.Sprintf("  Extraction:   %s\n", extraction))
	sb.WriteString(fmt.Sprintf("  Cuisines:     %d terms (%d entries)\n", s.CuisineTerms, s.CuisineEntries))
	sb.WriteString(fmt.Sprintf("  Dishes:       %d terms (%d entries)\n", s.DishTerms, s.DishEntries))

	var withCuisine, withDish int
	for _, r := range catalog {
		if len(r.Cuisines) > 0 {
			withCuisine++
		}
		if len(r.PopularDishes) > 0 {
			withDish++
		}
	}
	sb.WriteString(fmt.Sprintf("  Coverage:     %d/%d with cuisines, %d/%d with dishes\n",
		withCuisine, len(catalog), withDish, len(catalog)))
	return sb.String()
}
