// zeal builds an enriched restaurant catalog and answers natural-language
// searches against it.
package main

import (
	"os"

	"github.com/corey/zeal/cmd/zeal/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
