// Command sercha-ingest segments, filters, embeds and indexes local documents.
package main

import (
	"os"

	"github.com/custodia-labs/sercha-ingest/internal/adapters/driving/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		os.Exit(1)
	}
}
