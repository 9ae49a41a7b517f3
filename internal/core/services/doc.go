// Package services implements the driving port interfaces.
// Services contain the core ingestion logic and orchestrate
// calls to driven ports (adapters).
//
// DocumentPipeline turns files into indexed chunks; SearchService,
// DocumentService and WatchService are built on the stores it fills.
package services
