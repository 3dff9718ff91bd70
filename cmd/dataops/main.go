// Package main provides the dataops CLI.
package main

import (
	"github.com/1ambda/dataops-platform-sub001/internal/cli"

	// Shipped executors register themselves with the factory registry.
	_ "github.com/1ambda/dataops-platform-sub001/pkg/executors/postgres"
	_ "github.com/1ambda/dataops-platform-sub001/pkg/executors/sqlite"
)

func main() {
	cli.Execute()
}
