// Command migrate-gen generates SQL migration files for the event store
// infrastructure tables.
//
// Usage:
//
//	go run github.com/getpup/streamstore/cmd/migrate-gen -output migrations -filename init.sql
//
// Or with go generate:
//
//	//go:generate go run github.com/getpup/streamstore/cmd/migrate-gen -output migrations
//
// Generate migrations for different database adapters:
//
//	go run github.com/getpup/streamstore/cmd/migrate-gen -adapter postgres -output migrations
//	go run github.com/getpup/streamstore/cmd/migrate-gen -adapter mysql -output migrations
//	go run github.com/getpup/streamstore/cmd/migrate-gen -adapter mariadb -output migrations
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/getpup/streamstore/es/migrations"
)

func main() {
	var (
		adapter           = flag.String("adapter", "postgres", "Database adapter: postgres, mysql, or mariadb")
		outputFolder      = flag.String("output", "migrations", "Output folder for migration file")
		outputFilename    = flag.String("filename", "", "Output filename (default: timestamp-based)")
		eventStreamsTable = flag.String("event-streams-table", "event_streams", "Name of stream registry table")
		projectionsTable  = flag.String("projections-table", "projections", "Name of projections table")
	)

	flag.Parse()

	config := migrations.DefaultConfig()
	config.OutputFolder = *outputFolder
	config.EventStreamsTable = *eventStreamsTable
	config.ProjectionsTable = *projectionsTable

	if *outputFilename != "" {
		config.OutputFilename = *outputFilename
	}

	var err error
	switch *adapter {
	case "postgres":
		err = migrations.GeneratePostgres(&config)
	case "mysql":
		err = migrations.GenerateMySQL(&config)
	case "mariadb":
		err = migrations.GenerateMariaDB(&config)
	default:
		fmt.Fprintf(os.Stderr, "Error: unsupported adapter '%s'. Supported adapters are: postgres, mysql, mariadb\n", *adapter)
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error generating migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Generated %s migration: %s/%s\n", *adapter, config.OutputFolder, config.OutputFilename)
}
