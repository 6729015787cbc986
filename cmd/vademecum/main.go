// Command vademecum ingests vademecum PDFs into a medication store and serves
// lookup, search, interaction and context queries over HTTP or the CLI.
package main

import (
	"fmt"
	"os"

	"vademecum/cmd/vademecum/commands"
	"vademecum/pkg/logger"
)

// @title Vademecum API
// @version 1.0
// @description Medication knowledge ingestion and retrieval

// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	err := commands.NewRootCmd().Execute()
	logger.Sync()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
