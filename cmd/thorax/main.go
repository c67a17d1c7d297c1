// Package main provides the thorax CLI, a command-line front end to a
// thoracic-surgery patient registry stored in a single SQLite file.
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUserError)
	}
}
