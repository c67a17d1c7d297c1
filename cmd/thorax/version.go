// Version command for the thorax CLI.
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meridian-health/thorax/pkg/thorax"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the thorax version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("thorax", thorax.Version)
	},
}
