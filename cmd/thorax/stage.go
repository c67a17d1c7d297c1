// Stage commands look up TNM stage groupings from the staging map tables.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/meridian-health/thorax/internal/sqlite"
)

var stageCmd = &cobra.Command{
	Use:   "stage",
	Short: "Look up TNM stage groupings",
}

var stageLungCmd = &cobra.Command{
	Use:   "lung <T> <N> <M>",
	Short: "Look up a lung cancer stage grouping",
	Long: `Lung looks up the stage grouping for a T/N/M combination in the lung
staging map. When the exact combination is not mapped, a coarse fallback
stage is suggested instead.

Example:
  thorax stage lung 2a 1 0`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "stage lung:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		stage, err := store.LungStage(args[0], args[1], args[2])
		if err != nil {
			fmt.Fprintln(os.Stderr, "stage lung:", err)
			os.Exit(exitSysError)
		}
		if stage == "" {
			fallback := sqlite.FallbackLungStage(args[0], args[1], args[2])
			fmt.Printf("no mapping for T%s N%s M%s; suggested stage %s\n",
				args[0], args[1], args[2], fallback)
			return nil
		}

		fmt.Println("stage", stage)
		return nil
	},
}

var (
	stageEsoHistology string
	stageEsoGrade     string
	stageEsoLocation  string
)

var stageEsoCmd = &cobra.Command{
	Use:   "eso <T> <N> <M>",
	Short: "Look up an esophageal cancer stage grouping",
	Long: `Eso looks up the stage grouping for a T/N/M combination in the
esophageal staging maps. Squamous carcinoma (--histology SCC) uses the SCC
map, which also keys on grade and tumor location; everything else uses the
adenocarcinoma map.

Example:
  thorax stage eso 3 1 0 --histology SCC --grade 2 --location middle`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "stage eso:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		stage, err := store.EsoStage(args[0], args[1], args[2],
			stageEsoHistology, stageEsoGrade, stageEsoLocation)
		if err != nil {
			fmt.Fprintln(os.Stderr, "stage eso:", err)
			os.Exit(exitSysError)
		}
		if stage == "" {
			fallback := sqlite.FallbackEsoStage(args[0], args[1], args[2])
			fmt.Printf("no mapping for T%s N%s M%s; suggested stage %s\n",
				args[0], args[1], args[2], fallback)
			return nil
		}

		fmt.Println("stage", stage)
		return nil
	},
}

var stageLoadCmd = &cobra.Command{
	Use:   "load <dir>",
	Short: "Load staging map tables from CSV files",
	Long: `Load replaces the staging map tables from CSV files in the given
directory. Each present file replaces its table wholesale; missing files
leave their table untouched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			fmt.Fprintln(os.Stderr, "stage load:", err)
			os.Exit(exitSysError)
		}
		defer store.Close()

		loaded, err := store.LoadStagingCSV(args[0])
		if err != nil {
			fmt.Fprintln(os.Stderr, "stage load:", err)
			os.Exit(exitSysError)
		}
		if len(loaded) == 0 {
			fmt.Fprintln(os.Stderr, "stage load: no staging CSV files found in", args[0])
			os.Exit(exitUserError)
		}

		for table, rows := range loaded {
			fmt.Printf("loaded %s: %d rows\n", table, rows)
		}
		return nil
	},
}

func init() {
	stageEsoCmd.Flags().StringVar(&stageEsoHistology, "histology", "", "histology (SCC selects the squamous map)")
	stageEsoCmd.Flags().StringVar(&stageEsoGrade, "grade", "", "tumor grade (SCC map only)")
	stageEsoCmd.Flags().StringVar(&stageEsoLocation, "location", "", "tumor location (SCC map only)")

	stageCmd.AddCommand(stageLungCmd)
	stageCmd.AddCommand(stageEsoCmd)
	stageCmd.AddCommand(stageLoadCmd)
}
