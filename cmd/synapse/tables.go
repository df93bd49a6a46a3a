package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/synlab/synapse/datarecording"
	"github.com/synlab/synapse/models"
)

var tablesFlags struct {
	limit int
}

var tablesCmd = &cobra.Command{
	Use:   "spikes <database>",
	Short: "Print spikes from a recording database",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		printSpikes(args[0])
	},
}

func init() {
	rootCmd.AddCommand(tablesCmd)

	tablesCmd.Flags().IntVar(&tablesFlags.limit,
		"limit", 20, "maximum number of spikes to print")
}

func printSpikes(dbFilename string) {
	reader := datarecording.NewReader(dbFilename)
	defer reader.Close()

	reader.MapTable(models.SpikesTableName, models.SpikeTrace{})

	results, total, err := reader.Query(
		context.Background(),
		models.SpikesTableName,
		datarecording.QueryParams{
			Limit:   tablesFlags.limit,
			OrderBy: "Step",
		})
	dieOnErr(err)

	fmt.Printf("%d spikes recorded\n", total)

	for _, r := range results {
		t := r.(*models.SpikeTrace)
		fmt.Printf("t=%.3fms sender=%d weight=%.3f multiplicity=%d\n",
			t.TimeMS, t.Sender, t.Weight, t.Multiplicity)
	}
}
