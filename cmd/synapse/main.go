// The synapse command runs spiking network simulations from the command
// line. It is mostly a demonstration of how to assemble a simulation; real
// experiments are expected to be their own main packages.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tebeka/atexit"
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use: "synapse",
	Short: "Synapse CLI tool can run spiking network simulations and " +
		"inspect their recorded output.",
	Long: `Synapse CLI tool can run spiking network simulations and inspect ` +
		`their recorded output. Currently, it supports running a benchmark ` +
		`network and listing the tables of a recording database.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		atexit.Exit(1)
	}
}

func main() {
	// A .env file can override the built-in flag defaults.
	_ = godotenv.Load()

	Execute()

	// Flushes the pending recording batches registered by the recorders.
	atexit.Exit(0)
}

func dieOnErr(err error) {
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		atexit.Exit(1)
	}
}
