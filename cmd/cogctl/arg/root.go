package arg

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var daemonAddr string

var rootCmd = &cobra.Command{
	Use:   "cogctl",
	Short: "cogctl is the command line tool for the cogwatch daemon",
	Long: `cogctl talks to a running cogwatch daemon over its HTTP API.
			You can use it to query scores, pause or resume monitoring,
			and record mindful breaks.`,
	Run: func(cmd *cobra.Command, args []string) {
		// Do Stuff Here
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&daemonAddr, "addr", "a", "http://127.0.0.1:8420", "daemon API address")
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
