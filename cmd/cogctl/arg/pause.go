package arg

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var pauseCmd = &cobra.Command{
	Use:     "pause",
	Aliases: []string{"p"},
	Short:   "Pause monitoring without losing session counters",
	Run: func(cmd *cobra.Command, args []string) {
		if err := postJSON("/pause", nil); err != nil {
			log.Fatal("Failed to pause: ", err)
		}
		fmt.Println("Monitoring paused")
	},
}

func init() {
	rootCmd.AddCommand(pauseCmd)
}
