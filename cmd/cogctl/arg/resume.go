package arg

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var resumeCmd = &cobra.Command{
	Use:     "resume",
	Aliases: []string{"r"},
	Short:   "Resume a paused monitoring session",
	Run: func(cmd *cobra.Command, args []string) {
		if err := postJSON("/resume", nil); err != nil {
			log.Fatal("Failed to resume: ", err)
		}
		fmt.Println("Monitoring resumed")
	},
}

func init() {
	rootCmd.AddCommand(resumeCmd)
}
