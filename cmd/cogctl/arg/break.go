package arg

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
)

var breakCmd = &cobra.Command{
	Use:     "break",
	Aliases: []string{"b"},
	Short:   "Record a mindful break and step the escalation level down",
	Run: func(cmd *cobra.Command, args []string) {
		var resp struct {
			Escalation int `json:"escalation"`
		}
		if err := postJSON("/break", &resp); err != nil {
			log.Fatal("Failed to record break: ", err)
		}
		fmt.Println("Break recorded, escalation level now", resp.Escalation)
	},
}

func init() {
	rootCmd.AddCommand(breakCmd)
}
