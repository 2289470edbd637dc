package arg

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"

	"github.com/cogwatch/cogwatch/internal/cognitive"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Check if cogwatch is running and show current scores",
	Run: func(cmd *cobra.Command, args []string) {
		var status struct {
			Monitoring  bool                              `json:"monitoring"`
			Escalation  int                               `json:"escalation"`
			DataSources map[string]cognitive.SourceStatus `json:"dataSources"`
		}
		if err := getJSON("/status", &status); err != nil {
			log.Fatal("Failed to query daemon: ", err)
		}

		var snap cognitive.Snapshot
		if err := getJSON("/snapshot", &snap); err != nil {
			log.Fatal("Failed to query daemon: ", err)
		}

		state := "paused"
		if status.Monitoring {
			state = "monitoring"
		}
		fmt.Println("cogwatch:", state)
		m := snap.Cognitive
		fmt.Printf("  focus   %3d (%s)\n", m.Focus.Value, m.Focus.Trend)
		fmt.Printf("  load    %3d (%s)\n", m.Load.Value, m.Load.Trend)
		fmt.Printf("  stress  %3d (%s)\n", m.Stress.Value, m.Stress.Trend)
		fmt.Printf("  overall %3d (%s)\n", m.Overall.Value, m.Overall.Trend)
		fmt.Println("  escalation level:", status.Escalation)
		for name, st := range status.DataSources {
			fmt.Printf("  source %-8s %s\n", name, st)
		}
	},
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
