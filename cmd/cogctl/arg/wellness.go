package arg

import (
	"fmt"
	"log"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/cogwatch/cogwatch/internal/wellness"
)

var wellnessCmd = &cobra.Command{
	Use:     "wellness",
	Aliases: []string{"w"},
	Short:   "Show today's platform usage and wellness summary",
	Run: func(cmd *cobra.Command, args []string) {
		var snap wellness.Snapshot
		if err := getJSON("/wellness", &snap); err != nil {
			log.Fatal("Failed to query daemon: ", err)
		}

		d := snap.Daily
		fmt.Println("Wellness for", d.Date)
		fmt.Println("  total time:      ", d.TotalTime.Round(time.Second))
		fmt.Println("  sessions:        ", d.SessionCount)
		fmt.Println("  mindless:        ", d.MindlessSessions)
		fmt.Println("  mindful breaks:  ", d.MindfulBreaks)
		fmt.Println("  longest session: ", d.LongestSession.Round(time.Second))
		fmt.Println("  cognitive impact:", d.CognitiveImpact)

		names := make([]string, 0, len(d.PlatformTime))
		for name := range d.PlatformTime {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Printf("  %-12s %s\n", name, d.PlatformTime[name].Round(time.Second))
		}

		if s := snap.Session; s != nil {
			fmt.Printf("Live session on %s: %s, engagement %d\n",
				s.Platform.Name, s.TimeSpent.Round(time.Second), s.EngagementScore)
		}
	},
}

func init() {
	rootCmd.AddCommand(wellnessCmd)
}
