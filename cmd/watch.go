package cmd

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/fieldsafe/loneworker/client"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Poll the service and re-render check-ins until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, cfg, err := newSyncClient()
			if err != nil {
				return err
			}

			log.Printf("Starting check-in watcher (poll interval: %s)", cfg.PollInterval())
			c.Start()
			defer c.Stop()

			ticker := time.NewTicker(cfg.PollInterval())
			defer ticker.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

			render := func() {
				model := c.Display()
				stats := c.Stats()
				fmt.Println()
				fmt.Print(renderActive(model))
				fmt.Print(renderHistory(model))
				fmt.Printf("Refreshes: %d ok, %d failed\n",
					stats.CompletedRefreshes, stats.FailedRefreshes)
			}

			waitFirstRefresh(c, 5*time.Second)
			render()
			for {
				select {
				case <-ticker.C:
					render()
				case <-sig:
					log.Printf("Shutting down watcher")
					return nil
				}
			}
		},
	}
}

// waitFirstRefresh blocks until the initial refresh cycle has resolved, so
// the first render shows data instead of an empty screen. It gives up at the
// deadline; a slow or failing fetch surfaces in the render itself.
func waitFirstRefresh(c *client.Client, timeout time.Duration) {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		stats := c.Stats()
		if stats.CompletedRefreshes+stats.FailedRefreshes >= 1 {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}
