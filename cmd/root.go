// Package cmd implements the loneworker CLI.
package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fieldsafe/loneworker/client"
	"github.com/fieldsafe/loneworker/config"
)

var (
	cfgFile     string
	baseURLFlag string
	assumeYes   bool
)

// Execute is the entry point called from main.go.
func Execute() {
	rootCmd := &cobra.Command{
		Use:   "loneworker",
		Short: "Lone worker check-in client",
		Long:  "loneworker tracks safety check-ins against a check-in service: check in at a site with an expiry time, watch active check-ins, and review history.",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// A .env file is optional outside of serve.
			_ = godotenv.Load()
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (default ~/.config/loneworker/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURLFlag, "base-url", "", "check-in service base URL")
	rootCmd.PersistentFlags().BoolVarP(&assumeYes, "yes", "y", false, "skip confirmation prompts")

	rootCmd.AddCommand(
		newCheckinCmd(),
		newCancelCmd(),
		newActiveCmd(),
		newHistoryCmd(),
		newContactsCmd(),
		newAddContactCmd(),
		newWatchCmd(),
		newServeCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig() (config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return config.Config{}, err
	}
	if baseURLFlag != "" {
		cfg.BaseURL = baseURLFlag
	}
	return cfg, nil
}

func newSyncClient() (*client.Client, config.Config, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, config.Config{}, err
	}
	c := client.New(client.Config{
		BaseURL:        cfg.BaseURL,
		PollInterval:   cfg.PollInterval(),
		RequestTimeout: cfg.RequestTimeout(),
		Confirm:        promptConfirm,
	})
	return c, cfg, nil
}

// promptConfirm asks on stdin before an irreversible cancellation.
func promptConfirm(user, site string) bool {
	if assumeYes {
		return true
	}
	fmt.Printf("Cancel check-in for %s at %s? [y/N]: ", user, site)
	reader := bufio.NewReader(os.Stdin)
	answer, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer = strings.ToLower(strings.TrimSpace(answer))
	return answer == "y" || answer == "yes"
}
