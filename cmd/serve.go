package cmd

import (
	"log"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/fieldsafe/loneworker/db"
	"github.com/fieldsafe/loneworker/server"
)

func newServeCmd() *cobra.Command {
	var memory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run a local check-in service",
		Long:  "serve runs the check-in API locally, backed by Postgres (DB_HOST, DB_PORT, DB_USER, DB_PASSWORD, DB_NAME) or by a throwaway in-memory store with --memory.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				log.Printf("Warning: Error loading .env file: %v", err)
			}

			var store db.Store
			if memory {
				store = db.NewMemory()
				log.Printf("Using in-memory store; state is lost on exit")
			} else {
				pg, err := db.OpenPostgres()
				if err != nil {
					return err
				}
				store = pg
			}
			defer store.Close()

			addr := ":8080"
			if port := os.Getenv("PORT"); port != "" {
				addr = ":" + port
			}

			router := server.New(store).Router()
			log.Printf("Starting check-in API server on %s", addr)
			return http.ListenAndServe(addr, router)
		},
	}
	cmd.Flags().BoolVar(&memory, "memory", false, "use an in-memory store instead of Postgres")
	return cmd
}
