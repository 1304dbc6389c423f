// Command hours-eval checks business hours specs locally and exercises a
// running hours-service: uploading specs, querying status, probing gRPC health
// and tailing the transition events on Kafka.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/md-rashed-zaman/openhours/libs/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "hours-eval",
	Short:         "Evaluate business hours specs and poke a running hours-service",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var (
	baseURL    string
	businessID string
	jwtSecret  string
)

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&baseURL, "base-url", config.String("BASE_URL", "http://localhost:8090"), "hours-service base url")
	flags.StringVar(&businessID, "business-id", config.String("BUSINESS_ID", ""), "business to act for")
	flags.StringVar(&jwtSecret, "secret", config.String("JWT_SECRET", ""), "HS256 secret used to mint a bearer token (empty sends X-Business-Id)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
