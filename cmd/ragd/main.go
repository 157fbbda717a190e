// Command ragd ingests documents into a pgvector store and answers questions over them.
package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/kailas-cloud/ragd/internal/config"
)

var envName string

var rootCmd = &cobra.Command{
	Use:   "ragd",
	Short: "Retrieval-augmented question answering over document buckets",
	Long: `ragd ingests PDF, DOCX and text objects from S3 or a local directory into
PostgreSQL with pgvector, and answers questions grounded in the indexed chunks.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		// .env is optional; real environment variables take precedence.
		_ = godotenv.Load()
		if envName == "" {
			envName = config.GetEnv()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&envName, "env", "", "config environment (default: $ENV or local)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
