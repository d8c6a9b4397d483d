// Package cmd implements the command-line interface for the chatbot service.
// It provides the root command and subcommands for crawling, dataset
// preparation, indexing, fixture extraction, search, and the HTTP server.
package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/3bdelKhale2/Link-chatbot/cmd/crawl"
	"github.com/3bdelKhale2/Link-chatbot/cmd/httpd"
	cmdindex "github.com/3bdelKhale2/Link-chatbot/cmd/index"
	cmdmatches "github.com/3bdelKhale2/Link-chatbot/cmd/matches"
	"github.com/3bdelKhale2/Link-chatbot/cmd/prepare"
	"github.com/3bdelKhale2/Link-chatbot/cmd/search"
)

// version is stamped at build time.
var version = "dev"

var (
	// cfgFile holds the path to the configuration file.
	cfgFile string

	// debug enables debug logging for all commands.
	debug bool

	rootCmd = &cobra.Command{
		Use:   "koora",
		Short: "Arabic football news crawler and chatbot",
		Long: `Crawls football news sites into a JSONL corpus, prepares and indexes
text chunks for retrieval, extracts structured fixtures, and serves an
Arabic chat API over the result.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command.
func Execute() error {
	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("koora version %s\n", version)
		},
	})

	rootCmd.AddCommand(crawl.Command(&cfgFile, &debug))
	rootCmd.AddCommand(prepare.Command(&cfgFile, &debug))
	rootCmd.AddCommand(cmdindex.Command(&cfgFile, &debug))
	rootCmd.AddCommand(cmdmatches.Command(&cfgFile, &debug))
	rootCmd.AddCommand(search.Command(&cfgFile, &debug))
	rootCmd.AddCommand(httpd.Command(&cfgFile, &debug))
}
