// Package cmd holds the cobra command tree.
package cmd

import (
	"github.com/spf13/cobra"
)

var (
	cfgFile string
	verbose bool

	// Version info set by main package
	versionInfo struct {
		Version   string
		Commit    string
		BuildDate string
	}
)

// SetVersionInfo is called by main package to set version information
func SetVersionInfo(version, commit, buildDate string) {
	versionInfo.Version = version
	versionInfo.Commit = commit
	versionInfo.BuildDate = buildDate
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "btclens",
	Short: "JSON-RPC gateway for Bitcoin Core and public Bitcoin APIs",
	Long: `btclens is a JSON-RPC 2.0 gateway in front of a Bitcoin Core node.

It translates inbound JSON-RPC 2.0 requests into node RPC calls and
public API lookups (mempool.space, CoinGecko, alternative.me), with
rate limiting, retries, and a uniform error contract.

Use the subcommands to perform specific operations.`,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. Called once by main.main().
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "",
		"config file (optional; defaults and BTCLENS_* env vars apply without one)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"verbose output (sets log level to debug)")
}
