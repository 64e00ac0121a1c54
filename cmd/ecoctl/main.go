// Command ecoctl is a terminal client for the sustainability actions API.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/eco-actions/internal/client"
	"github.com/and161185/eco-actions/internal/config"
)

var (
	version   = "1.0.0"
	buildDate = "unknown"
)

type rootOptions struct {
	apiURL  string
	timeout time.Duration
	verbose bool
}

func (o *rootOptions) client() *client.Client {
	log := zap.NewNop()
	if o.verbose {
		log, _ = zap.NewDevelopment()
	}
	return client.New(o.apiURL, o.timeout, log)
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	root := &cobra.Command{
		Use:           "ecoctl",
		Short:         "Track sustainability actions from the terminal.",
		Long:          `List, record, edit and delete sustainability actions stored by eco-server.`,
		Version:       fmt.Sprintf("v%s (%s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defURL := os.Getenv("ECO_API_URL")
	if defURL == "" {
		defURL = client.DefaultBaseURL
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api", defURL, "API base URL (env ECO_API_URL)")
	root.PersistentFlags().DurationVar(&opts.timeout, "timeout", client.DefaultTimeout, "request timeout")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log API requests")

	root.AddCommand(
		newListCmd(opts),
		newAddCmd(opts),
		newEditCmd(opts),
		newPatchCmd(opts),
		newRemoveCmd(opts),
	)
	return root
}

func main() {
	if err := config.LoadDotEnv(".env"); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
