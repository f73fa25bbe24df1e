package main

import (
	"fmt"

	"contextai-go/internal/config"
	"contextai-go/internal/transport"
	"contextai-go/pkg/log"

	"github.com/spf13/cobra"
)

type options struct {
	configPath string
	server     string
	verbose    bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "contextai",
		Short: "Chat with your documents",
		Long: `A terminal client for the document chat server.

Upload a document, then ask questions about it. Answers stream in as they
are generated.

Quick Start:
  contextai upload report.pdf     # upload and select a document
  contextai documents             # list uploaded documents
  contextai chat                  # start an interactive chat`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(opts.configPath)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			if opts.server != "" {
				cfg.Client.BaseURL = opts.server
			}
			if opts.verbose {
				log.Init("debug", cfg.Log.Format, cfg.Log.OutputPath)
			}
			opts.cfg = cfg
			return nil
		},
	}

	root.PersistentFlags().StringVar(&opts.configPath, "config", "./configs/config.yaml", "path to config.yaml")
	root.PersistentFlags().StringVar(&opts.server, "server", "", "server base URL (overrides client.base_url)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "enable verbose logging")

	root.AddCommand(newDocumentsCmd(opts), newUploadCmd(opts), newChatCmd(opts))
	return root
}

func (o *options) client() *transport.Client {
	return transport.NewClient(o.cfg.Client, nil)
}
