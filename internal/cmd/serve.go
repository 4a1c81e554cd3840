package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/art-capture/internal/allowlist"
	"github.com/tomasbasham/art-capture/internal/browser"
	"github.com/tomasbasham/art-capture/internal/config"
	"github.com/tomasbasham/art-capture/internal/pipeline"
	"github.com/tomasbasham/art-capture/internal/server"
)

type ServeOptions struct {
	ListenAddr string
}

var (
	serveLong = templates.LongDesc(`Start the artwork capture HTTP server.

		Configuration is read from ARTCAP_* environment variables; with none
		set the built-in gateway allow list and timeout budgets apply.`)

	serveExample = templates.Examples(`
		# Start on the default address
		artcap serve

		# Start on a custom address
		artcap serve --addr :9090`)
)

func NewServeOptions() *ServeOptions {
	return &ServeOptions{}
}

func NewServeCommand(o *ServeOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "serve",
		Short:   "Start the artwork capture HTTP server",
		Long:    serveLong,
		Example: serveExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Validate(); err != nil {
				return err
			}
			if err := o.Run(); err != nil {
				return err
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&o.ListenAddr, "addr", "a", "", "Listen address (overrides ARTCAP_LISTEN_ADDR)")

	return cmd
}

func (o *ServeOptions) Complete(cmd *cobra.Command, args []string) error {
	return nil
}

func (o *ServeOptions) Validate() error {
	return nil
}

func (o *ServeOptions) Run() error {
	cfg := config.Load()
	if o.ListenAddr != "" {
		cfg.ListenAddr = o.ListenAddr
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	allow := allowlist.New(cfg.AllowedPrefixes)
	pipe := pipeline.New(browser.ChromeLauncher{}, cfg.Pipeline(), logger)
	srv := server.New(allow, pipe, logger)

	fmt.Printf("Starting artwork capture server on %s\n", cfg.ListenAddr)
	return srv.ListenAndServe(cfg.ListenAddr)
}
