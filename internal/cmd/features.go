package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/iooption"
	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/art-capture/internal/allowlist"
	"github.com/tomasbasham/art-capture/internal/browser"
	"github.com/tomasbasham/art-capture/internal/config"
	"github.com/tomasbasham/art-capture/internal/pipeline"
	"github.com/tomasbasham/art-capture/internal/request"
)

type FeaturesOptions struct {
	URL string

	iooption.IOStreams
}

var (
	featuresLong = templates.LongDesc(`Extract the token features exposed by an
		artwork page and print them as JSON. Pages without a usable feature
		export produce an empty array.`)

	featuresExample = templates.Examples(`
		# Print the features of a token page
		artcap features https://ipfs.io/ipfs/Qm.../`)
)

func NewFeaturesOptions(streams iooption.IOStreams) *FeaturesOptions {
	return &FeaturesOptions{
		IOStreams: streams,
	}
}

func NewFeaturesCommand(o *FeaturesOptions) *cobra.Command {
	return &cobra.Command{
		Use:                   "features [URL]",
		DisableFlagsInUseLine: true,
		Short:                 "Extract token features from an artwork page",
		Long:                  featuresLong,
		Example:               featuresExample,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := o.Complete(cmd, args); err != nil {
				return err
			}
			if err := o.Run(); err != nil {
				return err
			}
			return nil
		},
	}
}

func (o *FeaturesOptions) Complete(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("URL is required")
	}
	o.URL = args[0]
	return nil
}

func (o *FeaturesOptions) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	body, err := json.Marshal(map[string]string{"url": o.URL})
	if err != nil {
		return fmt.Errorf("failed to build request body: %w", err)
	}

	req, err := request.ParseFeature(body, allowlist.New(cfg.AllowedPrefixes))
	if err != nil {
		return fmt.Errorf("invalid feature request: %w", err)
	}

	pipe := pipeline.New(browser.ChromeLauncher{}, cfg.Pipeline(), nil)
	features, err := pipe.Features(ctx, req)
	if err != nil {
		return fmt.Errorf("feature extraction failed: %w", err)
	}

	out, err := json.MarshalIndent(features, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal features: %w", err)
	}

	fmt.Fprintln(o.Out, string(out))
	return nil
}
