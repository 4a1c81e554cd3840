package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/tomasbasham/cli-runtime/iooption"
	"github.com/tomasbasham/cli-runtime/templates"

	"github.com/tomasbasham/art-capture/internal/allowlist"
	"github.com/tomasbasham/art-capture/internal/browser"
	"github.com/tomasbasham/art-capture/internal/config"
	"github.com/tomasbasham/art-capture/internal/pipeline"
	"github.com/tomasbasham/art-capture/internal/postprocess"
	"github.com/tomasbasham/art-capture/internal/request"
	"github.com/tomasbasham/art-capture/internal/storage"
)

type CaptureOptions struct {
	URL      string
	Mode     string
	Trigger  string
	Delay    time.Duration
	ResX     int
	ResY     int
	Selector string
	OutDir   string
	Bucket   string

	iooption.IOStreams
}

var (
	captureLong = templates.LongDesc(`Capture a single artwork page to an image
		file. The capture runs through the same validation and pipeline as the
		HTTP endpoint, so the target URL must match the gateway allow list.`)

	captureExample = templates.Examples(`
		# Capture the viewport at 1024x1024 after a two second delay
		artcap capture https://ipfs.io/ipfs/Qm.../

		# Capture a canvas element once the page signals readiness
		artcap capture https://ipfs.io/ipfs/Qm.../ --mode CANVAS --selector canvas --trigger FN_TRIGGER

		# Upload the result to a GCS bucket instead of the working directory
		artcap capture https://ipfs.io/ipfs/Qm.../ --bucket my-artifact-bucket`)
)

func NewCaptureOptions(streams iooption.IOStreams) *CaptureOptions {
	return &CaptureOptions{
		IOStreams: streams,
	}
}

func NewCaptureCommand(o *CaptureOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "capture [URL]",
		DisableFlagsInUseLine: true,
		Short:                 "Capture an artwork page to an image file",
		Long:                  captureLong,
		Example:               captureExample,
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

	pflags := cmd.PersistentFlags()

	pflags.StringVarP(&o.Mode, "mode", "m", string(request.ModeViewport), "Capture mode: VIEWPORT or CANVAS")
	pflags.StringVar(&o.Trigger, "trigger", string(request.TriggerDelay), "Trigger mode: DELAY or FN_TRIGGER")
	pflags.DurationVarP(&o.Delay, "delay", "d", 2*time.Second, "Render delay when using the DELAY trigger")
	pflags.IntVarP(&o.ResX, "res-x", "x", 1024, "Viewport width in pixels")
	pflags.IntVarP(&o.ResY, "res-y", "y", 1024, "Viewport height in pixels")
	pflags.StringVarP(&o.Selector, "selector", "s", "", "Canvas selector for CANVAS mode")
	pflags.StringVarP(&o.OutDir, "out", "o", "", "Output directory (default: working directory)")
	pflags.StringVarP(&o.Bucket, "bucket", "b", "", "GCS bucket for artifact storage (default: local disk)")

	return cmd
}

func (o *CaptureOptions) Complete(cmd *cobra.Command, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("URL is required")
	}
	o.URL = args[0]
	return nil
}

func (o *CaptureOptions) Validate() error {
	if len(o.URL) == 0 {
		return fmt.Errorf("URL is required")
	}
	return nil
}

func (o *CaptureOptions) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	// Go through the same body shape as the HTTP endpoint so the CLI and
	// the service cannot drift apart in what they accept.
	body, err := json.Marshal(o.requestBody())
	if err != nil {
		return fmt.Errorf("failed to build request body: %w", err)
	}

	req, err := request.ParseCapture(body, allowlist.New(cfg.AllowedPrefixes))
	if err != nil {
		return fmt.Errorf("invalid capture request: %w", err)
	}

	fmt.Fprintf(o.Out, "Capturing %s...\n", o.URL)

	pipe := pipeline.New(browser.ChromeLauncher{}, cfg.Pipeline(), nil)
	raw, err := pipe.Capture(ctx, req)
	if err != nil {
		return fmt.Errorf("capture failed: %w", err)
	}

	result, err := postprocess.Shrink(raw)
	if err != nil {
		return fmt.Errorf("post-processing failed: %w", err)
	}

	writer, err := o.writer(ctx)
	if err != nil {
		return err
	}

	filename := "capture.png"
	if result.ContentType == "image/jpeg" {
		filename = "capture.jpg"
	}

	written, err := writer.Write(ctx, &storage.WriteRequest{
		ObjectName:  storage.ObjectName(uuid.NewString(), filename),
		Content:     bytes.NewReader(result.Bytes),
		ContentType: result.ContentType,
	})
	if err != nil {
		return fmt.Errorf("failed to write artifact: %w", err)
	}

	fmt.Fprintf(o.Out, "Capture complete: %s (%d bytes)\n", written.URL, len(result.Bytes))
	return nil
}

// requestBody assembles the wire-shaped body, including only the fields the
// selected mode and trigger call for.
func (o *CaptureOptions) requestBody() map[string]any {
	body := map[string]any{
		"url":  o.URL,
		"mode": o.Mode,
	}

	if o.Trigger == string(request.TriggerFnCall) {
		body["triggerMode"] = o.Trigger
	} else {
		body["delay"] = o.Delay.Milliseconds()
	}

	if o.Mode == string(request.ModeCanvas) {
		body["canvasSelector"] = o.Selector
	} else {
		body["resX"] = o.ResX
		body["resY"] = o.ResY
	}

	return body
}

func (o *CaptureOptions) writer(ctx context.Context) (storage.Writer, error) {
	if o.Bucket != "" {
		w, err := storage.NewGCSWriter(ctx, o.Bucket)
		if err != nil {
			return nil, fmt.Errorf("failed to initialise GCS writer: %w", err)
		}
		return w, nil
	}

	dir := o.OutDir
	if dir == "" {
		var err error
		if dir, err = os.Getwd(); err != nil {
			return nil, fmt.Errorf("failed to get current working directory: %w", err)
		}
	}
	w, err := storage.NewDiskWriter(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise disk writer: %w", err)
	}
	return w, nil
}
