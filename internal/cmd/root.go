package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	cliflag "github.com/tomasbasham/cli-runtime/flag"
	"github.com/tomasbasham/cli-runtime/iooption"
	"github.com/tomasbasham/cli-runtime/printer"
	"github.com/tomasbasham/cli-runtime/templates"
)

var (
	rootLong = templates.LongDesc(`Extract rendering artifacts from generator-art
		pages hosted on allow-listed IPFS gateways: token features exposed by the
		page, or screenshots of the viewport or a canvas element.`)

	rootExamples = templates.Examples(``)

	// Injected at build time using ldflags.
	version = ""
	commit  = ""
)

// ArtcapOptions defines the options for the `artcap` command.
type ArtcapOptions struct {
	iooption.IOStreams
}

// NewArtcapOptions provides an initialised ArtcapOptions instance.
func NewArtcapOptions(streams iooption.IOStreams) *ArtcapOptions {
	return &ArtcapOptions{
		IOStreams: streams,
	}
}

// NewRootCommand creates the `artcap` command with default arguments.
func NewRootCommand() *cobra.Command {
	options := NewArtcapOptions(iooption.IOStreams{
		In:     os.Stdin,
		Out:    os.Stdout,
		ErrOut: os.Stderr,
	})

	return NewRootCommandWithArgs(options)
}

// NewRootCommandWithArgs creates the `artcap` command and its nested
// children.
func NewRootCommandWithArgs(o *ArtcapOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:                   "artcap [command]",
		Version:               versionInfo(),
		DisableFlagsInUseLine: true,
		Short:                 "Generator-art capture and feature extraction tool",
		Long:                  rootLong,
		Example:               rootExamples,
		SilenceErrors:         true,
		SilenceUsage:          true,
	}

	printerOpts := printer.WarningPrinterOptions{Color: true}
	printer := printer.NewWarningPrinter(o.ErrOut, printerOpts)
	cmd.SetGlobalNormalizationFunc(cliflag.WarnWordSepNormalizeFunc(printer))

	cmd.AddCommand(NewCaptureCommand(NewCaptureOptions(o.IOStreams)))
	cmd.AddCommand(NewFeaturesCommand(NewFeaturesOptions(o.IOStreams)))
	cmd.AddCommand(NewServeCommand(NewServeOptions()))

	// The global normalisation function ensures that all flags specified meet
	// the desired format, changing users' input if necessary.
	cmd.SetGlobalNormalizationFunc(cliflag.WordSepNormalizeFunc())

	return cmd
}

func versionInfo() string {
	if version == "" {
		return ""
	}
	return fmt.Sprintf("%s (commit: %s)", version, commit)
}
