// Package cmd provides the command-line interface of psxcdrom.
// psxcdrom opens PlayStation disc images (CUE/BIN and CHD) and drives them
// through an emulated CD-ROM controller.
package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/config"
	"github.com/hansbonini/psxcdrom/pkg/disc"
)

// cfg is the configuration loaded before any subcommand runs.
var cfg = config.Default()

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "psxcdrom",
	Short: "PlayStation CD-ROM disc image and controller tools",
	Long: `psxcdrom - Tools for PlayStation disc images built on an emulated
CD-ROM controller.

Currently supports:
  - CUE/BIN sheets and CHD containers
  - Table of contents listing and YAML export
  - Sector EDC verification
  - Disc identification through the controller boot sequence
  - XA-ADPCM and CD-DA audio rips to WAV
  - ISO9660 file extraction

Examples:
  psxcdrom toc game.cue
  psxcdrom toc --yaml toc.yaml game.chd
  psxcdrom verify game.cue
  psxcdrom id game.chd
  psxcdrom audio xa --start 00:02:16 --sectors 600 game.cue stream.wav
  psxcdrom audio cdda game.cue 2 track02.wav
  psxcdrom cd dump -v game.chd ./output/

Use 'psxcdrom [command] --help' for more information about a command.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path, err := cmd.Flags().GetString("config")
		if err != nil {
			return fmt.Errorf("error getting config flag: %w", err)
		}
		loaded, err := config.Load(path)
		if err != nil {
			return err
		}
		cfg = loaded

		// the flag wins over the file when given
		if f := cmd.Flags().Lookup("verbose"); f != nil && f.Changed {
			cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
		}
		common.SetVerboseMode(cfg.Verbose)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main() and serves as the entry point for command execution.
func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		common.LogError("%v", err)
		os.Exit(1)
	}
}

// imageFlags are shared by every command that opens a disc image.
func imageFlags() *pflag.FlagSet {
	fs := pflag.NewFlagSet("image", pflag.ContinueOnError)
	fs.String("format", "auto", "Image format: auto, cue or chd")
	fs.Bool("lenient", false, "Deliver sectors with checksum mismatches instead of failing")
	return fs
}

// openImage opens args[0] with the image flags of cmd applied over the
// configuration.
func openImage(cmd *cobra.Command, path string) (*disc.Image, error) {
	name, err := cmd.Flags().GetString("format")
	if err != nil {
		return nil, fmt.Errorf("error getting format flag: %w", err)
	}
	format, err := disc.ParseFormat(name)
	if err != nil {
		return nil, err
	}
	opts := cfg.DiscOptions()
	if lenient, _ := cmd.Flags().GetBool("lenient"); lenient {
		opts.Checksum = disc.ChecksumLenient
	}
	img, err := disc.Open(path, format, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", common.ErrFailedToOpenImage, err)
	}
	return img, nil
}

// init initializes the root command with flags and configuration settings.
func init() {
	rootCmd.PersistentFlags().String("config", "", "YAML configuration file")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output (show debug messages)")
}
