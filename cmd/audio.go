package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/hansbonini/psxcdrom/pkg"
	"github.com/hansbonini/psxcdrom/pkg/common"
	"github.com/hansbonini/psxcdrom/pkg/disc"
)

// audioCmd represents the parent command for audio rips.
var audioCmd = &cobra.Command{
	Use:   "audio",
	Short: "Record the controller's audio output to WAV files",
	Long: `Record what the emulated CD-ROM controller sends to the sound chip.

Commands:
  xa        Decode an XA-ADPCM stream read from the data track
  cdda      Play a CD-DA track

Examples:
  psxcdrom audio xa --start 00:02:16 --sectors 600 game.cue stream.wav
  psxcdrom audio cdda game.cue 2 track02.wav`,
}

// audioXACmd decodes an interleaved XA stream.
var audioXACmd = &cobra.Command{
	Use:   "xa [image] [output.wav]",
	Short: "Decode an XA-ADPCM stream to WAV",
	Long: `Read sectors with ADPCM playback enabled and record the decoded,
44100 Hz resampled output.

Flags:
  --start MM:SS:FF   Absolute position of the first sector
  --sectors N        Number of sectors to read (defaults to xa_sectors)
  --file N           XA file number to select (with --channel)
  --channel N        XA channel number to select; enables the filter
  --double-speed     Read at double speed, as games streaming 37.8 kHz XA do

Example:
  psxcdrom audio xa --start 00:02:16 --channel 1 --double-speed game.cue music.wav`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		flags := cmd.Flags()
		start, err := flags.GetString("start")
		if err != nil {
			return fmt.Errorf("error getting start flag: %w", err)
		}
		at, err := disc.ParseTime(start)
		if err != nil {
			return err
		}
		opts := pkg.XARipOptions{Start: at, Sectors: cfg.XASectors}
		if flags.Changed("sectors") {
			opts.Sectors, _ = flags.GetInt("sectors")
		}
		file, _ := flags.GetUint8("file")
		channel, _ := flags.GetUint8("channel")
		opts.File, opts.Channel = file, channel
		opts.Filter = flags.Changed("channel") || flags.Changed("file")
		opts.DoubleSpeed, _ = flags.GetBool("double-speed")

		img, err := openImage(cmd, args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		fmt.Printf("Reading %d sectors from %s\n", opts.Sectors, at)
		frames, err := pkg.NewAudioProcessor(cfg.ControllerConfig()).RipXA(img, opts, args[1])
		if err != nil {
			return fmt.Errorf("failed to rip XA audio: %w", err)
		}
		fmt.Printf("Wrote %d frames to %s\n", frames, args[1])
		return nil
	},
}

// audioCDDACmd plays one audio track.
var audioCDDACmd = &cobra.Command{
	Use:   "cdda [image] [track] [output.wav]",
	Short: "Play a CD-DA track to WAV",
	Long: `Play an audio track from INDEX 01 to its end through the emulated
controller and record the output.

Example:
  psxcdrom audio cdda game.cue 2 track02.wav`,
	Args: cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		track, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("%s: %q", common.ErrTrackOutOfRange, args[1])
		}
		img, err := openImage(cmd, args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		frames, err := pkg.NewAudioProcessor(cfg.ControllerConfig()).RipCDDA(img, track, args[2])
		if err != nil {
			return fmt.Errorf("failed to rip track %d: %w", track, err)
		}
		fmt.Printf("Wrote %d frames to %s\n", frames, args[2])
		return nil
	},
}

func init() {
	rootCmd.AddCommand(audioCmd)
	audioCmd.AddCommand(audioXACmd)
	audioCmd.AddCommand(audioCDDACmd)

	audioXACmd.Flags().AddFlagSet(imageFlags())
	audioXACmd.Flags().String("start", "00:02:00", "Absolute position of the first sector (MM:SS:FF)")
	audioXACmd.Flags().Int("sectors", 0, "Number of sectors to read")
	audioXACmd.Flags().Uint8("file", 0, "XA file number")
	audioXACmd.Flags().Uint8("channel", 0, "XA channel number")
	audioXACmd.Flags().Bool("double-speed", false, "Read at double speed")

	audioCDDACmd.Flags().AddFlagSet(imageFlags())
}
