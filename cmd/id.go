package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hansbonini/psxcdrom/pkg"
)

// idCmd runs the controller boot sequence against a disc.
var idCmd = &cobra.Command{
	Use:   "id [image]",
	Short: "Identify a disc the way the console BIOS does",
	Long: `Insert the disc into the emulated controller and run the boot
sequence: Init, GetTN, GetTD for every track and GetID.

The licence region comes from the disc unless the configuration file sets
one.

Example:
  psxcdrom id game.chd`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := openImage(cmd, args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		id, err := pkg.NewIdentifyProcessor(cfg.ControllerConfig()).Identify(img)
		if err != nil {
			return fmt.Errorf("failed to identify %s: %w", args[0], err)
		}
		kind := "unlicensed"
		switch {
		case id.Licensed:
			kind = "licensed (" + id.Region + ")"
		case id.Audio:
			kind = "audio"
		}
		fmt.Printf("Disc:     %s\n", kind)
		fmt.Printf("GetID:    %s\n", id.ID)
		fmt.Printf("Tracks:   %d-%d\n", id.FirstTrack, id.LastTrack)
		fmt.Printf("Starts:   %s\n", strings.Join(id.TrackStarts, " "))
		fmt.Printf("Lead-out: %s\n", id.LeadOut)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(idCmd)
	idCmd.Flags().AddFlagSet(imageFlags())
}
