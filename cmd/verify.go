package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hansbonini/psxcdrom/pkg"
)

// verifyCmd checks the EDC of every stored sector.
var verifyCmd = &cobra.Command{
	Use:   "verify [image]",
	Short: "Check the EDC of every sector of a disc image",
	Long: `Read every sector stored in a disc image and check its error
detection code. Mode 1, Mode 2 Form 1 and Mode 2 Form 2 sectors are
checked; audio sectors and Form 2 sectors without a checksum pass.

A progress bar is drawn when standard output is a terminal.

Example:
  psxcdrom verify game.cue`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := openImage(cmd, args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		report, err := pkg.NewVerifyProcessor(os.Stdout).Verify(img)
		if err != nil {
			return fmt.Errorf("failed to verify %s: %w", args[0], err)
		}
		for _, f := range report.Faults {
			fmt.Printf("track %02d sector %6d: expected %08X, got %08X\n", f.Track, f.Sector, f.Expected, f.Actual)
		}
		fmt.Printf("%d sectors in %d tracks, %d checksum errors\n", report.Sectors, report.Tracks, len(report.Faults))
		if len(report.Faults) > 0 {
			return fmt.Errorf("%d sectors failed verification", len(report.Faults))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().AddFlagSet(imageFlags())
}
