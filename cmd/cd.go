// Package cmd provides command-line interface for CD image processing.
// This file contains commands for dumping and extracting files from CD images
// used in PlayStation games.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hansbonini/psxcdrom/pkg"
)

// cdCmd represents the parent command for all CD image operations.
// It provides access to dump subcommand for processing CD images
// from PlayStation games.
var cdCmd = &cobra.Command{
	Use:   "cd",
	Short: "Process the file system of PlayStation disc images",
	Long: `Process the ISO9660 file system of PlayStation disc images.

Commands:
  dump      Extract files from a disc image (CUE/BIN or CHD)

Examples:
  psxcdrom cd dump game.cue ./output/`,
}

// cdDumpCmd extracts files from disc images.
// It parses the ISO9660 file system structure and exports individual files
// with detailed logging when verbose mode is enabled.
var cdDumpCmd = &cobra.Command{
	Use:   "dump [image] [output_directory]",
	Short: "Extract files from a disc image",
	Long: `Extract files from a disc image.

This command reads the ISO9660 file system of track 1 and extracts every
file. Sectors are read through the disc image, so CUE/BIN sheets and CHD
containers work alike. When verbose mode is enabled (-v), it displays
detailed information about each file including:
  - ID (4-digit hex)
  - MSF (Minutes:Seconds:Frames)
  - LBA (Logical Block Address)
  - Size in bytes
  - Path within the CD structure

Output:
  - Extracted files maintain the original directory structure
  - Detailed log of file information (when -v flag is used)

Example:
  psxcdrom cd dump game.cue ./output/
  psxcdrom cd dump -v game.chd ./output/`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		inputFile := args[0]
		outputDir := args[1]

		img, err := openImage(cmd, inputFile)
		if err != nil {
			return err
		}
		defer img.Close()

		// Create CD processor for handling dump operations
		processor := pkg.NewCDProcessor()

		fmt.Printf("Processing disc image: %s\n", inputFile)
		fmt.Printf("Output directory: %s\n", outputDir)

		files, err := processor.Dump(img, outputDir)
		if err != nil {
			return fmt.Errorf("failed to process disc image: %w", err)
		}

		fmt.Println("Disc image processed successfully!")
		fmt.Printf("%d files extracted to: %s\n", files, outputDir)

		return nil
	},
}

// init initializes the CD command with its subcommands and flags.
func init() {
	// Add the CD command to the root command
	rootCmd.AddCommand(cdCmd)

	// Add the dump subcommand to the CD command
	cdCmd.AddCommand(cdDumpCmd)

	cdDumpCmd.Flags().AddFlagSet(imageFlags())
}
