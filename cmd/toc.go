package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/hansbonini/psxcdrom/pkg"
)

// tocCmd lists the tracks of a disc image.
var tocCmd = &cobra.Command{
	Use:   "toc [image]",
	Short: "List the table of contents of a disc image",
	Long: `List the tracks of a CUE/BIN or CHD disc image.

Every track is shown with its mode, absolute start, INDEX 01 position, end,
pregap length and the number of sectors the container stores.

Flags:
  --yaml FILE    Write the table of contents to FILE as YAML

Examples:
  psxcdrom toc game.cue
  psxcdrom toc --yaml toc.yaml game.chd`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		img, err := openImage(cmd, args[0])
		if err != nil {
			return err
		}
		defer img.Close()

		out, err := cmd.Flags().GetString("yaml")
		if err != nil {
			return fmt.Errorf("error getting yaml flag: %w", err)
		}
		processor := pkg.NewTOCProcessor()
		if out != "" {
			return processor.Export(img, out)
		}
		processor.WriteTable(img, os.Stdout)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(tocCmd)
	tocCmd.Flags().AddFlagSet(imageFlags())
	tocCmd.Flags().String("yaml", "", "Write the table of contents to this YAML file")
}
