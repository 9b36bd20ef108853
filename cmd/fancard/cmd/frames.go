package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/fancard/internal/frames"
)

// framesCmd represents the frames command.
var framesCmd = &cobra.Command{
	Use:   "frames",
	Short: "List and validate frame overlays",
	Long: `List the frame overlays available for card generation.

With --validate, every frame in the fixed selector range must exist and
match the card canvas dimensions; missing or mis-sized frames fail the
command.

Examples:
  fancard frames
  fancard frames --validate
  fancard frames --frames-dir ./assets/frames --format json`,
	RunE: runFrames,
}

func runFrames(cmd *cobra.Command, _ []string) error {
	cfg := GetConfig()

	validate, _ := cmd.Flags().GetBool("validate")
	format, _ := cmd.Flags().GetString("format")

	lib := frames.NewLibrary(frames.GetFramesDir(cfg.FramesDir),
		cfg.Pipeline.CanvasWidth, cfg.Pipeline.CanvasHeight)

	if validate {
		if err := lib.Validate(); err != nil {
			return fmt.Errorf("frame validation failed: %w", err)
		}
	}

	list := lib.List()
	out := cmd.OutOrStdout()

	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	fmt.Fprintf(out, "Frames in %s (canvas %dx%d):\n", lib.Dir(),
		cfg.Pipeline.CanvasWidth, cfg.Pipeline.CanvasHeight)
	if len(list) == 0 {
		fmt.Fprintln(out, "  none found")
		return nil
	}
	for _, info := range list {
		fmt.Fprintf(out, "  %d: %s (%dx%d)\n", info.Selector, info.Path, info.Width, info.Height)
	}
	if validate {
		fmt.Fprintf(out, "All %d frames valid for a %dx%d canvas\n", frames.MaxSelector,
			cfg.Pipeline.CanvasWidth, cfg.Pipeline.CanvasHeight)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(framesCmd)

	framesCmd.Flags().Bool("validate", false, "require all frames to exist and match the canvas")
	framesCmd.Flags().String("format", "text", "output format (text, json)")
}
