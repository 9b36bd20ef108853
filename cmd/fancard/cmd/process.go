package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/fancard/internal/pipeline"
)

// processCmd represents the process command.
var processCmd = &cobra.Command{
	Use:   "process [image]",
	Short: "Generate a card from a portrait photo",
	Long: `Generate a single fan card from a portrait photo.

The photo's background is removed, the subject is fitted onto the card
canvas, composited with the selected frame, stamped with a QR download
code and the optional name/number labels, and written as a PNG into the
output directory.

Examples:
  fancard process portrait.jpg
  fancard process portrait.jpg --frame 3 --name "Alex" --number 10
  fancard process portrait.jpg --output-dir ./cards --format json`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func runProcess(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	if cmd.Flags().Changed("output-dir") {
		cfg.OutputDir, _ = cmd.Flags().GetString("output-dir")
	}
	if cmd.Flags().Changed("base-url") {
		cfg.BaseURL, _ = cmd.Flags().GetString("base-url")
	}
	if cmd.Flags().Changed("timeout") {
		cfg.Pipeline.ExtractionTimeoutSec, _ = cmd.Flags().GetInt("timeout")
	}
	if cmd.Flags().Changed("gpu") {
		cfg.GPU.Enabled, _ = cmd.Flags().GetBool("gpu")
	}
	if cmd.Flags().Changed("threads") {
		cfg.Pipeline.NumThreads, _ = cmd.Flags().GetInt("threads")
	}

	frame, _ := cmd.Flags().GetString("frame")
	name, _ := cmd.Flags().GetString("name")
	number, _ := cmd.Flags().GetString("number")
	format, _ := cmd.Flags().GetString("format")

	inputPath := args[0]
	data, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("read input image: %w", err)
	}

	pl, err := pipeline.NewBuilderFromConfig(cfg.ToPipelineConfig()).Build()
	if err != nil {
		return err
	}
	defer func() { _ = pl.Close() }()

	start := time.Now()
	result, err := pl.Process(context.Background(), pipeline.Request{
		Data:          data,
		Filename:      filepath.Base(inputPath),
		FrameSelector: frame,
		Name:          name,
		Number:        number,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if format == "json" {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	}

	fmt.Fprintf(out, "Card written to %s\n", filepath.Join(pl.Config().OutputDir, result.OutputFile))
	fmt.Fprintf(out, "Download URL: %s\n", result.DownloadURL)
	fmt.Fprintf(out, "Frame: %d, took %s\n", result.Frame, time.Since(start).Round(time.Millisecond))
	return nil
}

func init() {
	rootCmd.AddCommand(processCmd)

	processCmd.Flags().String("frame", "1", "frame selector (1-6, out-of-range falls back to 1)")
	processCmd.Flags().String("name", "", "name label printed on the card")
	processCmd.Flags().String("number", "", "number label printed on the card")
	processCmd.Flags().StringP("output-dir", "o", "", "directory the card is written to")
	processCmd.Flags().String("base-url", "", "public base URL used in the QR download link")
	processCmd.Flags().Int("timeout", 0, "background extraction timeout in seconds")
	processCmd.Flags().Int("threads", 0, "intra-op threads for the matting session")
	processCmd.Flags().Bool("gpu", false, "enable CUDA acceleration for matting")
	processCmd.Flags().String("format", "text", "output format (text, json)")
}
