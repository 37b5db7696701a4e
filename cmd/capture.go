package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/tobyv/a11yrelay/internal/capture"
	"github.com/tobyv/a11yrelay/internal/output"
	"github.com/tobyv/a11yrelay/internal/source"
)

var captureCmd = &cobra.Command{
	Use:   "capture",
	Short: "Capture one forest and print it",
	Long: `Walk every currently visible window's accessibility tree once and
print the resulting forest to stdout.

Examples:
  a11yrelay capture
  a11yrelay capture --format json --pretty
  a11yrelay capture --fake`,
	RunE: runCapture,
}

func init() {
	rootCmd.AddCommand(captureCmd)
	captureCmd.Flags().Bool("fake", false, "Use the built-in fake UI instead of the platform provider")
}

func runCapture(cmd *cobra.Command, args []string) error {
	provider, err := resolveProvider(cmd)
	if err != nil {
		return err
	}
	windows, err := provider.Windows()
	if err != nil {
		return err
	}
	forest := capture.CaptureForest(windows)
	return output.Print(output.CaptureResult{
		TS:     time.Now().UnixMilli(),
		Forest: forest,
	})
}

// resolveProvider returns the fake demo provider when --fake is set,
// otherwise the registered platform provider.
func resolveProvider(cmd *cobra.Command) (source.Provider, error) {
	if fake, _ := cmd.Flags().GetBool("fake"); fake {
		return source.DemoProvider(), nil
	}
	return source.NewProvider()
}
