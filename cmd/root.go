package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tobyv/a11yrelay/internal/output"
	"github.com/tobyv/a11yrelay/internal/version"
)

var rootCmd = &cobra.Command{
	Use:   "a11yrelay",
	Short: "Capture the accessibility UI tree and forward it to a controller",
	Long:  "An on-device agent that flattens the platform accessibility node graph into serializable forests and streams them, plus discrete UI events, to a remote controller process.",
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", version.Version, version.Commit, version.BuildDate)
	rootCmd.PersistentFlags().String("format", "yaml", "Output format: yaml, json")
	rootCmd.PersistentFlags().Bool("pretty", false, "Pretty-print JSON output")
	rootCmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		format, _ := rootCmd.PersistentFlags().GetString("format")
		switch format {
		case "yaml":
			output.OutputFormat = output.FormatYAML
		case "json":
			output.OutputFormat = output.FormatJSON
		default:
			return fmt.Errorf("unsupported format: %s (use yaml or json)", format)
		}
		pretty, _ := rootCmd.PersistentFlags().GetBool("pretty")
		output.PrettyOutput = pretty
		return nil
	}
}
