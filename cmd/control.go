package cmd

import (
	"github.com/spf13/cobra"

	"github.com/tobyv/a11yrelay/internal/control"
	"github.com/tobyv/a11yrelay/internal/flags"
	"github.com/tobyv/a11yrelay/internal/output"
)

var controlCmd = &cobra.Command{
	Use:   "control <action>",
	Short: "Dispatch a control-plane action and print the resulting flags",
	Long: `Dispatch one control-plane action against a flag store seeded from the
config file and print the flags that result. The dispatch happens
in-process: this demonstrates the action semantics (in particular which
fields set-endpoint resets when omitted) without a running agent. Use
the MCP tools on a serve instance to control a live agent.

Examples:
  a11yrelay control enable-capture
  a11yrelay control set-endpoint --host 10.0.2.2 --port 8554
  a11yrelay control set-endpoint --port 8554
  a11yrelay control set-endpoint`,
	Args:      cobra.ExactArgs(1),
	ValidArgs: []string{control.ActionEnableCapture, control.ActionDisableCapture, control.ActionSetEndpoint},
	RunE:      runControl,
}

func init() {
	rootCmd.AddCommand(controlCmd)
	controlCmd.Flags().String("config", "", "YAML config file to seed the flags from")
	controlCmd.Flags().String("host", "", "Controller host for set-endpoint")
	controlCmd.Flags().Int("port", 0, "Controller port for set-endpoint")
}

// controlAction assembles the action from the command line. A flag the
// user did not pass stays omitted, so set-endpoint's reset-to-default
// semantics apply rather than an accidental empty-string host.
func controlAction(cmd *cobra.Command, name string) control.Action {
	action := control.Action{Name: name}
	if cmd.Flags().Changed("host") {
		host, _ := cmd.Flags().GetString("host")
		action.Host = &host
	}
	if cmd.Flags().Changed("port") {
		port, _ := cmd.Flags().GetInt("port")
		action.Port = &port
	}
	return action
}

// controlResult is the top-level output of the `control` command.
type controlResult struct {
	CaptureEnabled bool   `yaml:"capture_enabled" json:"capture_enabled"`
	CapturePeriod  string `yaml:"capture_period"  json:"capture_period"`
	RemoteHost     string `yaml:"remote_host"     json:"remote_host"`
	RemotePort     int    `yaml:"remote_port"     json:"remote_port"`
	Forwarding     bool   `yaml:"forwarding"      json:"forwarding"`
}

func runControl(cmd *cobra.Command, args []string) error {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store := flags.NewStore()
	applyConfig(cfg, store)

	control.NewReceiver(store, nil).Dispatch(controlAction(cmd, args[0]))

	host, port := store.Endpoint()
	return output.Print(controlResult{
		CaptureEnabled: store.CaptureEnabled(),
		CapturePeriod:  store.CapturePeriod().String(),
		RemoteHost:     host,
		RemotePort:     port,
		Forwarding:     store.EndpointEnabled(),
	})
}
