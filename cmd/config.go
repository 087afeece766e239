package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tranvictor/ensprefs/config"
	"github.com/tranvictor/ensprefs/ui"
)

var ConfigForce bool

// writeConfig saves the effective config, defaults included, so every
// setting is visible and editable. Signer secrets are never written.
func writeConfig(u ui.UI, path string, c *config.Config, force bool) error {
	if _, err := os.Stat(path); err == nil && !force {
		if !u.Confirm(fmt.Sprintf("%s exists. Overwrite?", path), false) {
			u.Warn("Kept the existing config.")
			return nil
		}
	}
	if err := config.Save(path, c); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	u.Success("Config written to %s", path)
	return nil
}

var initConfigCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the current settings to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return writeConfig(tui, ConfigPath, cfg, ConfigForce)
	},
}

var showConfigCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		signer := "not configured"
		switch {
		case cfg.Signer.PrivateKey != "":
			signer = "private key from env"
		case cfg.Signer.Keystore != "":
			signer = "keystore " + cfg.Signer.Keystore
		}
		tui.KeyValue([][2]string{
			{"Config file:", ConfigPath},
			{"Network:", cfg.Network},
			{"Request timeout:", cfg.RequestTimeout.String()},
			{"Verify forward:", fmt.Sprintf("%t", cfg.VerifyForward)},
			{"Save policy:", cfg.SavePolicy},
			{"Listen:", cfg.Server.Listen},
			{"Cache TTL:", cfg.Server.CacheTTL.String()},
			{"Signer:", signer},
		})
		return nil
	},
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the ensprefs config file",
}

func init() {
	initConfigCmd.Flags().BoolVarP(&ConfigForce, "force", "f", false, "Overwrite without asking")
	configCmd.AddCommand(initConfigCmd)
	configCmd.AddCommand(showConfigCmd)
	rootCmd.AddCommand(configCmd)
}
