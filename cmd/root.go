// Copyright © 2018 Victor Tran
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.


package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/tranvictor/ensprefs/config"
	"github.com/tranvictor/ensprefs/logging"
	"github.com/tranvictor/ensprefs/networks"
	"github.com/tranvictor/ensprefs/prefs"
	"github.com/tranvictor/ensprefs/ui"
)

var (
	ConfigPath string
	Network    string
	Nodes      []string
	LogLevel   string
	LogFormat  string
	Timeout    time.Duration
)

var (
	cfg       *config.Config
	logger    = slog.Default()
	logCloser io.Closer
	tui       ui.UI = ui.NewStdUI()
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "ensprefs",
	Short: "Read and write the DeFi preferences a wallet keeps in its ENS name",
	Long: fmt.Sprintf(`ensprefs reads the DeFi preferences a wallet publishes as text records
on its primary ENS name, and writes them back in a single transaction.

The records are:
	1. %s
	2. %s
	3. %s

An address without a primary name has no preferences. Preferences can be
shown, changed from flags or edited interactively, and served over HTTP:

	ensprefs resolve 0x...          print the name and preferences as json
	ensprefs prefs show 0x...       print them as a table
	ensprefs prefs set --risk low   change your own preferences
	ensprefs serve                  start GET /api/resolve?address=0x...

Settings are read from %s, then from %s* environment
variables, then from the flags. Nodes for the selected network can also be
added through the following env vars:
	1. For mainnet: %s
	2. For sepolia: %s

Signing needs %sSIGNER_PRIVATE_KEY, or %sSIGNER_KEYSTORE together with
%sSIGNER_KEYSTORE_PASSWORD (you are asked for the password when it is
not set and a terminal is attached).`,
		prefs.KeyPreferredDEX, prefs.KeySlippage, prefs.KeyRisk,
		config.DefaultPath(), config.EnvPrefix,
		networks.ETHEREUM_MAINNET_NODE_VAR,
		networks.ETHEREUM_SEPOLIA_NODE_VAR,
		config.EnvPrefix, config.EnvPrefix, config.EnvPrefix,
	),
	SilenceUsage:       true,
	SilenceErrors:      true,
	PersistentPreRunE:  setup,
	PersistentPostRunE: teardown,
}

// setup loads the config and applies the flags the user set explicitly on
// top of it.
func setup(cmd *cobra.Command, args []string) error {
	loaded, err := config.Load(ConfigPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("network") {
		loaded.Network = Network
	}
	if flags.Changed("node") {
		loaded.Nodes = Nodes
	}
	if flags.Changed("log-level") {
		loaded.Log.Level = LogLevel
	}
	if flags.Changed("log-format") {
		loaded.Log.Format = LogFormat
	}
	if flags.Changed("timeout") {
		loaded.RequestTimeout = Timeout
	}
	if err := loaded.Validate(); err != nil {
		return err
	}

	l, closer, err := logging.Setup(logging.Options{
		Service:    "ensprefs",
		Level:      loaded.Log.Level,
		Format:     loaded.Log.Format,
		File:       loaded.Log.File,
		MaxSizeMB:  loaded.Log.MaxSizeMB,
		MaxBackups: loaded.Log.MaxBackups,
		MaxAgeDays: loaded.Log.MaxAgeDays,
		Output:     os.Stderr,
	})
	if err != nil {
		return err
	}
	cfg, logger, logCloser = loaded, l, closer
	return nil
}

func teardown(cmd *cobra.Command, args []string) error {
	if logCloser == nil {
		return nil
	}
	return logCloser.Close()
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		tui.Error("Error: %s", err)
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&ConfigPath, "config-file", "C", config.DefaultPath(), "Path to the TOML config file")
	pf.StringVarP(&Network, "network", "k", "mainnet", fmt.Sprintf("Network to use. Built in: %s. See ensprefs network list for the rest", strings.Join([]string{networks.EthereumMainnet.GetName(), networks.Sepolia.GetName()}, ", ")))
	pf.StringSliceVar(&Nodes, "node", nil, "RPC node url, can be repeated. Replaces the nodes of the network")
	pf.StringVar(&LogLevel, "log-level", config.DefaultLevel, "Log level: debug, info, warn or error")
	pf.StringVar(&LogFormat, "log-format", "text", "Log format: text or json")
	pf.DurationVar(&Timeout, "timeout", 10*time.Second, "Timeout of a single RPC request")
}
