package cmd

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tranvictor/ensprefs/networks"
	"github.com/tranvictor/ensprefs/ui"
)

var (
	NetworkConfig string
	NetworkForce  bool
)

// readNetworkConfig accepts inline json or a path to a json file.
func readNetworkConfig(raw string) (networks.Network, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("pass the network json or a path to it with --config")
	}
	if strings.HasPrefix(raw, "{") && strings.HasSuffix(raw, "}") {
		n, err := networks.NewNetworkFromJSON([]byte(raw))
		if err != nil {
			return nil, fmt.Errorf("the provided json is not valid: %w", err)
		}
		return n, nil
	}
	content, err := os.ReadFile(raw)
	if err != nil {
		return nil, fmt.Errorf("couldn't read the provided json file: %w", err)
	}
	n, err := networks.NewNetworkFromJSON(content)
	if err != nil {
		return nil, fmt.Errorf("the provided json is not a valid network config: %w", err)
	}
	return n, nil
}

func addNetwork(u ui.UI, reg *networks.Registry, n networks.Network, force bool) error {
	names := append([]string{n.GetName()}, n.GetAlternativeNames()...)
	for _, name := range names {
		if _, err := reg.Get(name); err == nil {
			if !force {
				return fmt.Errorf("network with name %s already exists, use --force to replace it", name)
			}
			u.Warn("Network with name %s already exists. It will be replaced.", name)
		}
	}
	if err := reg.Add(n); err != nil {
		return fmt.Errorf("failed to add the new network: %w", err)
	}
	u.Success("Network %s with chain ID %d added and saved to %s.", n.GetName(), n.GetChainID(), networksDir())
	return nil
}

func listNetworks(u ui.UI, reg *networks.Registry) {
	rows := [][]string{}
	for _, n := range reg.All() {
		nodes := networks.Nodes(n)
		nodeNames := make([]string, 0, len(nodes))
		for name := range nodes {
			nodeNames = append(nodeNames, name)
		}
		sort.Strings(nodeNames)
		rows = append(rows, []string{
			n.GetName(),
			fmt.Sprintf("%d", n.GetChainID()),
			n.GetENSRegistry().Hex(),
			strings.Join(nodeNames, ", "),
			n.GetNodeVariableName(),
		})
	}
	u.Table([]string{"Network", "Chain ID", "ENS registry", "Nodes", "Node env var"}, rows)
}

var addNetworkCmd = &cobra.Command{
	Use:   "add",
	Short: "Add a network to the supported networks list locally",
	Long: `--config takes a network json or a path to a json file in the following format:
	{
		"name": "holesky",
		"alternative_names": ["holesky-testnet"],
		"chain_id": 17000,
		"block_time": 12,
		"node_variable_name": "ETHEREUM_HOLESKY_NODE",
		"default_nodes": {
			"publicnode": "https://ethereum-holesky-rpc.publicnode.com"
		},
		"ens_registry": "0x00000000000C2E074eC69A0dFb2997BA6C7d2e1e",
		"public_resolver": "0x9010A27463717360cAD99CEA8bD39b8705CCA238"
	}`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		n, err := readNetworkConfig(NetworkConfig)
		if err != nil {
			return err
		}
		reg, err := networkRegistry()
		if err != nil {
			return err
		}
		return addNetwork(tui, reg, n, NetworkForce)
	},
}

var listNetworkCmd = &cobra.Command{
	Use:   "list",
	Short: "Show all of supported networks",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg, err := networkRegistry()
		if err != nil {
			return err
		}
		listNetworks(tui, reg)
		tui.Info("\nTo add a network: ensprefs network add --config <json>")
		tui.Info("To delete one, delete its json file in %s.", networksDir())
		return nil
	},
}

var networkCmd = &cobra.Command{
	Use:   "network",
	Short: "Manage the networks ensprefs can use",
}

func init() {
	addNetworkCmd.Flags().StringVarP(&NetworkConfig, "config", "c", "", "Network config json or a path to it")
	addNetworkCmd.Flags().BoolVarP(&NetworkForce, "force", "f", false, "Replace a network with the same name")

	networkCmd.AddCommand(listNetworkCmd)
	networkCmd.AddCommand(addNetworkCmd)
	rootCmd.AddCommand(networkCmd)
}
