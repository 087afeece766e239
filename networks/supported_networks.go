package networks

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Insert more Network implementation here to support
// more chains
var supportedNetworks = []Network{
	EthereumMainnet,
	Sepolia,
}

var ErrNetworkNotFound = fmt.Errorf("network not found")

// Registry holds the built-in networks plus the custom ones found in its
// directory. Custom networks replace built-ins with the same name or id.
type Registry struct {
	dir          string
	logger       *slog.Logger
	networks     map[string]Network
	networksByID map[uint64]Network
}

func NewRegistry(dir string, logger *slog.Logger) (*Registry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	result := &Registry{
		dir:          dir,
		logger:       logger,
		networks:     map[string]Network{},
		networksByID: map[uint64]Network{},
	}
	for _, n := range supportedNetworks {
		if err := result.register(n, false); err != nil {
			return nil, err
		}
	}
	if dir == "" {
		return result, nil
	}

	customNetworks, err := result.loadCustomNetworks()
	if err != nil {
		logger.Warn("failed to load custom networks, continuing with built-in networks", "dir", dir, "error", err)
		return result, nil
	}
	for _, n := range customNetworks {
		if _, found := result.networks[n.GetName()]; found {
			logger.Info("custom network overrides existing one", "network", n.GetName())
		}
		if err := result.register(n, true); err != nil {
			logger.Warn("skipping custom network", "network", n.GetName(), "error", err)
		}
	}
	return result, nil
}

func (r *Registry) register(n Network, override bool) error {
	names := append([]string{n.GetName()}, n.GetAlternativeNames()...)
	if !override {
		for _, name := range names {
			if _, found := r.networks[name]; found {
				return fmt.Errorf("network with name or alternative name of '%s' already exists", name)
			}
		}
	}
	for _, name := range names {
		r.networks[name] = n
	}
	r.networksByID[n.GetChainID()] = n
	return nil
}

func (r *Registry) loadCustomNetworks() ([]Network, error) {
	files, err := filepath.Glob(filepath.Join(r.dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to glob json files in %s: %w", r.dir, err)
	}
	networks := []Network{}
	for _, file := range files {
		content, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("failed to read file %s: %w", file, err)
		}
		network, err := NewNetworkFromJSON(content)
		if err != nil {
			r.logger.Warn("ignoring custom network", "file", file, "error", err)
			continue
		}
		networks = append(networks, network)
	}
	return networks, nil
}

func (r *Registry) Get(name string) (Network, error) {
	res, found := r.networks[strings.ToLower(strings.TrimSpace(name))]
	if !found {
		return nil, fmt.Errorf("network name '%s': %w", name, ErrNetworkNotFound)
	}
	return res, nil
}

func (r *Registry) GetByID(id uint64) (Network, error) {
	res, found := r.networksByID[id]
	if !found {
		return nil, fmt.Errorf("network id %d: %w", id, ErrNetworkNotFound)
	}
	return res, nil
}

// All returns every distinct network ordered by chain id.
func (r *Registry) All() []Network {
	res := make([]Network, 0, len(r.networksByID))
	for _, n := range r.networksByID {
		res = append(res, n)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].GetChainID() < res[j].GetChainID() })
	return res
}

func (r *Registry) Names() []string {
	res := []string{}
	for _, n := range r.All() {
		res = append(res, n.GetName())
		res = append(res, n.GetAlternativeNames()...)
	}
	return res
}

// Add registers network and stores it in the registry directory so later
// runs pick it up.
func (r *Registry) Add(network Network) error {
	if err := r.register(network, true); err != nil {
		return err
	}
	if r.dir == "" {
		return nil
	}
	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", r.dir, err)
	}
	content, err := network.MarshalJSON()
	if err != nil {
		return fmt.Errorf("failed to marshal network: %w", err)
	}
	path := filepath.Join(r.dir, fmt.Sprintf("%s.json", network.GetName()))
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("failed to write the new network to file: %w", err)
	}
	return nil
}

// Nodes returns the default nodes of n plus the one set in its node
// variable, if any.
func Nodes(n Network) map[string]string {
	nodes := map[string]string{}
	for name, url := range n.GetDefaultNodes() {
		nodes[name] = url
	}
	if v := n.GetNodeVariableName(); v != "" {
		if customNode := strings.TrimSpace(os.Getenv(v)); customNode != "" {
			nodes["custom-node"] = customNode
		}
	}
	return nodes
}
