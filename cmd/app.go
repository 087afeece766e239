package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/term"

	"github.com/tranvictor/ensprefs/config"
	"github.com/tranvictor/ensprefs/ens"
	"github.com/tranvictor/ensprefs/networks"
	"github.com/tranvictor/ensprefs/records"
	"github.com/tranvictor/ensprefs/session"
	"github.com/tranvictor/ensprefs/util/account"
	"github.com/tranvictor/ensprefs/util/broadcaster"
	"github.com/tranvictor/ensprefs/util/monitor"
	"github.com/tranvictor/ensprefs/util/reader"
	"github.com/tranvictor/ensprefs/util/sender"
)

var ErrNoSigner = errors.New("no signer configured")

// services is everything a command needs for one network, built from the
// loaded config.
type services struct {
	network networks.Network
	nodes   map[string]string
	reader  *reader.EthReader
	client  *ens.Client
	names   *ens.Resolver
}

func networkRegistry() (*networks.Registry, error) {
	return networks.NewRegistry(networksDir(), logger)
}

func networksDir() string {
	return filepath.Join(config.Dir(), config.NetworksDir)
}

func newServices(c *config.Config) (*services, error) {
	reg, err := networkRegistry()
	if err != nil {
		return nil, err
	}
	network, err := reg.Get(c.Network)
	if err != nil {
		return nil, err
	}

	nodes := networks.Nodes(network)
	if len(c.Nodes) > 0 {
		nodes = map[string]string{}
		for i, url := range c.Nodes {
			nodes[fmt.Sprintf("node-%d", i+1)] = url
		}
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("network %s has no nodes, set %s or --node", network.GetName(), network.GetNodeVariableName())
	}

	registry := network.GetENSRegistry()
	if c.Registry != "" {
		registry = common.HexToAddress(c.Registry)
	}
	r := reader.NewEthReaderGeneric(nodes, c.RequestTimeout)
	client := ens.NewClient(r, registry)
	logger.Debug("services ready",
		"network", network.GetName(),
		"chain_id", network.GetChainID(),
		"nodes", len(nodes),
		"registry", registry.Hex(),
	)
	return &services{
		network: network,
		nodes:   nodes,
		reader:  r,
		client:  client,
		names:   ens.NewResolver(client, ens.WithForwardVerification(c.VerifyForward)),
	}, nil
}

func (s *services) storeOptions(c *config.Config) []records.Option {
	opts := []records.Option{records.WithLogger(logger)}
	if c.Resolver != "" {
		opts = append(opts, records.WithResolver(common.HexToAddress(c.Resolver)))
	}
	return opts
}

// loader is read only.
func (s *services) loader(c *config.Config) *session.Loader {
	store := records.NewStore(s.client, s.storeOptions(c)...)
	return session.NewLoader(s.names, store, logger)
}

// controller can write as signer.
func (s *services) controller(c *config.Config, signer account.Signer) (*session.Controller, error) {
	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}
	txSender := sender.NewTxSender(
		s.reader,
		signer,
		broadcaster.NewGenericBroadcaster(s.nodes, logger),
		s.network.GetChainID(),
		logger,
	)
	txMonitor := monitor.NewGenericTxMonitor(s.reader, c.Confirm.PollInterval, c.Confirm.LostAfter)
	opts := append(s.storeOptions(c),
		records.WithSubmitter(txSender),
		records.WithConfirmer(txMonitor),
	)
	store := records.NewStore(s.client, opts...)
	return session.NewController(
		session.NewLoader(s.names, store, logger),
		store,
		session.WithSavePolicy(policy),
		session.WithControllerLogger(logger),
	), nil
}

// newSigner prefers a raw private key over a keystore. A missing keystore
// password is asked for when stdin is a terminal.
func newSigner(c *config.Config) (account.Signer, error) {
	if c.Signer.PrivateKey != "" {
		signer, err := account.NewHexSigner(c.Signer.PrivateKey)
		if err != nil {
			return nil, err
		}
		return signer, nil
	}
	if c.Signer.Keystore == "" {
		return nil, fmt.Errorf("%w: set %sSIGNER_PRIVATE_KEY or %sSIGNER_KEYSTORE", ErrNoSigner, config.EnvPrefix, config.EnvPrefix)
	}
	password := c.Signer.Password
	if password == "" {
		fd := int(os.Stdin.Fd())
		if !term.IsTerminal(fd) {
			return nil, fmt.Errorf("%w: %sSIGNER_KEYSTORE_PASSWORD is not set", ErrNoSigner, config.EnvPrefix)
		}
		fmt.Fprintf(os.Stderr, "Keystore password: ")
		pw, err := term.ReadPassword(fd)
		fmt.Fprintln(os.Stderr)
		if err != nil {
			return nil, err
		}
		password = string(pw)
	}
	signer, err := account.NewKeystoreSigner(c.Signer.Keystore, password)
	if err != nil {
		return nil, err
	}
	return signer, nil
}
