package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/spf13/cobra"

	jarviscommon "github.com/tranvictor/ensprefs/common"
	"github.com/tranvictor/ensprefs/prefs"
	"github.com/tranvictor/ensprefs/session"
	"github.com/tranvictor/ensprefs/ui"
)

const clearInput = "-"

var (
	PrefDEX      string
	PrefSlippage string
	PrefRisk     string
	PrefClear    []string
	AssumeYes    bool
	NoWait       bool
)

type saveOptions struct {
	yes  bool
	wait bool
}

// loadForEdit loads addr into ctrl and fails unless it has a name to
// write to.
func loadForEdit(ctx context.Context, u ui.UI, ctrl *session.Controller, addr common.Address) error {
	stop := u.Spinner(fmt.Sprintf("Resolving %s...", addr.Hex()))
	err := ctrl.Load(ctx, addr)
	stop()
	if errors.Is(err, session.ErrNoName) {
		return fmt.Errorf("%s has no primary ENS name, set one before saving preferences", addr.Hex())
	}
	if err != nil {
		return err
	}
	st := ctrl.State()
	showSnapshot(u, *st.Snapshot)
	return nil
}

// applyFlagEdits turns the --dex, --slippage, --risk and --clear flags into
// controller edits. Only flags the user set count.
func applyFlagEdits(cmd *cobra.Command, ctrl *session.Controller) (int, error) {
	byFlag := []struct {
		flag  string
		key   prefs.Key
		value string
	}{
		{"dex", prefs.KeyPreferredDEX, PrefDEX},
		{"slippage", prefs.KeySlippage, PrefSlippage},
		{"risk", prefs.KeyRisk, PrefRisk},
	}
	n := 0
	for _, f := range byFlag {
		if !cmd.Flags().Changed(f.flag) {
			continue
		}
		if err := ctrl.Edit(f.key, f.value); err != nil {
			return n, err
		}
		n++
	}
	for _, raw := range PrefClear {
		key, err := prefs.ParseKey(raw)
		if err != nil {
			return n, err
		}
		if err := ctrl.Edit(key, ""); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// promptEdits walks through every key and records what the user typed.
func promptEdits(u ui.UI, ctrl *session.Controller) error {
	st := ctrl.State()
	snap := *st.Snapshot
	for _, key := range prefs.Keys() {
		key := key
		current := displayValue(u, snap, key)
		if key == prefs.KeyRisk {
			options := append([]string{"keep " + current}, prefs.RiskLevels...)
			options = append(options, "clear")
			idx := u.Choose(key.Label(), options)
			switch {
			case idx == 0:
				continue
			case idx == len(options)-1:
				if err := ctrl.Edit(key, ""); err != nil {
					return err
				}
			default:
				if err := ctrl.Edit(key, options[idx]); err != nil {
					return err
				}
			}
			continue
		}

		u.Info("%s [%s]. Enter to keep, %q to clear:", key.Label(), current, clearInput)
		input := u.Ask(func(s string) error {
			if s == "" || s == clearInput {
				return nil
			}
			return prefs.ValidateValue(key, s)
		})
		switch input {
		case "":
		case clearInput:
			if err := ctrl.Edit(key, ""); err != nil {
				return err
			}
		default:
			if err := ctrl.Edit(key, input); err != nil {
				return err
			}
		}
	}
	return nil
}

// savePreferences shows what will be written, asks for confirmation,
// broadcasts and optionally waits for the tx and the reload.
func savePreferences(ctx context.Context, u ui.UI, ctrl *session.Controller, opts saveOptions) error {
	req, err := ctrl.Plan()
	if errors.Is(err, session.ErrNothingToSave) {
		u.Info("Nothing changed, nothing to save.")
		return nil
	}
	var incomplete *session.IncompleteSnapshotError
	if errors.As(err, &incomplete) {
		return fmt.Errorf("%w. Set them explicitly or retry when the nodes answer", err)
	}
	if err != nil {
		return err
	}

	st := ctrl.State()
	u.Section("Transaction")
	u.KeyValue([][2]string{
		{"Name:", st.Snapshot.NameOrEmpty()},
		{"Node:", req.Node.Hex()},
		{"Records:", fmt.Sprintf("%d in one multicall", len(req.Edits))},
	})
	showChanges(u, *st.Snapshot, req.Edits)

	if !opts.yes && !u.Confirm("Sign and broadcast?", false) {
		if err := ctrl.Discard(); err != nil {
			return err
		}
		u.Warn("Aborted. Nothing was sent.")
		return nil
	}

	stop := u.Spinner("Broadcasting...")
	conf, err := ctrl.Save(ctx)
	stop()
	if err != nil {
		return fmt.Errorf("saving preferences: %w", err)
	}
	u.Critical("Broadcasted tx: %s", conf.Hash.Hex())
	if !opts.wait {
		return nil
	}

	stop = u.Spinner("Waiting for the tx to be mined...")
	err = conf.Wait(ctx)
	stop()
	if err != nil {
		return fmt.Errorf("tx %s: %w", conf.Hash.Hex(), err)
	}
	u.Success("Preferences saved.")
	if st := ctrl.State(); st.Snapshot != nil {
		showSnapshot(u, *st.Snapshot)
	}
	return nil
}

// addressArg is the single address argument, or the signer's address when
// there is none.
func addressArg(args []string) (common.Address, error) {
	if len(args) == 1 {
		return jarviscommon.ParseAddress(args[0])
	}
	signer, err := newSigner(cfg)
	if err != nil {
		return common.Address{}, fmt.Errorf("pass an address or configure a signer: %w", err)
	}
	return signer.Address(), nil
}

var showPrefsCmd = &cobra.Command{
	Use:   "show [address]",
	Short: "Show the preferences of an address, yours by default",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := addressArg(args)
		if err != nil {
			return err
		}
		svc, err := newServices(cfg)
		if err != nil {
			return err
		}
		stop := tui.Spinner(fmt.Sprintf("Resolving %s...", addr.Hex()))
		snap, err := svc.loader(cfg).LoadSnapshot(cmd.Context(), addr)
		stop()
		if err != nil {
			return err
		}
		showSnapshot(tui, snap)
		return nil
	},
}

func runEdit(cmd *cobra.Command, edit func(*session.Controller) error) error {
	signer, err := newSigner(cfg)
	if err != nil {
		return err
	}
	svc, err := newServices(cfg)
	if err != nil {
		return err
	}
	ctrl, err := svc.controller(cfg, signer)
	if err != nil {
		return err
	}
	defer ctrl.Close()

	ctx := cmd.Context()
	if err := loadForEdit(ctx, tui, ctrl, signer.Address()); err != nil {
		return err
	}
	if err := edit(ctrl); err != nil {
		return err
	}
	return savePreferences(ctx, tui, ctrl, saveOptions{yes: AssumeYes, wait: !NoWait})
}

var setPrefsCmd = &cobra.Command{
	Use:   "set",
	Short: "Change your preferences from flags",
	Long: `Changes the preferences of the signer's primary name. Only the flags you
pass are changed, an empty value clears a record. With the default save
policy every record is written again in the same transaction.`,
	Example: `  ensprefs prefs set --dex uniswap --slippage 0.5
  ensprefs prefs set --risk high --clear preferred_dex -y`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, func(ctrl *session.Controller) error {
			n, err := applyFlagEdits(cmd, ctrl)
			if err != nil {
				return err
			}
			if n == 0 {
				return errors.New("nothing to change, pass at least one of --dex, --slippage, --risk or --clear")
			}
			return nil
		})
	},
}

var editPrefsCmd = &cobra.Command{
	Use:   "edit",
	Short: "Edit your preferences interactively",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runEdit(cmd, func(ctrl *session.Controller) error {
			return promptEdits(tui, ctrl)
		})
	},
}

var prefsCmd = &cobra.Command{
	Use:   "prefs",
	Short: "Show and change the DeFi preferences of an ENS name",
}

func addSaveFlags(c *cobra.Command) {
	c.Flags().BoolVarP(&AssumeYes, "yes", "y", false, "Do not ask before signing")
	c.Flags().BoolVarP(&NoWait, "no-wait", "F", false, "Do not wait for the tx to be mined")
}

func init() {
	setPrefsCmd.Flags().StringVar(&PrefDEX, "dex", "", "Preferred DEX, for example uniswap")
	setPrefsCmd.Flags().StringVar(&PrefSlippage, "slippage", "", "Slippage tolerance in percent, 0 to 100")
	setPrefsCmd.Flags().StringVar(&PrefRisk, "risk", "", "Risk level: low, medium or high")
	setPrefsCmd.Flags().StringSliceVar(&PrefClear, "clear", nil, "Records to clear: preferred_dex, slippage, risk or the full record key")
	addSaveFlags(setPrefsCmd)
	addSaveFlags(editPrefsCmd)

	prefsCmd.AddCommand(showPrefsCmd)
	prefsCmd.AddCommand(setPrefsCmd)
	prefsCmd.AddCommand(editPrefsCmd)
	rootCmd.AddCommand(prefsCmd)
}
