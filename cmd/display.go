package cmd

import (
	"github.com/tranvictor/ensprefs/prefs"
	"github.com/tranvictor/ensprefs/ui"
)

const (
	unsetText  = "(not set)"
	failedText = "(read failed)"
)

func displayValue(u ui.UI, snap prefs.Snapshot, key prefs.Key) string {
	if snap.Failed(key) {
		return u.Style(ui.StyledText{Text: failedText, Severity: ui.SeverityError})
	}
	if v, ok := snap.Get(key); ok {
		return v
	}
	return u.Style(ui.StyledText{Text: unsetText, Severity: ui.SeverityWarn})
}

// showSnapshot prints the name and one row per preference. Keys that
// could not be read are listed with their errors below the table.
func showSnapshot(u ui.UI, snap prefs.Snapshot) {
	u.Section("Preferences")
	name := snap.NameOrEmpty()
	if !snap.HasName() {
		name = u.Style(ui.StyledText{Text: "no primary name", Severity: ui.SeverityWarn})
	}
	u.KeyValue([][2]string{
		{"Address:", snap.Address.Hex()},
		{"ENS name:", name},
	})
	if !snap.HasName() {
		return
	}
	u.KeyValue([][2]string{{"Node:", snap.Node.Hex()}})

	rows := make([][]string, 0, len(prefs.Keys()))
	for _, k := range prefs.Keys() {
		rows = append(rows, []string{k.Label(), string(k), displayValue(u, snap, k)})
	}
	u.Table([]string{"Preference", "Record", "Value"}, rows)
	for _, k := range prefs.Keys() {
		if err, failed := snap.FetchErrors[k]; failed {
			u.Error("%s: %s", k, err)
		}
	}
}

// showChanges prints the values a save would write next to the loaded
// ones.
func showChanges(u ui.UI, snap prefs.Snapshot, edits []prefs.Edit) {
	rows := make([][]string, 0, len(edits))
	for _, e := range edits {
		next := e.Value
		if next == "" {
			next = u.Style(ui.StyledText{Text: "(clear)", Severity: ui.SeverityWarn})
		} else if current, ok := snap.Get(e.Key); !ok || current != e.Value {
			next = u.Style(ui.StyledText{Text: e.Value, Severity: ui.SeveritySuccess})
		}
		rows = append(rows, []string{string(e.Key), displayValue(u, snap, e.Key), next})
	}
	u.Table([]string{"Record", "Current", "New"}, rows)
}
