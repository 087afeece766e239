package prefs

import (
	"time"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tranvictor/ensprefs/ens"
)

// Snapshot is one coherent read of an address's name and preferences.
// A key is never in both Values and FetchErrors. Snapshots are replaced
// wholesale on reload, never merged.
type Snapshot struct {
	Address     common.Address
	Name        *string
	Node        *ens.Node
	Values      map[Key]string
	FetchErrors map[Key]error
	LoadedAt    time.Time
}

func NewSnapshot(addr common.Address) Snapshot {
	return Snapshot{
		Address:     addr,
		Values:      map[Key]string{},
		FetchErrors: map[Key]error{},
	}
}

func (s Snapshot) HasName() bool {
	return s.Name != nil && s.Node != nil
}

func (s Snapshot) NameOrEmpty() string {
	if s.Name == nil {
		return ""
	}
	return *s.Name
}

func (s Snapshot) Get(key Key) (string, bool) {
	v, ok := s.Values[key]
	return v, ok
}

func (s Snapshot) Failed(key Key) bool {
	_, failed := s.FetchErrors[key]
	return failed
}

// Complete reports whether every key was read successfully.
func (s Snapshot) Complete() bool {
	return len(s.FetchErrors) == 0
}

func (s Snapshot) Clone() Snapshot {
	out := s
	out.Values = make(map[Key]string, len(s.Values))
	for k, v := range s.Values {
		out.Values[k] = v
	}
	out.FetchErrors = make(map[Key]error, len(s.FetchErrors))
	for k, err := range s.FetchErrors {
		out.FetchErrors[k] = err
	}
	if s.Name != nil {
		name := *s.Name
		out.Name = &name
	}
	if s.Node != nil {
		node := *s.Node
		out.Node = &node
	}
	return out
}

// Preferences is the wire form: every key present, unset ones nil. A
// snapshot without a name has no preferences at all.
func (s Snapshot) Preferences() map[Key]*string {
	out := map[Key]*string{}
	if !s.HasName() {
		return out
	}
	for _, k := range keys {
		if v, ok := s.Values[k]; ok {
			value := v
			out[k] = &value
		} else {
			out[k] = nil
		}
	}
	return out
}
