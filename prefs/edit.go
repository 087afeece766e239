package prefs

import (
	"github.com/tranvictor/ensprefs/ens"
)

// PendingEdit holds what the user typed but has not been confirmed on
// chain yet. It is independent of the snapshot it was typed against.
type PendingEdit struct {
	values map[Key]string
}

func NewPendingEdit() *PendingEdit {
	return &PendingEdit{values: map[Key]string{}}
}

func (p *PendingEdit) Set(key Key, value string) error {
	if !key.Valid() {
		return &UnknownKeyError{Key: key}
	}
	p.values[key] = value
	return nil
}

func (p *PendingEdit) Get(key Key) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

func (p *PendingEdit) Empty() bool {
	return len(p.values) == 0
}

func (p *PendingEdit) Len() int {
	return len(p.values)
}

func (p *PendingEdit) Clear() {
	p.values = map[Key]string{}
}

func (p *PendingEdit) Clone() *PendingEdit {
	out := NewPendingEdit()
	for k, v := range p.values {
		out.values[k] = v
	}
	return out
}

// Values returns a copy of the edited values.
func (p *PendingEdit) Values() map[Key]string {
	out := make(map[Key]string, len(p.values))
	for k, v := range p.values {
		out[k] = v
	}
	return out
}

type Edit struct {
	Key   Key
	Value string
}

// WriteRequest is an ordered list of edits bound to one node, submitted as
// a single batched call.
type WriteRequest struct {
	Node  ens.Node
	Edits []Edit
}

type SavePolicy int

const (
	// SaveAll rewrites every key on each save, unchanged ones included.
	SaveAll SavePolicy = iota
	// SaveChanged only writes keys whose value differs from the last load.
	SaveChanged
)

func (p SavePolicy) String() string {
	if p == SaveChanged {
		return "changed"
	}
	return "all"
}

// BuildWriteRequest resolves every key to the edited value, else the last
// loaded value, else "". Under SaveChanged only edited keys whose value
// differs from what was loaded are kept; a key whose read failed counts as
// different.
func BuildWriteRequest(node ens.Node, loaded Snapshot, pending *PendingEdit, policy SavePolicy) WriteRequest {
	req := WriteRequest{Node: node}
	for _, k := range keys {
		previous := loaded.Values[k]
		value := previous
		edited, isEdited := pending.Get(k)
		if isEdited {
			value = edited
		}
		if policy == SaveChanged {
			if !isEdited || (value == previous && !loaded.Failed(k)) {
				continue
			}
		}
		req.Edits = append(req.Edits, Edit{Key: k, Value: value})
	}
	return req
}

// Unverified returns the keys a SaveAll request would overwrite blindly:
// not edited and not successfully read.
func Unverified(loaded Snapshot, pending *PendingEdit) []Key {
	var out []Key
	for _, k := range keys {
		if _, edited := pending.Get(k); edited {
			continue
		}
		if loaded.Failed(k) {
			out = append(out, k)
		}
	}
	return out
}
