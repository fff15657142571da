// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package docrepo

import (
	"encoding/hex"
	"fmt"
	"time"

	"github.com/automerge/automerge-go"
)

// automergeFactory produces documents backed by automerge-go, the
// CRDT substrate spec.md leaves unnamed. This is the one dependency
// in this repo with no grounding in the example pack — see
// DESIGN.md for why it is adopted regardless.
type automergeFactory struct{}

func (automergeFactory) New(actor string) crdtDoc {
	doc := automerge.New()
	return &automergeDoc{doc: doc, actor: actor}
}

func (automergeFactory) Load(actor string, data []byte) (crdtDoc, error) {
	doc, err := automerge.Load(data)
	if err != nil {
		return nil, fmt.Errorf("automerge load: %w", err)
	}
	return &automergeDoc{doc: doc, actor: actor}, nil
}

// automergeDoc adapts *automerge.Doc to crdtDoc.
type automergeDoc struct {
	doc   *automerge.Doc
	actor string
}

// resolveMap walks mapPath from the document root, creating
// intermediate maps on demand when create is true.
func (d *automergeDoc) resolveMap(mapPath []string, create bool) (*automerge.Map, error) {
	m := d.doc.RootMap()

	for _, segment := range mapPath {
		val, err := m.Get(segment)
		if err != nil || val == nil || val.Kind() != automerge.KindMap {
			if !create {
				return nil, fmt.Errorf("map path %v: %q not found", mapPath, segment)
			}
			if err := m.Set(segment, automerge.NewMap()); err != nil {
				return nil, fmt.Errorf("create nested map %q: %w", segment, err)
			}
			val, err = m.Get(segment)
			if err != nil {
				return nil, fmt.Errorf("read back nested map %q: %w", segment, err)
			}
		}
		next, err := val.Map()
		if err != nil {
			return nil, fmt.Errorf("map path %v: %q is not a map: %w", mapPath, segment, err)
		}
		m = next
	}

	return m, nil
}

func (d *automergeDoc) MapSet(mapPath []string, key string, value []byte) error {
	m, err := d.resolveMap(mapPath, true)
	if err != nil {
		return err
	}
	return m.Set(key, value)
}

func (d *automergeDoc) MapGet(mapPath []string, key string) ([]byte, bool, error) {
	m, err := d.resolveMap(mapPath, false)
	if err != nil {
		return nil, false, nil // nested map missing == key absent
	}
	val, err := m.Get(key)
	if err != nil || val == nil {
		return nil, false, nil
	}
	data, err := val.Bytes()
	if err != nil {
		return nil, false, fmt.Errorf("key %q is not bytes: %w", key, err)
	}
	return data, true, nil
}

func (d *automergeDoc) MapDelete(mapPath []string, key string) error {
	m, err := d.resolveMap(mapPath, false)
	if err != nil {
		return nil // nothing to delete
	}
	return m.Delete(key)
}

func (d *automergeDoc) MapKeys(mapPath []string) ([]string, error) {
	m, err := d.resolveMap(mapPath, false)
	if err != nil {
		return nil, nil
	}
	return m.Keys()
}

func (d *automergeDoc) TextInit(key string, initial string) error {
	root := d.doc.RootMap()
	return root.Set(key, automerge.NewText(initial))
}

func (d *automergeDoc) textObj(key string) (*automerge.Text, error) {
	val, err := d.doc.RootMap().Get(key)
	if err != nil || val == nil {
		return nil, fmt.Errorf("text field %q not found", key)
	}
	return val.Text()
}

func (d *automergeDoc) TextValue(key string) (string, error) {
	text, err := d.textObj(key)
	if err != nil {
		return "", err
	}
	return text.Get()
}

func (d *automergeDoc) TextSplice(key string, pos, deleteCount int, insert string) error {
	text, err := d.textObj(key)
	if err != nil {
		return err
	}
	return text.Splice(pos, deleteCount, insert)
}

func (d *automergeDoc) Commit(actor, message string) (ChangeID, time.Time, error) {
	hash, err := d.doc.Commit(message, automerge.WithActor(automerge.ActorID(actor)))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("commit: %w", err)
	}
	return ChangeID(hash.String()), time.Now(), nil
}

func (d *automergeDoc) Heads() []ChangeID {
	heads := d.doc.Heads()
	out := make([]ChangeID, len(heads))
	for i, h := range heads {
		out[i] = ChangeID(h.String())
	}
	return out
}

func (d *automergeDoc) History() []ChangeMeta {
	changes, err := d.doc.Changes()
	if err != nil {
		return nil
	}

	out := make([]ChangeMeta, 0, len(changes))
	for _, c := range changes {
		out = append(out, ChangeMeta{
			Hash:      ChangeID(c.Hash().String()),
			Actor:     c.Actor().String(),
			Seq:       c.Seq(),
			Timestamp: time.Unix(c.Time(), 0).UTC(),
			Message:   c.Message(),
		})
	}
	return out
}

func (d *automergeDoc) ForkAtHeads(heads []ChangeID) (crdtDoc, bool) {
	known := make(map[ChangeID]bool)
	for _, c := range d.History() {
		known[c.Hash] = true
	}

	amHeads := make([]automerge.ChangeHash, len(heads))
	for i, h := range heads {
		if !known[h] {
			return nil, false
		}
		var hash automerge.ChangeHash
		raw, err := hex.DecodeString(string(h))
		if err != nil || copy(hash[:], raw) != len(hash) {
			return nil, false
		}
		amHeads[i] = hash
	}

	forked := d.doc.Fork(automerge.WithHeads(amHeads))
	return &automergeDoc{doc: forked, actor: d.actor}, true
}

func (d *automergeDoc) Save() []byte {
	return d.doc.Save()
}
