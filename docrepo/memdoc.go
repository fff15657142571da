// Copyright 2025 StrongDM Inc
// SPDX-License-Identifier: Apache-2.0

package docrepo

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"sync"
	"time"
)

// memRegistry lets memDoc.Load simulate reopening a document from
// durable bytes without implementing a real serialization format: it
// is a process-local table from the token memDoc.Save returns back to
// the live document. This is sufficient for this package's own
// in-process tests (including a reopen-after-close scenario) and is
// never used by the production automergeDoc path.
var memRegistry = struct {
	mu   sync.Mutex
	docs map[string]*memDoc
}{docs: make(map[string]*memDoc)}

// memoryFactory builds memDoc instances: a linear-history, single-
// writer CRDT stand-in used by this package's own tests and by any
// caller that wants the engine's semantics without automerge-go's
// cgo dependency. It deliberately does not support concurrent merge
// — spec.md §5 already scopes that out for this engine ("the facade
// must treat the root document as single-writer"), so a linear
// append-only change log is a faithful enough model for every
// testable property in spec.md §8.
type memoryFactory struct{}

func (memoryFactory) New(actor string) crdtDoc {
	return &memDoc{actor: actor, fields: make(map[string]memValue)}
}

func (memoryFactory) Load(actor string, data []byte) (crdtDoc, error) {
	doc := &memDoc{actor: actor, fields: make(map[string]memValue)}
	if err := doc.restore(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// memValue is either a flat byte value, a nested map, or a text body.
type memValue struct {
	bytes    []byte
	isMap    bool
	mapVal   map[string]memValue
	isText   bool
	textVal  string
}

type memChange struct {
	meta     ChangeMeta
	snapshot map[string]memValue
}

type memDoc struct {
	actor   string
	fields  map[string]memValue
	history []memChange
	seq     uint64
	token   string
}

func (d *memDoc) navigate(mapPath []string, create bool) (map[string]memValue, bool) {
	cur := d.fields
	for _, seg := range mapPath {
		v, ok := cur[seg]
		if !ok || !v.isMap {
			if !create {
				return nil, false
			}
			v = memValue{isMap: true, mapVal: make(map[string]memValue)}
			cur[seg] = v
		}
		cur = cur[seg].mapVal
	}
	return cur, true
}

func (d *memDoc) MapSet(mapPath []string, key string, value []byte) error {
	m, _ := d.navigate(mapPath, true)
	cp := make([]byte, len(value))
	copy(cp, value)
	m[key] = memValue{bytes: cp}
	return nil
}

func (d *memDoc) MapGet(mapPath []string, key string) ([]byte, bool, error) {
	m, ok := d.navigate(mapPath, false)
	if !ok {
		return nil, false, nil
	}
	v, ok := m[key]
	if !ok || v.isMap || v.isText {
		return nil, false, nil
	}
	return v.bytes, true, nil
}

func (d *memDoc) MapDelete(mapPath []string, key string) error {
	m, ok := d.navigate(mapPath, false)
	if !ok {
		return nil
	}
	delete(m, key)
	return nil
}

func (d *memDoc) MapKeys(mapPath []string) ([]string, error) {
	m, ok := d.navigate(mapPath, false)
	if !ok {
		return nil, nil
	}
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

func (d *memDoc) TextInit(key string, initial string) error {
	d.fields[key] = memValue{isText: true, textVal: initial}
	return nil
}

func (d *memDoc) TextValue(key string) (string, error) {
	v, ok := d.fields[key]
	if !ok || !v.isText {
		return "", fmt.Errorf("text field %q not found", key)
	}
	return v.textVal, nil
}

func (d *memDoc) TextSplice(key string, pos, deleteCount int, insert string) error {
	v, ok := d.fields[key]
	if !ok || !v.isText {
		v = memValue{isText: true, textVal: ""}
	}
	runes := []rune(v.textVal)
	if pos < 0 || pos > len(runes) {
		return fmt.Errorf("splice position %d out of range [0,%d]", pos, len(runes))
	}
	end := pos + deleteCount
	if end > len(runes) {
		end = len(runes)
	}
	next := make([]rune, 0, len(runes)-(end-pos)+len([]rune(insert)))
	next = append(next, runes[:pos]...)
	next = append(next, []rune(insert)...)
	next = append(next, runes[end:]...)
	v.textVal = string(next)
	d.fields[key] = v
	return nil
}

func cloneFields(in map[string]memValue) map[string]memValue {
	out := make(map[string]memValue, len(in))
	for k, v := range in {
		cp := v
		if v.isMap {
			cp.mapVal = cloneFields(v.mapVal)
		}
		if v.bytes != nil {
			cp.bytes = append([]byte(nil), v.bytes...)
		}
		out[k] = cp
	}
	return out
}

func (d *memDoc) Commit(actor, message string) (ChangeID, time.Time, error) {
	d.seq++
	now := time.Now().UTC()

	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%d|%d", actor, message, d.seq, now.UnixNano())
	hash := ChangeID(hex.EncodeToString(h.Sum(nil)))

	d.history = append(d.history, memChange{
		meta: ChangeMeta{
			Hash:      hash,
			Actor:     actor,
			Seq:       d.seq,
			Timestamp: now,
			Message:   message,
		},
		snapshot: cloneFields(d.fields),
	})
	return hash, now, nil
}

func (d *memDoc) Heads() []ChangeID {
	if len(d.history) == 0 {
		return nil
	}
	return []ChangeID{d.history[len(d.history)-1].meta.Hash}
}

func (d *memDoc) History() []ChangeMeta {
	out := make([]ChangeMeta, len(d.history))
	for i, c := range d.history {
		out[i] = c.meta
	}
	return out
}

func (d *memDoc) ForkAtHeads(heads []ChangeID) (crdtDoc, bool) {
	if len(heads) == 0 {
		return &memDoc{actor: d.actor, fields: make(map[string]memValue)}, true
	}
	// Single-writer linear history: a valid head set is exactly one
	// hash that appears in history; fork to the state right after it.
	if len(heads) != 1 {
		return nil, false
	}
	for i, c := range d.history {
		if c.meta.Hash == heads[0] {
			fork := &memDoc{
				actor:   d.actor,
				fields:  cloneFields(c.snapshot),
				history: append([]memChange(nil), d.history[:i+1]...),
				seq:     c.meta.Seq,
			}
			return fork, true
		}
	}
	return nil, false
}

func (d *memDoc) Save() []byte {
	if d.token == "" {
		h := sha256.New()
		fmt.Fprintf(h, "memdoc-token|%s|%p", d.actor, d)
		d.token = hex.EncodeToString(h.Sum(nil))
	}

	memRegistry.mu.Lock()
	memRegistry.docs[d.token] = d
	memRegistry.mu.Unlock()

	return []byte(d.token)
}

func (d *memDoc) restore(data []byte) error {
	memRegistry.mu.Lock()
	live, ok := memRegistry.docs[string(data)]
	memRegistry.mu.Unlock()
	if !ok {
		return fmt.Errorf("memdoc: unknown token (process-local registry only)")
	}

	d.fields = cloneFields(live.fields)
	d.history = append([]memChange(nil), live.history...)
	d.seq = live.seq
	d.token = live.token
	return nil
}
