package store

import (
	"encoding/json"
	"errors"
	"sync"

	"github.com/cockroachdb/pebble"
	"github.com/wireq/mqttd/wire"
)

var retainedPrefix = []byte("retained:")

// PebbleStore is a Pebble-backed Store, for operators who want the
// retained-message table to survive a broker restart. Session state is
// never persisted here (spec.md Non-goals); this is strictly the
// topic->(qos,payload) table described in SPEC_FULL.md §4.J. Adapted
// from the teacher's session.PebbleStore key/value shape, dropped down
// to this package's smaller RetainedMessage record and no context
// threading, since Store has none of the cancellation-sensitive
// operations a session store does.
type PebbleStore struct {
	db *pebble.DB

	mu     sync.RWMutex
	closed bool
}

// PebbleStoreConfig configures where the on-disk database lives.
type PebbleStoreConfig struct {
	Path string
	Opts *pebble.Options
}

// NewPebbleStore opens (or creates) the Pebble database at cfg.Path.
func NewPebbleStore(cfg PebbleStoreConfig) (*PebbleStore, error) {
	opts := cfg.Opts
	if opts == nil {
		opts = &pebble.Options{ErrorIfExists: false}
	}

	db, err := pebble.Open(cfg.Path, opts)
	if err != nil {
		return nil, err
	}

	return &PebbleStore{db: db}, nil
}

func retainedKey(topic string) []byte {
	key := make([]byte, len(retainedPrefix)+len(topic))
	copy(key, retainedPrefix)
	copy(key[len(retainedPrefix):], topic)
	return key
}

type retainedData struct {
	Topic   string `json:"topic"`
	QoS     byte   `json:"qos"`
	Payload []byte `json:"payload"`
}

// Save stores or overwrites the retained message for topic. Errors are
// swallowed to match the Store interface's unconditional-save
// contract; a failed write is discarded and not reported anywhere.
func (p *PebbleStore) Save(topic string, msg RetainedMessage) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return
	}
	p.mu.RUnlock()

	value, err := json.Marshal(retainedData{Topic: msg.Topic, QoS: byte(msg.QoS), Payload: msg.Payload})
	if err != nil {
		return
	}
	_ = p.db.Set(retainedKey(topic), value, pebble.Sync)
}

func (p *PebbleStore) Load(topic string) (RetainedMessage, bool) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return RetainedMessage{}, false
	}
	p.mu.RUnlock()

	value, closer, err := p.db.Get(retainedKey(topic))
	if err != nil {
		if errors.Is(err, pebble.ErrNotFound) {
			return RetainedMessage{}, false
		}
		return RetainedMessage{}, false
	}
	defer closer.Close()

	var data retainedData
	if err := json.Unmarshal(value, &data); err != nil {
		return RetainedMessage{}, false
	}
	return RetainedMessage{Topic: data.Topic, QoS: wire.QoS(data.QoS), Payload: data.Payload}, true
}

func (p *PebbleStore) Delete(topic string) {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return
	}
	p.mu.RUnlock()
	_ = p.db.Delete(retainedKey(topic), pebble.Sync)
}

func (p *PebbleStore) Count() int {
	p.mu.RLock()
	if p.closed {
		p.mu.RUnlock()
		return 0
	}
	p.mu.RUnlock()

	iter, err := p.db.NewIter(&pebble.IterOptions{
		LowerBound: retainedPrefix,
		UpperBound: append(append([]byte{}, retainedPrefix...), 0xff),
	})
	if err != nil {
		return 0
	}
	defer iter.Close()

	count := 0
	for iter.First(); iter.Valid(); iter.Next() {
		count++
	}
	return count
}

// Close closes the underlying Pebble database.
func (p *PebbleStore) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrStoreClosed
	}
	p.closed = true
	return p.db.Close()
}

var _ Store = (*PebbleStore)(nil)
