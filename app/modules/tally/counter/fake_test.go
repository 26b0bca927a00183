package counter

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"
)

// fakeKV is an in-memory stand-in for a JetStream KV bucket with real
// revision semantics, so the CAS retry path is exercised.
type fakeKV struct {
	mu      sync.Mutex
	entries map[string]*fakeEntry

	// GetErr, when set, is returned by every Get.
	GetErr error
	// KeysErr, when set, is returned by every Keys.
	KeysErr error
}

type fakeEntry struct {
	key      string
	value    []byte
	revision uint64
	created  time.Time
}

func (e *fakeEntry) Bucket() string                  { return "VOTE_COUNTERS" }
func (e *fakeEntry) Key() string                     { return e.key }
func (e *fakeEntry) Value() []byte                   { return e.value }
func (e *fakeEntry) Revision() uint64                { return e.revision }
func (e *fakeEntry) Created() time.Time              { return e.created }
func (e *fakeEntry) Delta() uint64                   { return 0 }
func (e *fakeEntry) Operation() jetstream.KeyValueOp { return jetstream.KeyValuePut }

func newFakeKV() *fakeKV {
	return &fakeKV{entries: make(map[string]*fakeEntry)}
}

func (f *fakeKV) Get(_ context.Context, key string) (jetstream.KeyValueEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.GetErr != nil {
		return nil, f.GetErr
	}
	entry, ok := f.entries[key]
	if !ok {
		return nil, jetstream.ErrKeyNotFound
	}
	snapshot := make([]byte, len(entry.value))
	copy(snapshot, entry.value)
	return &fakeEntry{key: key, value: snapshot, revision: entry.revision, created: entry.created}, nil
}

func (f *fakeKV) Create(_ context.Context, key string, value []byte, _ ...jetstream.KVCreateOpt) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.entries[key]; ok {
		return 0, jetstream.ErrKeyExists
	}
	f.entries[key] = &fakeEntry{key: key, value: append([]byte(nil), value...), revision: 1, created: time.Now()}
	return 1, nil
}

func (f *fakeKV) Update(_ context.Context, key string, value []byte, revision uint64) (uint64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entry, ok := f.entries[key]
	if !ok || entry.revision != revision {
		return 0, &jetstream.APIError{ErrorCode: jetstream.JSErrCodeStreamWrongLastSequence}
	}
	entry.value = append([]byte(nil), value...)
	entry.revision++
	return entry.revision, nil
}

func (f *fakeKV) Delete(_ context.Context, key string, _ ...jetstream.KVDeleteOpt) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.entries, key)
	return nil
}

func (f *fakeKV) Keys(_ context.Context, _ ...jetstream.WatchOpt) ([]string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.KeysErr != nil {
		return nil, f.KeysErr
	}
	if len(f.entries) == 0 {
		return nil, jetstream.ErrNoKeysFound
	}
	keys := make([]string, 0, len(f.entries))
	for k := range f.entries {
		keys = append(keys, k)
	}
	return keys, nil
}

var _ KeyValue = (*fakeKV)(nil)
