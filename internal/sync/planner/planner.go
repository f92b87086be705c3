package planner

import (
	"sort"
	"strings"
	"sync"

	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

// RemoteIndex maps remote keys to the objects listed under the push prefix.
type RemoteIndex map[string]storage.RemoteObject

// NewRemoteIndex indexes a remote listing by key.
func NewRemoteIndex(objects []storage.RemoteObject) RemoteIndex {
	idx := make(RemoteIndex, len(objects))
	for _, obj := range objects {
		idx[obj.Key] = obj
	}
	return idx
}

// Lookup returns the remote object at key, if listed.
func (idx RemoteIndex) Lookup(key string) (storage.RemoteObject, bool) {
	obj, ok := idx[key]
	return obj, ok
}

// Unchanged reports whether the object at key has the given MD5. Hex digests
// are compared case-insensitively; an object with no known MD5 never matches.
func (idx RemoteIndex) Unchanged(key, md5 string) bool {
	obj, ok := idx.Lookup(key)
	if !ok || obj.MD5 == "" || md5 == "" {
		return false
	}
	return strings.EqualFold(obj.MD5, md5)
}

// NewFilesFirst returns files reordered so those whose destination key is not
// in idx come first. Relative order within each group is preserved.
func NewFilesFirst(files []string, destKey func(string) string, idx RemoteIndex) []string {
	ordered := make([]string, len(files))
	copy(ordered, files)

	isNew := make(map[string]bool, len(files))
	for _, f := range files {
		_, exists := idx.Lookup(destKey(f))
		isNew[f] = !exists
	}

	sort.SliceStable(ordered, func(i, j int) bool {
		return isNew[ordered[i]] && !isNew[ordered[j]]
	})

	return ordered
}

// KeySet is a set of remote keys safe for concurrent use.
type KeySet struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

// NewKeySet creates an empty key set.
func NewKeySet() *KeySet {
	return &KeySet{keys: make(map[string]struct{})}
}

// Add marks keys as present.
func (s *KeySet) Add(keys ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.keys[k] = struct{}{}
	}
}

// Has reports whether key was added.
func (s *KeySet) Has(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.keys[key]
	return ok
}

// Len returns the number of keys in the set.
func (s *KeySet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}

// ExtraObjects returns, in listing order, the remote objects whose key is not
// in processed and which shouldDelete accepts.
func ExtraObjects(
	remote []storage.RemoteObject,
	processed *KeySet,
	shouldDelete func(storage.RemoteObject) bool,
) []storage.RemoteObject {
	if shouldDelete == nil {
		return nil
	}

	var extras []storage.RemoteObject
	for _, obj := range remote {
		if processed.Has(obj.Key) {
			continue
		}
		if shouldDelete(obj) {
			extras = append(extras, obj)
		}
	}
	return extras
}
