package planner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/input-output-hk/catalyst-forge-libs/push/storage"
)

func keys(objs []storage.RemoteObject) []string {
	out := make([]string, 0, len(objs))
	for _, o := range objs {
		out = append(out, o.Key)
	}
	return out
}

func TestRemoteIndex_Lookup(t *testing.T) {
	idx := NewRemoteIndex([]storage.RemoteObject{
		{Key: "site/a.txt", MD5: "49f68a5c8493ec2c0bf489821c21fc3b", Size: 2},
	})

	obj, ok := idx.Lookup("site/a.txt")
	assert.True(t, ok)
	assert.Equal(t, int64(2), obj.Size)
	assert.Equal(t, "49f68a5c8493ec2c0bf489821c21fc3b", obj.MD5)

	_, ok = idx.Lookup("site/b.txt")
	assert.False(t, ok)

	var empty RemoteIndex
	_, ok = empty.Lookup("site/a.txt")
	assert.False(t, ok, "a nil index has no objects")
}

func TestRemoteIndex_Unchanged(t *testing.T) {
	idx := NewRemoteIndex([]storage.RemoteObject{
		{Key: "site/a.txt", MD5: "49F68A5C8493EC2C0BF489821C21FC3B"},
		{Key: "site/multipart.bin", MD5: ""},
	})

	tests := []struct {
		name string
		key  string
		md5  string
		want bool
	}{
		{"case insensitive match", "site/a.txt", "49f68a5c8493ec2c0bf489821c21fc3b", true},
		{"different hash", "site/a.txt", "00000000000000000000000000000000", false},
		{"missing key", "site/b.txt", "49f68a5c8493ec2c0bf489821c21fc3b", false},
		{"unknown remote hash", "site/multipart.bin", "49f68a5c8493ec2c0bf489821c21fc3b", false},
		{"empty local hash", "site/a.txt", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, idx.Unchanged(tt.key, tt.md5))
		})
	}
}

func TestNewFilesFirst(t *testing.T) {
	idx := NewRemoteIndex([]storage.RemoteObject{
		{Key: "p/old1"},
		{Key: "p/old2"},
	})
	files := []string{"old1", "new1", "old2", "new2"}

	got := NewFilesFirst(files, func(f string) string { return "p/" + f }, idx)

	assert.Equal(t, []string{"new1", "new2", "old1", "old2"}, got)
	assert.Equal(t, []string{"old1", "new1", "old2", "new2"}, files, "input is not modified")
}

func TestExtraObjects(t *testing.T) {
	remote := []storage.RemoteObject{
		{Key: "A"},
		{Key: "A.br"},
		{Key: "A.gz"},
		{Key: "B"},
	}

	tests := []struct {
		name      string
		processed []string
		filter    func(storage.RemoteObject) bool
		want      []string
	}{
		{
			name:      "compressed variant no longer produced",
			processed: []string{"A", "A.br"},
			filter:    func(storage.RemoteObject) bool { return true },
			want:      []string{"A.gz", "B"},
		},
		{
			name:      "all variants kept",
			processed: []string{"A", "A.br", "A.gz"},
			filter:    func(storage.RemoteObject) bool { return true },
			want:      []string{"B"},
		},
		{
			name:      "filter protects objects",
			processed: []string{"A"},
			filter:    func(o storage.RemoteObject) bool { return !strings.HasSuffix(o.Key, ".gz") },
			want:      []string{"A.br", "B"},
		},
		{
			name:      "deletion disabled",
			processed: nil,
			filter:    nil,
			want:      []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			set := NewKeySet()
			set.Add(tt.processed...)

			assert.Equal(t, tt.want, keys(ExtraObjects(remote, set, tt.filter)))
		})
	}
}

func TestKeySet(t *testing.T) {
	s := NewKeySet()
	s.Add("a", "b", "a")

	assert.True(t, s.Has("a"))
	assert.False(t, s.Has("c"))
	assert.Equal(t, 2, s.Len())
}
