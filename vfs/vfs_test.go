// File: vfs/vfs_test.go
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
package vfs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeTree(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "index.html"), []byte("Hello world!"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "assets"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "assets", "app.js"), []byte("console.log(1)"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, ".hidden"), []byte("secret"), 0o644))
	return root
}

func TestLoadAllSkipsDotfiles(t *testing.T) {
	root := writeTree(t)
	v, err := New(root, nil)
	require.NoError(t, err)

	h, ok := v.Get("index.html")
	require.True(t, ok)
	require.Equal(t, "Hello world!", string(h.Data))

	h, ok = v.Get("assets/app.js")
	require.True(t, ok)
	require.Equal(t, "console.log(1)", string(h.Data))

	_, ok = v.Get(".hidden")
	require.False(t, ok)
}

func TestHandleSurvivesEviction(t *testing.T) {
	root := writeTree(t)
	v, err := New(root, nil)
	require.NoError(t, err)

	h, ok := v.Get("index.html")
	require.True(t, ok)

	v.evict("index.html")
	_, ok = v.Get("index.html")
	require.False(t, ok)

	// The handle obtained before eviction must still be readable.
	require.Equal(t, "Hello world!", string(h.Data))
}

func TestChangelogDeleteAndReload(t *testing.T) {
	root := writeTree(t)
	v, err := New(root, nil)
	require.NoError(t, err)

	// force the cadence gate open
	v.lastRefresh = time.Now().Add(-2 * reloadInterval)

	require.NoError(t, os.WriteFile(filepath.Join(root, "new.txt"), []byte("fresh"), 0o644))
	changelog := "DELETE\tindex.html\n\nnew.txt\n"
	require.NoError(t, os.WriteFile(filepath.Join(root, changelogName), []byte(changelog), 0o644))

	require.NoError(t, v.MaybeReload())

	_, ok := v.Get("index.html")
	require.False(t, ok)

	h, ok := v.Get("new.txt")
	require.True(t, ok)
	require.Equal(t, "fresh", string(h.Data))

	_, err = os.Stat(filepath.Join(root, changelogName))
	require.True(t, os.IsNotExist(err))
}

func TestMaybeReloadGatedByCadence(t *testing.T) {
	root := writeTree(t)
	v, err := New(root, nil)
	require.NoError(t, err)
	v.lastRefresh = time.Now()

	require.NoError(t, os.WriteFile(filepath.Join(root, changelogName), []byte("DELETE\tindex.html\n"), 0o644))
	require.NoError(t, v.MaybeReload())

	// cadence gate should have suppressed processing; index.html survives
	// and the changelog file is untouched.
	_, ok := v.Get("index.html")
	require.True(t, ok)
	_, err = os.Stat(filepath.Join(root, changelogName))
	require.NoError(t, err)
}
