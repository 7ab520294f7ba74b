package storage

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalStorePutGetDelete(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/uploads/")
	require.NoError(t, err)

	url, err := store.Put("certificates/abc.pdf", []byte("%PDF"))
	require.NoError(t, err)
	assert.Equal(t, "/uploads/certificates/abc.pdf", url)

	data, err := store.Get("certificates/abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF"), data)

	require.NoError(t, store.Delete("certificates/abc.pdf"))

	_, err = store.Get("certificates/abc.pdf")
	assert.ErrorIs(t, err, ErrBlobNotFound)
	assert.ErrorIs(t, store.Delete("certificates/abc.pdf"), ErrBlobNotFound)
}

func TestLocalStoreOverwrite(t *testing.T) {
	store, err := NewLocalStore(t.TempDir(), "/backups")
	require.NoError(t, err)

	_, err = store.Put("backup_a_1.json", []byte("one"))
	require.NoError(t, err)
	_, err = store.Put("backup_a_1.json", []byte("two"))
	require.NoError(t, err)

	data, err := store.Get("backup_a_1.json")
	require.NoError(t, err)
	assert.Equal(t, []byte("two"), data)
}
