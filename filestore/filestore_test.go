package filestore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"museum-ticketing/errs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProof(t *testing.T) {
	var ve *errs.ValidationError

	assert.NoError(t, ValidateProof("receipt.png", 1024))
	assert.NoError(t, ValidateProof("RECEIPT.JPG", 1024))

	require.ErrorAs(t, ValidateProof("receipt.pdf", 1024), &ve)
	require.ErrorAs(t, ValidateProof("receipt.png", MaxFileSize+1), &ve)
	require.ErrorAs(t, ValidateProof("receipt.png", 0), &ve)
	require.ErrorAs(t, ValidateProof("noextension", 1024), &ve)
}

func TestDiskStoreSave(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	ref, err := store.Save("receipt.PNG", []byte("image-bytes"))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(ref, "proof_"))
	assert.True(t, strings.HasSuffix(ref, ".png"))
	// Uploader's filename must not leak into the stored reference.
	assert.NotContains(t, ref, "receipt")

	data, err := os.ReadFile(filepath.Join(store.Dir, ref))
	require.NoError(t, err)
	assert.Equal(t, []byte("image-bytes"), data)
}

func TestDiskStoreSaveRejectsInvalidUpload(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	_, err = store.Save("malware.exe", []byte("x"))
	var ve *errs.ValidationError
	require.ErrorAs(t, err, &ve)
}

func TestSaveGeneratesDistinctReferences(t *testing.T) {
	store, err := NewDiskStore(t.TempDir())
	require.NoError(t, err)

	a, err := store.Save("receipt.png", []byte("one"))
	require.NoError(t, err)
	b, err := store.Save("receipt.png", []byte("two"))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
