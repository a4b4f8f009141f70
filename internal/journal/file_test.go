package journal

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/netdata/go-journalfile/pkg/logger"
)

func writeGarbageFile(path string) error {
	return os.WriteFile(path, []byte("not a journal file at all"), 0o644)
}

func newTestFile(t *testing.T, compact, keyed bool) *JournalFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.journal")
	jf, err := Create(&CreateConfig{
		Path:      path,
		Compact:   compact,
		KeyedHash: keyed,
		Logger:    logger.NewNop(),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = jf.Close() })
	return jf
}

func TestCreateWritesValidHeader(t *testing.T) {
	jf := newTestFile(t, false, true)

	hg, err := jf.Header()
	require.NoError(t, err)
	hdr := hg.Value()

	require.True(t, hdr.ValidSignature())
	require.Equal(t, StateOnline, hdr.State())
	require.True(t, hdr.IsKeyedHash())
	require.False(t, hdr.IsCompact())
	require.Equal(t, jf.FileID(), hdr.FileID())
	hg.Release()
}

func TestOpenRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roundtrip.journal")
	created, err := Create(&CreateConfig{Path: path, Compact: true, KeyedHash: false, Logger: logger.NewNop()})
	require.NoError(t, err)
	fileID := created.FileID()
	require.NoError(t, created.Close())

	opened, err := Open(&OpenConfig{Path: path, Writable: false, Logger: logger.NewNop()})
	require.NoError(t, err)
	defer opened.Close()

	require.True(t, opened.Compact())
	require.False(t, opened.KeyedHash())
	require.Equal(t, fileID, opened.FileID())
}

func TestOpenRejectsBadSignature(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.journal")
	require.NoError(t, writeGarbageFile(path))

	_, err := Open(&OpenConfig{Path: path, Writable: false, Logger: logger.NewNop()})
	require.Error(t, err)
}
