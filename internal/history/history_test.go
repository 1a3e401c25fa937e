package history

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maruel/pcrm/internal/config"
	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/ident"
	"github.com/maruel/pcrm/internal/jsonldb"
	"github.com/maruel/pcrm/internal/models"
	"github.com/maruel/pcrm/internal/storage"
)

func messages(t *testing.T, r *Recorder) []string {
	t.Helper()
	commits, err := r.Log(0)
	require.NoError(t, err)
	var out []string
	for _, c := range commits {
		out = append(out, c.Message)
	}
	return out
}

func TestRecorder(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir)
	require.NoError(t, err)
	assert.Empty(t, messages(t, r))

	path := filepath.Join(dir, "contact.json")
	require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0o644))
	require.NoError(t, r.RecordsChanged("contact", path, storage.OpInsert, []int{1}))

	// Nothing changed: no commit.
	require.NoError(t, r.RecordsChanged("contact", path, storage.OpUpdate, []int{1}))

	require.NoError(t, os.WriteFile(path, []byte("[1]\n"), 0o644))
	require.NoError(t, r.RecordsChanged("contact", path, storage.OpDelete, []int{1, 2}))

	assert.Equal(t, []string{"delete contact 1,2", "insert contact 1"}, messages(t, r))

	commits, err := r.Log(1)
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.Len(t, commits[0].Hash, 40)

	// Reopening keeps the history.
	again, err := Open(dir)
	require.NoError(t, err)
	assert.Len(t, messages(t, again), 2)
}

func TestRecorderLogMissingObject(t *testing.T) {
	dir := t.TempDir()
	r, err := Open(dir)
	require.NoError(t, err)
	path := filepath.Join(dir, "contact.json")
	for i, content := range []string{"[]\n", "[1]\n"} {
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		require.NoError(t, r.RecordsChanged("contact", path, storage.OpInsert, []int{i + 1}))
	}
	commits, err := r.Log(0)
	require.NoError(t, err)
	require.Len(t, commits, 2)

	// Drop the loose object of the first commit: the log must fail rather
	// than look shorter.
	first := commits[1].Hash
	require.NoError(t, os.Remove(filepath.Join(dir, ".git", "objects", first[:2], first[2:])))
	again, err := Open(dir)
	require.NoError(t, err)
	_, err = again.Log(0)
	assert.ErrorIs(t, err, crmerrors.ErrRead)
}

func TestRecorderOutside(t *testing.T) {
	r, err := Open(t.TempDir())
	require.NoError(t, err)
	other := filepath.Join(t.TempDir(), "contact.json")
	require.NoError(t, os.WriteFile(other, []byte("[]\n"), 0o644))
	assert.Error(t, r.RecordsChanged("contact", other, storage.OpInsert, []int{1}))
}

func TestRecorderObservesRepository(t *testing.T) {
	dir := t.TempDir()
	dbDir := filepath.Join(dir, "db")
	cfgPath := filepath.Join(dir, "config.yaml")
	_, err := config.Init(cfgPath, dbDir)
	require.NoError(t, err)
	r, err := Open(dbDir)
	require.NoError(t, err)

	table, err := jsonldb.NewTable[models.Contact](dbDir, models.ContactTable)
	require.NoError(t, err)
	require.NoError(t, table.Init())
	repo, err := storage.NewRepository(table, &ident.CounterFile{Path: cfgPath})
	require.NoError(t, err)
	repo.Observe(r)

	c, err := repo.Insert(models.Contact{Name: "Ada"})
	require.NoError(t, err)
	_, err = repo.Update(c.ID, "Country", "UK")
	require.NoError(t, err)
	_, err = repo.Delete(c.ID)
	require.NoError(t, err)

	assert.Equal(t, []string{"delete contact 1", "update contact 1", "insert contact 1"}, messages(t, r))
}
