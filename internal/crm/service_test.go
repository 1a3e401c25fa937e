package crm

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maruel/pcrm/internal/config"
	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/models"
)

var testNow = time.Date(2024, time.June, 15, 10, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) *Service {
	t.Helper()
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	dbDir := filepath.Join(dir, "db")
	_, err := config.Init(cfgPath, dbDir)
	require.NoError(t, err)
	created, err := InitDatabase(dbDir, false)
	require.NoError(t, err)
	assert.Equal(t, []string{models.ContactTable, models.MeetingTable}, created)

	cfg, err := config.Load(cfgPath)
	require.NoError(t, err)
	s, err := Open(cfg, cfgPath)
	require.NoError(t, err)
	s.Now = func() time.Time { return testNow }
	return s
}

func TestAddContact(t *testing.T) {
	s := newTestService(t)
	c, err := s.AddContact("  Grace Hopper ", "", "Navy")
	require.NoError(t, err)
	assert.Equal(t, models.Contact{ID: 1, Name: "Grace Hopper", Country: Unknown, Industry: "Navy"}, c)

	_, err = s.AddContact(" ", "US", "")
	assert.ErrorIs(t, err, crmerrors.ErrBadInput)
}

func TestContacts(t *testing.T) {
	s := newTestService(t)
	a, err := s.AddContact("A", "Austria", "Wine")
	require.NoError(t, err)
	b, err := s.AddContact("B", "Germany", "Cars")
	require.NoError(t, err)
	c, err := s.AddContact("C", "Austria", "Cars")
	require.NoError(t, err)

	tests := []struct {
		name string
		q    ContactQuery
		want []models.Contact
	}{
		{"all", ContactQuery{}, []models.Contact{a, b, c}},
		{"country", ContactQuery{Country: "Austria"}, []models.Contact{a, c}},
		{"country and industry", ContactQuery{Country: "Austria", Industry: "Cars"}, []models.Contact{c}},
		{"id", ContactQuery{ID: b.ID}, []models.Contact{b}},
		{"name", ContactQuery{Name: "A"}, []models.Contact{a}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Contacts(tt.q)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err = s.Contacts(ContactQuery{Country: "France"})
	assert.ErrorIs(t, err, crmerrors.ErrNotFound)
}

func TestResolveContact(t *testing.T) {
	s := newTestService(t)
	ada, err := s.AddContact("Ada", "UK", "")
	require.NoError(t, err)
	_, err = s.AddContact("Bob", "", "")
	require.NoError(t, err)
	_, err = s.AddContact("Bob", "", "")
	require.NoError(t, err)

	got, err := s.ResolveContact("Ada")
	require.NoError(t, err)
	assert.Equal(t, ada, got)

	got, err = s.ResolveContact("1")
	require.NoError(t, err)
	assert.Equal(t, ada, got)

	_, err = s.ResolveContact("Bob")
	assert.ErrorIs(t, err, crmerrors.ErrDuplicate)
	_, err = s.ResolveContact("Carol")
	assert.ErrorIs(t, err, crmerrors.ErrNotFound)
	_, err = s.ResolveContact("99")
	assert.ErrorIs(t, err, crmerrors.ErrNotFound)
	_, err = s.ResolveContact("")
	assert.ErrorIs(t, err, crmerrors.ErrBadInput)
}

func TestEditDeleteContact(t *testing.T) {
	s := newTestService(t)
	_, err := s.AddContact("Ada", "UK", "")
	require.NoError(t, err)

	updated, err := s.EditContact("Ada", "Industry", "Math")
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "Math", updated[0].Industry)

	updated, err = s.EditContact("Ada", "Birthday", "1815-12-10")
	require.NoError(t, err)
	assert.Empty(t, updated)

	deleted, err := s.DeleteContact("1")
	require.NoError(t, err)
	assert.Equal(t, "Ada", deleted.Name)
	_, err = s.ResolveContact("Ada")
	assert.ErrorIs(t, err, crmerrors.ErrNotFound)
}

func TestMeetings(t *testing.T) {
	s := newTestService(t)
	ada, err := s.AddContact("Ada", "UK", "")
	require.NoError(t, err)

	m, err := s.AddMeeting(NewMeeting{
		Contact:     "Ada",
		Title:       " Tea ",
		Date:        "yesterday",
		Description: "Talked about *engines*.",
		Topics:      []string{"engines", " ", "poetry"},
	})
	require.NoError(t, err)
	want := models.Meeting{
		ID:          1,
		ContactID:   ada.ID,
		ContactName: "Ada",
		Title:       "Tea",
		Date:        "2024-06-14",
		Loc:         Unknown,
		Description: "Talked about *engines*.",
		Topics:      []string{"engines", "poetry"},
	}
	assert.Equal(t, want, m)

	// The contact name is a copy.
	_, err = s.EditContact("1", "Name", "Ada Lovelace")
	require.NoError(t, err)
	got, err := s.Meetings(MeetingQuery{ContactName: "Ada"})
	require.NoError(t, err)
	assert.Equal(t, []models.Meeting{want}, got)

	got, err = s.Meetings(MeetingQuery{Date: "June 14, 2024"})
	require.NoError(t, err)
	assert.Len(t, got, 1)

	updated, err := s.EditMeeting(m.ID, "Date", "2024/01/02")
	require.NoError(t, err)
	require.Len(t, updated, 1)
	assert.Equal(t, "2024-01-02", updated[0].Date)

	_, err = s.EditMeeting(m.ID, "Date", "someday")
	assert.ErrorIs(t, err, crmerrors.ErrBadInput)

	_, err = s.AddMeeting(NewMeeting{Contact: "Nobody", Title: "x"})
	assert.ErrorIs(t, err, crmerrors.ErrNotFound)
	_, err = s.AddMeeting(NewMeeting{Contact: "Ada Lovelace"})
	assert.ErrorIs(t, err, crmerrors.ErrBadInput)

	deleted, err := s.DeleteMeeting(m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, deleted.ID)
	_, err = s.Meetings(MeetingQuery{})
	assert.ErrorIs(t, err, crmerrors.ErrNotFound)

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Contacts: 1, Meetings: 0}, st)
}

func TestInitDatabaseKeepsData(t *testing.T) {
	s := newTestService(t)
	_, err := s.AddContact("Ada", "", "")
	require.NoError(t, err)
	dir := filepath.Dir(s.Paths()[0])

	created, err := InitDatabase(dir, false)
	require.NoError(t, err)
	assert.Empty(t, created)
	all, err := s.AllContacts()
	require.NoError(t, err)
	assert.Len(t, all, 1)

	created, err = InitDatabase(dir, true)
	require.NoError(t, err)
	assert.Len(t, created, 2)
	all, err = s.AllContacts()
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestUsedIDs(t *testing.T) {
	dir := t.TempDir()
	used, err := UsedIDs(dir)
	require.NoError(t, err)
	assert.Empty(t, used)

	s := newTestService(t)
	for _, name := range []string{"Ada", "Bob", "Carol"} {
		_, err := s.AddContact(name, "", "")
		require.NoError(t, err)
	}
	_, err = s.DeleteContact("3")
	require.NoError(t, err)
	_, err = s.AddMeeting(NewMeeting{Contact: "Ada", Title: "Tea"})
	require.NoError(t, err)

	used, err = UsedIDs(filepath.Dir(s.Paths()[0]))
	require.NoError(t, err)
	assert.Equal(t, map[string]int{models.ContactTable: 3, models.MeetingTable: 2}, used)

	require.NoError(t, os.WriteFile(s.Paths()[1], []byte("garbage"), 0o644))
	_, err = UsedIDs(filepath.Dir(s.Paths()[0]))
	assert.ErrorIs(t, err, crmerrors.ErrFormat)
}

func TestOpenMissingDatabase(t *testing.T) {
	cfg := config.Default(filepath.Join(t.TempDir(), "nope"))
	_, err := Open(cfg, filepath.Join(t.TempDir(), "config.yaml"))
	assert.ErrorIs(t, err, crmerrors.ErrFile)
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 12 ")
	require.NoError(t, err)
	assert.Equal(t, 12, id)
	for _, s := range []string{"", "-1", "1a", "one"} {
		_, err := ParseID(s)
		assert.ErrorIs(t, err, crmerrors.ErrBadInput, s)
	}
}
