// Package crm implements the contact and meeting operations on top of the
// record repositories.
package crm

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/maruel/pcrm/internal/config"
	crmerrors "github.com/maruel/pcrm/internal/errors"
	"github.com/maruel/pcrm/internal/ident"
	"github.com/maruel/pcrm/internal/jsonldb"
	"github.com/maruel/pcrm/internal/models"
	"github.com/maruel/pcrm/internal/storage"
)

// Unknown is stored for contact attributes that were not given.
const Unknown = "unknown"

// Service handles contacts and meetings.
type Service struct {
	contacts   *storage.Repository[models.Contact]
	meetings   *storage.Repository[models.Meeting]
	thresholds []int

	// Now returns the current time. Relative dates and recency are computed
	// against it.
	Now func() time.Time
}

// NewService creates a service over the given repositories. thresholds are the
// recency bucket limits in days; nil uses config.DefaultRecencyDays.
func NewService(contacts *storage.Repository[models.Contact], meetings *storage.Repository[models.Meeting], thresholds []int) *Service {
	if len(thresholds) == 0 {
		thresholds = config.DefaultRecencyDays
	}
	return &Service{
		contacts:   contacts,
		meetings:   meetings,
		thresholds: thresholds,
		Now:        time.Now,
	}
}

// Open creates a service over the database described by cfg. Identifiers are
// allocated from the counters stored in the settings file at cfgPath.
func Open(cfg *config.Config, cfgPath string) (*Service, error) {
	if fi, err := os.Stat(cfg.Database); err != nil || !fi.IsDir() {
		return nil, crmerrors.FileError(fmt.Sprintf("database %s not found, run \"pcrm init\"", cfg.Database), err)
	}
	ids := &ident.CounterFile{Path: cfgPath}
	ct, err := jsonldb.NewTable[models.Contact](cfg.Database, models.ContactTable)
	if err != nil {
		return nil, err
	}
	contacts, err := storage.NewRepository(ct, ids)
	if err != nil {
		return nil, err
	}
	mt, err := jsonldb.NewTable[models.Meeting](cfg.Database, models.MeetingTable)
	if err != nil {
		return nil, err
	}
	meetings, err := storage.NewRepository(mt, ids)
	if err != nil {
		return nil, err
	}
	return NewService(contacts, meetings, cfg.RecencyDays), nil
}

// InitDatabase creates the empty table files in dir. Existing tables are kept
// unless force is set. It returns the names of the tables it (re)created.
func InitDatabase(dir string, force bool) ([]string, error) {
	ct, err := jsonldb.NewTable[models.Contact](dir, models.ContactTable)
	if err != nil {
		return nil, err
	}
	mt, err := jsonldb.NewTable[models.Meeting](dir, models.MeetingTable)
	if err != nil {
		return nil, err
	}
	var created []string
	for _, t := range []interface {
		Name() string
		Exists() bool
		Init() error
	}{ct, mt} {
		if t.Exists() && !force {
			slog.Info("keeping existing table", "table", t.Name())
			continue
		}
		if err := t.Init(); err != nil {
			return created, err
		}
		created = append(created, t.Name())
	}
	return created, nil
}

// UsedIDs returns, for each table present in dir, one more than the highest
// identifier it holds. Missing and empty tables are omitted. The counters must
// never fall below these values or an insert would reuse an identifier.
func UsedIDs(dir string) (map[string]int, error) {
	ct, err := jsonldb.NewTable[models.Contact](dir, models.ContactTable)
	if err != nil {
		return nil, err
	}
	mt, err := jsonldb.NewTable[models.Meeting](dir, models.MeetingTable)
	if err != nil {
		return nil, err
	}
	out := map[string]int{}
	if err := nextFree(ct, func(c *models.Contact) int { return c.ID }, out); err != nil {
		return out, err
	}
	if err := nextFree(mt, func(m *models.Meeting) int { return m.ID }, out); err != nil {
		return out, err
	}
	return out, nil
}

func nextFree[T any](t *jsonldb.Table[T], id func(*T) int, out map[string]int) error {
	if !t.Exists() {
		return nil
	}
	rows, err := t.Read()
	if err != nil {
		return err
	}
	for i := range rows {
		if n := id(&rows[i]) + 1; n > out[t.Name()] {
			out[t.Name()] = n
		}
	}
	return nil
}

// Observe registers o on both tables.
func (s *Service) Observe(o storage.Observer) {
	s.contacts.Observe(o)
	s.meetings.Observe(o)
}

// Paths returns the table file paths.
func (s *Service) Paths() []string {
	return []string{s.contacts.Table().Path(), s.meetings.Table().Path()}
}

// Thresholds returns the recency bucket limits in days.
func (s *Service) Thresholds() []int {
	return s.thresholds
}

// ContactQuery selects contacts. Zero fields are ignored.
type ContactQuery struct {
	ID       int
	Name     string
	Country  string
	Industry string
}

func (q *ContactQuery) pairs() ([]string, []any) {
	var names []string
	var values []any
	if q.ID != 0 {
		names, values = append(names, "ID"), append(values, q.ID)
	}
	for _, p := range []struct{ name, value string }{
		{"Name", q.Name},
		{"Country", q.Country},
		{"Industry", q.Industry},
	} {
		if v := strings.TrimSpace(p.value); v != "" {
			names, values = append(names, p.name), append(values, v)
		}
	}
	return names, values
}

// AddContact records a new contact. Empty country and industry are stored as
// Unknown.
func (s *Service) AddContact(name, country, industry string) (models.Contact, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Contact{}, crmerrors.BadInput("a contact needs a name")
	}
	return s.contacts.Insert(models.Contact{
		Name:     name,
		Country:  orUnknown(country),
		Industry: orUnknown(industry),
	})
}

// Contacts returns the contacts matching q. No match is NOT_FOUND.
func (s *Service) Contacts(q ContactQuery) ([]models.Contact, error) {
	names, values := q.pairs()
	return s.contacts.Filter(names, values)
}

// AllContacts returns every contact, possibly none.
func (s *Service) AllContacts() ([]models.Contact, error) {
	return s.contacts.All()
}

// ResolveContact finds the contact designated by ref, either its ID or its
// exact name. A name shared by several contacts is DUPLICATE; the caller must
// use the ID instead.
func (s *Service) ResolveContact(ref string) (models.Contact, error) {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return models.Contact{}, crmerrors.BadInput("no contact given")
	}
	if id, ok := parseID(ref); ok {
		return s.contacts.Read(id)
	}
	matches, err := s.contacts.Filter([]string{"Name"}, []any{ref})
	if err != nil {
		if crmerrors.CodeOf(err) == crmerrors.CodeNotFound {
			return models.Contact{}, crmerrors.NotFound(fmt.Sprintf("contact %q", ref))
		}
		return models.Contact{}, err
	}
	if len(matches) > 1 {
		return models.Contact{}, crmerrors.Duplicate(fmt.Sprintf("contact %q (use the ID)", ref))
	}
	return matches[0], nil
}

// EditContact sets field to value on the contact designated by ref. An unknown
// field is a no-op and returns no contact.
func (s *Service) EditContact(ref, field, value string) ([]models.Contact, error) {
	c, err := s.ResolveContact(ref)
	if err != nil {
		return nil, err
	}
	return s.contacts.Update(c.ID, field, value)
}

// DeleteContact removes the contact designated by ref. Its meetings are kept.
func (s *Service) DeleteContact(ref string) (models.Contact, error) {
	c, err := s.ResolveContact(ref)
	if err != nil {
		return models.Contact{}, err
	}
	deleted, err := s.contacts.Delete(c.ID)
	if err != nil {
		return models.Contact{}, err
	}
	return deleted[0], nil
}

// MeetingQuery selects meetings. Zero fields are ignored.
type MeetingQuery struct {
	ID          int
	ContactID   int
	ContactName string
	Title       string
	Date        string
	Loc         string
}

// NewMeeting holds the user supplied attributes of a meeting.
type NewMeeting struct {
	Contact     string
	Title       string
	Date        string
	Loc         string
	Description string
	Topics      []string
}

// AddMeeting records a meeting with the contact designated by m.Contact. The
// contact's ID and name are copied into the meeting.
func (s *Service) AddMeeting(m NewMeeting) (models.Meeting, error) {
	title := strings.TrimSpace(m.Title)
	if title == "" {
		return models.Meeting{}, crmerrors.BadInput("a meeting needs a title")
	}
	date, err := NormalizeDate(m.Date, s.Now())
	if err != nil {
		return models.Meeting{}, err
	}
	c, err := s.ResolveContact(m.Contact)
	if err != nil {
		return models.Meeting{}, err
	}
	var topics []string
	for _, t := range m.Topics {
		if t = strings.TrimSpace(t); t != "" {
			topics = append(topics, t)
		}
	}
	return s.meetings.Insert(models.Meeting{
		ContactID:   c.ID,
		ContactName: c.Name,
		Title:       title,
		Date:        date,
		Loc:         orUnknown(m.Loc),
		Description: strings.TrimSpace(m.Description),
		Topics:      topics,
	})
}

// Meetings returns the meetings matching q. No match is NOT_FOUND.
func (s *Service) Meetings(q MeetingQuery) ([]models.Meeting, error) {
	var names []string
	var values []any
	if q.ID != 0 {
		names, values = append(names, "ID"), append(values, q.ID)
	}
	if q.ContactID != 0 {
		names, values = append(names, "ContactID"), append(values, q.ContactID)
	}
	if q.Date != "" {
		d, err := NormalizeDate(q.Date, s.Now())
		if err != nil {
			return nil, err
		}
		names, values = append(names, "Date"), append(values, d)
	}
	for _, p := range []struct{ name, value string }{
		{"ContactName", q.ContactName},
		{"Title", q.Title},
		{"Loc", q.Loc},
	} {
		if v := strings.TrimSpace(p.value); v != "" {
			names, values = append(names, p.name), append(values, v)
		}
	}
	return s.meetings.Filter(names, values)
}

// AllMeetings returns every meeting, possibly none.
func (s *Service) AllMeetings() ([]models.Meeting, error) {
	return s.meetings.All()
}

// EditMeeting sets field to value on meeting id. Dates are normalized.
func (s *Service) EditMeeting(id int, field, value string) ([]models.Meeting, error) {
	if field == "Date" {
		d, err := NormalizeDate(value, s.Now())
		if err != nil {
			return nil, err
		}
		value = d
	}
	return s.meetings.Update(id, field, value)
}

// DeleteMeeting removes meeting id.
func (s *Service) DeleteMeeting(id int) (models.Meeting, error) {
	deleted, err := s.meetings.Delete(id)
	if err != nil {
		return models.Meeting{}, err
	}
	return deleted[0], nil
}

// Stats is a summary of the database content.
type Stats struct {
	Contacts int
	Meetings int
}

// Stats counts the records in each table.
func (s *Service) Stats() (Stats, error) {
	contacts, err := s.contacts.All()
	if err != nil {
		return Stats{}, err
	}
	meetings, err := s.meetings.All()
	if err != nil {
		return Stats{}, err
	}
	return Stats{Contacts: len(contacts), Meetings: len(meetings)}, nil
}

// ParseID parses a record identifier given on the command line.
func ParseID(s string) (int, error) {
	id, ok := parseID(strings.TrimSpace(s))
	if !ok {
		return 0, crmerrors.BadInput(fmt.Sprintf("%q is not an ID", s))
	}
	return id, nil
}

func parseID(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	id, err := strconv.Atoi(s)
	return id, err == nil
}

func orUnknown(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return Unknown
	}
	return s
}
