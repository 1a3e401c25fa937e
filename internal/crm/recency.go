package crm

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/maruel/pcrm/internal/models"
)

// Bucket groups contacts by how long ago they were last met.
type Bucket int

// Buckets, from most to least recently met.
const (
	Recent Bucket = iota
	Moderate
	Stale
	Cold
)

// Buckets lists every bucket in display order.
var Buckets = []Bucket{Recent, Moderate, Stale, Cold}

func (b Bucket) String() string {
	switch b {
	case Recent:
		return "recent"
	case Moderate:
		return "moderate"
	case Stale:
		return "stale"
	case Cold:
		return "cold"
	default:
		return fmt.Sprintf("Bucket(%d)", int(b))
	}
}

// Label describes the bucket range, e.g. "<30 days".
func (b Bucket) Label(thresholds []int) string {
	if b == Cold {
		return fmt.Sprintf("%d+ days", thresholds[len(thresholds)-1])
	}
	return fmt.Sprintf("<%d days", thresholds[b])
}

// Recency returns the bucket of a contact last met on last. met is false for
// a contact never met, which is always Cold.
func Recency(last time.Time, met bool, now time.Time, thresholds []int) Bucket {
	if !met {
		return Cold
	}
	days := daysBetween(last, now)
	for i, limit := range thresholds {
		if days < limit {
			return Bucket(i)
		}
	}
	return Cold
}

// lastMeetings maps contact IDs to their most recent meeting date.
func lastMeetings(meetings []models.Meeting) map[int]time.Time {
	out := make(map[int]time.Time, len(meetings))
	for _, m := range meetings {
		d, err := parseDate(m.Date)
		if err != nil {
			slog.Warn("ignoring meeting with a bad date", "meeting", m.ID, "date", m.Date)
			continue
		}
		if prev, ok := out[m.ContactID]; !ok || d.After(prev) {
			out[m.ContactID] = d
		}
	}
	return out
}

// LastMet returns the date of the most recent meeting with contact id.
func (s *Service) LastMet(id int) (time.Time, bool, error) {
	meetings, err := s.meetings.All()
	if err != nil {
		return time.Time{}, false, err
	}
	last, ok := lastMeetings(meetings)[id]
	return last, ok, nil
}

// ContactRecency returns the bucket of contact id.
func (s *Service) ContactRecency(id int) (Bucket, error) {
	last, ok, err := s.LastMet(id)
	if err != nil {
		return Cold, err
	}
	return Recency(last, ok, s.Now(), s.thresholds), nil
}

// Overview groups contacts by recency bucket, keeping their order within each
// bucket.
func (s *Service) Overview(contacts []models.Contact) (map[Bucket][]models.Contact, error) {
	meetings, err := s.meetings.All()
	if err != nil {
		return nil, err
	}
	last := lastMeetings(meetings)
	now := s.Now()
	out := make(map[Bucket][]models.Contact, len(Buckets))
	for _, c := range contacts {
		d, ok := last[c.ID]
		b := Recency(d, ok, now, s.thresholds)
		out[b] = append(out[b], c)
	}
	return out, nil
}
