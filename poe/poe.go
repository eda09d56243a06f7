// Package poe tracks proofs of existence: for every token of a diagnostic
// data snapshot, the times at which its existence is proven by covering
// timestamps and evidence records.
package poe

import (
	"sort"
	"time"

	"github.com/georgepadayatti/goades/diagnostic"
)

// Entry is one proof of existence of a token. Source is empty for the
// validation time itself.
type Entry struct {
	Time   time.Time `json:"time"`
	Source string    `json:"source,omitempty"`
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithFilter restricts the timestamps and evidence records accepted as
// sources to those for which usable returns true.
func WithFilter(usable func(id string) bool) Option {
	return func(t *Tracker) {
		t.usable = usable
	}
}

// WithoutContentTimestamps excludes content timestamps from the sources.
func WithoutContentTimestamps() Option {
	return func(t *Tracker) {
		t.excludeContent = true
	}
}

// Tracker holds the POE set of one validation run. It is not safe for
// concurrent use; every run builds its own.
type Tracker struct {
	data           *diagnostic.Data
	validationTime time.Time
	usable         func(id string) bool
	excludeContent bool

	earliest map[string]time.Time
	entries  map[string][]Entry
	sources  map[string]bool
}

// New returns a tracker seeded with the validation time for every token
// and no sources.
func New(data *diagnostic.Data, validationTime time.Time, opts ...Option) *Tracker {
	t := &Tracker{
		data:           data,
		validationTime: validationTime,
		earliest:       make(map[string]time.Time),
		entries:        make(map[string][]Entry),
		sources:        make(map[string]bool),
	}
	for _, opt := range opts {
		opt(t)
	}
	for _, id := range data.TokenIDs() {
		t.earliest[id] = validationTime
		t.entries[id] = []Entry{{Time: validationTime}}
	}
	return t
}

// Build returns a tracker using every eligible timestamp and evidence
// record of data as a source.
func Build(data *diagnostic.Data, validationTime time.Time, opts ...Option) *Tracker {
	t := New(data, validationTime, opts...)
	var ids []string
	for _, ts := range data.Timestamps {
		ids = append(ids, ts.ID)
	}
	for _, er := range data.EvidenceRecords {
		ids = append(ids, er.ID)
	}
	t.AddSources(ids...)
	return t
}

// AddSources registers timestamps or evidence records as POE sources and
// relaxes the tokens they cover. Ineligible ids are ignored.
func (t *Tracker) AddSources(ids ...string) {
	for _, id := range ids {
		if t.sources[id] || !t.eligible(id) {
			continue
		}
		t.sources[id] = true

		at := t.sourceTime(id)
		for _, covered := range t.data.CoveredObjects(id) {
			t.relax(covered, at, id)
		}
	}
}

// eligible reports whether id is a timestamp with an intact message
// imprint or an evidence record whose digests all match, accepted by the
// filter.
func (t *Tracker) eligible(id string) bool {
	if t.usable != nil && !t.usable(id) {
		return false
	}
	if ts, ok := t.data.Timestamp(id); ok {
		if t.excludeContent && ts.Type.IsContent() {
			return false
		}
		return ts.MessageImprint.DataFound && ts.MessageImprint.DataIntact
	}
	if er, ok := t.data.EvidenceRecord(id); ok {
		return len(er.Timestamps) > 0 && er.DataIntact()
	}
	return false
}

// sourceTime is the time a source proves for the tokens it covers: the
// production time of a timestamp, or of the first renewal timestamp of an
// evidence record. An earlier POE of the source itself does not carry over
// to what it covers.
func (t *Tracker) sourceTime(id string) time.Time {
	if ts, ok := t.data.Timestamp(id); ok {
		return ts.ProductionTime
	}
	if er, ok := t.data.EvidenceRecord(id); ok {
		if first, ok := t.data.Timestamp(er.Timestamps[0]); ok {
			return first.ProductionTime
		}
	}
	return t.validationTime
}

// relax records (at, src) for id and lowers its earliest POE.
func (t *Tracker) relax(id string, at time.Time, src string) {
	entries := t.entries[id]
	found := false
	for i := range entries {
		if entries[i].Source == src {
			found = true
			if at.Before(entries[i].Time) {
				entries[i].Time = at
			}
		}
	}
	if !found {
		entries = append(entries, Entry{Time: at, Source: src})
	}
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Time.Before(entries[j].Time)
	})
	t.entries[id] = entries

	if current, ok := t.earliest[id]; !ok || at.Before(current) {
		t.earliest[id] = at
	}
}

// ValidationTime returns the time the tracker was seeded with.
func (t *Tracker) ValidationTime() time.Time {
	return t.validationTime
}

// EarliestPOE returns the earliest proven existence time of id. Unknown
// tokens exist at the validation time.
func (t *Tracker) EarliestPOE(id string) time.Time {
	if e, ok := t.earliest[id]; ok {
		return e
	}
	return t.validationTime
}

// HasPOEBefore reports whether id is proven to exist at or before at.
func (t *Tracker) HasPOEBefore(id string, at time.Time) bool {
	return !t.EarliestPOE(id).After(at)
}

// Entries returns the proofs of existence of id, earliest first.
func (t *Tracker) Entries(id string) []Entry {
	entries, ok := t.entries[id]
	if !ok {
		return []Entry{{Time: t.validationTime}}
	}
	return append([]Entry{}, entries...)
}

// Sources returns the ids registered as sources, sorted.
func (t *Tracker) Sources() []string {
	out := make([]string, 0, len(t.sources))
	for id := range t.sources {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
