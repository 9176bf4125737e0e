// Package identity is the deduplicating paper store. It maps canonical ids to
// records and keeps two derived indices (URL fingerprints and title length
// classes) used to recognize the same paper seen through different URLs.
package identity

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/agnivade/levenshtein"

	"github.com/matsen/papermem/internal/paper"
)

// DefaultMergeThreshold is the largest title edit distance treated as the same paper.
const DefaultMergeThreshold = 4

// Store errors.
var (
	// ErrInvalidDraft indicates a draft without an id.
	ErrInvalidDraft = errors.New("draft has no paper id")

	// ErrNotFound indicates the paper id is not in the store.
	ErrNotFound = errors.New("paper not found")
)

// Action describes what an upsert did.
type Action string

const (
	ActionCreated Action = "created" // New record
	ActionUpdated Action = "updated" // Same id or URL as an existing record
	ActionMerged  Action = "merged"  // Title close enough to an existing record
)

// Store is safe for concurrent use. Every operation holds the store lock for
// its whole read-modify-write, so records and indices never disagree.
type Store struct {
	mu      sync.Mutex
	records map[paper.ID]*paper.Record
	byURL   map[string]paper.ID
	byTitle map[int]map[paper.ID]struct{}

	threshold int
	now       func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithMergeThreshold sets the title edit distance threshold.
// A negative threshold disables fuzzy merging.
func WithMergeThreshold(n int) Option {
	return func(s *Store) {
		s.threshold = n
	}
}

// WithClock sets the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a store holding copies of the given records and builds the indices.
func New(records map[paper.ID]paper.Record, opts ...Option) *Store {
	s := &Store{
		records:   make(map[paper.ID]*paper.Record, len(records)),
		byURL:     make(map[string]paper.ID),
		byTitle:   make(map[int]map[paper.ID]struct{}),
		threshold: DefaultMergeThreshold,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}

	ids := make([]paper.ID, 0, len(records))
	for id := range records {
		ids = append(ids, id)
	}
	// Sorted so URL index collisions resolve the same way on every load.
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	for _, id := range ids {
		rec := records[id].Clone()
		rec.ID = id
		s.records[id] = &rec
		s.index(&rec)
	}
	return s
}

// MergeThreshold returns the configured title edit distance threshold.
func (s *Store) MergeThreshold() int {
	return s.threshold
}

// Outcome reports what one observation did to the store.
type Outcome struct {
	ID     paper.ID
	Action Action

	// Absorbed lists records folded into ID because the observation gave
	// them a shared title. Their ids no longer exist.
	Absorbed []paper.ID
}

// Upsert records one observation of a paper and returns the id of the record
// that now represents it.
func (s *Store) Upsert(d paper.Draft) (paper.ID, Action, error) {
	out, err := s.Observe(d)
	return out.ID, out.Action, err
}

// Observe is Upsert reporting the records it collapsed. When an observation
// gives an untitled record its title, any other record within the merge
// threshold of that title is folded into the older of the two.
func (s *Store) Observe(d paper.Draft) (Outcome, error) {
	if d.ID == "" {
		return Outcome{}, ErrInvalidDraft
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()

	if rec, ok := s.records[d.ID]; ok {
		return s.updateAndCollapse(rec, d, now), nil
	}

	for _, u := range []string{d.DocumentURL, d.LandingURL} {
		fp := urlFingerprint(u)
		if fp == "" {
			continue
		}
		if id, ok := s.byURL[fp]; ok {
			return s.updateAndCollapse(s.records[id], d, now), nil
		}
	}

	if rec := s.closestTitle(d.Title, ""); rec != nil {
		s.update(rec, d, now)
		return Outcome{ID: rec.ID, Action: ActionMerged}, nil
	}

	rec := newRecord(d, now)
	s.records[rec.ID] = rec
	s.index(rec)
	return Outcome{ID: rec.ID, Action: ActionCreated}, nil
}

// updateAndCollapse applies an observation to a record found by id or URL.
// If that filled in the record's title, records with a matching title are
// collapsed into one.
func (s *Store) updateAndCollapse(rec *paper.Record, d paper.Draft, now time.Time) Outcome {
	hadTitle := rec.Title != ""
	s.update(rec, d, now)
	if hadTitle || rec.Title == "" {
		return Outcome{ID: rec.ID, Action: ActionUpdated}
	}

	keep, absorbed := s.collapse(rec)
	if len(absorbed) == 0 {
		return Outcome{ID: keep.ID, Action: ActionUpdated}
	}
	return Outcome{ID: keep.ID, Action: ActionMerged, Absorbed: absorbed}
}

// collapse folds every other record whose title is within the threshold of
// rec's title. The oldest record survives; the survivor and the ids it
// absorbed are returned.
func (s *Store) collapse(rec *paper.Record) (*paper.Record, []paper.ID) {
	var absorbed []paper.ID
	for {
		other := s.closestTitle(rec.Title, rec.ID)
		if other == nil {
			return rec, absorbed
		}
		keep, drop := rec, other
		if older(other, rec) {
			keep, drop = other, rec
		}
		s.fold(keep, drop)
		absorbed = append(absorbed, drop.ID)
		rec = keep
	}
}

// older reports whether a was added before b. Ties go to the smaller id.
func older(a, b *paper.Record) bool {
	if !a.AddDate.Equal(b.AddDate) {
		return a.AddDate.Before(b.AddDate)
	}
	return a.ID < b.ID
}

// Get returns a copy of the record with the given id.
func (s *Store) Get(id paper.ID) (paper.Record, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return paper.Record{}, false
	}
	return rec.Clone(), true
}

// Remove deletes a record and every index entry pointing at it.
// Removing an absent id is a no-op.
func (s *Store) Remove(id paper.ID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records[id]
	if !ok {
		return
	}
	s.unindex(rec)
	delete(s.records, id)
}

// Merge collapses the record dropID into keepID and removes dropID.
func (s *Store) Merge(keepID, dropID paper.ID) (paper.Record, error) {
	if keepID == dropID {
		return paper.Record{}, fmt.Errorf("cannot merge %s into itself", keepID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	keep, ok := s.records[keepID]
	if !ok {
		return paper.Record{}, fmt.Errorf("%w: %s", ErrNotFound, keepID)
	}
	drop, ok := s.records[dropID]
	if !ok {
		return paper.Record{}, fmt.Errorf("%w: %s", ErrNotFound, dropID)
	}

	s.fold(keep, drop)
	return keep.Clone(), nil
}

// fold merges drop into keep and removes drop. Callers hold the lock.
func (s *Store) fold(keep, drop *paper.Record) {
	s.unindex(drop)
	delete(s.records, drop.ID)

	s.unindex(keep)
	mergeRecords(keep, drop)
	s.index(keep)
}

// Len returns the number of records.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}

// Snapshot returns copies of all records, keyed by id.
func (s *Store) Snapshot() map[paper.ID]paper.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[paper.ID]paper.Record, len(s.records))
	for id, rec := range s.records {
		out[id] = rec.Clone()
	}
	return out
}

// List returns copies of all records, most recently opened first.
func (s *Store) List() []paper.Record {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]paper.Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.Clone())
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].LastOpenDate.Equal(out[j].LastOpenDate) {
			return out[i].LastOpenDate.After(out[j].LastOpenDate)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// closestTitle returns the record whose title is nearest to title, if that
// distance is within the threshold. Only records in neighbouring length
// classes are compared, and the record exclude is skipped.
func (s *Store) closestTitle(title string, exclude paper.ID) *paper.Record {
	if s.threshold < 0 {
		return nil
	}
	key, ok := titleFingerprint(title)
	if !ok {
		return nil
	}

	var best *paper.Record
	bestDist := s.threshold + 1
	for _, class := range neighbourClasses(key.class, s.threshold) {
		for id := range s.byTitle[class] {
			if id == exclude {
				continue
			}
			rec := s.records[id]
			other, ok := titleFingerprint(rec.Title)
			if !ok || abs(other.runes-key.runes) > s.threshold {
				continue
			}
			dist := levenshtein.ComputeDistance(key.normalized, other.normalized)
			if dist < bestDist || (dist == bestDist && best != nil && rec.ID < best.ID) {
				best, bestDist = rec, dist
			}
		}
	}
	if bestDist > s.threshold {
		return nil
	}
	return best
}

// update applies an observation to an existing record and re-indexes it.
func (s *Store) update(rec *paper.Record, d paper.Draft, now time.Time) {
	s.unindex(rec)
	observe(rec, d, now)
	s.index(rec)
}

// index adds the record to both indices. A URL already claimed by another
// record keeps its first owner.
func (s *Store) index(rec *paper.Record) {
	for _, u := range recordURLs(rec) {
		fp := urlFingerprint(u)
		if fp == "" {
			continue
		}
		if _, taken := s.byURL[fp]; !taken {
			s.byURL[fp] = rec.ID
		}
	}

	if key, ok := titleFingerprint(rec.Title); ok {
		set := s.byTitle[key.class]
		if set == nil {
			set = make(map[paper.ID]struct{})
			s.byTitle[key.class] = set
		}
		set[rec.ID] = struct{}{}
	}
}

// unindex removes every index entry pointing at the record.
func (s *Store) unindex(rec *paper.Record) {
	for _, u := range recordURLs(rec) {
		fp := urlFingerprint(u)
		if fp != "" && s.byURL[fp] == rec.ID {
			delete(s.byURL, fp)
		}
	}

	if key, ok := titleFingerprint(rec.Title); ok {
		if set := s.byTitle[key.class]; set != nil {
			delete(set, rec.ID)
			if len(set) == 0 {
				delete(s.byTitle, key.class)
			}
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
