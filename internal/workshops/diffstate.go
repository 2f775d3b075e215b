package workshops

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	jsonpatch "github.com/evanphx/json-patch/v5"

	"resume-dashboard/internal/apiclient"
)

// Decision is the reviewer's choice for one suggestion.
type Decision string

const (
	Pending  Decision = "pending"
	Accepted Decision = "accepted"
	Rejected Decision = "rejected"
)

// DiffState tracks decisions on a workshop's pending suggestions. The
// workshop sections it was built from are never modified.
type DiffState struct {
	mu          sync.RWMutex
	workshopID  string
	version     time.Time
	base        apiclient.ResumeContent
	suggestions []apiclient.DiffSuggestion
	decisions   map[string]Decision
}

// NewDiffState starts every pending suggestion of w as Pending.
func NewDiffState(w apiclient.Workshop) *DiffState {
	s := &DiffState{
		workshopID:  w.ID,
		version:     w.UpdatedAt,
		base:        w.Sections,
		suggestions: append([]apiclient.DiffSuggestion(nil), w.PendingDiffs...),
		decisions:   make(map[string]Decision, len(w.PendingDiffs)),
	}
	for _, sg := range s.suggestions {
		s.decisions[sg.ID] = Pending
	}
	return s
}

// WorkshopID returns the workshop the state belongs to.
func (s *DiffState) WorkshopID() string {
	return s.workshopID
}

// Version is the workshop updated_at the state was built from.
func (s *DiffState) Version() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

func (s *DiffState) Accept(id string) error { return s.set(id, Accepted) }
func (s *DiffState) Reject(id string) error { return s.set(id, Rejected) }
func (s *DiffState) Reset(id string) error  { return s.set(id, Pending) }

// AcceptAll accepts every suggestion that is still pending.
func (s *DiffState) AcceptAll() { s.setPending(Accepted) }

// RejectAll rejects every suggestion that is still pending.
func (s *DiffState) RejectAll() { s.setPending(Rejected) }

// Decision returns the current decision for id.
func (s *DiffState) Decision(id string) (Decision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	d, ok := s.decisions[id]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrSuggestionNotFound, id)
	}
	return d, nil
}

func (s *DiffState) set(id string, d Decision) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.decisions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSuggestionNotFound, id)
	}
	s.decisions[id] = d
	return nil
}

func (s *DiffState) setPending(d Decision) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, cur := range s.decisions {
		if cur == Pending {
			s.decisions[id] = d
		}
	}
}

// IDs returns the suggestion ids with decision d, in suggestion order.
func (s *DiffState) IDs(d Decision) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []string
	for _, sg := range s.suggestions {
		if s.decisions[sg.ID] == d {
			out = append(out, sg.ID)
		}
	}
	return out
}

// Counts tallies decisions.
type Counts struct {
	Total    int `json:"total"`
	Pending  int `json:"pending"`
	Accepted int `json:"accepted"`
	Rejected int `json:"rejected"`
}

// Item is one suggestion with its decision.
type Item struct {
	Suggestion apiclient.DiffSuggestion `json:"suggestion"`
	Decision   Decision                 `json:"decision"`
}

// Items lists suggestions in order with their decisions.
func (s *DiffState) Items() ([]Item, Counts) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]Item, 0, len(s.suggestions))
	counts := Counts{Total: len(s.suggestions)}
	for _, sg := range s.suggestions {
		d := s.decisions[sg.ID]
		switch d {
		case Accepted:
			counts.Accepted++
		case Rejected:
			counts.Rejected++
		default:
			counts.Pending++
		}
		items = append(items, Item{Suggestion: sg, Decision: d})
	}
	return items, counts
}

// PreviewFailure names an accepted suggestion that could not be applied.
type PreviewFailure struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// Preview is the workshop sections with accepted suggestions applied.
type Preview struct {
	Sections apiclient.ResumeContent `json:"sections"`
	Applied  []string                `json:"applied"`
	Failed   []PreviewFailure        `json:"failed"`
}

// Preview applies accepted suggestions, in suggestion order, to a copy of
// the base sections. A suggestion that fails to apply is reported and skipped.
func (s *DiffState) Preview() (Preview, error) {
	s.mu.RLock()
	base := s.base
	var accepted []apiclient.DiffSuggestion
	for _, sg := range s.suggestions {
		if s.decisions[sg.ID] == Accepted {
			accepted = append(accepted, sg)
		}
	}
	s.mu.RUnlock()

	doc, err := json.Marshal(base.Normalized())
	if err != nil {
		return Preview{}, fmt.Errorf("encode sections: %w", err)
	}

	out := Preview{Applied: []string{}, Failed: []PreviewFailure{}}
	for _, sg := range accepted {
		next, err := applyOne(doc, sg)
		if err == nil {
			err = conforms(next)
		}
		if err != nil {
			out.Failed = append(out.Failed, PreviewFailure{ID: sg.ID, Error: err.Error()})
			continue
		}
		doc = next
		out.Applied = append(out.Applied, sg.ID)
	}

	if err := json.Unmarshal(doc, &out.Sections); err != nil {
		return Preview{}, fmt.Errorf("decode patched sections: %w", err)
	}
	return out, nil
}

type patchOp struct {
	Op    string          `json:"op"`
	Path  string          `json:"path"`
	Value json.RawMessage `json:"value,omitempty"`
}

// conforms rejects documents with fields or types the resume sections do
// not have, so an op that would be dropped on decode is reported instead.
func conforms(doc []byte) error {
	dec := json.NewDecoder(bytes.NewReader(doc))
	dec.DisallowUnknownFields()
	var sections apiclient.ResumeContent
	if err := dec.Decode(&sections); err != nil {
		return fmt.Errorf("result does not fit resume sections: %w", err)
	}
	return nil
}

func applyOne(doc []byte, sg apiclient.DiffSuggestion) ([]byte, error) {
	switch sg.Op {
	case apiclient.OpAdd, apiclient.OpReplace:
		if len(sg.Value) == 0 {
			return nil, fmt.Errorf("%s %s: missing value", sg.Op, sg.Path)
		}
	case apiclient.OpRemove:
	default:
		return nil, fmt.Errorf("unsupported op %q", sg.Op)
	}
	op := patchOp{Op: sg.Op, Path: sg.Path}
	if sg.Op != apiclient.OpRemove {
		op.Value = sg.Value
	}
	raw, err := json.Marshal([]patchOp{op})
	if err != nil {
		return nil, err
	}
	patch, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return nil, err
	}
	return patch.Apply(doc)
}
