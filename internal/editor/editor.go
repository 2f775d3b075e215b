// Package editor holds the unsaved style and section-order edits of a resume.
package editor

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"resume-dashboard/internal/apiclient"
	"resume-dashboard/internal/forms"
)

// Status is the save state of an editor.
type Status string

const (
	StatusClean  Status = "clean"
	StatusDirty  Status = "dirty"
	StatusSaving Status = "saving"
	StatusFailed Status = "failed"
)

var (
	ErrSaveInFlight   = errors.New("save in progress")
	ErrUnknownSection = errors.New("unknown section")
	ErrInvalidOrder   = errors.New("order must list every section exactly once")
	ErrInvalidStyle   = errors.New("invalid style")
	ErrLastSection    = errors.New("at least one section must stay visible")
)

// DefaultStyle is applied when a resume has no style of its own.
func DefaultStyle() apiclient.ResumeStyle {
	return apiclient.ResumeStyle{
		FontFamily:      "Inter",
		FontSizeBody:    11,
		FontSizeHeading: 14,
		MarginTop:       0.75,
		MarginBottom:    0.75,
		MarginLeft:      0.75,
		MarginRight:     0.75,
		LineSpacing:     1.15,
		SectionSpacing:  12,
		AccentColor:     "#1f2937",
	}
}

// StylePatch changes some style fields; nil fields are left alone.
type StylePatch struct {
	FontFamily      *string  `json:"fontFamily" validate:"omitnil,oneof=Inter Arial Calibri Georgia Garamond Helvetica 'Times New Roman' Roboto"`
	FontSizeBody    *float64 `json:"fontSizeBody" validate:"omitnil,gte=8,lte=14"`
	FontSizeHeading *float64 `json:"fontSizeHeading" validate:"omitnil,gte=10,lte=28"`
	MarginTop       *float64 `json:"marginTop" validate:"omitnil,gte=0.25,lte=1.5"`
	MarginBottom    *float64 `json:"marginBottom" validate:"omitnil,gte=0.25,lte=1.5"`
	MarginLeft      *float64 `json:"marginLeft" validate:"omitnil,gte=0.25,lte=1.5"`
	MarginRight     *float64 `json:"marginRight" validate:"omitnil,gte=0.25,lte=1.5"`
	LineSpacing     *float64 `json:"lineSpacing" validate:"omitnil,gte=1,lte=2"`
	SectionSpacing  *float64 `json:"sectionSpacing" validate:"omitnil,gte=0,lte=36"`
	AccentColor     *string  `json:"accentColor" validate:"omitnil,hexcolor"`
}

func (p StylePatch) apply(s apiclient.ResumeStyle) apiclient.ResumeStyle {
	if p.FontFamily != nil {
		s.FontFamily = *p.FontFamily
	}
	if p.FontSizeBody != nil {
		s.FontSizeBody = *p.FontSizeBody
	}
	if p.FontSizeHeading != nil {
		s.FontSizeHeading = *p.FontSizeHeading
	}
	if p.MarginTop != nil {
		s.MarginTop = *p.MarginTop
	}
	if p.MarginBottom != nil {
		s.MarginBottom = *p.MarginBottom
	}
	if p.MarginLeft != nil {
		s.MarginLeft = *p.MarginLeft
	}
	if p.MarginRight != nil {
		s.MarginRight = *p.MarginRight
	}
	if p.LineSpacing != nil {
		s.LineSpacing = *p.LineSpacing
	}
	if p.SectionSpacing != nil {
		s.SectionSpacing = *p.SectionSpacing
	}
	if p.AccentColor != nil {
		s.AccentColor = *p.AccentColor
	}
	return s
}

// layout is one complete set of editable values.
type layout struct {
	style  apiclient.ResumeStyle
	order  []string // every known section
	hidden map[string]bool
}

func (l layout) clone() layout {
	out := layout{style: l.style, order: slices.Clone(l.order), hidden: make(map[string]bool, len(l.hidden))}
	for k, v := range l.hidden {
		out.hidden[k] = v
	}
	return out
}

func (l layout) equal(o layout) bool {
	if l.style != o.style || !slices.Equal(l.order, o.order) {
		return false
	}
	for _, name := range l.order {
		if l.hidden[name] != o.hidden[name] {
			return false
		}
	}
	return true
}

// visible is the saved section_order: the order minus hidden sections.
func (l layout) visible() []string {
	out := make([]string, 0, len(l.order))
	for _, name := range l.order {
		if !l.hidden[name] {
			out = append(out, name)
		}
	}
	return out
}

func layoutOf(r apiclient.Resume) layout {
	l := layout{style: DefaultStyle(), hidden: map[string]bool{}}
	if r.Style != nil {
		l.style = *r.Style
	}
	if len(r.SectionOrder) == 0 {
		l.order = apiclient.DefaultSectionOrder()
		return l
	}
	seen := map[string]bool{}
	for _, name := range r.SectionOrder {
		if apiclient.IsSection(name) && !seen[name] {
			l.order = append(l.order, name)
			seen[name] = true
		}
	}
	for _, name := range apiclient.DefaultSectionOrder() {
		if !seen[name] {
			l.order = append(l.order, name)
			l.hidden[name] = true
		}
	}
	return l
}

// Editor is the edit state of one resume:
// clean -> dirty -> saving -> clean, and saving -> failed -> dirty.
type Editor struct {
	mu        sync.Mutex
	resumeID  string
	version   time.Time
	saved     layout
	current   layout
	status    Status
	lastError string
}

// New starts a clean editor from the stored resume.
func New(r apiclient.Resume) *Editor {
	l := layoutOf(r)
	return &Editor{
		resumeID: r.ID,
		version:  r.UpdatedAt,
		saved:    l,
		current:  l.clone(),
		status:   StatusClean,
	}
}

// SectionView is one row in the section list.
type SectionView struct {
	Name    string `json:"name"`
	Visible bool   `json:"visible"`
}

// View is the editor state returned to the page.
type View struct {
	ResumeID  string                `json:"resumeId"`
	Status    Status                `json:"status"`
	Style     apiclient.ResumeStyle `json:"style"`
	Sections  []SectionView         `json:"sections"`
	Order     []string              `json:"order"`
	LastError string                `json:"lastError,omitempty"`
}

// View snapshots the editor.
func (e *Editor) View() View {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.viewLocked()
}

func (e *Editor) viewLocked() View {
	sections := make([]SectionView, 0, len(e.current.order))
	for _, name := range e.current.order {
		sections = append(sections, SectionView{Name: name, Visible: !e.current.hidden[name]})
	}
	return View{
		ResumeID:  e.resumeID,
		Status:    e.status,
		Style:     e.current.style,
		Sections:  sections,
		Order:     e.current.visible(),
		LastError: e.lastError,
	}
}

// Status returns the current save state.
func (e *Editor) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

// Version is the resume updated_at the saved layout came from.
func (e *Editor) Version() time.Time {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.version
}

// SetStyle applies a validated style patch.
func (e *Editor) SetStyle(p StylePatch) error {
	if err := forms.Validate(p); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStyle, err)
	}
	return e.edit(func(l *layout) error {
		l.style = p.apply(l.style)
		return nil
	})
}

// MoveSection shifts a section by delta positions, clamped to the list bounds.
func (e *Editor) MoveSection(name string, delta int) error {
	return e.edit(func(l *layout) error {
		from := slices.Index(l.order, name)
		if from < 0 {
			return fmt.Errorf("%w: %s", ErrUnknownSection, name)
		}
		to := from + delta
		if to < 0 {
			to = 0
		}
		if to > len(l.order)-1 {
			to = len(l.order) - 1
		}
		if to == from {
			return nil
		}
		l.order = slices.Delete(l.order, from, from+1)
		l.order = slices.Insert(l.order, to, name)
		return nil
	})
}

// ReorderSections replaces the order; it must be a permutation of the known sections.
func (e *Editor) ReorderSections(order []string) error {
	return e.edit(func(l *layout) error {
		if len(order) != len(l.order) {
			return ErrInvalidOrder
		}
		seen := make(map[string]bool, len(order))
		for _, name := range order {
			if !slices.Contains(l.order, name) {
				return fmt.Errorf("%w: %s", ErrUnknownSection, name)
			}
			if seen[name] {
				return ErrInvalidOrder
			}
			seen[name] = true
		}
		l.order = slices.Clone(order)
		return nil
	})
}

// ToggleSection hides a visible section or shows a hidden one. The last
// visible section cannot be hidden.
func (e *Editor) ToggleSection(name string) error {
	return e.edit(func(l *layout) error {
		if !slices.Contains(l.order, name) {
			return fmt.Errorf("%w: %s", ErrUnknownSection, name)
		}
		if l.hidden[name] {
			delete(l.hidden, name)
			return nil
		}
		if len(l.visible()) == 1 {
			return ErrLastSection
		}
		l.hidden[name] = true
		return nil
	})
}

// Reset discards unsaved edits.
func (e *Editor) Reset() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == StatusSaving {
		return ErrSaveInFlight
	}
	e.current = e.saved.clone()
	e.status = StatusClean
	e.lastError = ""
	return nil
}

func (e *Editor) edit(fn func(*layout) error) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == StatusSaving {
		return ErrSaveInFlight
	}
	next := e.current.clone()
	if err := fn(&next); err != nil {
		return err
	}
	e.current = next
	if e.current.equal(e.saved) && e.status != StatusFailed {
		e.status = StatusClean
	} else {
		e.status = StatusDirty
		e.lastError = ""
	}
	return nil
}

// BeginSave moves to saving and returns the update to send. ok is false
// when there is nothing to save.
func (e *Editor) BeginSave() (update apiclient.ResumeUpdate, ok bool, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	switch e.status {
	case StatusSaving:
		return apiclient.ResumeUpdate{}, false, ErrSaveInFlight
	case StatusClean:
		return apiclient.ResumeUpdate{}, false, nil
	}
	e.status = StatusSaving
	style := e.current.style
	return apiclient.ResumeUpdate{Style: &style, SectionOrder: e.current.visible()}, true, nil
}

// FinishSave records the outcome of the save started by BeginSave.
func (e *Editor) FinishSave(r apiclient.Resume, saveErr error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status != StatusSaving {
		return
	}
	if saveErr != nil {
		e.status = StatusFailed
		e.lastError = apiclient.Detail(saveErr)
		return
	}
	e.saved = e.current.clone()
	e.version = r.UpdatedAt
	e.status = StatusClean
	e.lastError = ""
}
