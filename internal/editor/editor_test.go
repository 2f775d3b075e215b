package editor

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"resume-dashboard/internal/apiclient"
)

func sampleResume() apiclient.Resume {
	style := DefaultStyle()
	return apiclient.Resume{
		ID:           "r1",
		Title:        "Backend",
		Style:        &style,
		SectionOrder: []string{"summary", "experience", "skills", "education"},
		UpdatedAt:    time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC),
	}
}

func ptr[T any](v T) *T { return &v }

func TestNewFillsMissingSectionsAsHidden(t *testing.T) {
	ed := New(sampleResume())
	v := ed.View()

	assert.Equal(t, StatusClean, v.Status)
	assert.Equal(t, []string{"summary", "experience", "skills", "education"}, v.Order)
	require.Len(t, v.Sections, 6)
	assert.Equal(t, SectionView{Name: "projects", Visible: false}, v.Sections[4])
	assert.Equal(t, SectionView{Name: "certifications", Visible: false}, v.Sections[5])
}

func TestNewUsesDefaultsWithoutStyleOrOrder(t *testing.T) {
	ed := New(apiclient.Resume{ID: "r2"})
	v := ed.View()

	assert.Equal(t, DefaultStyle(), v.Style)
	assert.Equal(t, apiclient.DefaultSectionOrder(), v.Order)
}

func TestNewDropsUnknownAndDuplicateSections(t *testing.T) {
	r := sampleResume()
	r.SectionOrder = []string{"skills", "hobbies", "skills", "summary"}
	v := New(r).View()
	assert.Equal(t, []string{"skills", "summary"}, v.Order)
}

func TestSaveLifecycle(t *testing.T) {
	ed := New(sampleResume())

	require.NoError(t, ed.SetStyle(StylePatch{FontSizeBody: ptr(12.0)}))
	assert.Equal(t, StatusDirty, ed.Status())

	update, ok, err := ed.BeginSave()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, StatusSaving, ed.Status())
	require.NotNil(t, update.Style)
	assert.Equal(t, 12.0, update.Style.FontSizeBody)
	assert.Equal(t, []string{"summary", "experience", "skills", "education"}, update.SectionOrder)

	assert.ErrorIs(t, ed.ToggleSection("skills"), ErrSaveInFlight)
	assert.ErrorIs(t, ed.Reset(), ErrSaveInFlight)
	_, _, err = ed.BeginSave()
	assert.ErrorIs(t, err, ErrSaveInFlight)

	saved := sampleResume()
	saved.UpdatedAt = saved.UpdatedAt.Add(time.Minute)
	ed.FinishSave(saved, nil)
	assert.Equal(t, StatusClean, ed.Status())
	assert.Equal(t, saved.UpdatedAt, ed.Version())

	_, ok, err = ed.BeginSave()
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestFailedSaveKeepsEditsAndRecordsError(t *testing.T) {
	ed := New(sampleResume())
	require.NoError(t, ed.ToggleSection("summary"))

	_, ok, err := ed.BeginSave()
	require.NoError(t, err)
	require.True(t, ok)

	ed.FinishSave(apiclient.Resume{}, &apiclient.APIError{Status: 422, Detail: "style: bad value"})
	v := ed.View()
	assert.Equal(t, StatusFailed, v.Status)
	assert.Equal(t, "style: bad value", v.LastError)
	assert.Equal(t, []string{"experience", "skills", "education"}, v.Order)

	require.NoError(t, ed.MoveSection("skills", -1))
	v = ed.View()
	assert.Equal(t, StatusDirty, v.Status)
	assert.Empty(t, v.LastError)

	_, ok, err = ed.BeginSave()
	require.NoError(t, err)
	assert.True(t, ok)
	ed.FinishSave(apiclient.Resume{}, errors.New("connection reset"))
	assert.Equal(t, "connection reset", ed.View().LastError)
}

func TestEditBackToSavedIsClean(t *testing.T) {
	ed := New(sampleResume())
	require.NoError(t, ed.ToggleSection("skills"))
	assert.Equal(t, StatusDirty, ed.Status())
	require.NoError(t, ed.ToggleSection("skills"))
	assert.Equal(t, StatusClean, ed.Status())
}

func TestMoveSectionClamps(t *testing.T) {
	ed := New(sampleResume())
	require.NoError(t, ed.MoveSection("skills", -10))
	assert.Equal(t, []string{"skills", "summary", "experience", "education"}, ed.View().Order)

	require.NoError(t, ed.MoveSection("skills", 100))
	v := ed.View()
	assert.Equal(t, "skills", v.Sections[len(v.Sections)-1].Name)

	assert.ErrorIs(t, ed.MoveSection("hobbies", 1), ErrUnknownSection)
}

func TestReorderSectionsRequiresPermutation(t *testing.T) {
	ed := New(sampleResume())

	assert.ErrorIs(t, ed.ReorderSections([]string{"summary"}), ErrInvalidOrder)
	assert.ErrorIs(t, ed.ReorderSections([]string{
		"summary", "summary", "experience", "skills", "education", "projects",
	}), ErrInvalidOrder)
	assert.ErrorIs(t, ed.ReorderSections([]string{
		"summary", "hobbies", "experience", "skills", "education", "projects",
	}), ErrUnknownSection)
	assert.Equal(t, StatusClean, ed.Status())

	require.NoError(t, ed.ReorderSections([]string{
		"education", "skills", "experience", "summary", "projects", "certifications",
	}))
	assert.Equal(t, []string{"education", "skills", "experience", "summary"}, ed.View().Order)
}

func TestToggleSectionShowsHiddenSection(t *testing.T) {
	ed := New(sampleResume())
	require.NoError(t, ed.ToggleSection("projects"))

	update, ok, err := ed.BeginSave()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"summary", "experience", "skills", "education", "projects"}, update.SectionOrder)
}

func TestToggleSectionKeepsOneVisible(t *testing.T) {
	ed := New(sampleResume())
	for _, name := range []string{"summary", "experience", "skills"} {
		require.NoError(t, ed.ToggleSection(name))
	}
	assert.ErrorIs(t, ed.ToggleSection("education"), ErrLastSection)
	assert.Equal(t, []string{"education"}, ed.View().Order)

	update, ok, err := ed.BeginSave()
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []string{"education"}, update.SectionOrder)
}

func TestSetStyleRejectsOutOfRange(t *testing.T) {
	ed := New(sampleResume())

	assert.ErrorIs(t, ed.SetStyle(StylePatch{FontSizeBody: ptr(40.0)}), ErrInvalidStyle)
	assert.ErrorIs(t, ed.SetStyle(StylePatch{FontSizeBody: ptr(0.0)}), ErrInvalidStyle)
	assert.ErrorIs(t, ed.SetStyle(StylePatch{AccentColor: ptr("blue-ish")}), ErrInvalidStyle)
	assert.ErrorIs(t, ed.SetStyle(StylePatch{FontFamily: ptr("Comic Sans")}), ErrInvalidStyle)
	assert.Equal(t, StatusClean, ed.Status())

	require.NoError(t, ed.SetStyle(StylePatch{FontFamily: ptr("Georgia"), AccentColor: ptr("#336699")}))
	v := ed.View()
	assert.Equal(t, "Georgia", v.Style.FontFamily)
	assert.Equal(t, "#336699", v.Style.AccentColor)
	assert.Equal(t, DefaultStyle().FontSizeBody, v.Style.FontSizeBody)
}

func TestResetDiscardsEdits(t *testing.T) {
	ed := New(sampleResume())
	require.NoError(t, ed.ToggleSection("summary"))
	require.NoError(t, ed.Reset())

	v := ed.View()
	assert.Equal(t, StatusClean, v.Status)
	assert.Equal(t, []string{"summary", "experience", "skills", "education"}, v.Order)
}
