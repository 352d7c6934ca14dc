package factory

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/phase-tracker/tracker"
)

func TestPresets(t *testing.T) {
	f := NewTemplateFactory()

	tests := []struct {
		id    string
		days  int
		total int64
	}{
		{"phase1", 12, 8600},
		{"phase2", 12, 4200},
		{"sprint", 5, 2500},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			set, err := f.PresetSet(tt.id)
			require.NoError(t, err)

			tmpl, ok := set.Get(tracker.PhaseKey(tt.id))
			require.True(t, ok)
			assert.Len(t, tmpl.Days, tt.days)
			assert.True(t, decimal.NewFromInt(tt.total).Equal(tmpl.TotalTarget()))
			assert.Equal(t, time.Monday, tmpl.StartWeekday)
		})
	}
}

func TestPresets_DefaultSet(t *testing.T) {
	set, err := NewTemplateFactory().Presets()
	require.NoError(t, err)
	assert.Equal(t, []tracker.PhaseKey{"phase1", "phase2"}, set.Keys())

	records, err := set.Generate("phase1")
	require.NoError(t, err)
	assert.Equal(t, "Monday", records[0].Label)
	assert.Equal(t, "Saturday", records[5].Label)
	assert.Equal(t, "Friday", records[11].Label)
	assert.True(t, records[5].Target.Equal(decimal.NewFromInt(150)))
}

func TestPresetSet_UnknownID(t *testing.T) {
	_, err := NewTemplateFactory().PresetSet("phase3")
	assert.ErrorIs(t, err, tracker.ErrInvalidTemplate)
}

func TestParseTemplate_ExplicitDays(t *testing.T) {
	tmpl, err := NewTemplateFactory().ParseTemplate(`{
		"id": "custom",
		"start_weekday": "Wednesday",
		"days": [
			{"target": 250.5},
			{"target": 100, "label": "Half day"}
		]
	}`)
	require.NoError(t, err)

	assert.Equal(t, "custom", tmpl.Name, "name defaults to id")
	assert.Equal(t, 1, tmpl.Version, "version defaults to 1")
	assert.Equal(t, time.Wednesday, tmpl.StartWeekday)

	records := tmpl.Generate()
	require.Len(t, records, 2)
	assert.Equal(t, "Wednesday", records[0].Label)
	assert.Equal(t, "Half day", records[1].Label)
	assert.True(t, records[0].Target.Equal(decimal.RequireFromString("250.5")))
}

func TestParseTemplate_Invalid(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"days and schedule", `{"id":"x","days":[{"target":1}],"schedule":[{"count":1,"target":1}]}`},
		{"zero count", `{"id":"x","schedule":[{"count":0,"target":1}]}`},
		{"zero target", `{"id":"x","days":[{"target":0}]}`},
		{"no days", `{"id":"x"}`},
		{"bad weekday", `{"id":"x","start_weekday":"funday","days":[{"target":1}]}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewTemplateFactory().ParseTemplate(tt.json)
			assert.ErrorIs(t, err, tracker.ErrInvalidTemplate)
		})
	}

	_, err := NewTemplateFactory().ParseTemplate(`{not json`)
	assert.Error(t, err)
}

func TestToJSON_RoundTripsThroughFromJSON(t *testing.T) {
	f := NewTemplateFactory()
	set, err := f.PresetSet("phase2")
	require.NoError(t, err)
	orig, _ := set.Get("phase2")

	back, err := f.FromJSON(f.ToJSON(orig))
	require.NoError(t, err)

	want, got := orig.Generate(), back.Generate()
	require.Len(t, got, len(want))
	for i := range want {
		assert.True(t, want[i].Equal(got[i]), "day %d", i+1)
	}
}

func TestLoadTemplateSet(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o644))
	}
	write("b.json", `{"id":"verify","schedule":[{"count":3,"target":300}]}`)
	write("a.json", `{"id":"eval","schedule":[{"count":2,"target":500}]}`)
	write("notes.txt", `ignored`)

	set, err := NewTemplateFactory().LoadTemplateSet(dir)
	require.NoError(t, err)
	assert.Equal(t, []tracker.PhaseKey{"eval", "verify"}, set.Keys(), "ordered by file name")
}

func TestLoadTemplateSet_EmptyDirIsAnError(t *testing.T) {
	_, err := NewTemplateFactory().LoadTemplateSet(t.TempDir())
	assert.ErrorIs(t, err, tracker.ErrInvalidTemplate)
}

func TestLoadTemplateSet_NoDirUsesPresets(t *testing.T) {
	set, err := NewTemplateFactory().LoadTemplateSet("")
	require.NoError(t, err)
	assert.Len(t, set.Keys(), 2)
}
