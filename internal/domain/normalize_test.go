package domain

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testNow is the frozen reference time for history aging tests.
var testNow = time.Date(2025, time.June, 10, 12, 0, 0, 0, time.UTC)

func TestNormalizeAlert_EmptyPayload(t *testing.T) {
	alert := NormalizeAlert(Payload{})
	assert.Equal(t, TypeNone, alert.Type)
	assert.Empty(t, alert.Localities)
}

func TestNormalizeAlert_IdleDocumentIsNone(t *testing.T) {
	p, err := DecodePayload(json.RawMessage(`{"type": "none", "cities": []}`))
	require.NoError(t, err)

	alert := NormalizeAlert(p)
	assert.Equal(t, TypeNone, alert.Type)
	assert.Empty(t, alert.Localities)
	assert.Empty(t, alert.Instructions)
}

func TestNormalizeLive_Category(t *testing.T) {
	tests := []struct {
		name string
		cat  string
		want string
	}{
		{name: "missiles", cat: "1", want: "missiles"},
		{name: "general", cat: "2", want: "general"},
		{name: "hostile aircraft", cat: "6", want: "hostileAircraftIntrusion"},
		{name: "terrorist infiltration", cat: "13", want: "terroristInfiltration"},
		{name: "missiles drill", cat: "101", want: "missilesDrill"},
		{name: "infiltration drill", cat: "113", want: "terroristInfiltrationDrill"},
		{name: "code with whitespace", cat: " 1 ", want: "missiles"},
		{name: "unmapped code", cat: "999", want: TypeUnknown},
		{name: "non-numeric code", cat: "abc", want: TypeUnknown},
		{name: "negative code", cat: "-3", want: TypeUnknown},
		{name: "absent code", cat: "", want: TypeNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alert := NormalizeAlert(Payload{Live: &LiveAlert{Cat: tt.cat}})
			assert.Equal(t, tt.want, alert.Type)
		})
	}
}

func TestNormalizeLive_Localities(t *testing.T) {
	live := &LiveAlert{
		Data: []string{
			"  אשקלון ",
			"שדרות",
			"בדיקה",
			"בדיקה מחזורית",
			"אשקלון",
			"",
			"   ",
			"נתיב העשרה",
		},
		Cat: "1",
	}

	alert := NormalizeAlert(Payload{Live: live})
	assert.Equal(t, "missiles", alert.Type)
	assert.Equal(t, []string{"אשקלון", "שדרות", "נתיב העשרה"}, alert.Localities)
}

func TestNormalizeLive_NoCategoryDropsLocalities(t *testing.T) {
	live := &LiveAlert{Data: []string{"שדרות", "אשקלון"}}

	alert := NormalizeAlert(Payload{Live: live})
	assert.Equal(t, TypeNone, alert.Type)
	assert.Empty(t, alert.Localities)
}

func TestNormalizeLive_Instructions(t *testing.T) {
	live := &LiveAlert{Data: []string{"חיפה"}, Cat: "6", Desc: "שהו בקרבת המרחב המוגן"}

	alert := NormalizeAlert(Payload{Live: live})
	assert.Equal(t, "hostileAircraftIntrusion", alert.Type)
	assert.Equal(t, "שהו בקרבת המרחב המוגן", alert.Instructions)
}

func TestNormalizeHistory_AgeWindow(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(testNow))
	defer SetClock(nil)

	stamp := func(age time.Duration) string {
		return testNow.Add(-age).Format(time.RFC3339)
	}

	entries := []HistoryEntry{
		{AlertDate: stamp(10 * time.Second), Data: "שדרות", Category: "1"},
		{AlertDate: stamp(120 * time.Second), Data: "כפר עזה", Category: "1"},
		{AlertDate: stamp(121 * time.Second), Data: "עיר ישנה", Category: "1"},
		{AlertDate: stamp(time.Hour), Data: "עיר ישנה מאוד", Category: "1"},
	}

	alert := NormalizeAlert(Payload{History: entries})
	assert.Equal(t, "missiles", alert.Type)
	assert.Equal(t, []string{"שדרות", "כפר עזה"}, alert.Localities)
}

func TestNormalizeHistory_DropsUnusableEntries(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(testNow))
	defer SetClock(nil)

	fresh := testNow.Add(-5 * time.Second).Format(time.RFC3339)
	entries := []HistoryEntry{
		{AlertDate: "", Data: "בלי תאריך", Category: "1"},
		{AlertDate: fresh, Data: "", Category: "1"},
		{AlertDate: fresh, Data: "בלי קטגוריה", Category: ""},
		{AlertDate: "10/06/2025 12:00", Data: "תאריך שבור", Category: "1"},
		{AlertDate: fresh, Data: "בדיקה", Category: "1"},
		{AlertDate: fresh, Data: " אשקלון ", Category: "1"},
		{AlertDate: fresh, Data: "אשקלון", Category: "1"},
	}

	alert := NormalizeAlert(Payload{History: entries})
	assert.Equal(t, "missiles", alert.Type)
	assert.Equal(t, []string{"אשקלון"}, alert.Localities)
}

func TestNormalizeHistory_Category(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(testNow))
	defer SetClock(nil)

	fresh := testNow.Add(-5 * time.Second).Format(time.RFC3339)

	tests := []struct {
		name     string
		category string
		want     string
	}{
		{name: "missiles", category: "1", want: "missiles"},
		{name: "hostile aircraft differs from live table", category: "2", want: "hostileAircraftIntrusion"},
		{name: "general", category: "4", want: "general"},
		{name: "earthquake", category: "7", want: "earthQuake"},
		{name: "hazardous materials", category: "12", want: "hazardousMaterials"},
		{name: "unmapped code", category: "42", want: TypeUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := []HistoryEntry{{AlertDate: fresh, Data: "שדרות", Category: tt.category}}
			alert := NormalizeAlert(Payload{History: entries})
			assert.Equal(t, tt.want, alert.Type)
		})
	}
}

func TestNormalizeHistory_LastSurvivingCategoryWins(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(testNow))
	defer SetClock(nil)

	fresh := testNow.Add(-5 * time.Second).Format(time.RFC3339)
	entries := []HistoryEntry{
		{AlertDate: fresh, Data: "שדרות", Category: "1"},
		{AlertDate: fresh, Data: "אשקלון", Category: "2"},
	}

	alert := NormalizeAlert(Payload{History: entries})
	assert.Equal(t, "hostileAircraftIntrusion", alert.Type)
	assert.Equal(t, []string{"שדרות", "אשקלון"}, alert.Localities)
}

func TestNormalizeHistory_AllStaleIsNone(t *testing.T) {
	SetClock(clockwork.NewFakeClockAt(testNow))
	defer SetClock(nil)

	old := testNow.Add(-time.Hour).Format(time.RFC3339)
	entries := []HistoryEntry{
		{AlertDate: old, Data: "שדרות", Category: "1"},
		{AlertDate: old, Data: "אשקלון", Category: "1"},
	}

	alert := NormalizeAlert(Payload{History: entries})
	assert.Equal(t, TypeNone, alert.Type)
	assert.Empty(t, alert.Localities)
}
