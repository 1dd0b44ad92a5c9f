package filter_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/straye-as/finance-api/internal/filter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var oslo = mustLoad("Europe/Oslo")

func mustLoad(name string) *time.Location {
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Wednesday 12 June 2024, mid-afternoon
var wednesday = time.Date(2024, time.June, 12, 15, 30, 0, 0, oslo)

func TestClassify_Week(t *testing.T) {
	r := filter.Classify(filter.TypeWeek, "", "", wednesday)
	require.NotNil(t, r.Start)
	require.NotNil(t, r.End)

	assert.Equal(t, time.Date(2024, time.June, 9, 0, 0, 0, 0, oslo), *r.Start)
	assert.Equal(t, time.Sunday, r.Start.Weekday())
	assert.Equal(t, time.Date(2024, time.June, 15, 23, 59, 59, 999000000, oslo), *r.End)

	saturday := time.Date(2024, time.June, 15, 18, 0, 0, 0, oslo)
	assert.True(t, filter.IsInRangeOrUnknown(r, saturday))
	assert.True(t, filter.IsInRangeOrUnknown(r, "2024-06-15"))
	assert.False(t, filter.IsInRangeOrUnknown(r, "2024-06-16"))
	assert.False(t, filter.IsInRangeOrUnknown(r, "2024-06-08T23:59:59+02:00"))
}

func TestClassify_WeekOnSunday(t *testing.T) {
	sunday := time.Date(2024, time.June, 9, 8, 0, 0, 0, oslo)
	r := filter.Classify(filter.TypeWeek, "", "", sunday)
	assert.Equal(t, time.Date(2024, time.June, 9, 0, 0, 0, 0, oslo), *r.Start)
}

func TestClassify_Day(t *testing.T) {
	r := filter.Classify(filter.TypeDay, "", "", wednesday)
	assert.Equal(t, time.Date(2024, time.June, 12, 0, 0, 0, 0, oslo), *r.Start)
	assert.Equal(t, time.Date(2024, time.June, 12, 23, 59, 59, 999000000, oslo), *r.End)
	assert.False(t, filter.IsInRangeOrUnknown(r, "2024-06-11"))
	assert.True(t, filter.IsInRangeOrUnknown(r, "2024-06-12T23:00:00"))
}

func TestClassify_MonthAndYear(t *testing.T) {
	month := filter.Classify(filter.TypeMonth, "", "", wednesday)
	assert.Equal(t, time.Date(2024, time.June, 1, 0, 0, 0, 0, oslo), *month.Start)
	assert.Equal(t, filter.EndOfDay(wednesday), *month.End)

	year := filter.Classify(filter.TypeYear, "", "", wednesday)
	assert.Equal(t, time.Date(2024, time.January, 1, 0, 0, 0, 0, oslo), *year.Start)
	assert.True(t, filter.IsInRangeOrUnknown(year, "2024-01-01"))
	assert.False(t, filter.IsInRangeOrUnknown(year, "2023-12-31"))
}

func TestClassify_Custom(t *testing.T) {
	r := filter.Classify(filter.TypeCustom, "2024-03-01", "2024-03-31", wednesday)
	assert.Equal(t, time.Date(2024, time.March, 1, 0, 0, 0, 0, oslo), *r.Start)
	assert.Equal(t, time.Date(2024, time.March, 31, 23, 59, 59, 999000000, oslo), *r.End)
	assert.True(t, filter.IsInRangeOrUnknown(r, "2024-03-31T22:00:00"))
	assert.False(t, filter.IsInRangeOrUnknown(r, "2024-04-01"))

	t.Run("open ended", func(t *testing.T) {
		r := filter.Classify(filter.TypeCustom, "2024-03-01", "", wednesday)
		assert.NotNil(t, r.Start)
		assert.Nil(t, r.End)
		assert.True(t, filter.IsInRangeOrUnknown(r, "2030-01-01"))
	})

	t.Run("no bounds does not filter", func(t *testing.T) {
		r := filter.Classify(filter.TypeCustom, "", "", wednesday)
		assert.True(t, r.Unbounded())
	})
}

func TestClassify_All(t *testing.T) {
	r := filter.Classify(filter.TypeAll, "", "", wednesday)
	assert.True(t, r.Unbounded())
	assert.True(t, filter.IsInRangeOrUnknown(r, "1999-01-01"))
	assert.True(t, filter.Classify(filter.ParseType("bogus"), "", "", wednesday).Unbounded())
}

func TestIsInRangeOrUnknown_FailsOpen(t *testing.T) {
	unknowns := []any{
		nil,
		"",
		"not a date",
		"31/31/2024",
		time.Time{},
		(*time.Time)(nil),
		struct{}{},
		true,
	}

	for _, ft := range []filter.Type{filter.TypeDay, filter.TypeWeek, filter.TypeMonth, filter.TypeYear} {
		r := filter.Classify(ft, "", "", wednesday)
		for _, v := range unknowns {
			assert.True(t, filter.IsInRangeOrUnknown(r, v), "type %s value %#v", ft, v)
		}
	}

	custom := filter.Classify(filter.TypeCustom, "2020-01-01", "2020-01-02", wednesday)
	for _, v := range unknowns {
		assert.True(t, filter.IsInRangeOrUnknown(custom, v))
	}
}

func TestIsInRangeOrUnknown_ShortNumbers(t *testing.T) {
	now := time.Date(2024, time.March, 13, 9, 0, 0, 0, oslo)
	month := filter.Classify(filter.TypeMonth, "", "", now)

	tests := []struct {
		name  string
		value any
	}{
		{"year only", "2024"},
		{"compact date", "20240310"},
		{"five digits", "12345"},
		{"numeric year", float64(2024)},
		{"ten digits", "1234567890"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.True(t, filter.IsInRangeOrUnknown(month, tt.value))
		})
	}

	_, ok := filter.ParseDate("2024", oslo)
	assert.False(t, ok)

	got, ok := filter.ParseDate("20240310", oslo)
	require.True(t, ok)
	assert.Equal(t, time.Date(2024, time.March, 10, 0, 0, 0, 0, oslo), got)

	_, ok = filter.ParseDate("20240410", oslo)
	require.True(t, ok)
	assert.False(t, filter.IsInRangeOrUnknown(month, "20240410"), "a parsed compact date outside the range is excluded")
}

func TestIsInRangeOrUnknown_MissingField(t *testing.T) {
	r := filter.Classify(filter.TypeDay, "", "", wednesday)
	record := map[string]any{"name": "Acme"}
	assert.True(t, filter.IsInRangeOrUnknown(r, filter.RecordDate(record, "createdAt", "date")))
}

func TestParseDate(t *testing.T) {
	cases := map[string]any{
		"rfc3339":      "2024-06-12T10:00:00Z",
		"millis":       "2024-06-12T10:00:00.000Z",
		"local":        "2024-06-12T12:00:00",
		"space":        "2024-06-12 12:00:00",
		"date only":    "2024-06-12",
		"slashes":      "2024/06/12",
		"dotted":       "12.06.2024",
		"compact":      "20240612",
		"epoch millis": float64(time.Date(2024, 6, 12, 10, 0, 0, 0, time.UTC).UnixMilli()),
		"json number":  json.Number("1718186400000"),
	}

	for name, v := range cases {
		t.Run(name, func(t *testing.T) {
			got, ok := filter.ParseDate(v, oslo)
			require.True(t, ok)
			assert.Equal(t, 2024, got.Year())
			assert.Equal(t, time.June, got.In(oslo).Month())
			assert.Equal(t, 12, got.In(oslo).Day())
		})
	}
}

func TestRecordDate(t *testing.T) {
	record := map[string]any{
		"createdAt": "",
		"date":      nil,
		"updatedAt": "2024-01-02",
	}
	assert.Equal(t, "2024-01-02", filter.RecordDate(record, "createdAt", "date", "updatedAt"))
	assert.Nil(t, filter.RecordDate(record, "missing"))
}

func TestParseType(t *testing.T) {
	assert.Equal(t, filter.TypeWeek, filter.ParseType(" Week "))
	assert.Equal(t, filter.TypeAll, filter.ParseType(""))
	assert.Equal(t, filter.TypeCustom, filter.ParseType("custom"))
}
