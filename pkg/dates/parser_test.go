package dates

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse_SupportedNumericForms(t *testing.T) {
	want := time.Date(2024, time.May, 1, 0, 0, 0, 0, time.Local)

	for _, input := range []string{
		"2024-05-01",
		"2024/05/01",
		"2024.05.01",
		"2024-5-1",
		"01/05/2024",
		"1/5/2024",
		"  2024-05-01  ",
	} {
		t.Run(input, func(t *testing.T) {
			d := Parse(input)
			require.True(t, d.Valid())
			assert.True(t, want.Equal(d.Time()), "got %s", d.Time())
		})
	}
}

func TestParse_InvalidInputNeverPanics(t *testing.T) {
	for _, input := range []string{
		"",
		"   ",
		"not-a-date",
		"null",
		"undefined",
		"2024-13-01",
		"31/02/2024",
		"2024-05/01",
		"99/99/9999",
	} {
		t.Run(input, func(t *testing.T) {
			assert.NotPanics(t, func() {
				d := Parse(input)
				assert.False(t, d.Valid())
				assert.True(t, d.Time().IsZero())
			})
		})
	}
}

func TestParse_NormalizesTimeOfDayToMidnight(t *testing.T) {
	p := NewParser(DayFirst, time.UTC)

	morning := p.Parse("2024-05-01T08:15:00")
	evening := p.Parse("2024-05-01 22:45:10")

	require.True(t, morning.Valid())
	require.True(t, evening.Valid())
	assert.True(t, morning.Equal(evening))
	assert.Equal(t, 0, morning.Time().Hour())
	assert.Equal(t, 0, morning.Time().Minute())
}

func TestParse_ZonedTimestampUsesParserLocation(t *testing.T) {
	lagos := time.FixedZone("WAT", 3600)
	p := NewParser(DayFirst, lagos)

	// 23:30 UTC on 30 April is already 1 May in UTC+1.
	d := p.Parse("2024-04-30T23:30:00Z")

	require.True(t, d.Valid())
	assert.Equal(t, "2024-05-01", d.String())
	assert.Equal(t, lagos, d.Time().Location())
}

func TestParse_GeneralForms(t *testing.T) {
	p := NewParser(DayFirst, time.UTC)

	for _, input := range []string{
		"May 1, 2024",
		"May 1 2024",
		"1 May 2024",
		"Wed May 1 2024",
		"Wed, 01 May 2024 10:00:00 GMT",
		"2024-05-01T10:00:00.000Z",
	} {
		t.Run(input, func(t *testing.T) {
			assert.Equal(t, "2024-05-01", p.Parse(input).String())
		})
	}
}

func TestParse_ConfiguredOrder(t *testing.T) {
	dayFirst := NewParser(DayFirst, time.UTC)
	monthFirst := NewParser(MonthFirst, time.UTC)

	assert.Equal(t, "2024-04-03", dayFirst.Parse("03/04/2024").String())
	assert.Equal(t, "2024-03-04", monthFirst.Parse("03/04/2024").String())

	// Year-first forms are unambiguous and ignore the configured order.
	assert.Equal(t, "2024-03-04", monthFirst.Parse("2024-03-04").String())
	assert.False(t, monthFirst.Parse("13/01/2024").Valid())
}

func TestParseOrder(t *testing.T) {
	o, err := ParseOrder("mdy")
	require.NoError(t, err)
	assert.Equal(t, MonthFirst, o)

	o, err = ParseOrder("")
	require.NoError(t, err)
	assert.Equal(t, DayFirst, o)

	_, err = ParseOrder("YMD")
	assert.Error(t, err)
}

func TestClassify(t *testing.T) {
	p := NewParser(DayFirst, time.UTC)
	now := time.Date(2024, time.May, 1, 15, 30, 0, 0, time.UTC)
	today := p.Today(now)

	assert.Equal(t, Upcoming, Classify(p.Parse("2024-05-01"), today))
	assert.Equal(t, Upcoming, Classify(p.Parse("02/05/2024"), today))
	assert.Equal(t, Past, Classify(p.Parse("2024-04-30"), today))
	assert.Equal(t, Undated, Classify(p.Parse("soon"), today))
}

func TestDate_CompareOrdersInvalidLast(t *testing.T) {
	p := NewParser(DayFirst, time.UTC)
	early := p.Parse("2024-01-01")
	late := p.Parse("2024-06-01")

	assert.Equal(t, -1, early.Compare(late))
	assert.Equal(t, 1, late.Compare(early))
	assert.Equal(t, -1, late.Compare(Invalid))
	assert.Equal(t, 1, Invalid.Compare(early))
	assert.Equal(t, 0, Invalid.Compare(Invalid))
	assert.False(t, Invalid.Before(early))
	assert.False(t, Invalid.Equal(Invalid))
}

func TestDate_MarshalJSON(t *testing.T) {
	p := NewParser(DayFirst, time.UTC)
	payload, err := json.Marshal(map[string]Date{
		"valid":   p.Parse("2024-05-01"),
		"invalid": Invalid,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"valid":"2024-05-01","invalid":null}`, string(payload))
}
