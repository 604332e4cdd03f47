package daterange

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{in: "2025-06-01", want: "2025-06-01"},
		{in: " 2025-12-31 ", want: "2025-12-31"},
		{in: "2025-06-01T23:30:00+02:00", want: "2025-06-01"},
		{in: "2025-02-30", wantErr: true},
		{in: "01/06/2025", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			d, err := ParseDate(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidDate)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, d.String())
		})
	}
}

func TestDateArithmeticCrossesMonthAndYear(t *testing.T) {
	d := MustParse("2024-12-30")
	assert.Equal(t, "2025-01-02", d.AddDays(3).String())
	assert.Equal(t, "2024-02-29", MustParse("2024-03-01").AddDays(-1).String())
	assert.Equal(t, 3, d.DaysUntil(MustParse("2025-01-02")))
	assert.Equal(t, -3, MustParse("2025-01-02").DaysUntil(d))
	assert.Equal(t, "2025-02-01", MustParse("2024-12-15").FirstOfMonth(2).String())
}

func TestWeekdayIndexStartsOnMonday(t *testing.T) {
	assert.Equal(t, 0, MustParse("2025-07-07").WeekdayIndex())
	assert.Equal(t, 5, MustParse("2025-07-05").WeekdayIndex())
	assert.Equal(t, 6, MustParse("2025-06-01").WeekdayIndex())
}

func TestDateJSON(t *testing.T) {
	type payload struct {
		Day  Date  `json:"day"`
		Opt  *Date `json:"opt"`
		Zero Date  `json:"zero"`
	}
	raw, err := json.Marshal(payload{Day: MustParse("2025-08-03")})
	require.NoError(t, err)
	assert.JSONEq(t, `{"day":"2025-08-03","opt":null,"zero":null}`, string(raw))

	var back payload
	require.NoError(t, json.Unmarshal([]byte(`{"day":"2025-08-03","opt":"2025-08-04","zero":null}`), &back))
	assert.Equal(t, MustParse("2025-08-03"), back.Day)
	require.NotNil(t, back.Opt)
	assert.Equal(t, "2025-08-04", back.Opt.String())
	assert.True(t, back.Zero.IsZero())

	assert.Error(t, json.Unmarshal([]byte(`{"day":20250803}`), &back))
}

func TestRangeIsHalfOpen(t *testing.T) {
	r, err := New(MustParse("2025-06-01"), MustParse("2025-06-05"))
	require.NoError(t, err)

	assert.Equal(t, 4, r.Nights())
	assert.True(t, r.ContainsDate(MustParse("2025-06-01")))
	assert.True(t, r.ContainsDate(MustParse("2025-06-04")))
	assert.False(t, r.ContainsDate(MustParse("2025-06-05")))
	assert.Equal(t, "2025-06-04", r.Last().String())
	assert.Len(t, r.Days(), 4)

	next, err := New(MustParse("2025-06-05"), MustParse("2025-06-07"))
	require.NoError(t, err)
	assert.False(t, r.Overlaps(next), "same-day turnover must not overlap")
	assert.True(t, r.Adjacent(next))
}

func TestNewRejectsEmptyAndInverted(t *testing.T) {
	d := MustParse("2025-06-01")
	_, err := New(d, d)
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = New(d, d.AddDays(-1))
	assert.ErrorIs(t, err, ErrInvalidRange)
	_, err = New(Date{}, d)
	assert.ErrorIs(t, err, ErrInvalidRange)

	r, err := Inclusive(d, d)
	require.NoError(t, err)
	assert.Equal(t, 1, r.Nights())
}

func TestConsolidate(t *testing.T) {
	mk := func(a, b string) Range { return Range{Start: MustParse(a), End: MustParse(b)} }
	got := Consolidate([]Range{
		mk("2025-06-10", "2025-06-12"),
		mk("2025-06-01", "2025-06-03"),
		mk("2025-06-03", "2025-06-05"),
		mk("2025-06-04", "2025-06-06"),
		mk("2025-06-11", "2025-06-11"),
	})
	assert.Equal(t, []Range{
		mk("2025-06-01", "2025-06-06"),
		mk("2025-06-10", "2025-06-12"),
	}, got)
	assert.Nil(t, Consolidate(nil))
}
