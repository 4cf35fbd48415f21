package businessday

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seoul(t *testing.T) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	return loc
}

func newCalculator(t *testing.T) *Calculator {
	t.Helper()
	return NewCalculator(seoul(t), NewCalendar(DefaultLunarTable()))
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.ParseInLocation("2006-01-02 15:04:05", value, seoul(t))
	require.NoError(t, err)
	return ts
}

func TestWorkingDateCutoffBoundary(t *testing.T) {
	calc := newCalculator(t)

	// Monday 2025-06-09. One second under the cutoff stays on the
	// same day; 15:00:00 exactly rolls to Tuesday.
	assert.Equal(t, "2025-06-09", calc.WorkingDate(at(t, "2025-06-09 14:59:59")).String())
	assert.Equal(t, "2025-06-10", calc.WorkingDate(at(t, "2025-06-09 15:00:00")).String())
	assert.Equal(t, "2025-06-10", calc.WorkingDate(at(t, "2025-06-09 15:00:01")).String())
}

func TestWorkingDateFridayAfterCutoff(t *testing.T) {
	calc := newCalculator(t)

	// Friday 2025-06-13 16:00 skips the weekend to Monday.
	assert.Equal(t, "2025-06-16", calc.WorkingDate(at(t, "2025-06-13 16:00:00")).String())
}

func TestWorkingDateWeekend(t *testing.T) {
	calc := newCalculator(t)

	assert.Equal(t, "2025-06-16", calc.WorkingDate(at(t, "2025-06-14 10:00:00")).String())
	assert.Equal(t, "2025-06-16", calc.WorkingDate(at(t, "2025-06-15 23:30:00")).String())
	// Saturday after cutoff lands on the same Monday.
	assert.Equal(t, "2025-06-16", calc.WorkingDate(at(t, "2025-06-14 16:00:00")).String())
}

func TestWorkingDateHolidayChain(t *testing.T) {
	calc := newCalculator(t)

	// Thursday 2025-10-02 after cutoff: Fri Oct 3 is a fixed holiday,
	// Oct 4-5 weekend, Oct 5-8 Chuseok, Oct 9 Hangul Day. First open
	// day is Friday Oct 10.
	assert.Equal(t, "2025-10-10", calc.WorkingDate(at(t, "2025-10-02 16:00:00")).String())
}

func TestWorkingDateYearBoundary(t *testing.T) {
	calc := newCalculator(t)

	// Wednesday 2025-12-31 after cutoff: Jan 1 is closed, Jan 2 is a
	// Friday.
	assert.Equal(t, "2026-01-02", calc.WorkingDate(at(t, "2025-12-31 16:00:00")).String())
}

func TestWorkingDateMonotonic(t *testing.T) {
	calc := newCalculator(t)

	start := at(t, "2025-09-29 00:00:00")
	prev := calc.WorkingDate(start)
	for i := 1; i <= 14*24; i++ {
		ts := start.Add(time.Duration(i) * time.Hour)
		next := calc.WorkingDate(ts)
		assert.False(t, next.Before(prev), "working date went backwards at %s", ts)
		prev = next
	}
}

func TestWorkingDateIdempotentOnResult(t *testing.T) {
	calc := newCalculator(t)

	// A working date taken at its own morning maps to itself.
	wd := calc.WorkingDate(at(t, "2025-06-13 16:00:00"))
	again := calc.WorkingDate(wd.Time(seoul(t)).Add(9 * time.Hour))
	assert.Equal(t, wd, again)
}

func TestWindow(t *testing.T) {
	calc := newCalculator(t)

	// Tuesday morning: window runs from Monday 15:00:00 through
	// Tuesday 14:59:59.
	start, end := calc.Window(at(t, "2025-06-10 10:00:00"))
	assert.Equal(t, at(t, "2025-06-09 15:00:00"), start)
	assert.Equal(t, at(t, "2025-06-10 14:59:59"), end)
}

func TestWindowAfterWeekend(t *testing.T) {
	calc := newCalculator(t)

	// Monday morning reaches back to the previous Friday's cutoff.
	start, end := calc.Window(at(t, "2025-06-16 10:00:00"))
	assert.Equal(t, at(t, "2025-06-13 15:00:00"), start)
	assert.Equal(t, at(t, "2025-06-16 14:59:59"), end)
}

func TestEditable(t *testing.T) {
	calc := newCalculator(t)

	placed := at(t, "2025-06-10 10:00:00")

	assert.True(t, calc.Editable(placed, at(t, "2025-06-10 14:00:00")))
	assert.False(t, calc.Editable(placed, at(t, "2025-06-10 15:00:00")))
	assert.False(t, calc.Editable(placed, at(t, "2025-06-11 09:00:00")))

	// Friday-evening order stays editable through the weekend.
	fridayOrder := at(t, "2025-06-13 18:00:00")
	assert.True(t, calc.Editable(fridayOrder, at(t, "2025-06-15 12:00:00")))
	assert.True(t, calc.Editable(fridayOrder, at(t, "2025-06-16 14:00:00")))
	assert.False(t, calc.Editable(fridayOrder, at(t, "2025-06-16 15:00:00")))
}

func TestKnownYear(t *testing.T) {
	calc := newCalculator(t)

	assert.True(t, calc.KnownYear(at(t, "2025-03-01 00:00:00")))
	assert.False(t, calc.KnownYear(at(t, "2031-03-01 00:00:00")))
}

func TestParseDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2025-10-10")
	require.NoError(t, err)
	assert.Equal(t, "2025-10-10", d.String())

	_, err = ParseDate("2025/10/10")
	assert.Error(t, err)
}
