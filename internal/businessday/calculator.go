package businessday

import "time"

// CutoffHour is the local hour after which an event belongs to the next
// operating day. Exactly 15:00:00 counts as after the cutoff.
const CutoffHour = 15

// Calculator maps timestamps to working dates under the 3 PM cutoff
// with weekend and holiday rollover.
type Calculator struct {
	loc *time.Location
	cal *Calendar
}

func NewCalculator(loc *time.Location, cal *Calendar) *Calculator {
	if loc == nil {
		loc = time.UTC
	}
	if cal == nil {
		cal = NewCalendar(DefaultLunarTable())
	}
	return &Calculator{loc: loc, cal: cal}
}

func (c *Calculator) Location() *time.Location {
	return c.loc
}

// WorkingDate returns the operating day the timestamp belongs to.
// The nominal date advances by one day at or after the cutoff, then
// rolls forward past weekends and holidays one day at a time. A Friday
// order at or after 15:00 therefore lands on the following Monday, and
// a holiday directly behind a weekend extends the roll further.
func (c *Calculator) WorkingDate(t time.Time) Date {
	local := t.In(c.loc)
	d := DateOf(local)
	if local.Hour() >= CutoffHour {
		d = d.AddDays(1)
	}
	for c.closed(d) {
		d = d.AddDays(1)
	}
	return d
}

// PreviousWorkingDate returns the last open day strictly before d.
func (c *Calculator) PreviousWorkingDate(d Date) Date {
	d = d.AddDays(-1)
	for c.closed(d) {
		d = d.AddDays(-1)
	}
	return d
}

// Window returns the 24-hour-style order query window for the working
// day t belongs to: [previous working day 15:00:00, working day
// 14:59:59] in the operating timezone.
func (c *Calculator) Window(t time.Time) (time.Time, time.Time) {
	wd := c.WorkingDate(t)
	prev := c.PreviousWorkingDate(wd)

	from := prev.Time(c.loc).Add(CutoffHour * time.Hour)
	to := wd.Time(c.loc).Add(CutoffHour*time.Hour - time.Second)
	return from, to
}

// Editable reports whether an event placed at placedAt still falls in
// the currently open business day.
func (c *Calculator) Editable(placedAt, now time.Time) bool {
	return c.WorkingDate(placedAt).Equal(c.WorkingDate(now))
}

// KnownYear reports whether the holiday calendar covers the year of t.
// Unknown years are computed as if they had no lunar holidays.
func (c *Calculator) KnownYear(t time.Time) bool {
	return c.cal.HasYear(t.In(c.loc).Year())
}

func (c *Calculator) closed(d Date) bool {
	switch d.Weekday() {
	case time.Saturday, time.Sunday:
		return true
	}
	return c.cal.IsHoliday(d)
}
