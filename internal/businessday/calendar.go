package businessday

import "time"

// fixedHoliday is a holiday that falls on the same month/day every year.
type fixedHoliday struct {
	Month time.Month
	Day   int
	Name  string
}

// The fixed-date Korean public holidays. Lunar holidays move each year
// and come from the per-year table instead.
var fixedHolidays = []fixedHoliday{
	{time.January, 1, "New Year's Day"},
	{time.March, 1, "Independence Movement Day"},
	{time.May, 5, "Children's Day"},
	{time.June, 6, "Memorial Day"},
	{time.August, 15, "Liberation Day"},
	{time.October, 3, "National Foundation Day"},
	{time.October, 9, "Hangul Day"},
	{time.December, 25, "Christmas Day"},
}

// Calendar answers holiday lookups for the operating calendar.
// Years missing from the lunar table are treated as having no lunar
// holidays; that is a calendar gap, not an error.
type Calendar struct {
	lunar map[int][]Date
}

func NewCalendar(lunar map[int][]Date) *Calendar {
	cal := &Calendar{lunar: make(map[int][]Date, len(lunar))}
	for year, dates := range lunar {
		cal.lunar[year] = append(cal.lunar[year], dates...)
	}
	return cal
}

func (c *Calendar) IsHoliday(d Date) bool {
	for _, h := range fixedHolidays {
		if d.Month == h.Month && d.Day == h.Day {
			return true
		}
	}
	for _, lunar := range c.lunar[d.Year] {
		if d.Equal(lunar) {
			return true
		}
	}
	return false
}

// HasYear reports whether lunar holidays are known for the given year.
func (c *Calendar) HasYear(year int) bool {
	_, ok := c.lunar[year]
	return ok
}

// AddLunar extends the per-year lunar table.
func (c *Calendar) AddLunar(year int, dates ...Date) {
	c.lunar[year] = append(c.lunar[year], dates...)
}

// DefaultLunarTable returns the published lunar holiday dates for the
// years known at build time: Lunar New Year period, Buddha's Birthday
// and the Chuseok period.
func DefaultLunarTable() map[int][]Date {
	return map[int][]Date{
		2024: {
			{2024, time.February, 9}, {2024, time.February, 10}, {2024, time.February, 11}, {2024, time.February, 12},
			{2024, time.May, 15},
			{2024, time.September, 16}, {2024, time.September, 17}, {2024, time.September, 18},
		},
		2025: {
			{2025, time.January, 28}, {2025, time.January, 29}, {2025, time.January, 30},
			{2025, time.May, 5},
			{2025, time.October, 5}, {2025, time.October, 6}, {2025, time.October, 7}, {2025, time.October, 8},
		},
		2026: {
			{2026, time.February, 16}, {2026, time.February, 17}, {2026, time.February, 18},
			{2026, time.May, 24},
			{2026, time.September, 24}, {2026, time.September, 25}, {2026, time.September, 26},
		},
	}
}
