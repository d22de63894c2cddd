package project

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// SortDays orders records by ascending day in place.
func SortDays(records []DayRecord) {
	slices.SortStableFunc(records, func(a, b DayRecord) int { return a.Day - b.Day })
}

// DisplayValue returns the counter shown for activeDay given the value
// current being edited for that day. In ModeTotal that is current itself; in
// ModeDelta it is current plus the counts of all records before activeDay.
func DisplayValue(records []DayRecord, activeDay int, current float64, mode RevealMode) float64 {
	if mode != ModeDelta {
		return current
	}
	return sumBefore(records, activeDay) + current
}

// PreviousDisplayValue returns the counter shown at the end of the day before
// activeDay. Exports start their count-up animation from it. In TOTAL mode a
// missing record for activeDay-1 counts as 0, even when older days exist.
func PreviousDisplayValue(records []DayRecord, activeDay int, mode RevealMode) float64 {
	if mode == ModeDelta {
		return sumBefore(records, activeDay)
	}
	for _, r := range records {
		if r.Day == activeDay-1 {
			return r.Count
		}
	}
	return 0
}

func sumBefore(records []DayRecord, day int) float64 {
	var sum float64
	for _, r := range records {
		if r.Day < day {
			sum += r.Count
		}
	}
	return sum
}

// Day returns the record for day.
func (p *Project) Day(day int) (DayRecord, bool) {
	for _, r := range p.Days {
		if r.Day == day {
			return r, true
		}
	}
	return DayRecord{}, false
}

// UpsertDay stores count for day, replacing an existing record for the same
// day. A zero timestamp is set to now. Days stay sorted.
func (p *Project) UpsertDay(day int, count float64, ts time.Time) DayRecord {
	if ts.IsZero() {
		ts = time.Now().UTC()
	}
	for i, r := range p.Days {
		if r.Day == day {
			p.Days[i].Count = count
			p.Days[i].Timestamp = ts
			return p.Days[i]
		}
	}
	rec := DayRecord{ID: uuid.NewString(), Day: day, Count: count, Timestamp: ts}
	p.Days = append(p.Days, rec)
	SortDays(p.Days)
	return rec
}

// PutDay stores rec as is, replacing any record for the same day.
func (p *Project) PutDay(rec DayRecord) {
	for i, r := range p.Days {
		if r.Day == rec.Day {
			p.Days[i] = rec
			return
		}
	}
	p.Days = append(p.Days, rec)
	SortDays(p.Days)
}

// DeleteDay removes the record for day and reports whether one existed.
func (p *Project) DeleteDay(day int) bool {
	n := len(p.Days)
	p.Days = slices.DeleteFunc(p.Days, func(r DayRecord) bool { return r.Day == day })
	return len(p.Days) != n
}

// NextDay returns the day a new record would be created for: one past the
// last recorded day, or 1 for an empty history.
func (p *Project) NextDay() int {
	last := 0
	for _, r := range p.Days {
		last = max(last, r.Day)
	}
	return last + 1
}

// LastDay returns the highest recorded day, or 0.
func (p *Project) LastDay() int { return p.NextDay() - 1 }

// Clone returns a copy of p that shares no day records with it.
func (p *Project) Clone() *Project {
	c := *p
	c.Days = slices.Clone(p.Days)
	return &c
}
