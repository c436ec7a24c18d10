// Package availability classifies a provider's calendar days from recurring
// weekly availability, explicit blocks and existing bookings.
package availability

import (
	"strings"
	"time"

	"cloud.google.com/go/civil"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

// DayClass is the availability of one calendar day.
type DayClass string

const (
	DayAvailable   DayClass = "available"
	DayBooked      DayClass = "booked"
	DayBlocked     DayClass = "blocked"
	DayUnsupported DayClass = "unsupported"
	DayPast        DayClass = "past"
)

// Recurrence tokens accepted in GeneralAvailability besides weekday names.
const (
	recurFullTime = "fulltime"
	recurWeekdays = "weekdays"
	recurWeekends = "weekends"
)

// Day pairs a date with its class.
type Day struct {
	Date  civil.Date `json:"date"`
	Class DayClass   `json:"class"`
}

// CalendarMonth is the classification of every day of one month.
type CalendarMonth struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Days  []Day      `json:"days"`
}

// Counts tallies days per class.
func (m CalendarMonth) Counts() map[DayClass]int {
	counts := make(map[DayClass]int, 5)
	for _, d := range m.Days {
		counts[d.Class]++
	}
	return counts
}

// Calculator classifies days for one provider against a fixed "today".
// It holds no mutable state after construction and is safe for concurrent use.
type Calculator struct {
	provider  *provider.Provider
	bookings  []*booking.Booking
	today     civil.Date
	recurring recurrence
}

// NewCalculator prepares a calculator. bookings may include other providers'
// bookings and terminal ones; both are ignored.
func NewCalculator(p *provider.Provider, bookings []*booking.Booking, today civil.Date) *Calculator {
	held := make([]*booking.Booking, 0, len(bookings))
	for _, b := range bookings {
		if b != nil && b.ProviderID() == p.ID && b.Status().HoldsCalendar() {
			held = append(held, b)
		}
	}
	return &Calculator{
		provider:  p,
		bookings:  held,
		today:     today,
		recurring: parseRecurrence(p.GeneralAvailability),
	}
}

// Classify returns the class of day d. The checks run in precedence order:
// past, blocked, booked, then the weekly recurrence.
func (c *Calculator) Classify(d civil.Date) DayClass {
	if d.Before(c.today) {
		return DayPast
	}
	if c.provider.IsBlocked(d) {
		return DayBlocked
	}
	for _, b := range c.bookings {
		if b.Covers(d) {
			return DayBooked
		}
	}
	if !c.recurring.allows(d) {
		return DayUnsupported
	}
	return DayAvailable
}

// MonthBounds returns the first and last day of the month monthOffset months
// after today's month.
func MonthBounds(today civil.Date, monthOffset int) (civil.Date, civil.Date) {
	first := civil.Date{Year: today.Year, Month: today.Month, Day: 1}
	first = civil.DateOf(first.In(time.UTC).AddDate(0, monthOffset, 0))
	last := civil.DateOf(first.In(time.UTC).AddDate(0, 1, -1))
	return first, last
}

// Month classifies every day of the month monthOffset months after today's month.
func (c *Calculator) Month(monthOffset int) CalendarMonth {
	first, last := MonthBounds(c.today, monthOffset)
	return CalendarMonth{Year: first.Year, Month: first.Month, Days: c.Range(first, last)}
}

// Range classifies every day in the inclusive span [from, to].
func (c *Calculator) Range(from, to civil.Date) []Day {
	if to.Before(from) {
		return nil
	}
	days := make([]Day, 0, to.DaysSince(from)+1)
	for d := from; !d.After(to); d = d.AddDays(1) {
		days = append(days, Day{Date: d, Class: c.Classify(d)})
	}
	return days
}

// FirstUnavailable returns the first day in [from, to] that is not available.
func (c *Calculator) FirstUnavailable(from, to civil.Date) (Day, bool) {
	for _, day := range c.Range(from, to) {
		if day.Class != DayAvailable {
			return day, true
		}
	}
	return Day{}, false
}

// ComputeMonth is the one-shot form of NewCalculator(...).Month(monthOffset).
// A negative offset is a ValidationError.
func ComputeMonth(p *provider.Provider, monthOffset int, bookings []*booking.Booking, today civil.Date) (CalendarMonth, error) {
	if p == nil {
		return CalendarMonth{}, domain.NewValidationError("provider is required")
	}
	if monthOffset < 0 {
		return CalendarMonth{}, domain.NewValidationError("month offset must not be negative")
	}
	return NewCalculator(p, bookings, today).Month(monthOffset), nil
}

type recurrence struct {
	unconstrained bool
	weekdays      bool
	weekends      bool
	named         map[time.Weekday]bool
}

func parseRecurrence(rules []string) recurrence {
	r := recurrence{named: make(map[time.Weekday]bool)}
	if len(rules) == 0 {
		r.unconstrained = true
		return r
	}
	for _, raw := range rules {
		token := normalizeToken(raw)
		switch token {
		case recurFullTime:
			r.unconstrained = true
		case recurWeekdays:
			r.weekdays = true
		case recurWeekends:
			r.weekends = true
		default:
			if wd, ok := weekdayNames[token]; ok {
				r.named[wd] = true
			}
		}
	}
	return r
}

func (r recurrence) allows(d civil.Date) bool {
	if r.unconstrained {
		return true
	}
	wd := d.In(time.UTC).Weekday()
	if r.named[wd] {
		return true
	}
	weekend := wd == time.Saturday || wd == time.Sunday
	return (r.weekdays && !weekend) || (r.weekends && weekend)
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// normalizeToken lowercases and drops separators so "Full-Time" matches "fulltime".
func normalizeToken(s string) string {
	return strings.NewReplacer("-", "", "_", "", " ", "").Replace(strings.ToLower(strings.TrimSpace(s)))
}
