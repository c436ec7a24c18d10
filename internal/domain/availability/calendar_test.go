package availability

import (
	"testing"
	"time"

	"cloud.google.com/go/civil"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/booking"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/domain/provider"
	"github.com/Kilat-Pet-Delivery/service-matching/internal/platform/domain"
)

func date(y int, m time.Month, d int) civil.Date {
	return civil.Date{Year: y, Month: m, Day: d}
}

func bookingFor(providerID uuid.UUID, status booking.BookingStatus, start, end civil.Date) *booking.Booking {
	now := time.Now().UTC()
	return booking.ReconstructBooking(
		uuid.New(), "SV-TEST01", providerID, uuid.New(), "boarding",
		start, end, status, nil, 1000, "MYR", "", "",
		nil, nil, nil, 1, now, now,
	)
}

func TestComputeMonth_BlockedDateWithoutBooking(t *testing.T) {
	p := &provider.Provider{
		ID:           uuid.New(),
		BlockedDates: []civil.Date{date(2025, 12, 25)},
	}

	month, err := ComputeMonth(p, 0, nil, date(2025, 12, 1))
	require.NoError(t, err)

	assert.Equal(t, 2025, month.Year)
	assert.Equal(t, time.December, month.Month)
	require.Len(t, month.Days, 31)
	assert.Equal(t, DayBlocked, month.Days[24].Class)
	assert.Equal(t, DayAvailable, month.Days[23].Class)
}

func TestClassify_Precedence(t *testing.T) {
	providerID := uuid.New()
	today := date(2025, 12, 10)
	p := &provider.Provider{
		ID:                  providerID,
		GeneralAvailability: []string{"Weekdays"},
		BlockedDates:        []civil.Date{date(2025, 12, 9), date(2025, 12, 16)},
	}
	bookings := []*booking.Booking{
		bookingFor(providerID, booking.StatusAccepted, date(2025, 12, 15), date(2025, 12, 17)),
		bookingFor(providerID, booking.StatusPending, date(2025, 12, 22), date(2025, 12, 22)),
		bookingFor(providerID, booking.StatusCancelled, date(2025, 12, 23), date(2025, 12, 23)),
		bookingFor(uuid.New(), booking.StatusAccepted, date(2025, 12, 24), date(2025, 12, 24)),
		bookingFor(providerID, booking.StatusAccepted, date(2025, 12, 27), date(2025, 12, 27)),
	}
	calc := NewCalculator(p, bookings, today)

	tests := []struct {
		name string
		day  civil.Date
		want DayClass
	}{
		{"past wins over blocked", date(2025, 12, 9), DayPast},
		{"today is not past", date(2025, 12, 10), DayAvailable},
		{"blocked wins over booked", date(2025, 12, 16), DayBlocked},
		{"accepted booking", date(2025, 12, 15), DayBooked},
		{"last day of span", date(2025, 12, 17), DayBooked},
		{"pending booking holds the day", date(2025, 12, 22), DayBooked},
		{"cancelled booking frees the day", date(2025, 12, 23), DayAvailable},
		{"other provider's booking ignored", date(2025, 12, 24), DayAvailable},
		{"saturday outside weekdays", date(2025, 12, 13), DayUnsupported},
		{"booked wins over recurrence", date(2025, 12, 27), DayBooked},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, calc.Classify(tt.day))
		})
	}
}

func TestClassify_Recurrence(t *testing.T) {
	// 2025-12-01 is a Monday.
	monday, saturday := date(2025, 12, 1), date(2025, 12, 6)
	today := date(2025, 11, 1)

	tests := []struct {
		name     string
		rules    []string
		monday   DayClass
		saturday DayClass
	}{
		{"empty means unconstrained", nil, DayAvailable, DayAvailable},
		{"full time", []string{"Full-Time"}, DayAvailable, DayAvailable},
		{"weekdays", []string{"Weekdays"}, DayAvailable, DayUnsupported},
		{"weekends", []string{"weekends"}, DayUnsupported, DayAvailable},
		{"named days", []string{"Monday", "Wednesday"}, DayAvailable, DayUnsupported},
		{"named plus weekends", []string{"monday", "Weekends"}, DayAvailable, DayAvailable},
		{"unknown tokens only", []string{"sometimes"}, DayUnsupported, DayUnsupported},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calc := NewCalculator(&provider.Provider{ID: uuid.New(), GeneralAvailability: tt.rules}, nil, today)
			assert.Equal(t, tt.monday, calc.Classify(monday))
			assert.Equal(t, tt.saturday, calc.Classify(saturday))
		})
	}
}

func TestComputeMonth_TotalPartition(t *testing.T) {
	providerID := uuid.New()
	p := &provider.Provider{
		ID:                  providerID,
		GeneralAvailability: []string{"Weekdays"},
		BlockedDates:        []civil.Date{date(2026, 2, 20)},
	}
	bookings := []*booking.Booking{bookingFor(providerID, booking.StatusAccepted, date(2026, 2, 10), date(2026, 2, 12))}
	today := date(2026, 1, 15)

	for offset := 0; offset < 14; offset++ {
		month, err := ComputeMonth(p, offset, bookings, today)
		require.NoError(t, err)

		first := civil.Date{Year: month.Year, Month: month.Month, Day: 1}
		daysInMonth := civil.DateOf(first.In(time.UTC).AddDate(0, 1, -1)).Day
		require.Len(t, month.Days, daysInMonth)

		total := 0
		for class, n := range month.Counts() {
			assert.Contains(t, []DayClass{DayAvailable, DayBooked, DayBlocked, DayUnsupported, DayPast}, class)
			total += n
		}
		assert.Equal(t, daysInMonth, total)
	}
}

func TestComputeMonth_OffsetRollsOverYear(t *testing.T) {
	month, err := ComputeMonth(&provider.Provider{ID: uuid.New()}, 2, nil, date(2025, 11, 30))
	require.NoError(t, err)
	assert.Equal(t, 2026, month.Year)
	assert.Equal(t, time.January, month.Month)
	assert.Len(t, month.Days, 31)
}

func TestComputeMonth_NegativeOffset(t *testing.T) {
	_, err := ComputeMonth(&provider.Provider{ID: uuid.New()}, -1, nil, date(2025, 12, 1))
	assert.True(t, domain.IsValidation(err))
}

func TestFirstUnavailable(t *testing.T) {
	p := &provider.Provider{ID: uuid.New(), BlockedDates: []civil.Date{date(2025, 12, 25)}}
	calc := NewCalculator(p, nil, date(2025, 12, 1))

	day, found := calc.FirstUnavailable(date(2025, 12, 23), date(2025, 12, 27))
	require.True(t, found)
	assert.Equal(t, date(2025, 12, 25), day.Date)
	assert.Equal(t, DayBlocked, day.Class)

	_, found = calc.FirstUnavailable(date(2025, 12, 26), date(2025, 12, 28))
	assert.False(t, found)
}

func TestMonthBounds(t *testing.T) {
	first, last := MonthBounds(date(2024, 1, 31), 1)
	assert.Equal(t, date(2024, 2, 1), first)
	assert.Equal(t, date(2024, 2, 29), last)
}
