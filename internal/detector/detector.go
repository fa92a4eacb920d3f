// Package detector finds wellbeing threshold violations in a user's calendar.
//
// Detect is pure: it performs no I/O, never reads the clock and never mutates its
// input. Events are expected to be localized to the user's timezone by the caller;
// day boundaries and the lunch window are taken from each event's own location.
package detector

import (
	"fmt"
	"math"
	"slices"
	"strconv"
	"time"

	"github.com/enp09/duende/internal/models"
)

// UntitledPlaceholder replaces missing event titles in violation text.
const UntitledPlaceholder = "Untitled"

const (
	// MeetingHoursHighMargin is how far over the daily maximum a day must go to be high severity.
	MeetingHoursHighMargin = 2.0

	LunchWindowStartHour   = 11
	LunchWindowStartMinute = 30
	LunchWindowEndHour     = 14
	LunchWindowEndMinute   = 0

	// StretchGapMinutes is the smallest gap that ends a stretch of sitting.
	StretchGapMinutes = 15.0
	// StretchThresholdMinutes is the length a stretch must exceed to be reported.
	StretchThresholdMinutes = 180.0
	// StretchHighMinutes is the length above which a stretch is high severity.
	StretchHighMinutes = 240.0

	// BackToBackMinPairs is the number of back-to-back pairs a day must exceed to be reported.
	BackToBackMinPairs = 2
	// BackToBackHighPairs is the number of pairs above which the violation is high severity.
	BackToBackHighPairs = 4
)

const (
	dayKeyLayout   = "2006-01-02"
	dayLabelLayout = "Monday, Jan 2"
	clockLayout    = "3:04 PM"
)

// Detect runs every threshold check over events and returns the violations found,
// ordered by day and then by check. It never returns nil.
func Detect(events []models.CalendarEvent, cfg Config) []models.Violation {
	cfg = cfg.withDefaults()
	violations := make([]models.Violation, 0)

	for _, day := range groupByDay(filterAndSort(events)) {
		violations = append(violations, detectTooManyMeetings(day, cfg)...)
		violations = append(violations, detectNoLunch(day, cfg)...)
		violations = append(violations, detectNoMovement(day)...)
		violations = append(violations, detectMissingBuffers(day, cfg)...)
	}

	return violations
}

// dayEvents is one calendar day's events in start order.
type dayEvents struct {
	key    string
	label  string
	loc    *time.Location
	date   time.Time
	events []models.CalendarEvent
}

func filterAndSort(events []models.CalendarEvent) []models.CalendarEvent {
	kept := make([]models.CalendarEvent, 0, len(events))
	for _, e := range events {
		if e.IsAllDay || e.BlockedByDuende {
			continue
		}
		kept = append(kept, e)
	}
	slices.SortStableFunc(kept, func(a, b models.CalendarEvent) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return kept
}

func groupByDay(sorted []models.CalendarEvent) []*dayEvents {
	byKey := make(map[string]*dayEvents)
	var days []*dayEvents

	for _, e := range sorted {
		key := e.StartTime.Format(dayKeyLayout)
		d, ok := byKey[key]
		if !ok {
			loc := e.StartTime.Location()
			y, m, dd := e.StartTime.Date()
			date := time.Date(y, m, dd, 0, 0, 0, 0, loc)
			d = &dayEvents{
				key:   key,
				label: date.Format(dayLabelLayout),
				loc:   loc,
				date:  date,
			}
			byKey[key] = d
			days = append(days, d)
		}
		d.events = append(d.events, e)
	}

	slices.SortStableFunc(days, func(a, b *dayEvents) int {
		switch {
		case a.key < b.key:
			return -1
		case a.key > b.key:
			return 1
		}
		return 0
	})
	return days
}

func detectTooManyMeetings(day *dayEvents, cfg Config) []models.Violation {
	var totalMinutes float64
	titles := make([]string, 0, len(day.events))
	for i := range day.events {
		totalMinutes += minutes(day.events[i].Duration())
		titles = append(titles, day.events[i].TitleOr(UntitledPlaceholder))
	}

	totalHours := totalMinutes / 60
	if totalHours <= cfg.MaxMeetingHoursPerDay {
		return nil
	}

	severity := models.SeverityMedium
	if totalHours > cfg.MaxMeetingHoursPerDay+MeetingHoursHighMargin {
		severity = models.SeverityHigh
	}

	return []models.Violation{{
		Type:     models.ViolationTooManyMeetings,
		Severity: severity,
		Title:    fmt.Sprintf("%.1f hours of meetings on %s", totalHours, day.label),
		Description: fmt.Sprintf("You have %d meetings scheduled for %.1f hours. Your threshold is %s hours.",
			len(day.events), totalHours, strconv.FormatFloat(cfg.MaxMeetingHoursPerDay, 'f', -1, 64)),
		AffectedEvents:  titles,
		SuggestedAction: "Consider making 1-2 meetings async or rescheduling to spread the load",
		DefaultSetting:  models.DefaultSettingStress,
	}}
}

func detectNoLunch(day *dayEvents, cfg Config) []models.Violation {
	if !cfg.WantsProtectedLunch {
		return nil
	}

	y, m, d := day.date.Date()
	lunchStart := time.Date(y, m, d, LunchWindowStartHour, LunchWindowStartMinute, 0, 0, day.loc)
	lunchEnd := time.Date(y, m, d, LunchWindowEndHour, LunchWindowEndMinute, 0, 0, day.loc)

	var titles []string
	for i := range day.events {
		if overlaps(day.events[i], lunchStart, lunchEnd) {
			titles = append(titles, day.events[i].TitleOr(UntitledPlaceholder))
		}
	}
	if len(titles) == 0 {
		return nil
	}

	return []models.Violation{{
		Type:     models.ViolationNoProtectedLunch,
		Severity: models.SeverityHigh,
		Title:    "Lunch is blocked on " + day.label,
		Description: fmt.Sprintf("You have %d meeting(s) during lunch hours (%02d:%02d-%02d:%02d). Your nervous system needs a break from your desk.",
			len(titles), LunchWindowStartHour, LunchWindowStartMinute, LunchWindowEndHour, LunchWindowEndMinute),
		AffectedEvents:  titles,
		SuggestedAction: fmt.Sprintf("Move %s to 14:30 or make it async", titles[0]),
		DefaultSetting:  models.DefaultSettingNutrition,
	}}
}

// overlaps reports whether e starts inside [ws, we), ends inside (ws, we] or spans the window.
func overlaps(e models.CalendarEvent, ws, we time.Time) bool {
	s, end := e.StartTime, e.EndTime
	startsInside := !s.Before(ws) && s.Before(we)
	endsInside := end.After(ws) && !end.After(we)
	spans := !s.After(ws) && !end.Before(we)
	return startsInside || endsInside || spans
}

// stretch is a run of events separated by gaps shorter than StretchGapMinutes.
type stretch struct {
	start   time.Time
	end     time.Time
	minutes float64
	titles  []string
}

func detectNoMovement(day *dayEvents) []models.Violation {
	var (
		longest *stretch
		current *stretch
	)

	closeStretch := func(end time.Time) {
		current.end = end
		if current.minutes > StretchThresholdMinutes && (longest == nil || current.minutes >= longest.minutes) {
			longest = current
		}
		current = nil
	}

	for i := range day.events {
		e := day.events[i]
		if current == nil {
			current = &stretch{start: e.StartTime}
		}
		current.minutes += minutes(e.Duration())
		current.titles = append(current.titles, e.TitleOr(UntitledPlaceholder))

		if i == len(day.events)-1 {
			closeStretch(e.EndTime)
			break
		}

		gap := minutes(day.events[i+1].StartTime.Sub(e.EndTime))
		if gap < StretchGapMinutes {
			current.minutes += gap
			continue
		}
		closeStretch(e.EndTime)
	}

	if longest == nil {
		return nil
	}

	severity := models.SeverityMedium
	if longest.minutes > StretchHighMinutes {
		severity = models.SeverityHigh
	}
	midpoint := longest.start.Add(time.Duration(longest.minutes / 2 * float64(time.Minute)))

	return []models.Violation{{
		Type:     models.ViolationNoMovement,
		Severity: severity,
		Title:    fmt.Sprintf("%d hours without a break on %s", int(math.Floor(longest.minutes/60)), day.label),
		Description: fmt.Sprintf("You have a stretch from %s to %s with no movement. Sitting this long keeps you in stress mode.",
			longest.start.Format(clockLayout), longest.end.Format(clockLayout)),
		AffectedEvents:  longest.titles,
		SuggestedAction: "Add a 15-minute walk or standing break around " + midpoint.Format(clockLayout),
		DefaultSetting:  models.DefaultSettingMovement,
	}}
}

func detectMissingBuffers(day *dayEvents, cfg Config) []models.Violation {
	if !cfg.WantsBufferTime {
		return nil
	}

	var pairs []string
	for i := 0; i+1 < len(day.events); i++ {
		cur, next := day.events[i], day.events[i+1]
		gap := minutes(next.StartTime.Sub(cur.EndTime))
		if gap < float64(cfg.BufferMinutes) {
			pairs = append(pairs, cur.TitleOr(UntitledPlaceholder)+" → "+next.TitleOr(UntitledPlaceholder))
		}
	}
	if len(pairs) <= BackToBackMinPairs {
		return nil
	}

	severity := models.SeverityMedium
	if len(pairs) > BackToBackHighPairs {
		severity = models.SeverityHigh
	}

	return []models.Violation{{
		Type:     models.ViolationMissingBuffers,
		Severity: severity,
		Title:    fmt.Sprintf("%d back-to-back meetings on %s", len(pairs), day.label),
		Description: fmt.Sprintf("You have %d meetings with less than %d minutes between them. This keeps you in fight-or-flight all day.",
			len(pairs), cfg.BufferMinutes),
		AffectedEvents:  pairs,
		SuggestedAction: "Shorten some meetings by 5-10 minutes to create breathing room",
		DefaultSetting:  models.DefaultSettingStress,
	}}
}

func minutes(d time.Duration) float64 {
	return d.Minutes()
}
