package calendar

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"
	"github.com/teambition/rrule-go"

	"github.com/enp09/duende/internal/models"
)

const icsCalendarID = "ics"

// ICSProvider serves events from an iCalendar document, expanding recurrences
// into the requested window.
type ICSProvider struct {
	data []byte
}

// NewICSProvider wraps raw ICS bytes.
func NewICSProvider(data []byte) *ICSProvider {
	return &ICSProvider{data: data}
}

// FetchEvents implements Provider. Date-only values are read in the user's timezone.
func (p *ICSProvider) FetchEvents(_ context.Context, user *models.User, from, to time.Time) ([]models.CalendarEvent, error) {
	return ParseICS(p.data, user.ID, from, to, user.Location(time.UTC))
}

type icsEvent struct {
	uid          string
	summary      string
	description  string
	location     string
	organizer    string
	start        time.Time
	end          time.Time
	allDay       bool
	rrule        string
	exdates      []time.Time
	recurrenceID *time.Time
}

// ParseICS reads VEVENTs from data and returns those starting within [from, to].
// Recurring events are expanded with EXDATEs removed; instances overridden by a
// RECURRENCE-ID component are replaced by the override. Cancelled events are dropped.
func ParseICS(data []byte, userID uuid.UUID, from, to time.Time, loc *time.Location) ([]models.CalendarEvent, error) {
	cal, err := ical.ParseCalendar(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse ics: %w", err)
	}

	var (
		masters   []icsEvent
		overrides []icsEvent
	)
	for _, ve := range cal.Events() {
		ev, ok := readICSEvent(ve, loc)
		if !ok {
			continue
		}
		if ev.recurrenceID != nil {
			overrides = append(overrides, ev)
		} else {
			masters = append(masters, ev)
		}
	}

	overridden := make(map[string]bool, len(overrides))
	for _, o := range overrides {
		overridden[instanceID(o.uid, *o.recurrenceID)] = true
	}

	var out []models.CalendarEvent
	for _, m := range masters {
		if m.rrule == "" {
			if inWindow(m.start, from, to) {
				out = append(out, m.toModel(userID, m.uid, m.start, m.end, false))
			}
			continue
		}

		occurrences, err := expand(m, from, to)
		if err != nil {
			return nil, fmt.Errorf("failed to expand %q: %w", m.uid, err)
		}
		length := m.end.Sub(m.start)
		for _, occ := range occurrences {
			id := instanceID(m.uid, occ)
			if overridden[id] {
				continue
			}
			out = append(out, m.toModel(userID, id, occ, occ.Add(length), true))
		}
	}

	for _, o := range overrides {
		if inWindow(o.start, from, to) {
			out = append(out, o.toModel(userID, instanceID(o.uid, *o.recurrenceID), o.start, o.end, true))
		}
	}

	slices.SortStableFunc(out, func(a, b models.CalendarEvent) int {
		return a.StartTime.Compare(b.StartTime)
	})
	return out, nil
}

func readICSEvent(ve *ical.VEvent, loc *time.Location) (icsEvent, bool) {
	uid := propValue(ve, ical.ComponentPropertyUniqueId)
	if uid == "" {
		return icsEvent{}, false
	}
	if strings.EqualFold(propValue(ve, ical.ComponentPropertyStatus), "CANCELLED") {
		return icsEvent{}, false
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return icsEvent{}, false
	}
	start, allDay, err := parseICSTime(startProp, loc)
	if err != nil {
		return icsEvent{}, false
	}

	end := start
	if allDay {
		end = start.AddDate(0, 0, 1)
	}
	if endProp := ve.GetProperty(ical.ComponentPropertyDtEnd); endProp != nil {
		if parsed, _, err := parseICSTime(endProp, loc); err == nil {
			end = parsed
		}
	}

	ev := icsEvent{
		uid:         uid,
		summary:     unescapeText(propValue(ve, ical.ComponentPropertySummary)),
		description: unescapeText(propValue(ve, ical.ComponentPropertyDescription)),
		location:    unescapeText(propValue(ve, ical.ComponentPropertyLocation)),
		organizer:   strings.TrimPrefix(strings.TrimPrefix(propValue(ve, ical.ComponentPropertyOrganizer), "mailto:"), "MAILTO:"),
		start:       start,
		end:         end,
		allDay:      allDay,
		rrule:       propValue(ve, ical.ComponentPropertyRrule),
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, raw := range strings.Split(p.Value, ",") {
			t, err := parseICSValue(strings.TrimSpace(raw), tzid(p), loc)
			if err == nil {
				ev.exdates = append(ev.exdates, t)
			}
		}
	}

	if rid := ve.GetProperty(ical.ComponentProperty("RECURRENCE-ID")); rid != nil {
		if t, _, err := parseICSTime(rid, loc); err == nil {
			ev.recurrenceID = &t
		}
	}

	return ev, true
}

func expand(m icsEvent, from, to time.Time) ([]time.Time, error) {
	r, err := rrule.StrToRRule(m.rrule)
	if err != nil {
		return nil, err
	}
	r.DTStart(m.start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range m.exdates {
		set.ExDate(ex)
	}
	return set.Between(from, to, true), nil
}

func (e icsEvent) toModel(userID uuid.UUID, externalID string, start, end time.Time, recurring bool) models.CalendarEvent {
	return models.CalendarEvent{
		UserID:         userID,
		ExternalID:     externalID,
		CalendarID:     icsCalendarID,
		Title:          titleOrUntitled(e.summary),
		Description:    optionalString(e.description),
		Location:       optionalString(e.location),
		StartTime:      start,
		EndTime:        end,
		IsAllDay:       e.allDay,
		IsRecurring:    recurring,
		OrganizerEmail: optionalString(e.organizer),
	}
}

// instanceID identifies one occurrence of a recurring event.
func instanceID(uid string, start time.Time) string {
	return uid + "@" + start.UTC().Format("20060102T150405Z")
}

func inWindow(t, from, to time.Time) bool {
	return !t.Before(from) && !t.After(to)
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	p := ve.GetProperty(prop)
	if p == nil {
		return ""
	}
	return strings.TrimSpace(p.Value)
}

func tzid(p *ical.IANAProperty) string {
	if v := p.ICalParameters["TZID"]; len(v) > 0 {
		return v[0]
	}
	return ""
}

// parseICSTime parses a DTSTART-like property and reports whether it is a date-only value.
func parseICSTime(p *ical.IANAProperty, loc *time.Location) (time.Time, bool, error) {
	value := strings.TrimSpace(p.Value)
	allDay := !strings.Contains(value, "T")
	if v := p.ICalParameters["VALUE"]; len(v) > 0 && strings.EqualFold(v[0], "DATE") {
		allDay = true
	}
	t, err := parseICSValue(value, tzid(p), loc)
	return t, allDay, err
}

func parseICSValue(value, tz string, loc *time.Location) (time.Time, error) {
	if tz != "" {
		if l, err := time.LoadLocation(tz); err == nil {
			loc = l
		}
	}
	switch {
	case strings.HasSuffix(value, "Z"):
		return time.Parse("20060102T150405Z", value)
	case strings.Contains(value, "T"):
		return time.ParseInLocation("20060102T150405", value, loc)
	default:
		return time.ParseInLocation("20060102", value, loc)
	}
}

var icsTextReplacer = strings.NewReplacer(`\n`, "\n", `\N`, "\n", `\,`, ",", `\;`, ";", `\\`, `\`)

func unescapeText(s string) string {
	return icsTextReplacer.Replace(s)
}

var _ Provider = (*ICSProvider)(nil)
