package calendar

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fixtureICS = `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//duende//fixture//EN
BEGIN:VEVENT
UID:single-1
SUMMARY:Design review\, round 2
DTSTART;TZID=America/New_York:20250304T100000
DTEND;TZID=America/New_York:20250304T110000
ORGANIZER:mailto:lead@example.com
END:VEVENT
BEGIN:VEVENT
UID:allday-1
SUMMARY:Offsite
DTSTART;VALUE=DATE:20250305
DTEND;VALUE=DATE:20250306
END:VEVENT
BEGIN:VEVENT
UID:weekly-1
SUMMARY:Standup
DTSTART;TZID=America/New_York:20250303T090000
DTEND;TZID=America/New_York:20250303T091500
RRULE:FREQ=WEEKLY;COUNT=4
EXDATE;TZID=America/New_York:20250310T090000
END:VEVENT
BEGIN:VEVENT
UID:weekly-1
RECURRENCE-ID;TZID=America/New_York:20250317T090000
SUMMARY:Standup (moved)
DTSTART;TZID=America/New_York:20250317T100000
DTEND;TZID=America/New_York:20250317T101500
END:VEVENT
BEGIN:VEVENT
UID:cancelled-1
STATUS:CANCELLED
SUMMARY:Gone
DTSTART:20250306T150000Z
DTEND:20250306T160000Z
END:VEVENT
BEGIN:VEVENT
SUMMARY:No uid
DTSTART:20250307T150000Z
END:VEVENT
BEGIN:VEVENT
UID:outside-1
DTSTART:20250501T150000Z
DTEND:20250501T160000Z
END:VEVENT
END:VCALENDAR
`

func crlf(s string) []byte {
	return []byte(strings.ReplaceAll(s, "\n", "\r\n"))
}

func TestParseICS(t *testing.T) {
	t.Parallel()

	ny, err := time.LoadLocation("America/New_York")
	require.NoError(t, err)
	userID := uuid.New()
	from := time.Date(2025, 3, 3, 0, 0, 0, 0, ny)
	to := from.AddDate(0, 0, 28)

	events, err := ParseICS(crlf(fixtureICS), userID, from, to, ny)
	require.NoError(t, err)

	ids := make([]string, 0, len(events))
	for _, e := range events {
		ids = append(ids, e.ExternalID)
		assert.Equal(t, userID, e.UserID)
		assert.Equal(t, "ics", e.CalendarID)
	}
	assert.Equal(t, []string{
		"weekly-1@20250303T140000Z",
		"single-1",
		"allday-1",
		"weekly-1@20250317T130000Z",
		"weekly-1@20250324T130000Z",
	}, ids)

	standup := events[0]
	assert.Equal(t, "Standup", *standup.Title)
	assert.True(t, standup.IsRecurring)
	assert.Equal(t, 15*time.Minute, standup.Duration())

	single := events[1]
	assert.Equal(t, "Design review, round 2", *single.Title)
	assert.Equal(t, "lead@example.com", *single.OrganizerEmail)
	assert.False(t, single.IsRecurring)
	assert.True(t, single.StartTime.Equal(time.Date(2025, 3, 4, 10, 0, 0, 0, ny)))
	assert.Equal(t, time.Hour, single.Duration())

	allDay := events[2]
	assert.True(t, allDay.IsAllDay)
	assert.True(t, allDay.StartTime.Equal(time.Date(2025, 3, 5, 0, 0, 0, 0, ny)))

	moved := events[3]
	assert.Equal(t, "Standup (moved)", *moved.Title)
	assert.True(t, moved.IsRecurring)
	assert.True(t, moved.StartTime.Equal(time.Date(2025, 3, 17, 10, 0, 0, 0, ny)))

	last := events[4]
	assert.True(t, last.StartTime.Equal(time.Date(2025, 3, 24, 9, 0, 0, 0, ny)))
}

func TestParseICS_Invalid(t *testing.T) {
	t.Parallel()

	_, err := ParseICS([]byte("not a calendar"), uuid.New(), time.Now(), time.Now().Add(time.Hour), time.UTC)
	assert.Error(t, err)
}

func TestParseICS_MissingEndAndTitle(t *testing.T) {
	t.Parallel()

	doc := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//duende//fixture//EN
BEGIN:VEVENT
UID:bare-1
DTSTART:20250304T150000Z
END:VEVENT
END:VCALENDAR
`
	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	events, err := ParseICS(crlf(doc), uuid.New(), from, from.AddDate(0, 0, 7), time.UTC)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Untitled Event", *events[0].Title)
	assert.Equal(t, time.Duration(0), events[0].Duration())
}

func TestICSProvider_UsesUserTimezone(t *testing.T) {
	t.Parallel()

	doc := `BEGIN:VCALENDAR
VERSION:2.0
PRODID:-//duende//fixture//EN
BEGIN:VEVENT
UID:floating-1
SUMMARY:Focus
DTSTART:20250304T090000
DTEND:20250304T100000
END:VEVENT
END:VCALENDAR
`
	user := connectedUser(nil)
	user.Timezone = "Asia/Tokyo"
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	from := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	events, err := NewICSProvider(crlf(doc)).FetchEvents(context.Background(), user, from, from.AddDate(0, 0, 7))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.True(t, events[0].StartTime.Equal(time.Date(2025, 3, 4, 9, 0, 0, 0, tokyo)))
}
