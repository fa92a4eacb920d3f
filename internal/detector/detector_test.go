package detector

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/enp09/duende/internal/models"
)

// tuesday is 2026-03-03, a Tuesday.
var tuesday = time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC)

func at(day time.Time, hour, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), hour, minute, 0, 0, day.Location())
}

func meeting(title string, start, end time.Time) models.CalendarEvent {
	t := title
	return models.CalendarEvent{
		ID:        uuid.New(),
		Title:     &t,
		StartTime: start,
		EndTime:   end,
	}
}

func ofType(vs []models.Violation, typ models.ViolationType) []models.Violation {
	var out []models.Violation
	for _, v := range vs {
		if v.Type == typ {
			out = append(out, v)
		}
	}
	return out
}

func allChecks() Config {
	cfg := DefaultConfig()
	cfg.WantsProtectedLunch = true
	cfg.WantsBufferTime = true
	return cfg
}

func TestDetect_EmptyInputs(t *testing.T) {
	t.Parallel()

	got := Detect(nil, Config{})
	if got == nil {
		t.Fatal("Detect(nil) returned nil, want empty slice")
	}
	if len(got) != 0 {
		t.Errorf("Detect(nil) returned %d violations, want 0", len(got))
	}

	got = Detect([]models.CalendarEvent{}, allChecks())
	if len(got) != 0 {
		t.Errorf("Detect(empty) returned %d violations, want 0", len(got))
	}
}

func TestDetect_AllDayEventsIgnored(t *testing.T) {
	t.Parallel()

	events := []models.CalendarEvent{
		meeting("Offsite", at(tuesday, 0, 0), at(tuesday.AddDate(0, 0, 1), 0, 0)),
		meeting("Conference", at(tuesday, 8, 0), at(tuesday, 18, 0)),
	}
	for i := range events {
		events[i].IsAllDay = true
	}

	if got := Detect(events, allChecks()); len(got) != 0 {
		t.Errorf("all-day events produced %d violations, want 0: %+v", len(got), got)
	}
}

func TestDetect_ProtectionEventsExcluded(t *testing.T) {
	t.Parallel()

	block := meeting("Lunch (protected)", at(tuesday, 12, 0), at(tuesday, 13, 0))
	block.BlockedByDuende = true

	events := []models.CalendarEvent{
		meeting("Morning", at(tuesday, 7, 0), at(tuesday, 9, 0)),
		block,
		meeting("Afternoon", at(tuesday, 15, 0), at(tuesday, 17, 0)),
		meeting("Evening", at(tuesday, 18, 0), at(tuesday, 19, 30)),
	}

	// Without the block the day has 5.5 hours; with it, 6.5.
	got := Detect(events, allChecks())
	if n := len(ofType(got, models.ViolationTooManyMeetings)); n != 0 {
		t.Errorf("protection event counted toward meeting hours: %d too_many_meetings violations", n)
	}
	if n := len(ofType(got, models.ViolationNoProtectedLunch)); n != 0 {
		t.Errorf("protection event blocked lunch: %d no_protected_lunch violations", n)
	}
}

func TestDetect_TooManyMeetings(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name         string
		minutes      int
		maxHours     float64
		wantSeverity models.Severity
		wantTitle    string
	}{
		{name: "exactly at threshold", minutes: 360, maxHours: 6},
		{name: "just over", minutes: 366, maxHours: 6, wantSeverity: models.SeverityMedium, wantTitle: "6.1 hours of meetings on Tuesday, Mar 3"},
		{name: "two hours over is medium", minutes: 480, maxHours: 6, wantSeverity: models.SeverityMedium, wantTitle: "8.0 hours of meetings on Tuesday, Mar 3"},
		{name: "more than two hours over", minutes: 486, maxHours: 6, wantSeverity: models.SeverityHigh, wantTitle: "8.1 hours of meetings on Tuesday, Mar 3"},
		{name: "zero max falls back to six", minutes: 366, maxHours: 0, wantSeverity: models.SeverityMedium, wantTitle: "6.1 hours of meetings on Tuesday, Mar 3"},
		{name: "custom max", minutes: 300, maxHours: 4, wantSeverity: models.SeverityMedium, wantTitle: "5.0 hours of meetings on Tuesday, Mar 3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			// Split into hour-long meetings separated by 30 minutes.
			var events []models.CalendarEvent
			start := at(tuesday, 6, 0)
			remaining := tt.minutes
			for remaining > 0 {
				d := min(60, remaining)
				end := start.Add(time.Duration(d) * time.Minute)
				events = append(events, meeting("Sync", start, end))
				start = end.Add(30 * time.Minute)
				remaining -= d
			}

			cfg := Config{MaxMeetingHoursPerDay: tt.maxHours}
			got := ofType(Detect(events, cfg), models.ViolationTooManyMeetings)

			if tt.wantSeverity == "" {
				if len(got) != 0 {
					t.Fatalf("got %d violations, want none", len(got))
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("got %d violations, want 1", len(got))
			}
			v := got[0]
			if v.Severity != tt.wantSeverity {
				t.Errorf("Severity = %q, want %q", v.Severity, tt.wantSeverity)
			}
			if v.Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", v.Title, tt.wantTitle)
			}
			if len(v.AffectedEvents) != len(events) {
				t.Errorf("AffectedEvents has %d entries, want %d", len(v.AffectedEvents), len(events))
			}
			if v.DefaultSetting != models.DefaultSettingStress {
				t.Errorf("DefaultSetting = %q, want stress", v.DefaultSetting)
			}
		})
	}
}

func TestDetect_TooManyMeetingsDescription(t *testing.T) {
	t.Parallel()

	events := []models.CalendarEvent{
		meeting("Planning", at(tuesday, 8, 0), at(tuesday, 11, 0)),
		{StartTime: at(tuesday, 12, 0), EndTime: at(tuesday, 16, 0)},
	}
	got := ofType(Detect(events, DefaultConfig()), models.ViolationTooManyMeetings)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}

	v := got[0]
	wantDesc := "You have 2 meetings scheduled for 7.0 hours. Your threshold is 6 hours."
	if v.Description != wantDesc {
		t.Errorf("Description = %q, want %q", v.Description, wantDesc)
	}
	wantAffected := []string{"Planning", UntitledPlaceholder}
	if !reflect.DeepEqual(v.AffectedEvents, wantAffected) {
		t.Errorf("AffectedEvents = %v, want %v", v.AffectedEvents, wantAffected)
	}
	if v.SuggestedAction != "Consider making 1-2 meetings async or rescheduling to spread the load" {
		t.Errorf("SuggestedAction = %q", v.SuggestedAction)
	}
}

func TestDetect_NoProtectedLunch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		start, end time.Time
		wants      bool
		wantFire   bool
	}{
		{"inside window", at(tuesday, 12, 0), at(tuesday, 13, 0), true, true},
		{"fully outside", at(tuesday, 10, 0), at(tuesday, 11, 0), true, false},
		{"lunch not wanted", at(tuesday, 12, 0), at(tuesday, 13, 0), false, false},
		{"starts inside", at(tuesday, 13, 30), at(tuesday, 15, 0), true, true},
		{"ends inside", at(tuesday, 11, 0), at(tuesday, 12, 0), true, true},
		{"spans window", at(tuesday, 11, 0), at(tuesday, 14, 30), true, true},
		{"ends at window start", at(tuesday, 10, 30), at(tuesday, 11, 30), true, false},
		{"starts at window end", at(tuesday, 14, 0), at(tuesday, 15, 0), true, false},
		{"starts at window start", at(tuesday, 11, 30), at(tuesday, 11, 45), true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := DefaultConfig()
			cfg.WantsProtectedLunch = tt.wants
			got := ofType(Detect([]models.CalendarEvent{meeting("Client call", tt.start, tt.end)}, cfg), models.ViolationNoProtectedLunch)

			if !tt.wantFire {
				if len(got) != 0 {
					t.Fatalf("got %d violations, want none", len(got))
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("got %d violations, want 1", len(got))
			}
			if got[0].Severity != models.SeverityHigh {
				t.Errorf("Severity = %q, want high", got[0].Severity)
			}
			if got[0].DefaultSetting != models.DefaultSettingNutrition {
				t.Errorf("DefaultSetting = %q, want nutrition", got[0].DefaultSetting)
			}
		})
	}
}

func TestDetect_NoProtectedLunchText(t *testing.T) {
	t.Parallel()

	events := []models.CalendarEvent{
		meeting("Design review", at(tuesday, 13, 0), at(tuesday, 13, 45)),
		meeting("Team lunch", at(tuesday, 12, 0), at(tuesday, 12, 45)),
		meeting("Morning sync", at(tuesday, 9, 0), at(tuesday, 9, 30)),
	}
	cfg := DefaultConfig()
	cfg.WantsProtectedLunch = true
	cfg.PreferredLunchTime = "16:00"

	got := ofType(Detect(events, cfg), models.ViolationNoProtectedLunch)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}
	v := got[0]

	if v.Title != "Lunch is blocked on Tuesday, Mar 3" {
		t.Errorf("Title = %q", v.Title)
	}
	wantDesc := "You have 2 meeting(s) during lunch hours (11:30-14:00). Your nervous system needs a break from your desk."
	if v.Description != wantDesc {
		t.Errorf("Description = %q, want %q", v.Description, wantDesc)
	}
	if want := []string{"Team lunch", "Design review"}; !reflect.DeepEqual(v.AffectedEvents, want) {
		t.Errorf("AffectedEvents = %v, want %v", v.AffectedEvents, want)
	}
	if want := "Move Team lunch to 14:30 or make it async"; v.SuggestedAction != want {
		t.Errorf("SuggestedAction = %q, want %q", v.SuggestedAction, want)
	}
}

func TestDetect_NoMovement(t *testing.T) {
	t.Parallel()

	hourly := func(starts ...time.Time) []models.CalendarEvent {
		events := make([]models.CalendarEvent, 0, len(starts))
		for _, s := range starts {
			events = append(events, meeting("Block", s, s.Add(time.Hour)))
		}
		return events
	}

	tests := []struct {
		name         string
		events       []models.CalendarEvent
		wantSeverity models.Severity
		wantTitle    string
	}{
		{
			name:         "exactly 240 minutes stays medium since high needs more than 240",
			events:       hourly(at(tuesday, 9, 0), at(tuesday, 10, 0), at(tuesday, 11, 0), at(tuesday, 12, 0)),
			wantSeverity: models.SeverityMedium,
			wantTitle:    "4 hours without a break on Tuesday, Mar 3",
		},
		{
			name:   "twenty minute gap splits the stretch",
			events: hourly(at(tuesday, 9, 0), at(tuesday, 10, 0), at(tuesday, 11, 20), at(tuesday, 12, 20)),
		},
		{
			name:         "five hours is high",
			events:       hourly(at(tuesday, 9, 0), at(tuesday, 10, 0), at(tuesday, 11, 0), at(tuesday, 12, 0), at(tuesday, 13, 0)),
			wantSeverity: models.SeverityHigh,
			wantTitle:    "5 hours without a break on Tuesday, Mar 3",
		},
		{
			name:   "exactly three hours is not reported",
			events: hourly(at(tuesday, 9, 0), at(tuesday, 10, 0), at(tuesday, 11, 0)),
		},
		{
			name:         "small gaps count toward the stretch",
			events:       hourly(at(tuesday, 9, 0), at(tuesday, 10, 10), at(tuesday, 11, 20)),
			wantSeverity: models.SeverityMedium,
			wantTitle:    "3 hours without a break on Tuesday, Mar 3",
		},
		{
			name:   "fifteen minute gap ends the stretch",
			events: hourly(at(tuesday, 9, 0), at(tuesday, 10, 0), at(tuesday, 11, 15), at(tuesday, 12, 15)),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ofType(Detect(tt.events, DefaultConfig()), models.ViolationNoMovement)
			if tt.wantSeverity == "" {
				if len(got) != 0 {
					t.Fatalf("got %d violations, want none: %+v", len(got), got)
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("got %d violations, want 1", len(got))
			}
			if got[0].Severity != tt.wantSeverity {
				t.Errorf("Severity = %q, want %q", got[0].Severity, tt.wantSeverity)
			}
			if got[0].Title != tt.wantTitle {
				t.Errorf("Title = %q, want %q", got[0].Title, tt.wantTitle)
			}
		})
	}
}

func TestDetect_NoMovementText(t *testing.T) {
	t.Parallel()

	events := []models.CalendarEvent{
		meeting("Workshop", at(tuesday, 9, 0), at(tuesday, 11, 0)),
		meeting("Retro", at(tuesday, 11, 0), at(tuesday, 13, 0)),
	}
	got := ofType(Detect(events, DefaultConfig()), models.ViolationNoMovement)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}
	v := got[0]

	wantDesc := "You have a stretch from 9:00 AM to 1:00 PM with no movement. Sitting this long keeps you in stress mode."
	if v.Description != wantDesc {
		t.Errorf("Description = %q, want %q", v.Description, wantDesc)
	}
	if want := "Add a 15-minute walk or standing break around 11:00 AM"; v.SuggestedAction != want {
		t.Errorf("SuggestedAction = %q, want %q", v.SuggestedAction, want)
	}
	if want := []string{"Workshop", "Retro"}; !reflect.DeepEqual(v.AffectedEvents, want) {
		t.Errorf("AffectedEvents = %v, want %v", v.AffectedEvents, want)
	}
	if v.DefaultSetting != models.DefaultSettingMovement {
		t.Errorf("DefaultSetting = %q, want movement", v.DefaultSetting)
	}
}

func TestDetect_NoMovementReportsLongestStretch(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		events    []models.CalendarEvent
		wantStart string
	}{
		{
			name: "longer second stretch",
			events: []models.CalendarEvent{
				meeting("A", at(tuesday, 6, 0), at(tuesday, 9, 30)),
				meeting("B", at(tuesday, 10, 0), at(tuesday, 14, 30)),
			},
			wantStart: "10:00 AM",
		},
		{
			name: "longer first stretch",
			events: []models.CalendarEvent{
				meeting("A", at(tuesday, 6, 0), at(tuesday, 11, 0)),
				meeting("B", at(tuesday, 12, 0), at(tuesday, 15, 30)),
			},
			wantStart: "6:00 AM",
		},
		{
			name: "tie keeps the later stretch",
			events: []models.CalendarEvent{
				meeting("A", at(tuesday, 6, 0), at(tuesday, 9, 20)),
				meeting("B", at(tuesday, 10, 0), at(tuesday, 13, 20)),
			},
			wantStart: "10:00 AM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := ofType(Detect(tt.events, DefaultConfig()), models.ViolationNoMovement)
			if len(got) != 1 {
				t.Fatalf("got %d violations, want 1", len(got))
			}
			want := "You have a stretch from " + tt.wantStart
			if !strings.HasPrefix(got[0].Description, want) {
				t.Errorf("Description = %q, want prefix %q", got[0].Description, want)
			}
		})
	}
}

func TestDetect_MissingBuffers(t *testing.T) {
	t.Parallel()

	spaced := func(n int, gap time.Duration) []models.CalendarEvent {
		titles := []string{"A", "B", "C", "D", "E", "F", "G"}
		var events []models.CalendarEvent
		start := at(tuesday, 8, 0)
		for i := 0; i < n; i++ {
			end := start.Add(30 * time.Minute)
			events = append(events, meeting(titles[i], start, end))
			start = end.Add(gap)
		}
		return events
	}

	tests := []struct {
		name         string
		events       []models.CalendarEvent
		wantsBuffer  bool
		buffer       int
		wantPairs    int
		wantSeverity models.Severity
	}{
		{name: "five meetings five minutes apart", events: spaced(5, 5*time.Minute), wantsBuffer: true, buffer: 10, wantPairs: 4, wantSeverity: models.SeverityMedium},
		{name: "two meetings", events: spaced(2, 5*time.Minute), wantsBuffer: true, buffer: 10},
		{name: "three meetings is two pairs", events: spaced(3, 0), wantsBuffer: true, buffer: 10},
		{name: "four meetings is three pairs", events: spaced(4, 0), wantsBuffer: true, buffer: 10, wantPairs: 3, wantSeverity: models.SeverityMedium},
		{name: "seven meetings is high", events: spaced(7, 0), wantsBuffer: true, buffer: 10, wantPairs: 6, wantSeverity: models.SeverityHigh},
		{name: "gap equal to buffer is fine", events: spaced(5, 10*time.Minute), wantsBuffer: true, buffer: 10},
		{name: "zero buffer defaults to ten", events: spaced(5, 9*time.Minute), wantsBuffer: true, buffer: 0, wantPairs: 4, wantSeverity: models.SeverityMedium},
		{name: "custom buffer", events: spaced(5, 10*time.Minute), wantsBuffer: true, buffer: 15, wantPairs: 4, wantSeverity: models.SeverityMedium},
		{name: "buffers not wanted", events: spaced(7, 0), wantsBuffer: false, buffer: 10},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Config{WantsBufferTime: tt.wantsBuffer, BufferMinutes: tt.buffer}
			got := ofType(Detect(tt.events, cfg), models.ViolationMissingBuffers)
			if tt.wantSeverity == "" {
				if len(got) != 0 {
					t.Fatalf("got %d violations, want none", len(got))
				}
				return
			}
			if len(got) != 1 {
				t.Fatalf("got %d violations, want 1", len(got))
			}
			if got[0].Severity != tt.wantSeverity {
				t.Errorf("Severity = %q, want %q", got[0].Severity, tt.wantSeverity)
			}
			if len(got[0].AffectedEvents) != tt.wantPairs {
				t.Errorf("AffectedEvents has %d pairs, want %d", len(got[0].AffectedEvents), tt.wantPairs)
			}
		})
	}
}

func TestDetect_MissingBuffersText(t *testing.T) {
	t.Parallel()

	events := []models.CalendarEvent{
		meeting("Standup", at(tuesday, 9, 0), at(tuesday, 9, 15)),
		{StartTime: at(tuesday, 9, 15), EndTime: at(tuesday, 9, 45)},
		meeting("1:1", at(tuesday, 9, 50), at(tuesday, 10, 20)),
		meeting("Review", at(tuesday, 10, 25), at(tuesday, 10, 55)),
	}
	cfg := Config{WantsBufferTime: true, BufferMinutes: 10}

	got := ofType(Detect(events, cfg), models.ViolationMissingBuffers)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}
	v := got[0]

	wantPairs := []string{"Standup → Untitled", "Untitled → 1:1", "1:1 → Review"}
	if !reflect.DeepEqual(v.AffectedEvents, wantPairs) {
		t.Errorf("AffectedEvents = %v, want %v", v.AffectedEvents, wantPairs)
	}
	if v.Title != "3 back-to-back meetings on Tuesday, Mar 3" {
		t.Errorf("Title = %q", v.Title)
	}
	wantDesc := "You have 3 meetings with less than 10 minutes between them. This keeps you in fight-or-flight all day."
	if v.Description != wantDesc {
		t.Errorf("Description = %q, want %q", v.Description, wantDesc)
	}
}

func TestDetect_EndToEndTuesday(t *testing.T) {
	t.Parallel()

	events := []models.CalendarEvent{
		meeting("Standup", at(tuesday, 9, 0), at(tuesday, 10, 0)),
		meeting("Planning", at(tuesday, 10, 5), at(tuesday, 11, 0)),
		meeting("Lunch with vendor", at(tuesday, 12, 0), at(tuesday, 13, 0)),
		meeting("Design sync", at(tuesday, 13, 5), at(tuesday, 14, 0)),
		meeting("Quarterly review", at(tuesday, 14, 5), at(tuesday, 17, 0)),
	}
	maxHours := 6.0
	lunch, buffer := true, true
	bufferMinutes := 10
	cfg := ConfigFromSettings(&models.UserSettings{
		MaxMeetingHoursPerDay: &maxHours,
		WantsProtectedLunch:   &lunch,
		WantsBufferTime:       &buffer,
		BufferMinutes:         &bufferMinutes,
	})

	got := Detect(events, cfg)

	// 405 minutes of meetings; lunch overlapped by two meetings; a 12:00-17:00
	// stretch of 300 minutes; three gaps under ten minutes.
	want := []struct {
		typ      models.ViolationType
		severity models.Severity
		title    string
	}{
		{models.ViolationTooManyMeetings, models.SeverityMedium, "6.8 hours of meetings on Tuesday, Mar 3"},
		{models.ViolationNoProtectedLunch, models.SeverityHigh, "Lunch is blocked on Tuesday, Mar 3"},
		{models.ViolationNoMovement, models.SeverityHigh, "5 hours without a break on Tuesday, Mar 3"},
		{models.ViolationMissingBuffers, models.SeverityMedium, "3 back-to-back meetings on Tuesday, Mar 3"},
	}

	if len(got) != len(want) {
		t.Fatalf("got %d violations, want %d: %+v", len(got), len(want), got)
	}
	for i, w := range want {
		if got[i].Type != w.typ {
			t.Errorf("violation %d Type = %q, want %q", i, got[i].Type, w.typ)
		}
		if got[i].Severity != w.severity {
			t.Errorf("violation %d Severity = %q, want %q", i, got[i].Severity, w.severity)
		}
		if got[i].Title != w.title {
			t.Errorf("violation %d Title = %q, want %q", i, got[i].Title, w.title)
		}
	}

	if want := []string{"Lunch with vendor", "Design sync"}; !reflect.DeepEqual(got[1].AffectedEvents, want) {
		t.Errorf("lunch AffectedEvents = %v, want %v", got[1].AffectedEvents, want)
	}
	if want := "Add a 15-minute walk or standing break around 2:30 PM"; got[2].SuggestedAction != want {
		t.Errorf("movement SuggestedAction = %q, want %q", got[2].SuggestedAction, want)
	}
	wantPairs := []string{"Standup → Planning", "Lunch with vendor → Design sync", "Design sync → Quarterly review"}
	if !reflect.DeepEqual(got[3].AffectedEvents, wantPairs) {
		t.Errorf("buffer AffectedEvents = %v, want %v", got[3].AffectedEvents, wantPairs)
	}
}

func TestDetect_Idempotent(t *testing.T) {
	t.Parallel()

	wednesday := tuesday.AddDate(0, 0, 1)
	events := []models.CalendarEvent{
		meeting("Wed long", at(wednesday, 9, 0), at(wednesday, 17, 0)),
		meeting("Tue C", at(tuesday, 11, 0), at(tuesday, 12, 30)),
		meeting("Tue A", at(tuesday, 9, 0), at(tuesday, 10, 0)),
		meeting("Tue B", at(tuesday, 10, 0), at(tuesday, 11, 0)),
		meeting("Tue D", at(tuesday, 12, 30), at(tuesday, 13, 0)),
	}
	original := make([]models.CalendarEvent, len(events))
	copy(original, events)

	first := Detect(events, allChecks())
	second := Detect(events, allChecks())

	if !reflect.DeepEqual(first, second) {
		t.Errorf("Detect is not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
	if !reflect.DeepEqual(events, original) {
		t.Error("Detect mutated its input slice")
	}
	if len(first) == 0 {
		t.Fatal("expected violations")
	}

	// Tuesday's violations come before Wednesday's regardless of input order.
	sawWednesday := false
	for _, v := range first {
		isWed := strings.Contains(v.Title, "Wednesday, Mar 4")
		if sawWednesday && !isWed {
			t.Errorf("Tuesday violation %q reported after a Wednesday one", v.Title)
		}
		sawWednesday = sawWednesday || isWed
	}
	if !sawWednesday {
		t.Error("expected a Wednesday violation")
	}
}

func TestDetect_GroupsByLocalDay(t *testing.T) {
	t.Parallel()

	tokyo, err := time.LoadLocation("Asia/Tokyo")
	if err != nil {
		t.Skipf("timezone data unavailable: %v", err)
	}

	// 23:00 UTC on Mar 3 is 08:00 on Mar 4 in Tokyo.
	start := time.Date(2026, 3, 3, 23, 0, 0, 0, time.UTC).In(tokyo)
	events := []models.CalendarEvent{meeting("Marathon", start, start.Add(7*time.Hour))}

	got := ofType(Detect(events, DefaultConfig()), models.ViolationTooManyMeetings)
	if len(got) != 1 {
		t.Fatalf("got %d violations, want 1", len(got))
	}
	if want := "7.0 hours of meetings on Wednesday, Mar 4"; got[0].Title != want {
		t.Errorf("Title = %q, want %q", got[0].Title, want)
	}
}

func TestDetect_InvertedEventsPassThrough(t *testing.T) {
	t.Parallel()

	events := []models.CalendarEvent{
		meeting("Backwards", at(tuesday, 17, 0), at(tuesday, 9, 0)),
		meeting("Instant", at(tuesday, 12, 0), at(tuesday, 12, 0)),
	}

	got := Detect(events, Config{WantsBufferTime: true})
	if n := len(ofType(got, models.ViolationTooManyMeetings)); n != 0 {
		t.Errorf("negative durations produced %d too_many_meetings violations", n)
	}
	if n := len(ofType(got, models.ViolationNoMovement)); n != 0 {
		t.Errorf("negative durations produced %d no_movement violations", n)
	}
}

func TestConfigFromSettings(t *testing.T) {
	t.Parallel()

	f := func(v float64) *float64 { return &v }
	b := func(v bool) *bool { return &v }
	i := func(v int) *int { return &v }
	s := func(v string) *string { return &v }

	tests := []struct {
		name     string
		settings *models.UserSettings
		want     Config
	}{
		{
			name:     "nil settings",
			settings: nil,
			want:     Config{MaxMeetingHoursPerDay: 6, PreferredLunchTime: "12:30", BufferMinutes: 10},
		},
		{
			name:     "empty row",
			settings: &models.UserSettings{},
			want:     Config{MaxMeetingHoursPerDay: 6, PreferredLunchTime: "12:30", BufferMinutes: 10},
		},
		{
			name: "zero values fall back",
			settings: &models.UserSettings{
				MaxMeetingHoursPerDay: f(0),
				BufferMinutes:         i(0),
				PreferredLunchTime:    s(""),
			},
			want: Config{MaxMeetingHoursPerDay: 6, PreferredLunchTime: "12:30", BufferMinutes: 10},
		},
		{
			name: "all set",
			settings: &models.UserSettings{
				MaxMeetingHoursPerDay: f(4.5),
				WantsProtectedLunch:   b(true),
				PreferredLunchTime:    s("13:00"),
				WantsBufferTime:       b(true),
				BufferMinutes:         i(15),
			},
			want: Config{MaxMeetingHoursPerDay: 4.5, WantsProtectedLunch: true, PreferredLunchTime: "13:00", WantsBufferTime: true, BufferMinutes: 15},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := ConfigFromSettings(tt.settings); got != tt.want {
				t.Errorf("ConfigFromSettings() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
