package calendar

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/endpoints"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/enp09/duende/internal/database"
	"github.com/enp09/duende/internal/models"
)

const (
	defaultGoogleAPIBaseURL = "https://www.googleapis.com/calendar/v3/"
	googleCalendarID        = "primary"
	googlePageSize          = 100
	googleMaxPages          = 10
)

// errPageLimit stops paging once googleMaxPages pages have been read.
var errPageLimit = errors.New("page limit reached")

// GoogleScopes are requested when a user connects their calendar.
var GoogleScopes = []string{
	"https://www.googleapis.com/auth/calendar.readonly",
	"https://www.googleapis.com/auth/userinfo.email",
}

// GoogleOptions configures a GoogleProvider. APIBaseURL, Endpoint and HTTPClient
// default to Google's production services.
type GoogleOptions struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
	APIBaseURL   string
	Endpoint     *oauth2.Endpoint
	HTTPClient   *http.Client
	Now          func() time.Time
}

// GoogleProvider reads the primary Google calendar through the Calendar v3 client,
// refreshing and persisting OAuth tokens as needed.
type GoogleProvider struct {
	oauth      *oauth2.Config
	users      database.UserRepositoryInterface
	apiBaseURL string
	httpClient *http.Client
	now        func() time.Time
	logger     *zap.Logger
}

// NewGoogleProvider creates a Google calendar provider.
func NewGoogleProvider(opts GoogleOptions, users database.UserRepositoryInterface, log *zap.Logger) *GoogleProvider {
	endpoint := endpoints.Google
	if opts.Endpoint != nil {
		endpoint = *opts.Endpoint
	}
	if opts.APIBaseURL == "" {
		opts.APIBaseURL = defaultGoogleAPIBaseURL
	}
	if !strings.HasSuffix(opts.APIBaseURL, "/") {
		opts.APIBaseURL += "/"
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &GoogleProvider{
		oauth: &oauth2.Config{
			ClientID:     opts.ClientID,
			ClientSecret: opts.ClientSecret,
			RedirectURL:  opts.RedirectURL,
			Endpoint:     endpoint,
			Scopes:       GoogleScopes,
		},
		users:      users,
		apiBaseURL: opts.APIBaseURL,
		httpClient: opts.HTTPClient,
		now:        opts.Now,
		logger:     log,
	}
}

// FetchEvents implements Provider.
func (p *GoogleProvider) FetchEvents(ctx context.Context, user *models.User, from, to time.Time) ([]models.CalendarEvent, error) {
	if !user.HasCalendar() {
		return nil, ErrCalendarNotConnected
	}
	if p.httpClient != nil {
		ctx = context.WithValue(ctx, oauth2.HTTPClient, p.httpClient)
	}

	token, err := p.token(ctx, user)
	if err != nil {
		return nil, err
	}
	svc, err := gcal.NewService(ctx,
		option.WithHTTPClient(oauth2.NewClient(ctx, oauth2.StaticTokenSource(token))),
		option.WithEndpoint(p.apiBaseURL),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar client: %w", err)
	}
	loc := user.Location(time.UTC)

	var (
		events []models.CalendarEvent
		pages  int
	)
	err = svc.Events.List(googleCalendarID).
		TimeMin(from.UTC().Format(time.RFC3339)).
		TimeMax(to.UTC().Format(time.RFC3339)).
		SingleEvents(true).
		OrderBy("startTime").
		MaxResults(googlePageSize).
		Pages(ctx, func(page *gcal.Events) error {
			for _, item := range page.Items {
				if e, ok := eventToModel(item, user, loc); ok {
					events = append(events, e)
				}
			}
			pages++
			if pages >= googleMaxPages {
				return errPageLimit
			}
			return nil
		})
	if err != nil && !errors.Is(err, errPageLimit) {
		return nil, fmt.Errorf("failed to list google events: %w", err)
	}

	p.logger.Debug("google_events_fetched",
		zap.String("user_id", user.ID.String()),
		zap.Int("events", len(events)),
		zap.Int("pages", pages),
	)
	return events, nil
}

// token returns a valid access token, refreshing it when expired. A missing expiry
// is treated as expired. Refreshed tokens are written back to the user row.
func (p *GoogleProvider) token(ctx context.Context, user *models.User) (*oauth2.Token, error) {
	stored := &oauth2.Token{
		AccessToken:  *user.GoogleAccessToken,
		RefreshToken: *user.GoogleRefreshToken,
		TokenType:    "Bearer",
		Expiry:       p.now().Add(-time.Second),
	}
	if user.GoogleTokenExpiry != nil {
		stored.Expiry = *user.GoogleTokenExpiry
	}
	if stored.Expiry.After(p.now()) {
		return stored, nil
	}

	fresh, err := p.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: stored.RefreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("failed to refresh google token: %w", err)
	}

	var rotated *string
	if fresh.RefreshToken != "" && fresh.RefreshToken != stored.RefreshToken {
		rotated = &fresh.RefreshToken
	}
	expiry := fresh.Expiry
	if expiry.IsZero() {
		expiry = p.now().Add(time.Hour)
	}
	if err := p.users.UpdateGoogleTokens(ctx, user.ID, fresh.AccessToken, rotated, expiry); err != nil {
		return nil, fmt.Errorf("failed to store refreshed google token: %w", err)
	}
	p.logger.Info("google_token_refreshed", zap.String("user_id", user.ID.String()))

	return fresh, nil
}

// IsUnauthorized reports whether err is a 401 from the Calendar API, which means the
// user must reconnect their calendar.
func IsUnauthorized(err error) bool {
	var apiErr *googleapi.Error
	return errors.As(err, &apiErr) && apiErr.Code == http.StatusUnauthorized
}

// parseEventTime returns the instant and whether it is a date-only (all-day) value.
func parseEventTime(t *gcal.EventDateTime, loc *time.Location) (time.Time, bool, error) {
	switch {
	case t == nil:
		return time.Time{}, false, errors.New("missing time")
	case t.DateTime != "":
		parsed, err := time.Parse(time.RFC3339, t.DateTime)
		return parsed, false, err
	case t.Date != "":
		parsed, err := time.ParseInLocation("2006-01-02", t.Date, loc)
		return parsed, true, err
	}
	return time.Time{}, false, errors.New("missing date")
}

func eventToModel(g *gcal.Event, user *models.User, loc *time.Location) (models.CalendarEvent, bool) {
	if g == nil || g.Id == "" || g.Status == "cancelled" {
		return models.CalendarEvent{}, false
	}
	start, allDay, err := parseEventTime(g.Start, loc)
	if err != nil {
		return models.CalendarEvent{}, false
	}
	end, _, err := parseEventTime(g.End, loc)
	if err != nil {
		return models.CalendarEvent{}, false
	}

	link := g.HangoutLink
	if link == "" && g.ConferenceData != nil && len(g.ConferenceData.EntryPoints) > 0 {
		link = g.ConferenceData.EntryPoints[0].Uri
	}
	var organizer string
	if g.Organizer != nil {
		organizer = g.Organizer.Email
	}

	return models.CalendarEvent{
		UserID:         user.ID,
		ExternalID:     g.Id,
		CalendarID:     googleCalendarID,
		Title:          titleOrUntitled(g.Summary),
		Description:    optionalString(g.Description),
		Location:       optionalString(g.Location),
		StartTime:      start,
		EndTime:        end,
		IsAllDay:       allDay,
		IsRecurring:    g.RecurringEventId != "",
		OrganizerEmail: optionalString(organizer),
		MeetingLink:    optionalString(link),
	}, true
}

var _ Provider = (*GoogleProvider)(nil)
