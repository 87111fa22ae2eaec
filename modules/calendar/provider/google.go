package provider

import (
	"context"
	"fmt"
	"time"

	"smart-schedule/core/interval"
	"smart-schedule/modules/calendar/entity"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

// GoogleProvider queries the Google Calendar free/busy API.
type GoogleProvider struct {
	oauth   *oauth2.Config
	baseURL string
}

// NewGoogleProvider creates the provider. When client credentials are given,
// expired access tokens are refreshed in memory for the duration of a call.
func NewGoogleProvider(clientID, clientSecret, baseURL string) *GoogleProvider {
	p := &GoogleProvider{baseURL: baseURL}
	if clientID != "" && clientSecret != "" {
		p.oauth = &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Scopes:       []string{calendar.CalendarReadonlyScope},
			Endpoint:     google.Endpoint,
		}
	}
	return p
}

func (p *GoogleProvider) tokenSource(ctx context.Context, cred entity.Credential) oauth2.TokenSource {
	token := &oauth2.Token{
		AccessToken:  cred.AccessToken,
		RefreshToken: cred.RefreshToken,
		TokenType:    "Bearer",
	}
	if cred.TokenExpiresAt != nil {
		token.Expiry = *cred.TokenExpiresAt
	}
	if p.oauth != nil && cred.RefreshToken != "" {
		return p.oauth.TokenSource(ctx, token)
	}
	return oauth2.StaticTokenSource(token)
}

func (p *GoogleProvider) FetchBusy(ctx context.Context, cred entity.Credential, rng interval.Interval) ([]interval.Interval, error) {
	opts := []option.ClientOption{option.WithTokenSource(p.tokenSource(ctx, cred))}
	if p.baseURL != "" {
		opts = append(opts, option.WithEndpoint(p.baseURL))
	}
	service, err := calendar.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	calendarID := cred.CalendarEmail
	if calendarID == "" {
		calendarID = "primary"
	}

	resp, err := service.Freebusy.Query(&calendar.FreeBusyRequest{
		TimeMin: rng.Start.UTC().Format(time.RFC3339),
		TimeMax: rng.End.UTC().Format(time.RFC3339),
		Items:   []*calendar.FreeBusyRequestItem{{Id: calendarID}},
	}).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("google freebusy query: %w", err)
	}

	cal, ok := resp.Calendars[calendarID]
	if !ok {
		return nil, fmt.Errorf("google freebusy: calendar %q missing from response", calendarID)
	}
	if len(cal.Errors) > 0 {
		return nil, fmt.Errorf("google freebusy: calendar %q: %s", calendarID, cal.Errors[0].Reason)
	}

	busy := make([]interval.Interval, 0, len(cal.Busy))
	for _, period := range cal.Busy {
		start, err := time.Parse(time.RFC3339, period.Start)
		if err != nil {
			return nil, fmt.Errorf("google freebusy: bad start %q: %w", period.Start, err)
		}
		end, err := time.Parse(time.RFC3339, period.End)
		if err != nil {
			return nil, fmt.Errorf("google freebusy: bad end %q: %w", period.End, err)
		}
		busy = append(busy, interval.New(start, end))
	}
	return overlapping(busy, rng), nil
}
