package provider

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"smart-schedule/core/interval"
	"smart-schedule/modules/calendar/entity"

	"github.com/emersion/go-ical"
	"github.com/emersion/go-webdav/caldav"
)

// basicAuthTransport adds credentials to each CalDAV request.
type basicAuthTransport struct {
	username  string
	password  string
	transport http.RoundTripper
}

func (t *basicAuthTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.SetBasicAuth(t.username, t.password)
	req.Header.Set("User-Agent", "smart-schedule/1.0")
	return t.transport.RoundTrip(req)
}

// CalDAVProvider runs a calendar-query REPORT and expands recurring events.
type CalDAVProvider struct {
	transport http.RoundTripper
}

// NewCalDAVProvider creates the provider. transport may be nil.
func NewCalDAVProvider(transport http.RoundTripper) *CalDAVProvider {
	if transport == nil {
		transport = http.DefaultTransport
	}
	return &CalDAVProvider{transport: transport}
}

func (p *CalDAVProvider) FetchBusy(ctx context.Context, cred entity.Credential, rng interval.Interval) ([]interval.Interval, error) {
	if cred.ServerURL == "" {
		return nil, fmt.Errorf("caldav credential %s has no server url", cred.ID)
	}

	httpClient := &http.Client{Transport: &basicAuthTransport{
		username:  cred.Username,
		password:  cred.Password,
		transport: p.transport,
	}}
	client, err := caldav.NewClient(httpClient, cred.ServerURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create caldav client: %w", err)
	}

	calendarPath := cred.CalendarPath
	if calendarPath == "" {
		calendarPath, err = findDefaultCalendar(ctx, client)
		if err != nil {
			return nil, err
		}
	}

	query := &caldav.CalendarQuery{
		CompRequest: caldav.CalendarCompRequest{
			Name: ical.CompCalendar,
			Comps: []caldav.CalendarCompRequest{{
				Name:     ical.CompEvent,
				AllProps: true,
			}},
		},
		CompFilter: caldav.CompFilter{
			Name: ical.CompCalendar,
			Comps: []caldav.CompFilter{{
				Name:  ical.CompEvent,
				Start: rng.Start.UTC(),
				End:   rng.End.UTC(),
			}},
		},
	}

	objects, err := client.QueryCalendar(ctx, calendarPath, query)
	if err != nil {
		return nil, fmt.Errorf("caldav calendar query: %w", err)
	}

	calendars := make([]*ical.Calendar, 0, len(objects))
	for _, obj := range objects {
		if obj.Data != nil {
			calendars = append(calendars, obj.Data)
		}
	}
	return busyFromCalendars(calendars, rng)
}

func findDefaultCalendar(ctx context.Context, client *caldav.Client) (string, error) {
	principal, err := client.FindCurrentUserPrincipal(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to find principal path: %w", err)
	}
	homeSet, err := client.FindCalendarHomeSet(ctx, principal)
	if err != nil {
		return "", fmt.Errorf("failed to find calendar home set: %w", err)
	}
	calendars, err := client.FindCalendars(ctx, homeSet)
	if err != nil {
		return "", fmt.Errorf("failed to find calendars: %w", err)
	}
	if len(calendars) == 0 {
		return "", fmt.Errorf("no calendars under %s", homeSet)
	}
	return calendars[0].Path, nil
}

// busyFromCalendars extracts opaque, non-cancelled events and expands
// recurrence rules inside rng.
func busyFromCalendars(calendars []*ical.Calendar, rng interval.Interval) ([]interval.Interval, error) {
	var busy []interval.Interval
	for _, cal := range calendars {
		for _, ev := range cal.Events() {
			if isTransparent(ev) || isCancelled(ev) {
				continue
			}

			start, err := ev.DateTimeStart(time.UTC)
			if err != nil {
				return nil, fmt.Errorf("caldav event start: %w", err)
			}
			end, err := ev.DateTimeEnd(time.UTC)
			if err != nil {
				return nil, fmt.Errorf("caldav event end: %w", err)
			}
			duration := end.Sub(start)
			if duration <= 0 {
				continue
			}

			set, err := ev.RecurrenceSet(time.UTC)
			if err != nil {
				return nil, fmt.Errorf("caldav recurrence: %w", err)
			}
			if set == nil {
				busy = append(busy, interval.New(start, end))
				continue
			}
			for _, occurrence := range set.Between(rng.Start.Add(-duration), rng.End, true) {
				busy = append(busy, interval.New(occurrence, occurrence.Add(duration)))
			}
		}
	}
	return overlapping(busy, rng), nil
}

func isTransparent(ev ical.Event) bool {
	prop := ev.Props.Get(ical.PropTransparency)
	return prop != nil && strings.EqualFold(prop.Value, "TRANSPARENT")
}

func isCancelled(ev ical.Event) bool {
	prop := ev.Props.Get(ical.PropStatus)
	return prop != nil && strings.EqualFold(prop.Value, "CANCELLED")
}
