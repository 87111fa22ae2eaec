package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"smart-schedule/core/interval"
	"smart-schedule/modules/calendar/entity"

	"golang.org/x/oauth2"
)

const (
	defaultGraphURL = "https://graph.microsoft.com/v1.0"
	graphTimeLayout = "2006-01-02T15:04:05.9999999"
	graphPageSize   = 200
)

// OutlookProvider reads busy time from the Microsoft Graph calendar view.
type OutlookProvider struct {
	graphURL string
	base     *http.Client
}

// NewOutlookProvider creates the provider. base may be nil.
func NewOutlookProvider(graphURL string, base *http.Client) *OutlookProvider {
	if graphURL == "" {
		graphURL = defaultGraphURL
	}
	if base == nil {
		base = http.DefaultClient
	}
	return &OutlookProvider{graphURL: strings.TrimSuffix(graphURL, "/"), base: base}
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type graphEvent struct {
	Start       graphDateTime `json:"start"`
	End         graphDateTime `json:"end"`
	ShowAs      string        `json:"showAs"`
	IsCancelled bool          `json:"isCancelled"`
}

type graphPage struct {
	Value    []graphEvent `json:"value"`
	NextLink string       `json:"@odata.nextLink"`
}

func (p *OutlookProvider) FetchBusy(ctx context.Context, cred entity.Credential, rng interval.Interval) ([]interval.Interval, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, p.base)
	client := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{
		AccessToken: cred.AccessToken,
		TokenType:   "Bearer",
	}))

	user := "me"
	if cred.CalendarEmail != "" {
		user = "users/" + url.PathEscape(cred.CalendarEmail)
	}
	q := url.Values{}
	q.Set("startDateTime", rng.Start.UTC().Format(time.RFC3339))
	q.Set("endDateTime", rng.End.UTC().Format(time.RFC3339))
	q.Set("$select", "start,end,showAs,isCancelled")
	q.Set("$top", fmt.Sprint(graphPageSize))
	next := fmt.Sprintf("%s/%s/calendarView?%s", p.graphURL, user, q.Encode())

	var busy []interval.Interval
	for next != "" {
		page, err := p.fetchPage(ctx, client, next)
		if err != nil {
			return nil, err
		}
		for _, ev := range page.Value {
			if ev.IsCancelled || strings.EqualFold(ev.ShowAs, "free") {
				continue
			}
			start, err := parseGraphTime(ev.Start)
			if err != nil {
				return nil, err
			}
			end, err := parseGraphTime(ev.End)
			if err != nil {
				return nil, err
			}
			busy = append(busy, interval.New(start, end))
		}
		next = page.NextLink
	}
	return overlapping(busy, rng), nil
}

func (p *OutlookProvider) fetchPage(ctx context.Context, client *http.Client, pageURL string) (*graphPage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build graph request: %w", err)
	}
	req.Header.Set("Prefer", `outlook.timezone="UTC"`)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph calendarView: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("graph calendarView: status %d: %s", resp.StatusCode, string(body))
	}

	var page graphPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decode graph calendarView: %w", err)
	}
	return &page, nil
}

func parseGraphTime(v graphDateTime) (time.Time, error) {
	loc := time.UTC
	if v.TimeZone != "" && !strings.EqualFold(v.TimeZone, "UTC") {
		l, err := time.LoadLocation(v.TimeZone)
		if err != nil {
			return time.Time{}, fmt.Errorf("graph time zone %q: %w", v.TimeZone, err)
		}
		loc = l
	}
	t, err := time.ParseInLocation(graphTimeLayout, v.DateTime, loc)
	if err != nil {
		return time.Time{}, fmt.Errorf("graph date time %q: %w", v.DateTime, err)
	}
	return t, nil
}
