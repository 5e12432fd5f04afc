package google

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"promptd/pkg/providers"
)

const domainTimeFormat = "2006-01-02 15:04"

type googleEventTime struct {
	DateTime string `json:"dateTime"`
}

type googleEvent struct {
	Summary string           `json:"summary"`
	Start   *googleEventTime `json:"start"`
	End     *googleEventTime `json:"end"`
}

// FetchCurrentMonthEvents returns all primary-calendar events of the
// current month, draining every page token before returning.
func (c *Client) FetchCurrentMonthEvents(ctx context.Context) ([]providers.Event, error) {
	now := time.Now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	endOfMonth := startOfMonth.AddDate(0, 1, -1)

	var events []providers.Event
	var pageToken string
	for {
		q := url.Values{}
		q.Set("timeMin", startOfMonth.Format(time.RFC3339))
		q.Set("timeMax", endOfMonth.Format(time.RFC3339))
		q.Set("timeZone", "UTC")
		if pageToken != "" {
			q.Set("pageToken", pageToken)
		}
		var page struct {
			Items         []googleEvent `json:"items"`
			NextPageToken string        `json:"nextPageToken"`
		}
		if err := c.getJSON(ctx, c.calendarBaseURL+"/calendars/primary/events?"+q.Encode(), &page); err != nil {
			return nil, err
		}
		for _, ev := range page.Items {
			if ev.Start == nil || ev.End == nil {
				return nil, &providers.UpstreamError{
					Service: "google",
					Err:     fmt.Errorf("event %q misses start or end", ev.Summary),
				}
			}
			start, err := time.Parse(time.RFC3339, ev.Start.DateTime)
			if err != nil {
				return nil, &providers.UpstreamError{Service: "google", Err: err}
			}
			end, err := time.Parse(time.RFC3339, ev.End.DateTime)
			if err != nil {
				return nil, &providers.UpstreamError{Service: "google", Err: err}
			}
			events = append(events, providers.Event{
				Start:   start.UTC().Format(domainTimeFormat),
				End:     end.UTC().Format(domainTimeFormat),
				Subject: ev.Summary,
			})
		}
		pageToken = page.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return events, nil
}
