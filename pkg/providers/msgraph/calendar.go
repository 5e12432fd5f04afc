package msgraph

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"promptd/pkg/providers"
)

const domainTimeFormat = "2006-01-02 15:04"

// parseGraphTime accepts the dateTime strings Graph emits, with or without
// fractional seconds.
func parseGraphTime(s string) (time.Time, error) {
	if i := strings.IndexByte(s, '.'); i >= 0 {
		s = s[:i]
	}
	return time.Parse("2006-01-02T15:04:05", strings.TrimSuffix(s, "Z"))
}

type graphDateTime struct {
	DateTime string `json:"dateTime"`
}

type graphEvent struct {
	Subject string         `json:"subject"`
	Start   *graphDateTime `json:"start"`
	End     *graphDateTime `json:"end"`
}

// FetchCurrentMonthEvents returns all Outlook calendar events of the
// current month, every page drained, ordered by start time.
func (c *Client) FetchCurrentMonthEvents(ctx context.Context) ([]providers.Event, error) {
	now := time.Now().UTC()
	startOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	endOfMonth := startOfMonth.AddDate(0, 1, -1)

	const filterFormat = "2006-01-02T15:04:05.000Z"
	q := url.Values{}
	q.Set("$filter", fmt.Sprintf(
		"start/dateTime ge '%s' and end/dateTime le '%s'",
		startOfMonth.Format(filterFormat), endOfMonth.Format(filterFormat),
	))
	q.Set("$orderby", "start/dateTime")

	next := c.baseURL + "/me/calendar/events?" + q.Encode()
	var events []providers.Event
	for next != "" {
		var page struct {
			Value    []graphEvent `json:"value"`
			NextLink string       `json:"@odata.nextLink"`
		}
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		for _, ev := range page.Value {
			if ev.Start == nil || ev.End == nil {
				return nil, &providers.UpstreamError{
					Service: "msgraph",
					Err:     fmt.Errorf("event %q misses start or end", ev.Subject),
				}
			}
			start, err := parseGraphTime(ev.Start.DateTime)
			if err != nil {
				return nil, &providers.UpstreamError{Service: "msgraph", Err: err}
			}
			end, err := parseGraphTime(ev.End.DateTime)
			if err != nil {
				return nil, &providers.UpstreamError{Service: "msgraph", Err: err}
			}
			events = append(events, providers.Event{
				Start:   start.Format(domainTimeFormat),
				End:     end.Format(domainTimeFormat),
				Subject: ev.Subject,
			})
		}
		next = page.NextLink
	}
	return events, nil
}
