package google

import (
	"context"

	"promptd/pkg/providers"
	"promptd/pkg/tools"
)

type emptyRequest struct{}

type eventsResponse struct {
	Events []providers.Event `json:"events"`
}

type sendMailRequest struct {
	Subject   string `json:"subject" jsonschema:"required,description=the subject line of the email"`
	Body      string `json:"body" jsonschema:"required,description=the plain text body of the email"`
	Recipient string `json:"recipient" jsonschema:"required,description=the email address of the recipient"`
}

type sendMailResponse struct {
	Sent bool `json:"sent"`
}

// ToolDefs binds the Google operations as capability definitions.
func (c *Client) ToolDefs() []tools.ToolDefinition {
	return []tools.ToolDefinition{
		tools.NewDef(
			"fetch_next_month_events_from_google",
			"Fetches events from the Google calendar for the current month. The times are in UTC.",
			func(ctx context.Context, _ emptyRequest) (eventsResponse, error) {
				events, err := c.FetchCurrentMonthEvents(ctx)
				return eventsResponse{Events: events}, err
			},
		),
		tools.NewDef(
			"send_email_via_google",
			"Sends an email via Gmail with the specified subject and body to the given recipient.",
			func(ctx context.Context, req sendMailRequest) (sendMailResponse, error) {
				if err := c.SendMail(ctx, req.Subject, req.Body, req.Recipient); err != nil {
					return sendMailResponse{}, err
				}
				return sendMailResponse{Sent: true}, nil
			},
		),
	}
}
