package msgraph

import (
	"context"

	"promptd/pkg/providers"
	"promptd/pkg/tools"
)

type emptyRequest struct{}

type eventsResponse struct {
	Events []providers.Event `json:"events"`
}

type messagesResponse struct {
	Messages []providers.Message `json:"messages"`
}

type sendMailRequest struct {
	Subject   string `json:"subject" jsonschema:"required,description=the subject line of the email"`
	Body      string `json:"body" jsonschema:"required,description=the plain text body of the email"`
	Recipient string `json:"recipient" jsonschema:"required,description=the email address of the recipient"`
}

type sendMailResponse struct {
	Sent bool `json:"sent"`
}

type filesResponse struct {
	Files []providers.File `json:"files"`
}

type fileContentRequest struct {
	FileID string `json:"file_id" jsonschema:"required,description=the OneDrive item ID of the file"`
}

type fileContentResponse struct {
	Content string `json:"content"`
}

// ToolDefs binds the Graph operations as capability definitions.
func (c *Client) ToolDefs() []tools.ToolDefinition {
	return []tools.ToolDefinition{
		tools.NewDef(
			"fetch_next_month_events",
			"Fetches events from the Outlook calendar for the current month. The times are in UTC.",
			func(ctx context.Context, _ emptyRequest) (eventsResponse, error) {
				events, err := c.FetchCurrentMonthEvents(ctx)
				return eventsResponse{Events: events}, err
			},
		),
		tools.NewDef(
			"fetch_mails_from_inbox",
			"Fetches all the emails from the inbox.",
			func(ctx context.Context, _ emptyRequest) (messagesResponse, error) {
				messages, err := c.FetchInboxMessages(ctx)
				return messagesResponse{Messages: messages}, err
			},
		),
		tools.NewDef(
			"send_email",
			"Sends an email with the specified subject and body to the given recipient.",
			func(ctx context.Context, req sendMailRequest) (sendMailResponse, error) {
				if err := c.SendMail(ctx, req.Subject, req.Body, req.Recipient); err != nil {
					return sendMailResponse{}, err
				}
				return sendMailResponse{Sent: true}, nil
			},
		),
		tools.NewDef(
			"fetch_file_names_and_ids_on_root",
			"Fetches the file names and IDs in a Microsoft OneDrive root",
			func(ctx context.Context, _ emptyRequest) (filesResponse, error) {
				files, err := c.ListRootFiles(ctx)
				return filesResponse{Files: files}, err
			},
		),
		tools.NewDef(
			"fetch_content_of_file",
			"Fetches the content of a file, given the file ID, from the Microsoft OneDrive.",
			func(ctx context.Context, req fileContentRequest) (fileContentResponse, error) {
				content, err := c.FetchFileContent(ctx, req.FileID)
				return fileContentResponse{Content: content}, err
			},
		),
	}
}
