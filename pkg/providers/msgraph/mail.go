package msgraph

import (
	"context"
	"encoding/json"
	"net/url"

	"promptd/pkg/providers"
)

type graphItemBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type graphMessage struct {
	Subject string         `json:"subject"`
	Body    *graphItemBody `json:"body"`
}

// FetchInboxMessages returns the most recent inbox messages, newest first,
// every page drained.
func (c *Client) FetchInboxMessages(ctx context.Context) ([]providers.Message, error) {
	q := url.Values{}
	q.Set("$select", "subject,body,receivedDateTime")
	q.Set("$top", "25")
	q.Set("$orderby", "receivedDateTime DESC")

	next := c.baseURL + "/me/mailFolders/Inbox/messages?" + q.Encode()
	var messages []providers.Message
	for next != "" {
		var page struct {
			Value    []graphMessage `json:"value"`
			NextLink string         `json:"@odata.nextLink"`
		}
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		for _, m := range page.Value {
			var body string
			if m.Body != nil {
				body = m.Body.Content
			}
			messages = append(messages, providers.Message{
				Subject: m.Subject,
				Body:    body,
			})
		}
		next = page.NextLink
	}
	return messages, nil
}

// SendMail sends a plain-text mail to a single recipient.
func (c *Client) SendMail(ctx context.Context, subject, body, recipient string) error {
	payload := map[string]any{
		"message": map[string]any{
			"subject": subject,
			"body": graphItemBody{
				ContentType: "Text",
				Content:     body,
			},
			"toRecipients": []map[string]any{
				{"emailAddress": map[string]string{"address": recipient}},
			},
		},
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, "POST", c.baseURL+"/me/sendMail", encoded)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
