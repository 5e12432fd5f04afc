package google

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
)

// SendMail sends a plain-text mail through Gmail. The RFC 822 message is
// assembled inline and base64url-encoded into the raw field.
func (c *Client) SendMail(ctx context.Context, subject, body, recipient string) error {
	raw := fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s", recipient, subject, body)
	payload, err := json.Marshal(map[string]string{
		"raw": base64.URLEncoding.EncodeToString([]byte(raw)),
	})
	if err != nil {
		return err
	}
	resp, err := c.do(ctx, "POST", c.gmailBaseURL+"/users/me/messages/send", payload)
	if err != nil {
		return err
	}
	resp.Body.Close()
	return nil
}
