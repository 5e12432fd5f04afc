package msgraph

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"promptd/pkg/providers"
)

type driveItem struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// ListRootFiles names the items in the root of the user's OneDrive, every
// page drained.
func (c *Client) ListRootFiles(ctx context.Context) ([]providers.File, error) {
	var drive struct {
		ID string `json:"id"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/me/drive", &drive); err != nil {
		return nil, err
	}
	if drive.ID == "" {
		return nil, &providers.UpstreamError{Service: "msgraph", Err: fmt.Errorf("drive misses id")}
	}

	next := fmt.Sprintf("%s/drives/%s/items/root/children", c.baseURL, drive.ID)
	var files []providers.File
	for next != "" {
		var page struct {
			Value    []driveItem `json:"value"`
			NextLink string      `json:"@odata.nextLink"`
		}
		if err := c.getJSON(ctx, next, &page); err != nil {
			return nil, err
		}
		for _, item := range page.Value {
			if item.ID == "" || item.Name == "" {
				return nil, &providers.UpstreamError{
					Service: "msgraph",
					Err:     fmt.Errorf("drive item misses id or name"),
				}
			}
			files = append(files, providers.File{ID: item.ID, Name: item.Name})
		}
		next = page.NextLink
	}
	return files, nil
}

// FetchFileContent downloads one file by its item ID. OneDrive item IDs
// embed the drive ID before the '!' separator.
func (c *Client) FetchFileContent(ctx context.Context, fileID string) (string, error) {
	driveID, _, _ := strings.Cut(fileID, "!")
	url := fmt.Sprintf("%s/drives/%s/items/%s/content", c.baseURL, driveID, fileID)
	resp, err := c.do(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	content, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &providers.UpstreamError{Service: "msgraph", Err: err}
	}
	return string(content), nil
}
