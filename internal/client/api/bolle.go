package api

import (
	"context"
	"fmt"
	"net/http"
)

// SendBollaEmail asks the server to email the delivery note with the given
// server id to its recipient. Only meaningful for synced documents.
func (c *Client) SendBollaEmail(ctx context.Context, id int64) error {
	path := fmt.Sprintf("/api/bolle/%d/send-email", id)
	return c.do(ctx, http.MethodPost, path, nil, nil)
}
