package gateway

import (
	"context"
	"fmt"

	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// Notifications lists the current user's notifications, newest first.
func (c *Client) Notifications(ctx context.Context) ([]portal.Notification, error) {
	var env notificationEnvelope
	if err := c.get(ctx, "/notifications", nil, &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return []portal.Notification{}, nil
	}
	return env.Data, nil
}

// MarkNotificationRead marks a single notification as read.
func (c *Client) MarkNotificationRead(ctx context.Context, id int) error {
	var resp statusResponse
	return c.send(ctx, "POST", fmt.Sprintf("/notifications/%d/read", id), nil, &resp)
}

// MarkAllNotificationsRead marks every notification as read.
func (c *Client) MarkAllNotificationsRead(ctx context.Context) error {
	var resp statusResponse
	return c.send(ctx, "POST", "/notifications/read-all", nil, &resp)
}
