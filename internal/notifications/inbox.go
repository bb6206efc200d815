// Package notifications tracks client-side read state for the notification
// inbox. The gateway is the system of record; this keeps the badge count and
// list rendering correct between refreshes without waiting on round trips.
package notifications

import (
	"github.com/smegcoffee/request-form-sub001/internal/portal"
)

// Inbox holds the notification list with locally tracked read state.
type Inbox struct {
	items []portal.Notification
}

// NewInbox returns an empty inbox.
func NewInbox() *Inbox {
	return &Inbox{}
}

// Replace installs a refreshed server list. Items the operator already read
// locally stay read even when the server copy lags behind.
func (in *Inbox) Replace(items []portal.Notification) {
	readLocally := make(map[int]bool, len(in.items))
	for _, n := range in.items {
		if n.Read {
			readLocally[n.ID] = true
		}
	}
	in.items = make([]portal.Notification, len(items))
	copy(in.items, items)
	for i := range in.items {
		if readLocally[in.items[i].ID] {
			in.items[i].Read = true
		}
	}
}

// Items returns the current list.
func (in *Inbox) Items() []portal.Notification {
	return in.items
}

// Unread counts the notifications not yet read.
func (in *Inbox) Unread() int {
	count := 0
	for _, n := range in.items {
		if !n.Read {
			count++
		}
	}
	return count
}

// MarkRead marks one notification read. Unknown ids are ignored.
func (in *Inbox) MarkRead(id int) {
	for i := range in.items {
		if in.items[i].ID == id {
			in.items[i].Read = true
			return
		}
	}
}

// MarkAllRead marks every notification read.
func (in *Inbox) MarkAllRead() {
	for i := range in.items {
		in.items[i].Read = true
	}
}
