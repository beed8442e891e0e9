package reminder

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	appLog "weekplan/internal/log"
	"weekplan/internal/model"
)

// Dispatcher delivers a notification. It is the only side-effecting
// collaborator of the engine.
type Dispatcher interface {
	Dispatch(ctx context.Context, n model.Notification) error
}

// Permission reports whether notifications may be shown at all.
type Permission interface {
	Granted() bool
}

// PermissionFunc adapts a func to Permission.
type PermissionFunc func() bool

func (f PermissionFunc) Granted() bool { return f() }

// AlwaysGranted is used when the delivery channel needs no user consent.
var AlwaysGranted Permission = PermissionFunc(func() bool { return true })

// LogDispatcher writes notifications to the application log.
type LogDispatcher struct{}

func (LogDispatcher) Dispatch(_ context.Context, n model.Notification) error {
	appLog.Info("reminder", "task_id", n.TaskID, "title", n.Title, "body", n.Body)
	return nil
}

// Multi fans a notification out to every dispatcher and joins their errors.
type Multi []Dispatcher

func (m Multi) Dispatch(ctx context.Context, n model.Notification) error {
	var errs []error
	for _, d := range m {
		if err := d.Dispatch(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Outbox queues notifications for the presentation layer, which drains it
// and shows them as browser notifications. It also carries the user's
// permission decision.
type Outbox struct {
	mu      sync.Mutex
	granted bool
	queue   []model.Notification
	limit   int
}

// NewOutbox keeps at most limit undelivered notifications, dropping the
// oldest beyond that.
func NewOutbox(limit int) *Outbox {
	if limit <= 0 {
		limit = 100
	}
	return &Outbox{limit: limit}
}

func (o *Outbox) Granted() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.granted
}

func (o *Outbox) SetGranted(granted bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.granted = granted
}

func (o *Outbox) Dispatch(_ context.Context, n model.Notification) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.queue = append(o.queue, n)
	if over := len(o.queue) - o.limit; over > 0 {
		o.queue = append([]model.Notification(nil), o.queue[over:]...)
	}
	return nil
}

// Drain returns and clears the pending notifications.
func (o *Outbox) Drain() []model.Notification {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := o.queue
	o.queue = nil
	if out == nil {
		out = []model.Notification{}
	}
	return out
}

// Webhook POSTs each notification as JSON to URL.
type Webhook struct {
	URL    string
	Client *http.Client
}

func NewWebhook(url string) *Webhook {
	return &Webhook{
		URL:    url,
		Client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (w *Webhook) Dispatch(ctx context.Context, n model.Notification) error {
	body, err := json.Marshal(n)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.URL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("webhook: %s", resp.Status)
	}
	return nil
}
