package form

import "sync"

type NotificationKind string

const (
	NotifySuccess NotificationKind = "success"
	NotifyError   NotificationKind = "error"
	NotifyAlert   NotificationKind = "alert"
)

// Notifier shows transient messages to the admin.
type Notifier interface {
	Success(msg string)
	Error(msg string)
	Alert(msg string)
}

// Navigator moves the admin to another page.
type Navigator interface {
	Navigate(path string)
}

type Notification struct {
	Kind    NotificationKind `json:"kind"`
	Message string           `json:"message"`
}

// Collector records notifications and navigation for one request so they
// can be returned to the client with the response.
type Collector struct {
	mu            sync.Mutex
	notifications []Notification
	redirect      string
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Success(msg string) { c.add(NotifySuccess, msg) }
func (c *Collector) Error(msg string)   { c.add(NotifyError, msg) }
func (c *Collector) Alert(msg string)   { c.add(NotifyAlert, msg) }

func (c *Collector) Navigate(path string) {
	c.mu.Lock()
	c.redirect = path
	c.mu.Unlock()
}

func (c *Collector) add(kind NotificationKind, msg string) {
	c.mu.Lock()
	c.notifications = append(c.notifications, Notification{Kind: kind, Message: msg})
	c.mu.Unlock()
}

func (c *Collector) Notifications() []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Notification{}, c.notifications...)
}

func (c *Collector) Redirect() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.redirect
}
