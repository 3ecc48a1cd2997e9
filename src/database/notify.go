package database

import (
	"context"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"mvagent/src/utils/errors"
)

// Subscriber is the pg_notify fan-out surface: callers register for an
// object on a channel and receive payloads as they are announced.
type Subscriber interface {
	NewSubscriber(ctx context.Context) string
	Subscribe(ctx context.Context, subscriberID string, channel string, objectID string) (<-chan string, error)
	Unsubscribe(channel string, subscriberID string, objectIDs ...string) error
}

func (d *databaseImplementation) NewSubscriber(ctx context.Context) string {
	return d.notificationManager.NewSubscriber(ctx)
}

func (d *databaseImplementation) Subscribe(ctx context.Context, subscriberID string, channel string, objectID string) (<-chan string, error) {
	return d.notificationManager.Subscribe(ctx, subscriberID, channel, objectID)
}

func (d *databaseImplementation) Unsubscribe(channel string, subscriberID string, objectIDs ...string) error {
	return d.notificationManager.Unsubscribe(channel, subscriberID, objectIDs...)
}

type NotificationManager struct {
	db          *gorm.DB
	listener    *pq.Listener
	subscribers map[string]map[string]map[string]chan<- string
	mu          sync.RWMutex
}

func NewNotificationManager(db *gorm.DB) (*NotificationManager, error) {
	connStr := db.Config.Dialector.(*postgres.Dialector).DSN
	listener := pq.NewListener(connStr, 10*time.Second, time.Minute, nil)

	nm := &NotificationManager{
		db:          db,
		listener:    listener,
		subscribers: make(map[string]map[string]map[string]chan<- string), // channel -> objectID -> subscriberID -> chan
	}

	go nm.listen()

	return nm, nil
}

func (nm *NotificationManager) listen() {
	for notification := range nm.listener.Notify {
		if notification == nil {
			continue
		}
		nm.handleNotification(notification.Channel, notification.Extra)
	}
}

func (nm *NotificationManager) handleNotification(channel, payload string) {
	nm.mu.RLock()
	defer nm.mu.RUnlock()

	objectId, msg, ok := strings.Cut(payload, ";")
	if !ok {
		slog.Error("Invalid payload format", "payload", payload)

		return
	}

	if subs, ok := nm.subscribers[channel]; ok {
		if objSubs, ok := subs[objectId]; ok {
			for _, ch := range objSubs {
				select {
				case ch <- msg:
					slog.Debug("Notification sent", "channel", channel, "objectID", objectId, "payload", msg)
				default:
					slog.Warn("Notification channel is full, skipping", "channel", channel)
				}
			}
		}
	}
}

func (nm *NotificationManager) Subscribe(ctx context.Context, subscriberID string, channel string, objectID string) (<-chan string, error) {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	if _, ok := nm.subscribers[channel]; !ok {
		if err := nm.listener.Listen(channel); err != nil {
			return nil, errors.Wrapf(err, "failed to listen on channel %s", channel)
		}
		nm.subscribers[channel] = make(map[string]map[string]chan<- string)
	}

	if nm.subscribers[channel][objectID] == nil {
		nm.subscribers[channel][objectID] = make(map[string]chan<- string)
	}

	ch := make(chan string, 10)
	nm.subscribers[channel][objectID][subscriberID] = ch

	slog.Info("Subscribed to channel", "channel", channel, "objectID", objectID, "subscriberID", subscriberID)
	return ch, nil
}

func (nm *NotificationManager) NewSubscriber(ctx context.Context) string {
	uuid := uuid.New()
	return uuid.String()
}

func (nm *NotificationManager) Unsubscribe(channel string, subscriberID string, objectIDs ...string) error {
	nm.mu.Lock()
	defer nm.mu.Unlock()

	subs, ok := nm.subscribers[channel]
	if !ok {
		return errors.Newf("no subscribers for channel %s", channel)
	}

	for _, objectID := range objectIDs {
		if objSubs, ok := subs[objectID]; ok {
			if ch, exists := objSubs[subscriberID]; exists {
				close(ch)
				delete(objSubs, subscriberID)
			}

			if len(objSubs) == 0 {
				delete(subs, objectID)
			}
		}
	}

	if len(subs) == 0 {
		err := nm.listener.Unlisten(channel)
		if err != nil {
			return errors.Wrapf(err, "failed to unlisten on channel %s", channel)
		}
		delete(nm.subscribers, channel)
	}

	return nil
}

func (nm *NotificationManager) Close() error {
	nm.listener.UnlistenAll()

	return nm.listener.Close()
}

func Notify(db *gorm.DB, channel string, objectID string, payload string) error {
	msg := objectID + ";" + payload

	_, err := db.Raw("SELECT pg_notify(?, ?)", channel, msg).Rows()
	if err != nil {
		return errors.Wrapf(err, "failed to send notification")
	}

	return nil
}
