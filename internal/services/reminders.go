package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"koi-keeper-backend/internal/config"
	"koi-keeper-backend/internal/models"

	"github.com/rs/zerolog/log"
	"github.com/sideshow/apns2"
	"github.com/sideshow/apns2/payload"
	"github.com/sideshow/apns2/token"
)

// PushSender delivers one notification
type PushSender interface {
	Push(ctx context.Context, n *apns2.Notification) error
}

// TokenSource lists the device push tokens reminders go to
type TokenSource interface {
	PushTokens(ctx context.Context) ([]string, error)
}

type reminder struct {
	kind  string
	title string
	body  string
}

var (
	measurementReminder = reminder{
		kind:  "measurement",
		title: "Koi Measurement Reminder",
		body:  "Time to measure your koi and track their growth!",
	}
	waterTestReminder = reminder{
		kind:  "waterTest",
		title: "Water Test Reminder",
		body:  "Time to test your pond water parameters!",
	}
)

type apnsSender struct {
	client *apns2.Client
}

// NewAPNSSender builds a token-authenticated APNs client
func NewAPNSSender(cfg config.APNSConfig) (PushSender, error) {
	authKey, err := token.AuthKeyFromFile(cfg.KeyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load apns key: %w", err)
	}

	client := apns2.NewTokenClient(&token.Token{
		AuthKey: authKey,
		KeyID:   cfg.KeyID,
		TeamID:  cfg.TeamID,
	})
	if cfg.Production {
		client = client.Production()
	} else {
		client = client.Development()
	}
	return &apnsSender{client: client}, nil
}

func (a *apnsSender) Push(ctx context.Context, n *apns2.Notification) error {
	res, err := a.client.PushWithContext(ctx, n)
	if err != nil {
		return fmt.Errorf("failed to push notification: %w", err)
	}
	if !res.Sent() {
		return fmt.Errorf("apns rejected notification: %d %s", res.StatusCode, res.Reason)
	}
	return nil
}

// APNSReminders sends repeating measurement and water-test reminders to every
// registered device. It implements ReminderScheduler.
type APNSReminders struct {
	sender PushSender
	tokens TokenSource
	topic  string
	unit   time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAPNSReminders creates a reminder scheduler; intervals are counted in days
func NewAPNSReminders(sender PushSender, tokens TokenSource, topic string) *APNSReminders {
	return &APNSReminders{
		sender: sender,
		tokens: tokens,
		topic:  topic,
		unit:   24 * time.Hour,
	}
}

// Schedule cancels every pending reminder and starts the enabled ones again
func (r *APNSReminders) Schedule(settings models.NotificationSettings) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopLocked()
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel

	if settings.MeasurementReminders && settings.MeasurementInterval > 0 {
		r.start(ctx, measurementReminder, time.Duration(settings.MeasurementInterval)*r.unit)
	}
	if settings.WaterTestReminders && settings.WaterTestInterval > 0 {
		r.start(ctx, waterTestReminder, time.Duration(settings.WaterTestInterval)*r.unit)
	}

	log.Info().
		Bool("measurement", settings.MeasurementReminders).
		Int("measurement_interval", settings.MeasurementInterval).
		Bool("water_test", settings.WaterTestReminders).
		Int("water_test_interval", settings.WaterTestInterval).
		Msg("Reminders scheduled")
}

// Stop cancels all reminders
func (r *APNSReminders) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stopLocked()
}

func (r *APNSReminders) stopLocked() {
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.wg.Wait()
}

func (r *APNSReminders) start(ctx context.Context, rem reminder, every time.Duration) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		ticker := time.NewTicker(every)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				r.send(ctx, rem)
			}
		}
	}()
}

func (r *APNSReminders) send(ctx context.Context, rem reminder) {
	tokens, err := r.tokens.PushTokens(ctx)
	if err != nil {
		log.Error().Err(err).Str("type", rem.kind).Msg("Failed to list push tokens")
		return
	}

	for _, t := range tokens {
		n := &apns2.Notification{
			DeviceToken: t,
			Topic:       r.topic,
			Payload: payload.NewPayload().
				AlertTitle(rem.title).
				AlertBody(rem.body).
				Sound("default").
				Custom("type", rem.kind),
		}
		if err := r.sender.Push(ctx, n); err != nil {
			log.Warn().Err(err).Str("type", rem.kind).Msg("Failed to send reminder")
		}
	}
}
