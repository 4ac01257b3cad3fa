package services

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"koi-keeper-backend/internal/models"

	"github.com/sideshow/apns2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []*apns2.Notification
}

func (f *fakeSender) Push(ctx context.Context, n *apns2.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeSender) kinds(t *testing.T) map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]int{}
	for _, n := range f.sent {
		raw, err := json.Marshal(n.Payload)
		require.NoError(t, err)
		var body struct {
			Type string `json:"type"`
		}
		require.NoError(t, json.Unmarshal(raw, &body))
		out[body.Type]++
	}
	return out
}

type staticTokens []string

func (s staticTokens) PushTokens(ctx context.Context) ([]string, error) {
	return s, nil
}

type failingTokens struct{}

func (failingTokens) PushTokens(ctx context.Context) ([]string, error) {
	return nil, errors.New("store offline")
}

func newTestReminders(sender PushSender, tokens TokenSource) *APNSReminders {
	r := NewAPNSReminders(sender, tokens, "com.example.koi")
	r.unit = time.Millisecond
	return r
}

func TestReminders_SendsEnabledKinds(t *testing.T) {
	sender := &fakeSender{}
	r := newTestReminders(sender, staticTokens{"device-a"})
	defer r.Stop()

	r.Schedule(models.NotificationSettings{
		MeasurementReminders: true,
		MeasurementInterval:  5,
		WaterTestReminders:   false,
		WaterTestInterval:    5,
	})

	require.Eventually(t, func() bool {
		return sender.kinds(t)["measurement"] > 0
	}, time.Second, 5*time.Millisecond)
	r.Stop()

	assert.Zero(t, sender.kinds(t)["waterTest"])

	sender.mu.Lock()
	first := sender.sent[0]
	sender.mu.Unlock()
	assert.Equal(t, "device-a", first.DeviceToken)
	assert.Equal(t, "com.example.koi", first.Topic)
	raw, err := json.Marshal(first.Payload)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "Koi Measurement Reminder")
}

func TestReminders_RescheduleCancelsPrevious(t *testing.T) {
	sender := &fakeSender{}
	r := newTestReminders(sender, staticTokens{"device-a"})
	defer r.Stop()

	r.Schedule(models.NotificationSettings{MeasurementReminders: true, MeasurementInterval: 2})
	r.Schedule(models.NotificationSettings{WaterTestReminders: true, WaterTestInterval: 2})

	sender.mu.Lock()
	sender.sent = nil
	sender.mu.Unlock()

	require.Eventually(t, func() bool {
		return sender.kinds(t)["waterTest"] > 2
	}, time.Second, 5*time.Millisecond)
	assert.Zero(t, sender.kinds(t)["measurement"])
}

func TestReminders_DisabledSendsNothing(t *testing.T) {
	sender := &fakeSender{}
	r := newTestReminders(sender, staticTokens{"device-a"})
	defer r.Stop()

	r.Schedule(models.NotificationSettings{MeasurementInterval: 1, WaterTestInterval: 1})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, sender.kinds(t))
}

func TestReminders_TokenFailureIsLogged(t *testing.T) {
	sender := &fakeSender{}
	r := newTestReminders(sender, failingTokens{})
	defer r.Stop()

	r.Schedule(models.NotificationSettings{MeasurementReminders: true, MeasurementInterval: 1})
	time.Sleep(20 * time.Millisecond)
	assert.Empty(t, sender.kinds(t))
}
