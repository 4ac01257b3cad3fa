package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"

	"koi-keeper-backend/internal/models"
	"koi-keeper-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
)

// Storage keys. The Store is the only writer of these keys.
const (
	KoiKey                  = "koi-gallery-data"
	WaterParametersKey      = "water-parameters"
	NotificationSettingsKey = "notification-settings"
)

// Collection names one of the collections owned by the Store
type Collection string

const (
	CollectionKoi                  Collection = "koi"
	CollectionWaterParameters      Collection = "waterParameters"
	CollectionNotificationSettings Collection = "notificationSettings"
)

// Change is delivered to subscribers after a write has been committed and re-read
type Change struct {
	Collection Collection `json:"collection"`
}

// ReminderScheduler receives the settings after every notification settings update
type ReminderScheduler interface {
	Schedule(settings models.NotificationSettings)
}

// IDGenerator produces identifiers unique within one installation
type IDGenerator interface {
	NewID() string
}

type uuidV7Generator struct{}

// NewID returns a time-ordered UUIDv7
func (uuidV7Generator) NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// StoreOption configures a Store
type StoreOption func(*Store)

// WithIDGenerator replaces the default UUIDv7 generator
func WithIDGenerator(g IDGenerator) StoreOption {
	return func(s *Store) { s.ids = g }
}

// WithReminderScheduler sets the collaborator called on settings updates.
// A nil scheduler means reminders are unavailable on this installation.
func WithReminderScheduler(r ReminderScheduler) StoreOption {
	return func(s *Store) { s.scheduler = r }
}

// WithMetricsRegisterer registers the store counters with reg
func WithMetricsRegisterer(reg prometheus.Registerer) StoreOption {
	return func(s *Store) { s.metrics = newStoreMetrics(reg) }
}

// Store is the single source of truth for the koi, water parameter and
// notification settings collections.
//
// Every mutation computes the new collection from the cached value, writes the
// whole value and then re-reads it from storage. Mutations are not queued:
// two overlapping writes to the same collection both start from the same
// cached value and the one that finishes last wins.
type Store struct {
	repo      repository.KVStore
	ids       IDGenerator
	scheduler ReminderScheduler
	metrics   *storeMetrics

	mu             sync.RWMutex
	koi            []models.Koi
	koiLoaded      bool
	water          []models.WaterParameter
	waterLoaded    bool
	settings       models.NotificationSettings
	settingsLoaded bool

	pending atomic.Int32

	subMu   sync.Mutex
	subs    map[int]func(Change)
	nextSub int
}

// NewStore creates a new collection store over repo
func NewStore(repo repository.KVStore, opts ...StoreOption) *Store {
	s := &Store{
		repo: repo,
		ids:  uuidV7Generator{},
		subs: make(map[int]func(Change)),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.metrics == nil {
		s.metrics = newStoreMetrics(nil)
	}
	return s
}

// Subscribe registers fn to be called after each committed write.
// The returned function removes the subscription.
func (s *Store) Subscribe(fn func(Change)) func() {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

// IsSaving reports whether a write is in flight
func (s *Store) IsSaving() bool {
	return s.pending.Load() > 0
}

// Koi returns the koi collection, seeding the demo dataset on first use
func (s *Store) Koi(ctx context.Context) []models.Koi {
	koi, _ := s.cachedKoi(ctx)
	return koi
}

// cachedKoi reports false when storage could not be read and koi is a fallback.
// A fallback is never cached, so the next read goes back to storage.
func (s *Store) cachedKoi(ctx context.Context) ([]models.Koi, bool) {
	s.mu.RLock()
	if s.koiLoaded {
		out := models.CloneKoi(s.koi)
		s.mu.RUnlock()
		return out, true
	}
	s.mu.RUnlock()

	koi, ok := s.loadKoi(ctx)
	if !ok {
		return koi, false
	}

	s.mu.Lock()
	s.koi = koi
	s.koiLoaded = true
	s.mu.Unlock()
	return models.CloneKoi(koi), true
}

// WaterParameters returns the water test collection, newest first
func (s *Store) WaterParameters(ctx context.Context) []models.WaterParameter {
	water, _ := s.cachedWaterParameters(ctx)
	return water
}

func (s *Store) cachedWaterParameters(ctx context.Context) ([]models.WaterParameter, bool) {
	s.mu.RLock()
	if s.waterLoaded {
		out := models.CloneWaterParameters(s.water)
		s.mu.RUnlock()
		return out, true
	}
	s.mu.RUnlock()

	water, ok := s.loadWaterParameters(ctx)
	if !ok {
		return water, false
	}

	s.mu.Lock()
	s.water = water
	s.waterLoaded = true
	s.mu.Unlock()
	return models.CloneWaterParameters(water), true
}

// NotificationSettings returns the stored settings or the defaults
func (s *Store) NotificationSettings(ctx context.Context) models.NotificationSettings {
	s.mu.RLock()
	if s.settingsLoaded {
		out := s.settings
		s.mu.RUnlock()
		return out
	}
	s.mu.RUnlock()

	settings, ok := s.loadNotificationSettings(ctx)
	if !ok {
		return settings
	}

	s.mu.Lock()
	s.settings = settings
	s.settingsLoaded = true
	s.mu.Unlock()
	return settings
}

// AddKoi appends a new koi and returns its id. ok is false when the write failed.
func (s *Store) AddKoi(ctx context.Context, in models.NewKoi) (id string, ok bool) {
	current, loaded := s.cachedKoi(ctx)
	if !loaded {
		log.Error().Msg("Koi collection unavailable, refusing to overwrite it")
		return "", false
	}

	koi := models.Koi{
		ID:            s.ids.NewID(),
		Name:          in.Name,
		Variety:       in.Variety,
		BirthDate:     in.BirthDate,
		Photos:        in.Photos,
		CurrentLength: in.CurrentLength,
		CurrentWeight: in.CurrentWeight,
		Notes:         in.Notes,
	}
	koi = koi.Clone()

	if !s.commit(ctx, CollectionKoi, KoiKey, append(current, koi)) {
		return "", false
	}
	return koi.ID, true
}

// UpdateKoi merges patch into the koi with the given id.
// It returns false when nothing was committed: unknown id or a failed write.
func (s *Store) UpdateKoi(ctx context.Context, id string, patch models.KoiPatch) bool {
	current, loaded := s.cachedKoi(ctx)
	if !loaded {
		log.Error().Msg("Koi collection unavailable, refusing to overwrite it")
		return false
	}
	found := false
	for i := range current {
		if current[i].ID == id {
			current[i] = patch.Apply(current[i])
			found = true
		}
	}
	if !found {
		return false
	}
	return s.commit(ctx, CollectionKoi, KoiKey, current)
}

// AddPhotoToKoi attaches a photo to a koi, keeps the photos ordered by date and
// carries the photo's length and weight over to the koi when they are present.
func (s *Store) AddPhotoToKoi(ctx context.Context, koiID string, in models.NewPhoto) (id string, ok bool) {
	current, loaded := s.cachedKoi(ctx)
	if !loaded {
		log.Error().Msg("Koi collection unavailable, refusing to overwrite it")
		return "", false
	}
	photo := models.KoiPhoto{
		ID:     fmt.Sprintf("%s-%s", koiID, s.ids.NewID()),
		URI:    in.URI,
		Date:   in.Date,
		Length: in.Length,
		Weight: in.Weight,
		Notes:  in.Notes,
	}
	photo = photo.Clone()

	found := false
	for i := range current {
		if current[i].ID != koiID {
			continue
		}
		found = true
		k := &current[i]
		k.Photos = append(k.Photos, photo)
		sortPhotosByDate(k.Photos)
		if photo.Length != nil {
			k.CurrentLength = models.Float(*photo.Length)
		}
		if photo.Weight != nil {
			k.CurrentWeight = models.Float(*photo.Weight)
		}
	}
	if !found {
		return "", false
	}
	if !s.commit(ctx, CollectionKoi, KoiKey, current) {
		return "", false
	}
	return photo.ID, true
}

// UpdatePhoto merges patch into one photo of one koi
func (s *Store) UpdatePhoto(ctx context.Context, koiID, photoID string, patch models.PhotoPatch) bool {
	current, loaded := s.cachedKoi(ctx)
	if !loaded {
		log.Error().Msg("Koi collection unavailable, refusing to overwrite it")
		return false
	}
	found := false
	for i := range current {
		if current[i].ID != koiID {
			continue
		}
		for j := range current[i].Photos {
			if current[i].Photos[j].ID == photoID {
				current[i].Photos[j] = patch.Apply(current[i].Photos[j])
				found = true
			}
		}
	}
	if !found {
		return false
	}
	return s.commit(ctx, CollectionKoi, KoiKey, current)
}

// DeleteKoi removes a koi together with its photos
func (s *Store) DeleteKoi(ctx context.Context, id string) bool {
	current, loaded := s.cachedKoi(ctx)
	if !loaded {
		log.Error().Msg("Koi collection unavailable, refusing to overwrite it")
		return false
	}
	updated := make([]models.Koi, 0, len(current))
	for _, k := range current {
		if k.ID != id {
			updated = append(updated, k)
		}
	}
	if len(updated) == len(current) {
		return false
	}
	return s.commit(ctx, CollectionKoi, KoiKey, updated)
}

// AddWaterParameter records a water test and keeps the collection newest first
func (s *Store) AddWaterParameter(ctx context.Context, in models.NewWaterParameter) (id string, ok bool) {
	current, loaded := s.cachedWaterParameters(ctx)
	if !loaded {
		log.Error().Msg("Water parameters unavailable, refusing to overwrite them")
		return "", false
	}
	param := models.WaterParameter{
		ID:          s.ids.NewID(),
		Date:        in.Date,
		Temperature: in.Temperature,
		PH:          in.PH,
		Ammonia:     in.Ammonia,
		Nitrite:     in.Nitrite,
		Nitrate:     in.Nitrate,
		Oxygen:      in.Oxygen,
		Notes:       in.Notes,
	}
	param = param.Clone()

	updated := append(current, param)
	sort.SliceStable(updated, func(i, j int) bool {
		return models.DateOrZero(updated[i].Date).After(models.DateOrZero(updated[j].Date))
	})

	if !s.commit(ctx, CollectionWaterParameters, WaterParametersKey, updated) {
		return "", false
	}
	return param.ID, true
}

// UpdateNotificationSettings replaces the settings and hands them to the reminder scheduler
func (s *Store) UpdateNotificationSettings(ctx context.Context, settings models.NotificationSettings) bool {
	ok := s.commit(ctx, CollectionNotificationSettings, NotificationSettingsKey, settings)

	if s.scheduler == nil {
		log.Info().Msg("Reminder scheduling not available, skipping")
		return ok
	}
	if !ok {
		log.Warn().Msg("Scheduling reminders from settings that were not saved")
	}
	s.scheduler.Schedule(settings)
	return ok
}

// commit writes value under key, then invalidates and re-reads the collection.
// A failed write leaves the cached value untouched.
func (s *Store) commit(ctx context.Context, coll Collection, key string, value any) bool {
	s.pending.Add(1)
	defer s.pending.Add(-1)

	data, err := json.Marshal(value)
	if err == nil {
		err = s.repo.Set(ctx, key, string(data))
	}
	if err != nil {
		log.Error().
			Err(err).
			Str("collection", string(coll)).
			Msg("Failed to save collection")
		s.metrics.writes.WithLabelValues(string(coll), "error").Inc()
		return false
	}
	s.metrics.writes.WithLabelValues(string(coll), "ok").Inc()

	s.invalidate(coll)
	switch coll {
	case CollectionKoi:
		s.Koi(ctx)
	case CollectionWaterParameters:
		s.WaterParameters(ctx)
	case CollectionNotificationSettings:
		s.NotificationSettings(ctx)
	}

	s.notify(Change{Collection: coll})
	return true
}

func (s *Store) invalidate(coll Collection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch coll {
	case CollectionKoi:
		s.koiLoaded = false
	case CollectionWaterParameters:
		s.waterLoaded = false
	case CollectionNotificationSettings:
		s.settingsLoaded = false
	}
}

func (s *Store) notify(change Change) {
	s.subMu.Lock()
	subs := make([]func(Change), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()

	for _, fn := range subs {
		fn(change)
	}
}

// loadKoi reports false when the value is a fallback that must not be cached
func (s *Store) loadKoi(ctx context.Context) ([]models.Koi, bool) {
	raw, found, err := s.repo.Get(ctx, KoiKey)
	if err != nil {
		log.Error().Err(err).Str("key", KoiKey).Msg("Failed to load koi data")
		s.metrics.readFallbacks.WithLabelValues(string(CollectionKoi)).Inc()
		return models.DemoKoi(), false
	}

	if !found {
		seed := models.DemoKoi()
		data, err := json.Marshal(seed)
		if err == nil {
			err = s.repo.Set(ctx, KoiKey, string(data))
		}
		if err != nil {
			log.Error().Err(err).Str("key", KoiKey).Msg("Failed to seed demo koi")
		} else {
			log.Info().Int("count", len(seed)).Msg("Seeded demo koi collection")
		}
		return seed, true
	}

	var koi []models.Koi
	if err := json.Unmarshal([]byte(raw), &koi); err != nil {
		log.Error().Err(err).Str("key", KoiKey).Msg("Failed to parse koi data")
		s.metrics.readFallbacks.WithLabelValues(string(CollectionKoi)).Inc()
		return models.DemoKoi(), false
	}
	return models.CloneKoi(koi), true
}

func (s *Store) loadWaterParameters(ctx context.Context) ([]models.WaterParameter, bool) {
	raw, found, err := s.repo.Get(ctx, WaterParametersKey)
	if err != nil {
		log.Error().Err(err).Str("key", WaterParametersKey).Msg("Failed to load water parameters")
		s.metrics.readFallbacks.WithLabelValues(string(CollectionWaterParameters)).Inc()
		return []models.WaterParameter{}, false
	}
	if !found {
		return []models.WaterParameter{}, true
	}

	var params []models.WaterParameter
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		log.Error().Err(err).Str("key", WaterParametersKey).Msg("Failed to parse water parameters")
		s.metrics.readFallbacks.WithLabelValues(string(CollectionWaterParameters)).Inc()
		return []models.WaterParameter{}, false
	}
	return models.CloneWaterParameters(params), true
}

func (s *Store) loadNotificationSettings(ctx context.Context) (models.NotificationSettings, bool) {
	raw, found, err := s.repo.Get(ctx, NotificationSettingsKey)
	if err != nil {
		log.Error().Err(err).Str("key", NotificationSettingsKey).Msg("Failed to load notification settings")
		s.metrics.readFallbacks.WithLabelValues(string(CollectionNotificationSettings)).Inc()
		return models.DefaultNotificationSettings(), false
	}
	if !found {
		return models.DefaultNotificationSettings(), true
	}

	var settings models.NotificationSettings
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		log.Error().Err(err).Str("key", NotificationSettingsKey).Msg("Failed to parse notification settings")
		s.metrics.readFallbacks.WithLabelValues(string(CollectionNotificationSettings)).Inc()
		return models.DefaultNotificationSettings(), false
	}
	return settings, true
}

func sortPhotosByDate(photos []models.KoiPhoto) {
	sort.SliceStable(photos, func(i, j int) bool {
		return models.DateOrZero(photos[i].Date).Before(models.DateOrZero(photos[j].Date))
	})
}
