package service

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/iliyamo/event-seat-booking/internal/model"
)

// availabilityTTL bounds how stale a cached snapshot can get if an
// invalidation is ever lost.
const availabilityTTL = 30 * time.Second

func availabilityKey(eventID string) string { return "availability:" + eventID }

// Availability returns the inventory snapshot for an event. When a redis
// client is configured the snapshot is served read-through from the
// cache; every committed reservation or cancellation invalidates the
// entry. Cache failures degrade to a direct store read.
func (s *BookingService) Availability(ctx context.Context, eventID string) (*model.Availability, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, availabilityKey(eventID)).Bytes(); err == nil {
			var av model.Availability
			if err := json.Unmarshal(raw, &av); err == nil {
				return &av, nil
			}
		}
	}

	av, err := s.store.GetAvailability(ctx, eventID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if raw, err := json.Marshal(av); err == nil {
			if err := s.cache.Set(ctx, availabilityKey(eventID), raw, availabilityTTL).Err(); err != nil {
				log.Printf("availability cache set failed for event %s: %v", eventID, err)
			}
		}
	}
	return av, nil
}

// invalidateAvailability drops the cached snapshot after a committed
// reservation or cancellation changed the inventory.
func (s *BookingService) invalidateAvailability(ctx context.Context, eventID string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, availabilityKey(eventID)).Err(); err != nil {
		log.Printf("availability cache invalidation failed for event %s: %v", eventID, err)
	}
}
