package store

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// ChangeKind names the mutation a Change reports.
type ChangeKind string

const (
	ChangeInitialized          ChangeKind = "initialized"
	ChangeVehicleAdded         ChangeKind = "vehicle_added"
	ChangeVehicleStatusUpdated ChangeKind = "vehicle_status_updated"
	ChangeVehicleDeleted       ChangeKind = "vehicle_deleted"
	ChangeMaintenanceAdded     ChangeKind = "maintenance_added"
)

// Change is delivered to subscribers after a mutation has been applied.
// VehicleID is empty for ChangeInitialized.
type Change struct {
	Kind      ChangeKind `json:"kind"`
	VehicleID string     `json:"vehicleId,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// Subscriber is notified of every store change. Calls happen outside the
// store lock, so a subscriber may read from the store.
type Subscriber interface {
	OnFleetChange(change Change)
}

// SubscriberFunc adapts a plain function to Subscriber.
type SubscriberFunc func(change Change)

func (f SubscriberFunc) OnFleetChange(change Change) {
	f(change)
}

// Subscribe registers s and returns a function that removes it again.
func (s *Store) Subscribe(sub Subscriber) (unsubscribe func()) {
	s.subsMux.Lock()
	id := s.nextSubID
	s.nextSubID++
	s.subscribers[id] = sub
	s.subsMux.Unlock()

	return func() {
		s.subsMux.Lock()
		delete(s.subscribers, id)
		s.subsMux.Unlock()
	}
}

// SubscriberCount reports how many subscribers are registered.
func (s *Store) SubscriberCount() int {
	s.subsMux.RLock()
	defer s.subsMux.RUnlock()
	return len(s.subscribers)
}

func (s *Store) notify(kind ChangeKind, vehicleID string) {
	change := Change{Kind: kind, VehicleID: vehicleID, Timestamp: time.Now()}

	s.subsMux.RLock()
	subs := make([]Subscriber, 0, len(s.subscribers))
	for _, sub := range s.subscribers {
		subs = append(subs, sub)
	}
	s.subsMux.RUnlock()

	for _, sub := range subs {
		deliver(sub, change)
	}
}

func deliver(sub Subscriber, change Change) {
	defer func() {
		if r := recover(); r != nil {
			log.WithFields(log.Fields{"kind": change.Kind, "vehicle_id": change.VehicleID, "panic": r}).
				Error("Fleet subscriber panicked")
		}
	}()
	sub.OnFleetChange(change)
}
