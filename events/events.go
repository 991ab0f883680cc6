package events

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"govexec-project/logger"
	"govexec-project/models"
)

const subscriberQueueSize = 64

type Type string

const (
	TypeProposalCreated  Type = "proposal.created"
	TypeProposalExecuted Type = "proposal.executed"
	TypeTallySet         Type = "tally.set"
	TypeTallyApproved    Type = "tally.approved"
	TypeSettingsUpdated  Type = "settings.updated"
	TypeMembersAdded     Type = "committee.members_added"
	TypeMembersRemoved   Type = "committee.members_removed"
)

// Event is a governance signal published for external indexers
type Event struct {
	Type      Type      `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

type SubscriberID int

// Bus is a synchronous in-process publish/subscribe hub. Publishing never
// blocks: a subscriber whose queue is full misses the event.
type Bus struct {
	mu          sync.RWMutex
	subscribers map[Type]map[SubscriberID]chan Event
	lastSubID   SubscriberID
}

func NewBus() *Bus {
	return &Bus{
		subscribers: make(map[Type]map[SubscriberID]chan Event),
	}
}

// Subscribe registers for events of the given type
func (b *Bus) Subscribe(eventType Type) (SubscriberID, <-chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.lastSubID++
	id := b.lastSubID
	if _, ok := b.subscribers[eventType]; !ok {
		b.subscribers[eventType] = make(map[SubscriberID]chan Event)
	}
	ch := make(chan Event, subscriberQueueSize)
	b.subscribers[eventType][id] = ch
	return id, ch
}

// Unsubscribe removes a subscriber and closes its channel
func (b *Bus) Unsubscribe(eventType Type, id SubscriberID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if subs, ok := b.subscribers[eventType]; ok {
		if ch, ok := subs[id]; ok {
			close(ch)
			delete(subs, id)
		}
	}
}

// Publish delivers an event to all subscribers of its type and logs it
func (b *Bus) Publish(eventType Type, data any) {
	evt := Event{Type: eventType, Timestamp: time.Now(), Data: data}

	logger.Logger.Info("governance signal",
		zap.String("event_type", string(eventType)),
		zap.Any("data", data))

	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subscribers[eventType] {
		select {
		case ch <- evt:
		default:
			logger.Logger.Warn("subscriber queue full, dropping event",
				zap.String("event_type", string(eventType)),
				zap.Int("subscriber_id", int(id)))
		}
	}
}

// Signal payloads

type ProposalCreatedData struct {
	ID              uint64          `json:"id"`
	ExternalID      string          `json:"external_id"`
	Creator         string          `json:"creator"`
	StartDate       uint64          `json:"start_date"`
	VoteEndDate     uint64          `json:"vote_end_date"`
	TallyEndDate    uint64          `json:"tally_end_date"`
	Actions         []models.Action `json:"actions"`
	AllowFailureMap string          `json:"allow_failure_map"`
}

type ProposalExecutedData struct {
	ID uint64 `json:"id"`
}

type TallySetData struct {
	ID    uint64        `json:"id"`
	Tally *models.Tally `json:"tally"`
}

type TallyApprovedData struct {
	ID       uint64 `json:"id"`
	Approver string `json:"approver"`
}

type SettingsUpdatedData struct {
	Settings *models.Settings `json:"settings"`
}

type MembersChangedData struct {
	Members []string `json:"members"`
}
