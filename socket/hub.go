package socket

import (
	"encoding/json"
	"sync"

	"notehub/internal/note/model"
	"notehub/pkg/logger"
)

const (
	SnapshotType        = "SNAPSHOT"         // Full set of notes visible to the user
	AddCollaboratorType = "ADD_COLLABORATOR" // Client asks to add a collaborator to a note
	AckType             = "ACK"              // Request handled
	ErrorType           = "ERROR"            // Request failed
)

type WSMessage struct {
	Type    string          `json:"type"`
	UserID  string          `json:"user_id,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NoteAudience names everyone whose feed is affected by a note change:
// the note's owner plus every email it is (or was) shared with.
type NoteAudience struct {
	OwnerID string
	Emails  []string
}

// Matches reports whether a connected user belongs to the audience.
func (a NoteAudience) Matches(userID, email string) bool {
	if a.OwnerID == userID {
		return true
	}
	for _, e := range a.Emails {
		if e != "" && e == email {
			return true
		}
	}
	return false
}

// FeedSource produces the visible-note snapshot pushed to clients.
type FeedSource interface {
	ListVisible(userID, email string) ([]model.Note, error)
}

// CollaboratorGateway handles ADD_COLLABORATOR messages coming in over
// the socket. Bound after construction to avoid a hub/service cycle.
type CollaboratorGateway func(requesterID, noteID, collaboratorID string) error

// Hub keeps one feed per connected user. Every note mutation is pushed
// through Notify and fans out as a fresh full snapshot to every affected
// client; there is no diffing and no backpressure beyond the per-client
// send buffer.
type Hub struct {
	Clients    map[*Client]bool
	Register   chan *Client
	Unregister chan *Client
	Notify     chan NoteAudience

	feed    FeedSource
	gateway CollaboratorGateway
	mu      sync.Mutex
}

func NewHub(feed FeedSource) *Hub {
	return &Hub{
		Clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Notify:     make(chan NoteAudience, 64),
		feed:       feed,
	}
}

// BindGateway wires the collaborator gateway once the service exists.
func (h *Hub) BindGateway(gw CollaboratorGateway) {
	h.gateway = gw
}

// NotifyChange schedules a feed refresh for everyone in the audience.
// Safe on a nil hub so the service can run without live delivery.
func (h *Hub) NotifyChange(audience NoteAudience) {
	if h == nil {
		return
	}
	h.Notify <- audience
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.mu.Lock()
			h.Clients[client] = true
			h.mu.Unlock()

			// New subscriber gets the full current state right away,
			// so the UI renders without a separate fetch.
			h.pushSnapshot(client)

		case client := <-h.Unregister:
			h.remove(client)

		case audience := <-h.Notify:
			h.mu.Lock()
			affected := make([]*Client, 0, len(h.Clients))
			for client := range h.Clients {
				if audience.Matches(client.UserID, client.Email) {
					affected = append(affected, client)
				}
			}
			h.mu.Unlock()

			// Query and send outside the lock.
			for _, client := range affected {
				h.pushSnapshot(client)
			}
		}
	}
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.Clients[client]; ok {
		delete(h.Clients, client)
		close(client.Send)
	}
}

func (h *Hub) pushSnapshot(client *Client) {
	notes, err := h.feed.ListVisible(client.UserID, client.Email)
	if err != nil {
		logger.Sugar.Errorf("Failed to build snapshot for user %s: %v", client.UserID, err)
		return
	}

	payload, err := json.Marshal(notes)
	if err != nil {
		logger.Sugar.Errorf("Error marshalling snapshot: %v", err)
		return
	}
	msg, _ := json.Marshal(WSMessage{Type: SnapshotType, UserID: client.UserID, Payload: payload})

	select {
	case client.Send <- msg:
	default:
		// The client is lagging behind its send buffer. Drop it so the
		// hub never blocks on a dead connection.
		logger.Sugar.Warnf("Client %s's send buffer is full. Unregistering.", client.UserID)
		h.remove(client)
	}
}
