package model

import (
	"time"
)

// ConnectionStatus represents the state of a connection edge.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
	ConnectionBlocked  ConnectionStatus = "blocked"
)

// Active reports whether the edge counts toward the one-active-edge-per-pair
// invariant. Rejected and blocked edges are history and do not.
func (s ConnectionStatus) Active() bool {
	return s == ConnectionPending || s == ConnectionAccepted
}

// RelationshipStatus is the derived label describing a connection from one
// party's point of view.
type RelationshipStatus string

const (
	RelationshipNone     RelationshipStatus = "none"
	RelationshipPending  RelationshipStatus = "pending"
	RelationshipSent     RelationshipStatus = "sent"
	RelationshipAccepted RelationshipStatus = "accepted"
)

// Connection represents a directed request edge requester -> target.
type Connection struct {
	ID          string           `json:"id"`
	RequesterID string           `json:"requester_id"`
	TargetID    string           `json:"target_id"`
	Status      ConnectionStatus `json:"status"`
	Message     string           `json:"message,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// Involves reports whether identityID is either endpoint of the edge.
func (c *Connection) Involves(identityID string) bool {
	return c.RequesterID == identityID || c.TargetID == identityID
}

// Counterpart returns the other endpoint relative to identityID.
func (c *Connection) Counterpart(identityID string) string {
	if c.RequesterID == identityID {
		return c.TargetID
	}
	return c.RequesterID
}

// SendConnectionRequest is the request to create a pending edge.
type SendConnectionRequest struct {
	TargetID string `json:"target_id" validate:"required,uuid"`
	Message  string `json:"message,omitempty" validate:"omitempty,max=1024"`
}

// ConnectionView is a connection joined with the counterpart's profile
// summary, as rendered in list responses.
type ConnectionView struct {
	Connection
	Counterpart IdentitySummary `json:"counterpart"`
}

// ListConnectionsResponse is the response for connection list endpoints.
type ListConnectionsResponse struct {
	Connections []ConnectionView `json:"connections"`
	Total       int              `json:"total"`
}

// RelationshipStatusResponse is the response for the status lookup endpoint.
type RelationshipStatusResponse struct {
	Status RelationshipStatus `json:"status"`
}

// NetworkStats aggregates the dashboard counters. Only direct (non-group)
// conversations count toward TotalChats.
type NetworkStats struct {
	TotalConnections int `json:"total_connections"`
	PendingReceived  int `json:"pending_received"`
	PendingSent      int `json:"pending_sent"`
	TotalChats       int `json:"total_chats"`
}
