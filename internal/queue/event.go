// Package queue carries user lifecycle audit events over RabbitMQ.
package queue

import "time"

// EventType names a user lifecycle transition.
type EventType string

const (
	EventSignedUp                EventType = "user.signed_up"
	EventLoggedIn                EventType = "user.logged_in"
	EventLoggedOut               EventType = "user.logged_out"
	EventCreated                 EventType = "user.created"
	EventUpdated                 EventType = "user.updated"
	EventDeleted                 EventType = "user.deleted"
	EventPasswordReset           EventType = "user.password_reset"
	EventRestaurantAdminAssigned EventType = "user.restaurant_admin_assigned"
)

// UserEvent is published after a user record changes or a session starts or
// ends. ActorID is the administrator who performed the change, zero for
// self-service actions. It never carries secrets.
type UserEvent struct {
	Type         EventType `json:"type"`
	UserID       uint64    `json:"user_id"`
	Email        string    `json:"email,omitempty"`
	Role         string    `json:"role,omitempty"`
	ActorID      uint64    `json:"actor_id,omitempty"`
	RestaurantID uint64    `json:"restaurant_id,omitempty"`
	At           time.Time `json:"at"`
}
