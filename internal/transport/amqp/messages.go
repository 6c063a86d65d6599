package amqp

import (
	"encoding/json"
	"time"
)

// CommandType names an operation carried over the command queue.
type CommandType string

const (
	CommandPreBook          CommandType = "PreBook"
	CommandReserve          CommandType = "Reserve"
	CommandCancel           CommandType = "Cancel"
	CommandListReservations CommandType = "ListReservations"
)

// CommandEnvelope is the message body on the command queue. RequesterID is
// trusted as-is; producers authenticate callers before publishing.
type CommandEnvelope struct {
	Type        CommandType     `json:"type"`
	RequesterID string          `json:"requester_id"`
	Payload     json.RawMessage `json:"payload"`
}

type AdmissionPayload struct {
	ZoneID   string    `json:"zone_id"`
	FromTime time.Time `json:"from_time"`
	ToTime   time.Time `json:"to_time"`
}

type CancelPayload struct {
	ReservationID string `json:"reservation_id"`
}

type ReservationPayload struct {
	ID       string     `json:"id"`
	ZoneID   string     `json:"zone_id"`
	ZoneName string     `json:"zone_name,omitempty"`
	FromTime time.Time  `json:"from_time"`
	ToTime   time.Time  `json:"to_time"`
	Status   string     `json:"status"`
	ParkedAt *time.Time `json:"parked_at,omitempty"`
	Message  string     `json:"message,omitempty"`
}

type ListReservationsPayload struct {
	Reservations []ReservationPayload `json:"reservations"`
}

// Response is published to the delivery's ReplyTo queue.
type Response struct {
	OK      bool            `json:"ok"`
	Error   string          `json:"error,omitempty"`
	Code    string          `json:"code,omitempty"`
	Kind    string          `json:"kind,omitempty"`
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}
