package events

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"sitetrack-service/internal/domain"
)

type InboundKind string

const (
	InboundLocation      InboundKind = "location"
	InboundMessageDriver InboundKind = "message_driver"
)

// Location report sent by a driver over its connection. The driver id is
// implied by the connection.
type LocationMessage struct {
	DeliveryID string  `json:"delivery_id"`
	Latitude   float64 `json:"latitude" validate:"gte=-90,lte=90"`
	Longitude  float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Speed      float64 `json:"speed" validate:"gte=0"`
	Heading    float64 `json:"heading"`
}

// Observer command asking to relay text to a driver.
type MessageDriver struct {
	DriverID string `json:"driver_id" validate:"required"`
	Message  string `json:"message" validate:"required"`
}

var validate = validator.New()

type envelope struct {
	Type InboundKind `json:"type"`
}

// DecodeDriverMessage parses a frame received from a driver. ok is false for
// well-formed frames of a kind drivers are not expected to send.
func DecodeDriverMessage(b []byte) (msg LocationMessage, ok bool, err error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return msg, false, fmt.Errorf("decode driver message: %v: %w", err, domain.ErrValidation)
	}
	if env.Type != InboundLocation {
		return msg, false, nil
	}

	if err := json.Unmarshal(b, &msg); err != nil {
		return msg, false, fmt.Errorf("decode location: %v: %w", err, domain.ErrValidation)
	}
	if err := validate.Struct(msg); err != nil {
		return msg, false, fmt.Errorf("decode location: %v: %w", err, domain.ErrValidation)
	}
	return msg, true, nil
}

// DecodeObserverMessage parses a frame received from an observer.
func DecodeObserverMessage(b []byte) (msg MessageDriver, ok bool, err error) {
	var env envelope
	if err := json.Unmarshal(b, &env); err != nil {
		return msg, false, fmt.Errorf("decode observer message: %v: %w", err, domain.ErrValidation)
	}
	if env.Type != InboundMessageDriver {
		return msg, false, nil
	}

	if err := json.Unmarshal(b, &msg); err != nil {
		return msg, false, fmt.Errorf("decode message_driver: %v: %w", err, domain.ErrValidation)
	}
	if err := validate.Struct(msg); err != nil {
		return msg, false, fmt.Errorf("decode message_driver: %v: %w", err, domain.ErrValidation)
	}
	return msg, true, nil
}
