// Package handlers is the HTTP surface of the reservation agent. Handlers
// stay thin: decode, call the evaluation service, map errors.
package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/upb/classroom-reservation-agent/app"
	"github.com/upb/classroom-reservation-agent/utils"
)

// Version is reported by the status endpoint; overridden at link time.
var Version = "0.1.0"

// ExampleReservation is the sample request offered to clients as a starting
// point. It is well-formed, within the duration limit and compliant.
const ExampleReservation = `{
  "requester": {
    "name": "Laura Restrepo",
    "email": "laura.restrepo@upb.edu.co"
  },
  "room": "Bloque 11 - 204",
  "date": "2025-05-12",
  "startTime": "09:00",
  "endTime": "10:30",
  "purpose": "Group project discussion for CS201 midterm preparation",
  "attendees": 4
}`

// ExampleResponse wraps the sample both as an object and as the string the
// evaluate endpoint accepts.
type ExampleResponse struct {
	Reservation json.RawMessage `json:"reservation"`
	Request     string          `json:"request"`
}

// ExampleReservationHandler returns the sample reservation request
func ExampleReservationHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteOK(w, ExampleResponse{
			Reservation: json.RawMessage(ExampleReservation),
			Request:     ExampleReservation,
		})
	}
}
