// Package mentors proxies mentorship discovery and booking. Booking follows
// the same submit shape as checkout but has no payment branching; the
// upstream backend owns availability and confirmation.
package mentors

import (
	"context"
	"net/http"

	"bilhete/models"
	"bilhete/upstream"
)

type Service struct {
	api *upstream.Client
}

func NewService(api *upstream.Client) *Service {
	return &Service{api: api}
}

func (s *Service) List(ctx context.Context) ([]models.Mentor, error) {
	raw, err := s.api.Do(ctx, http.MethodGet, "/mentors", "", nil)
	if err != nil {
		return nil, err
	}
	var mentors []models.Mentor
	if err := upstream.Unwrap(raw, "mentors", &mentors); err != nil {
		return nil, err
	}
	return mentors, nil
}

func (s *Service) Get(ctx context.Context, mentorID string) (models.Mentor, error) {
	raw, err := s.api.Do(ctx, http.MethodGet, "/mentors/"+mentorID, "", nil)
	if err != nil {
		return models.Mentor{}, err
	}
	var mentor models.Mentor
	if err := upstream.Unwrap(raw, "mentor", &mentor); err != nil {
		return models.Mentor{}, err
	}
	return mentor, nil
}

// Book submits a booking request on the user's behalf. The server's answer is
// authoritative; a slot conflict comes back as a business rejection.
func (s *Service) Book(ctx context.Context, token string, booking models.MentorBooking) (models.MentorBooking, error) {
	raw, err := s.api.Do(ctx, http.MethodPost, "/mentors/"+booking.MentorID+"/bookings", token, booking)
	if err != nil {
		return models.MentorBooking{}, err
	}
	var confirmed models.MentorBooking
	if err := upstream.Unwrap(raw, "booking", &confirmed); err != nil {
		return models.MentorBooking{}, err
	}
	return confirmed, nil
}
