package models

// Event is the public catalog shape returned by the upstream backend.
type Event struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Date        string       `json:"date"`
	Time        string       `json:"time,omitempty"`
	Location    string       `json:"location,omitempty"`
	CategoryID  string       `json:"categoryId,omitempty"`
	BannerURL   string       `json:"bannerUrl,omitempty"`
	Tickets     []TicketType `json:"tickets,omitempty"`
}

// TicketType is a purchasable admission tier of an event.
type TicketType struct {
	ID                string    `json:"id"`
	Name              string    `json:"name"`
	Type              string    `json:"type,omitempty"`
	Price             float64   `json:"price"`
	AvailableQuantity int       `json:"availableQuantity"`
	Benefits          []Benefit `json:"benefits,omitempty"`
}

type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Mentor is a bookable mentor profile from the discovery flow.
type Mentor struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Expertise []string `json:"expertise,omitempty"`
	Bio       string   `json:"bio,omitempty"`
	Rate      float64  `json:"rate"`
	Available bool     `json:"available"`
}

// MentorBooking is a booking request/record for a mentorship session.
type MentorBooking struct {
	ID       string `json:"id,omitempty"`
	MentorID string `json:"mentorId"`
	UserID   string `json:"userId,omitempty"`
	Date     string `json:"date"`
	Slot     string `json:"slot"`
	Note     string `json:"note,omitempty"`
	Status   string `json:"status,omitempty"`
}
