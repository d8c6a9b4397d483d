package domain

// Ticket is a booked match ticket stored in the flat JSON ticket store.
type Ticket struct {
	TicketID string `json:"ticket_id"`
	Day      string `json:"day"`
	Time     string `json:"time"`
}
