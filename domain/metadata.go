package domain

// Table is a mongo collection name
type Table string

const (
	TableAuctions      Table = "auctions"
	TableBids          Table = "bids"
	TableTrackerStates Table = "tracker_states"
)
