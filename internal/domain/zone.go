package domain

// Zone is a parking area with a fixed number of slots.
type Zone struct {
	ID       string
	Name     string
	Capacity int
}

// UnknownZoneName is shown for reservations whose zone no longer resolves.
const UnknownZoneName = "Unknown Zone"
