package domain

// WindowAdmissible reports whether one more claim fits beside the overlapping active ones.
func WindowAdmissible(overlapping, capacity int) bool {
	return overlapping < capacity
}

// StatusCounts are the zone-wide active totals used by the pre-booking gate.
type StatusCounts struct {
	Booked   int
	Reserved int
}

// OverallAvailable ignores windows entirely: every outstanding claim consumes a slot.
func OverallAvailable(capacity int, counts StatusCounts) int {
	return capacity - counts.Reserved - counts.Booked
}

// CountOverlapping counts active records overlapping w, skipping excludeID.
func CountOverlapping(records []Reservation, w Window, excludeID string) int {
	n := 0
	for _, r := range records {
		if !r.Status.IsActive() || (excludeID != "" && r.ID == excludeID) {
			continue
		}
		if r.Window().Overlaps(w) {
			n++
		}
	}
	return n
}

// CountByStatus totals active records per status.
func CountByStatus(records []Reservation) StatusCounts {
	var c StatusCounts
	for _, r := range records {
		switch r.Status {
		case StatusBooked:
			c.Booked++
		case StatusReserved:
			c.Reserved++
		}
	}
	return c
}
