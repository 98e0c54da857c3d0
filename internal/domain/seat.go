package domain

// Seat is a fixed player position, stable across disconnects. Seats
// {0,2} form Team 0; {1,3} form Team 1.
type Seat int

const NumSeats = 4

// Team returns the seat's team index, 0 or 1.
func (s Seat) Team() int {
	return int(s) % 2
}

// Next returns the clockwise neighbour seat.
func (s Seat) Next() Seat {
	return Seat((int(s) + 1) % NumSeats)
}

// Partner returns the seat across the table, same team.
func (s Seat) Partner() Seat {
	return Seat((int(s) + 2) % NumSeats)
}

// TeamSeats returns the two seats belonging to team (0 or 1).
func TeamSeats(team int) [2]Seat {
	return [2]Seat{Seat(team), Seat(team + 2)}
}
