package nakama

const (
	// MatchNameGuandan is the authoritative match handler name
	// registered with Nakama.
	MatchNameGuandan = "guandan_match"

	// MatchLabelKeyOpenSeats is the match label field MatchInit sets to
	// the room's open-seat count (all four seats at creation). The label
	// is not updated as seats are claimed, and RpcCreateRoom does not
	// query it.
	MatchLabelKeyOpenSeats = "open"
)
