package chat

// MessageStatus отражает стадию доставки одного сообщения.
type MessageStatus string

const (
	StatusSending   MessageStatus = "sending"
	StatusSent      MessageStatus = "sent"
	StatusDelivered MessageStatus = "delivered"
	StatusRead      MessageStatus = "read"
	StatusFailed    MessageStatus = "failed"
)

// statusRank orders the forward path sending -> sent -> delivered -> read.
// failed sits outside the path: it is reachable only from sending and left
// only by an explicit retry reset.
var statusRank = map[MessageStatus]int{
	StatusSending:   0,
	StatusSent:      1,
	StatusDelivered: 2,
	StatusRead:      3,
}

// Rank returns the position of s on the forward path, or -1 for failed and
// unknown values.
func (s MessageStatus) Rank() int {
	r, ok := statusRank[s]
	if !ok {
		return -1
	}
	return r
}

// Valid reports whether s is one of the five known statuses.
func (s MessageStatus) Valid() bool {
	return s == StatusFailed || s.Rank() >= 0
}

// CanAdvanceTo reports whether a transition from s to next is allowed.
// Transitions are monotonic along the forward path; the two exceptions are
// sending -> failed и failed -> sending (повтор по инициативе пользователя).
func (s MessageStatus) CanAdvanceTo(next MessageStatus) bool {
	if s == StatusSending && next == StatusFailed {
		return true
	}
	if s == StatusFailed {
		return next == StatusSending
	}
	if next == StatusFailed {
		return false
	}
	return next.Rank() > s.Rank()
}

// Max returns the later of the two statuses on the forward path. Failed is
// treated as earliest so a canonical ack never resurrects a failed mark.
func (s MessageStatus) Max(other MessageStatus) MessageStatus {
	if other.Rank() > s.Rank() {
		return other
	}
	return s
}
