package boss

// HistoryCapacity is the number of completed states remembered by an actor.
const HistoryCapacity = 8

// History is a fixed-capacity ring of completed states, oldest first.
type History struct {
	buf   [HistoryCapacity]StateID
	start int
	n     int
}

// Add records s as the most recent completion, evicting the oldest entry when full.
func (h *History) Add(s StateID) {
	if h.n < HistoryCapacity {
		h.buf[(h.start+h.n)%HistoryCapacity] = s
		h.n++
		return
	}
	h.buf[h.start] = s
	h.start = (h.start + 1) % HistoryCapacity
}

// Len returns the number of recorded entries.
func (h *History) Len() int {
	return h.n
}

// Last returns the most recent entry, or StateNone when empty.
func (h *History) Last() StateID {
	if h.n == 0 {
		return StateNone
	}
	return h.buf[(h.start+h.n-1)%HistoryCapacity]
}

// Entries returns the recorded states, oldest first.
func (h *History) Entries() []StateID {
	out := make([]StateID, h.n)
	for i := range h.n {
		out[i] = h.buf[(h.start+i)%HistoryCapacity]
	}
	return out
}

// Replace overwrites the history with entries (oldest first). Only the newest
// HistoryCapacity entries are kept.
func (h *History) Replace(entries []StateID) {
	h.Clear()
	for _, s := range entries {
		h.Add(s)
	}
}

// Clear drops all entries.
func (h *History) Clear() {
	*h = History{}
}
