package player

// Queue is the ordered track list of one session; the head is the current
// track. It is not safe for concurrent use on its own, the owning Session
// guards it.
type Queue struct {
	tracks []*Track
}

func (q *Queue) Len() int { return len(q.tracks) }

func (q *Queue) IsEmpty() bool { return len(q.tracks) == 0 }

func (q *Queue) Current() *Track {
	if len(q.tracks) == 0 {
		return nil
	}
	return q.tracks[0]
}

func (q *Queue) Push(t *Track) {
	q.tracks = append(q.tracks, t)
}

func (q *Queue) Pop() (*Track, bool) {
	if len(q.tracks) == 0 {
		return nil, false
	}
	t := q.tracks[0]
	q.tracks[0] = nil
	q.tracks = q.tracks[1:]
	return t, true
}

// Clear drops every entry and returns how many were removed.
func (q *Queue) Clear() int {
	n := len(q.tracks)
	q.tracks = nil
	return n
}

func (q *Queue) Snapshot() []Track {
	out := make([]Track, len(q.tracks))
	for i, t := range q.tracks {
		out[i] = *t
	}
	return out
}
