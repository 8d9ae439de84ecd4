package assist

// queue holds pending messages sorted by (priority desc, arrival asc).
// It is not safe for concurrent use; the engine mutates it under its own
// lock, which is the queue's only writer path.
type queue struct {
	items []Message
}

func (q *queue) len() int { return len(q.items) }

// hasText reports whether a pending entry already carries exactly text.
func (q *queue) hasText(text string) bool {
	for _, m := range q.items {
		if m.Text == text {
			return true
		}
	}
	return false
}

// insert places m according to sort order. Existing entries of the same
// priority stay ahead of m.
func (q *queue) insert(m Message) {
	at := len(q.items)
	for i, existing := range q.items {
		if m.Priority > existing.Priority {
			at = i
			break
		}
	}
	q.items = append(q.items, Message{})
	copy(q.items[at+1:], q.items[at:])
	q.items[at] = m
}

// pushFront re-places a message at the head regardless of priority. Used
// only when Clear preserves the message currently mid-reveal.
func (q *queue) pushFront(m Message) {
	q.items = append([]Message{m}, q.items...)
}

func (q *queue) popHead() (Message, bool) {
	if len(q.items) == 0 {
		return Message{}, false
	}
	head := q.items[0]
	q.items = q.items[1:]
	return head, true
}

// clear drops every entry opts does not keep, preserving relative order
// of the survivors. Returns the dropped entries so their completion
// callbacks can be notified.
func (q *queue) clear(opts ClearOptions) []Message {
	kept := q.items[:0]
	var dropped []Message
	for _, m := range q.items {
		if opts.keeps(m) {
			kept = append(kept, m)
		} else {
			dropped = append(dropped, m)
		}
	}
	q.items = kept
	return dropped
}

// removeBySource drops pending entries attributed to source. The welcome
// flow uses this to retract its unspoken lines when it is skipped.
func (q *queue) removeBySource(source string) []Message {
	kept := q.items[:0]
	var dropped []Message
	for _, m := range q.items {
		if string(m.Source) == source {
			dropped = append(dropped, m)
		} else {
			kept = append(kept, m)
		}
	}
	q.items = kept
	return dropped
}
