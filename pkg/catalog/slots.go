package catalog

import (
	"blockstore/pkg/primitives"
	"fmt"
	"strconv"
	"strings"
)

// SlotQueue is the fixed heap's FIFO list of reclaimed positions. The oldest
// tombstone is reused first.
type SlotQueue struct {
	items []primitives.Position
}

// Push appends a reclaimed position to the back of the queue.
func (q *SlotQueue) Push(pos primitives.Position) {
	q.items = append(q.items, pos)
}

// PopFront removes and returns the oldest reclaimed position.
func (q *SlotQueue) PopFront() (primitives.Position, bool) {
	if len(q.items) == 0 {
		return primitives.InvalidPosition, false
	}
	pos := q.items[0]
	q.items = q.items[1:]
	return pos, true
}

// Peek returns the oldest reclaimed position without removing it.
func (q *SlotQueue) Peek() (primitives.Position, bool) {
	if len(q.items) == 0 {
		return primitives.InvalidPosition, false
	}
	return q.items[0], true
}

func (q *SlotQueue) Len() int {
	return len(q.items)
}

// Items returns a copy of the queued positions in FIFO order.
func (q *SlotQueue) Items() []primitives.Position {
	out := make([]primitives.Position, len(q.items))
	copy(out, q.items)
	return out
}

// String renders the queue as the catalog line "b:s,b:s".
func (q *SlotQueue) String() string {
	parts := make([]string, len(q.items))
	for i, pos := range q.items {
		parts[i] = fmt.Sprintf("%d:%d", pos.Block, pos.Slot)
	}
	return strings.Join(parts, ",")
}

func parseSlotQueue(line string) (SlotQueue, error) {
	var q SlotQueue
	if line == "" {
		return q, nil
	}

	for _, pair := range strings.Split(line, ",") {
		b, s, ok := strings.Cut(pair, ":")
		if !ok {
			return q, fmt.Errorf("reclaimed slot %q is not block:slot", pair)
		}
		block, err := strconv.Atoi(b)
		if err != nil || block < 0 {
			return q, fmt.Errorf("reclaimed slot %q has bad block", pair)
		}
		slot, err := strconv.Atoi(s)
		if err != nil || slot < 0 {
			return q, fmt.Errorf("reclaimed slot %q has bad slot", pair)
		}
		q.Push(primitives.Position{Block: primitives.BlockNumber(block), Slot: primitives.SlotID(slot)})
	}
	return q, nil
}
