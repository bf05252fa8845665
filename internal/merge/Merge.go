// Copyright 2026 Jack Bister
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package merge

import (
	"container/heap"
	"iter"
	"slices"

	"github.com/jackbister/takeoutsuck/pkg/takeoutsuck/events"
)

// Stats describes what a merge did besides ordering.
type Stats struct {
	// Duplicates is the number of events that were dropped because an equivalent event was kept.
	Duplicates int
}

// Merge combines sequences that are each sorted by Timestamp into one sorted, deduplicated
// sequence. Events with equal timestamps keep the order of the sequence they came from, and
// the order within that sequence.
//
// Two events are duplicates if they share events.Key. Of a set of duplicates the event with
// the most non-empty optional fields is kept, or the first one seen if several are equally
// complete.
func Merge(seqs ...iter.Seq[events.Event]) iter.Seq[events.Event] {
	return MergeWithStats(nil, seqs...)
}

// MergeWithStats is like Merge but also counts dropped duplicates into stats, which may be nil.
// stats is only complete once the returned sequence has been fully consumed.
func MergeWithStats(stats *Stats, seqs ...iter.Seq[events.Event]) iter.Seq[events.Event] {
	return func(yield func(events.Event) bool) {
		h := make(cursorHeap, 0, len(seqs))
		defer func() {
			for _, c := range h {
				c.stop()
			}
		}()
		for i, seq := range seqs {
			next, stop := iter.Pull(seq)
			c := &cursor{index: i, next: next, stop: stop}
			if c.advance() {
				h = append(h, c)
			} else {
				stop()
			}
		}
		heap.Init(&h)

		w := window{stats: stats}
		for h.Len() > 0 {
			c := h[0]
			evt := c.head
			if c.advance() {
				heap.Fix(&h, 0)
			} else {
				heap.Pop(&h)
				c.stop()
			}
			if !w.add(evt, yield) {
				return
			}
		}
		w.flush(yield)
	}
}

// Sorted buffers seq and yields it stably sorted by Timestamp. It is meant for bounded inputs
// such as the events of a single file, which are not guaranteed to be in order.
func Sorted(seq iter.Seq[events.Event]) iter.Seq[events.Event] {
	return func(yield func(events.Event) bool) {
		buf := slices.Collect(seq)
		slices.SortStableFunc(buf, compareTimestamps)
		for _, e := range buf {
			if !yield(e) {
				return
			}
		}
	}
}

func compareTimestamps(a, b events.Event) int {
	return a.Timestamp.Compare(b.Timestamp)
}

type cursor struct {
	index int
	head  events.Event
	next  func() (events.Event, bool)
	stop  func()
}

func (c *cursor) advance() bool {
	evt, ok := c.next()
	if ok {
		c.head = evt
	}
	return ok
}

type cursorHeap []*cursor

func (h cursorHeap) Len() int { return len(h) }

func (h cursorHeap) Less(i, j int) bool {
	if c := h[i].head.Timestamp.Compare(h[j].head.Timestamp); c != 0 {
		return c < 0
	}
	return h[i].index < h[j].index
}

func (h cursorHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *cursorHeap) Push(x any) { *h = append(*h, x.(*cursor)) }

func (h *cursorHeap) Pop() any {
	old := *h
	n := len(old)
	c := old[n-1]
	old[n-1] = nil
	*h = old[:n-1]
	return c
}

// window holds the events of one second. Duplicates can only occur within a window since the
// key truncates timestamps to the second.
type window struct {
	second int64
	kept   []events.Event
	index  map[events.Key]int
	stats  *Stats
}

func (w *window) add(evt events.Event, yield func(events.Event) bool) bool {
	if len(w.kept) > 0 && evt.Timestamp.Unix() != w.second {
		if !w.flush(yield) {
			return false
		}
	}
	if len(w.kept) == 0 {
		w.second = evt.Timestamp.Unix()
		w.index = map[events.Key]int{}
	}
	k := evt.Key()
	if i, ok := w.index[k]; ok {
		if evt.Completeness() > w.kept[i].Completeness() {
			w.kept[i] = evt
		}
		if w.stats != nil {
			w.stats.Duplicates++
		}
		return true
	}
	w.index[k] = len(w.kept)
	w.kept = append(w.kept, evt)
	return true
}

func (w *window) flush(yield func(events.Event) bool) bool {
	// A replaced representative may carry a different sub-second timestamp.
	slices.SortStableFunc(w.kept, compareTimestamps)
	kept := w.kept
	w.kept = w.kept[:0]
	for _, e := range kept {
		if !yield(e) {
			return false
		}
	}
	return true
}
