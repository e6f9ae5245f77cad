package tokenizer

import (
	pq "github.com/emirpasic/gods/v2/queues/priorityqueue"
)

// symbol is one node of a chunk's doubly-linked symbol list. BPE merges
// splice adjacent symbols together in place rather than rebuilding the
// slice, so prev/next indices (not positions) identify neighbors.
type symbol struct {
	text  string
	prev  int
	next  int
	alive bool
}

// candidate is a pending merge opportunity sitting in the priority queue,
// tagged with the pair it was computed against so a merge elsewhere in the
// chunk that changes one of its endpoints can be detected as stale.
type candidate struct {
	rank  int
	left  int
	right int
}

func candidateLess(a, b candidate) int {
	return a.rank - b.rank
}

// bpeEncodeChunk runs greedy highest-priority-first BPE merging over a
// single pretokenizer chunk (already byte-to-rune encoded), generalizing
// the teacher's encodeBPEMerge linear rescan: instead of rescanning the
// whole parts slice for the lowest-rank pair on every iteration, candidate
// pairs are pushed into a rank-ordered min-heap once and lazily
// re-validated at pop time, which keeps each merge application O(log n)
// instead of O(n).
func (v *Vocab) bpeEncodeChunk(chunk string) []string {
	runes := []rune(chunk)
	if len(runes) == 0 {
		return nil
	}

	symbols := make([]symbol, len(runes))
	for i, r := range runes {
		symbols[i] = symbol{text: string(r), prev: i - 1, next: i + 1, alive: true}
	}
	symbols[len(symbols)-1].next = -1

	queue := pq.NewWith(candidateLess)

	pushPair := func(left, right int) {
		if left == -1 || right == -1 {
			return
		}
		if rank, ok := v.mergeRank(symbols[left].text, symbols[right].text); ok {
			queue.Enqueue(candidate{rank: rank, left: left, right: right})
		}
	}

	for i := 0; i < len(symbols)-1; i++ {
		pushPair(i, i+1)
	}

	for !queue.Empty() {
		item, _ := queue.Dequeue()
		c := item

		if !symbols[c.left].alive || !symbols[c.right].alive {
			continue
		}
		if symbols[c.left].next != c.right {
			continue // stale: left's right neighbor changed since this candidate was queued
		}
		if rank, ok := v.mergeRank(symbols[c.left].text, symbols[c.right].text); !ok || rank != c.rank {
			continue // stale: one side's text changed (an earlier merge touched it) since this candidate was queued
		}

		merged := symbols[c.left].text + symbols[c.right].text
		symbols[c.left].text = merged
		symbols[c.right].alive = false

		next := symbols[c.right].next
		symbols[c.left].next = next
		if next != -1 {
			symbols[next].prev = c.left
		}

		pushPair(symbols[c.left].prev, c.left)
		pushPair(c.left, next)
	}

	out := make([]string, 0, len(symbols))
	for i := 0; i != -1; i = symbols[i].next {
		out = append(out, symbols[i].text)
	}
	return out
}

// tokensForPart resolves a fully-merged BPE part to token ids, falling back
// to one token per byte (via ByteToken) for any part the vocabulary has no
// entry for, mirroring the teacher's byte-fallback-on-miss behavior.
func (v *Vocab) tokensForPart(part string) []int {
	if id, ok := v.TokenToID[part]; ok {
		return []int{id}
	}
	raw := decodeRunesToBytes(part)
	ids := make([]int, 0, len(raw))
	for _, b := range raw {
		if id := v.ByteToken[b]; id >= 0 {
			ids = append(ids, id)
		}
	}
	return ids
}
