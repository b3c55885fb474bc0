package zset

import "time"

type item[T any] struct {
	key   string
	data  T
	ts    time.Time
	index int
}

// priorityQueue implements heap.Interface ordered by earliest timestamp,
// ties broken by key so pops are deterministic.
type priorityQueue[T any] []*item[T]

func (pq priorityQueue[T]) Len() int { return len(pq) }

func (pq priorityQueue[T]) Less(i, j int) bool {
	if pq[i].ts.Equal(pq[j].ts) {
		return pq[i].key < pq[j].key
	}
	return pq[i].ts.Before(pq[j].ts)
}

func (pq priorityQueue[T]) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}

func (pq *priorityQueue[T]) Push(x any) {
	it := x.(*item[T])
	it.index = len(*pq)
	*pq = append(*pq, it)
}

func (pq *priorityQueue[T]) Pop() any {
	old := *pq
	n := len(old)
	it := old[n-1]
	old[n-1] = nil
	it.index = -1
	*pq = old[:n-1]
	return it
}
