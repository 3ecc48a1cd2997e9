package general

import (
	"sync"
	"time"
)

type TimeBufferable interface {
	GetId() string
	GetTimestamp() time.Time
}

// TimedBuffer keeps a bounded, timestamp-ordered window of elements. The
// oldest element is evicted once the buffer is full.
type TimedBuffer[T TimeBufferable] struct {
	buffer     []T
	bufferSize int
	idToIndex  map[string]int
	mutex      sync.RWMutex
}

func NewTimedBuffer[T TimeBufferable](bufferSize int) *TimedBuffer[T] {
	return &TimedBuffer[T]{
		buffer:     make([]T, 0),
		bufferSize: bufferSize,
		idToIndex:  make(map[string]int),
	}
}

func (tb *TimedBuffer[T]) AddElement(element T) {
	tb.mutex.Lock()
	defer tb.mutex.Unlock()
	if len(tb.buffer) >= tb.bufferSize {
		oldestElement := tb.buffer[0]
		delete(tb.idToIndex, oldestElement.GetId())
		tb.buffer = tb.buffer[1:]
	}
	if len(tb.buffer) == 0 {
		tb.buffer = append(tb.buffer, element)
		tb.idToIndex[element.GetId()] = 0
		return
	}

	// Search backwards for the insertion point so late arrivals slot in order.
	for i := len(tb.buffer) - 1; i >= 0; i-- {
		if element.GetTimestamp().Equal(tb.buffer[i].GetTimestamp()) || element.GetTimestamp().After(tb.buffer[i].GetTimestamp()) {
			tb.buffer = append(tb.buffer[:i+1], append([]T{element}, tb.buffer[i+1:]...)...)
			tb.idToIndex[element.GetId()] = i + 1
			return
		}
	}
}

func (tb *TimedBuffer[T]) GetById(id string) (T, bool) {
	tb.mutex.RLock()
	defer tb.mutex.RUnlock()
	index, ok := tb.idToIndex[id]
	if !ok {
		var zeroValue T
		return zeroValue, false
	}
	return tb.buffer[index], true
}

func (tb *TimedBuffer[T]) GetElementsNewerThan(cutoff time.Time) []T {
	tb.mutex.RLock()
	defer tb.mutex.RUnlock()

	left, right := 0, len(tb.buffer)-1
	for left <= right {
		mid := (left + right) / 2
		if tb.buffer[mid].GetTimestamp().After(cutoff) {
			right = mid - 1
		} else {
			left = mid + 1
		}
	}

	if left >= len(tb.buffer) {
		return []T{}
	}
	return tb.buffer[left:]
}

func (tb *TimedBuffer[T]) GetAllElements() []T {
	tb.mutex.RLock()
	defer tb.mutex.RUnlock()
	out := make([]T, len(tb.buffer))
	copy(out, tb.buffer)
	return out
}

func (tb *TimedBuffer[T]) GetLatestElement() (T, bool) {
	tb.mutex.RLock()
	defer tb.mutex.RUnlock()

	var zeroValue T
	if len(tb.buffer) == 0 {
		return zeroValue, false
	}
	return tb.buffer[len(tb.buffer)-1], true
}

func (tb *TimedBuffer[T]) Len() int {
	tb.mutex.RLock()
	defer tb.mutex.RUnlock()
	return len(tb.buffer)
}
