package general

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufferedThing struct {
	id string
	ts time.Time
}

func (b bufferedThing) GetId() string           { return b.id }
func (b bufferedThing) GetTimestamp() time.Time { return b.ts }

func TestTimedBufferKeepsOrder(t *testing.T) {
	base := time.Now()
	buffer := NewTimedBuffer[bufferedThing](10)

	buffer.AddElement(bufferedThing{id: "b", ts: base.Add(2 * time.Second)})
	buffer.AddElement(bufferedThing{id: "a", ts: base.Add(1 * time.Second)})
	buffer.AddElement(bufferedThing{id: "c", ts: base.Add(3 * time.Second)})

	elements := buffer.GetAllElements()
	require.Len(t, elements, 3)
	assert.Equal(t, "a", elements[0].id)
	assert.Equal(t, "c", elements[2].id)

	latest, ok := buffer.GetLatestElement()
	require.True(t, ok)
	assert.Equal(t, "c", latest.id)
}

func TestTimedBufferEvictsOldest(t *testing.T) {
	base := time.Now()
	buffer := NewTimedBuffer[bufferedThing](2)

	buffer.AddElement(bufferedThing{id: "a", ts: base})
	buffer.AddElement(bufferedThing{id: "b", ts: base.Add(time.Second)})
	buffer.AddElement(bufferedThing{id: "c", ts: base.Add(2 * time.Second)})

	assert.Equal(t, 2, buffer.Len())
	_, found := buffer.GetById("a")
	assert.False(t, found)
	_, found = buffer.GetById("c")
	assert.True(t, found)
}

func TestGetElementsNewerThan(t *testing.T) {
	base := time.Now()
	buffer := NewTimedBuffer[bufferedThing](10)
	for i := 0; i < 5; i++ {
		buffer.AddElement(bufferedThing{id: string(rune('a' + i)), ts: base.Add(time.Duration(i) * time.Second)})
	}

	newer := buffer.GetElementsNewerThan(base.Add(2 * time.Second))
	require.Len(t, newer, 2)
	assert.Equal(t, "d", newer[0].id)
}
