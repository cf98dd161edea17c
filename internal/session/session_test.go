package session

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_CreateAndHistory(t *testing.T) {
	st := NewStore(10)
	id := st.Create()
	assert.True(t, st.Exists(id))

	st.AppendUser(id, "hello")
	st.AppendAssistant(id, "hi there")

	hist, ok := st.History(id)
	require.True(t, ok)
	require.Len(t, hist, 2)
	assert.Equal(t, RoleUser, hist[0].Role)
	assert.Equal(t, RoleAssistant, hist[1].Role)
}

func TestStore_HistoryBound(t *testing.T) {
	st := NewStore(2) // max 4 turns
	id := st.Create()
	for i := 0; i < 10; i++ {
		st.AppendUser(id, "msg")
	}
	hist, ok := st.History(id)
	require.True(t, ok)
	assert.LessOrEqual(t, len(hist), 4)
}

func TestStore_Delete(t *testing.T) {
	st := NewStore(10)
	id := st.Create()
	st.AppendUser(id, "hello")
	st.Delete(id)
	assert.True(t, st.Exists(id))
	hist, ok := st.History(id)
	assert.True(t, ok)
	assert.Empty(t, hist)
}

func TestStore_SerializesPerSession(t *testing.T) {
	st := NewStore(1000)
	id := st.Create()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			st.AppendUser(id, "x")
		}()
	}
	wg.Wait()

	hist, ok := st.History(id)
	require.True(t, ok)
	assert.Len(t, hist, 50)
}

func TestStore_AutoCreateOnWith(t *testing.T) {
	st := NewStore(10)
	st.AppendUser("fresh-id", "hello")
	assert.True(t, st.Exists("fresh-id"))
}
