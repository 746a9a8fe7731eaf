package guild

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreate(t *testing.T) {
	r := NewRegistry()
	leader := uuid.New()

	info := r.Create("Wolves", leader, nil)
	assert.Equal(t, "Wolves", info.Name)
	assert.Equal(t, leader, info.LeaderID)
	assert.Equal(t, []uuid.UUID{leader}, info.Members)
	assert.Equal(t, 1, r.Count())
}

func TestCreateWithBasePos(t *testing.T) {
	r := NewRegistry()
	base := [3]float64{10, 0, -4}

	info := r.Create("Wolves", uuid.New(), &base)
	require.NotNil(t, info.BasePos)
	assert.Equal(t, base, *info.BasePos)
}

func TestJoinRoundTrip(t *testing.T) {
	r := NewRegistry()
	leader, second := uuid.New(), uuid.New()

	created := r.Create("Wolves", leader, nil)
	joined, ok := r.Join(created.ID, second)
	require.True(t, ok)

	assert.Len(t, joined.Members, 2)
	assert.Contains(t, joined.Members, leader)
	assert.Contains(t, joined.Members, second)
}

func TestJoinUnknownGuild(t *testing.T) {
	r := NewRegistry()
	_, ok := r.Join(uuid.New(), uuid.New())
	assert.False(t, ok)
}

func TestJoinIdempotent(t *testing.T) {
	r := NewRegistry()
	leader, member := uuid.New(), uuid.New()
	created := r.Create("Wolves", leader, nil)

	_, ok := r.Join(created.ID, member)
	require.True(t, ok)
	again, ok := r.Join(created.ID, member)
	require.True(t, ok)
	assert.Len(t, again.Members, 2)
}

func TestGet(t *testing.T) {
	r := NewRegistry()
	created := r.Create("Wolves", uuid.New(), nil)

	got, ok := r.Get(created.ID)
	require.True(t, ok)
	assert.Equal(t, "Wolves", got.Name)

	_, ok = r.Get(uuid.New())
	assert.False(t, ok)
}

func TestDuplicateNamesAllowed(t *testing.T) {
	r := NewRegistry()
	a := r.Create("Wolves", uuid.New(), nil)
	b := r.Create("Wolves", uuid.New(), nil)
	assert.NotEqual(t, a.ID, b.ID)
	assert.Equal(t, 2, r.Count())
}

func TestConcurrentJoin(t *testing.T) {
	r := NewRegistry()
	created := r.Create("Wolves", uuid.New(), nil)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			_, _ = r.Join(created.ID, uuid.New())
		}()
	}
	wg.Wait()

	info, ok := r.Get(created.ID)
	require.True(t, ok)
	assert.Len(t, info.Members, n+1)
}
