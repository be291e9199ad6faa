package blackboard

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBlackboard_BasicOperations(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)

	bb.Set("key1", "value1")
	require.Equal(t, "value1", bb.Get("key1"))
	require.Nil(t, bb.Get("nonexistent"))

	require.True(t, bb.Has("key1"))
	require.False(t, bb.Has("nonexistent"))

	bb.Delete("key1")
	require.False(t, bb.Has("key1"))
	require.Nil(t, bb.Get("key1"))

	bb.Set("int", 42)
	bb.Set("bool", true)
	bb.Set("slice", []int{1, 2, 3})

	require.Equal(t, 42, bb.Get("int"))
	require.Equal(t, true, bb.Get("bool"))
	require.Equal(t, []int{1, 2, 3}, bb.Get("slice"))
}

func TestBlackboard_ZeroValue(t *testing.T) {
	t.Parallel()

	var bb Blackboard
	require.Nil(t, bb.Get("x"))
	require.False(t, bb.Has("x"))
	require.Nil(t, bb.Keys())
	require.Zero(t, bb.Len())
	bb.Delete("x")

	snap := bb.Snapshot()
	require.NotNil(t, snap)
	require.Empty(t, snap)
}

func TestBlackboard_TypedGetters(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)
	bb.Set("flag", true)
	bb.Set("text", "true")
	bb.Set("count", int64(7))
	bb.Set("small", uint8(3))

	v, ok := bb.Bool("flag")
	require.True(t, ok)
	require.True(t, v)

	_, ok = bb.Bool("text")
	require.False(t, ok)

	_, ok = bb.Bool("missing")
	require.False(t, ok)

	n, ok := bb.Int("count")
	require.True(t, ok)
	require.Equal(t, 7, n)

	n, ok = bb.Int("small")
	require.True(t, ok)
	require.Equal(t, 3, n)

	_, ok = bb.Int("flag")
	require.False(t, ok)
}

func TestBlackboard_Update(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)
	inc := func(v any) any {
		n, _ := v.(int)
		return n + 1
	}

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			bb.Update("counter", inc)
		}()
	}
	wg.Wait()

	require.Equal(t, 50, bb.Get("counter"))
}

func TestBlackboard_SnapshotIsACopy(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)
	bb.Set("a", 1)

	snap := bb.Snapshot()
	snap["a"] = 2
	snap["b"] = 3

	require.Equal(t, 1, bb.Get("a"))
	require.False(t, bb.Has("b"))
}

func TestBlackboard_KeysAndClear(t *testing.T) {
	t.Parallel()

	bb := new(Blackboard)
	for i := 0; i < 5; i++ {
		bb.Set(fmt.Sprintf("k%d", i), i)
	}
	require.Len(t, bb.Keys(), 5)
	require.Equal(t, 5, bb.Len())

	bb.Clear()
	require.Empty(t, bb.Keys())
	require.Zero(t, bb.Len())
}
