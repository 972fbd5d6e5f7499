package delivery

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/foldermon/foldermon/internal/errors"
)

func TestQueue_DrainEmpty(t *testing.T) {
	q := New[int](Options{})

	assert.Nil(t, q.Drain())
	_, ok := q.TryRecv()
	assert.False(t, ok)
	assert.Equal(t, 0, q.Len())
}

func TestQueue_FIFOAcrossDrains(t *testing.T) {
	q := New[string](Options{})

	require.NoError(t, q.Send("E1"))
	assert.Equal(t, []string{"E1"}, q.Drain())

	require.NoError(t, q.Send("E2"))
	require.NoError(t, q.Send("E3"))
	assert.Equal(t, []string{"E2", "E3"}, q.Drain())
	assert.Nil(t, q.Drain())
}

func TestQueue_TryRecvOrder(t *testing.T) {
	q := New[int](Options{})
	for i := range 3 {
		require.NoError(t, q.Send(i))
	}

	for want := range 3 {
		got, ok := q.TryRecv()
		require.True(t, ok)
		assert.Equal(t, want, got)
	}
}

func TestQueue_UnboundedByDefault(t *testing.T) {
	q := New[int](Options{})
	for i := range 10_000 {
		require.NoError(t, q.Send(i))
	}
	assert.Equal(t, 10_000, q.Len())
	assert.Zero(t, q.Dropped())
}

func TestQueue_SendAfterClose(t *testing.T) {
	q := New[int](Options{})
	require.NoError(t, q.Send(1))
	q.Close()
	q.Close()

	err := q.Send(2)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrClosed))
	assert.True(t, errors.Is(err, errors.ErrClosed))
	assert.True(t, q.Closed())

	assert.Equal(t, []int{1}, q.Drain(), "values queued before Close are still delivered")
}

func TestQueue_DropNewest(t *testing.T) {
	q := New[int](Options{Capacity: 2, Overflow: DropNewest})

	require.NoError(t, q.Send(1))
	require.NoError(t, q.Send(2))

	err := q.Send(3)
	assert.True(t, errors.Is(err, ErrFull))
	assert.Equal(t, uint64(1), q.Dropped())
	assert.Equal(t, []int{1, 2}, q.Drain())
}

func TestQueue_DropOldest(t *testing.T) {
	q := New[int](Options{Capacity: 2, Overflow: DropOldest})

	for i := 1; i <= 4; i++ {
		require.NoError(t, q.Send(i))
	}

	assert.Equal(t, uint64(2), q.Dropped())
	assert.Equal(t, []int{3, 4}, q.Drain())
}

func TestQueue_BlockUntilDrained(t *testing.T) {
	q := New[int](Options{Capacity: 1, Overflow: Block})
	require.NoError(t, q.Send(1))

	sent := make(chan error, 1)
	go func() { sent <- q.Send(2) }()

	select {
	case <-sent:
		t.Fatal("send should block while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	assert.Equal(t, []int{1}, q.Drain())

	select {
	case err := <-sent:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("blocked send was not released by drain")
	}
	assert.Equal(t, []int{2}, q.Drain())
}

func TestQueue_BlockReleasedByClose(t *testing.T) {
	q := New[int](Options{Capacity: 1, Overflow: Block})
	require.NoError(t, q.Send(1))

	sent := make(chan error, 1)
	go func() { sent <- q.Send(2) }()

	time.Sleep(20 * time.Millisecond)
	q.Close()

	select {
	case err := <-sent:
		assert.True(t, errors.Is(err, ErrClosed))
	case <-time.After(time.Second):
		t.Fatal("blocked send was not released by close")
	}
}

func TestQueue_ReadySignalsSend(t *testing.T) {
	q := New[int](Options{})

	select {
	case <-q.Ready():
		t.Fatal("ready before any send")
	default:
	}

	require.NoError(t, q.Send(1))
	require.NoError(t, q.Send(2))

	select {
	case <-q.Ready():
	case <-time.After(time.Second):
		t.Fatal("no ready signal after send")
	}
	assert.Equal(t, []int{1, 2}, q.Drain())
}

func TestQueue_ConcurrentProducerConsumerPreservesOrder(t *testing.T) {
	q := New[int](Options{})
	const total = 5_000

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := range total {
			_ = q.Send(i)
		}
	}()

	got := make([]int, 0, total)
	deadline := time.After(5 * time.Second)
	for len(got) < total {
		select {
		case <-q.Ready():
			got = append(got, q.Drain()...)
		case <-deadline:
			t.Fatalf("received %d of %d values", len(got), total)
		}
	}
	wg.Wait()

	for i, v := range got {
		require.Equal(t, i, v)
	}
}

func TestParseOverflow(t *testing.T) {
	tests := []struct {
		in      string
		want    Overflow
		wantErr bool
	}{
		{"", DropNewest, false},
		{"drop-newest", DropNewest, false},
		{"drop-oldest", DropOldest, false},
		{"block", Block, false},
		{"spill", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseOverflow(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, mustParse(t, got.String()))
		})
	}
}

func mustParse(t *testing.T, s string) Overflow {
	t.Helper()
	o, err := ParseOverflow(s)
	require.NoError(t, err)
	return o
}
