package conc

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGo_Result(t *testing.T) {
	f := Go(func() (int, error) {
		return 42, nil
	})

	result, err := f.Wait()
	require.NoError(t, err)
	assert.Equal(t, 42, result)
}

func TestGo_Error(t *testing.T) {
	wantErr := errors.New("boom")
	f := Go(func() (struct{}, error) {
		return struct{}{}, wantErr
	})

	_, err := f.Wait()
	assert.ErrorIs(t, err, wantErr)
}

func TestGo_PanicRecovered(t *testing.T) {
	f := Go(func() (struct{}, error) {
		panic("oops")
	})

	_, err := f.Wait()
	assert.Error(t, err)
}

func TestFuture_Done(t *testing.T) {
	f := Go(func() (string, error) {
		return "done", nil
	})

	select {
	case <-f.Done():
	case <-time.After(time.Second):
		t.Fatal("future did not complete")
	}
}

func TestPool_Submit(t *testing.T) {
	pool := NewPool[int](4)
	defer pool.Release()

	futures := make([]*Future[int], 0, 10)
	for i := 0; i < 10; i++ {
		i := i
		futures = append(futures, pool.Submit(func() (int, error) {
			return i * 2, nil
		}))
	}

	sum := 0
	for _, f := range futures {
		v, err := f.Wait()
		require.NoError(t, err)
		sum += v
	}
	assert.Equal(t, 90, sum)
}

func TestPool_PanicRecovered(t *testing.T) {
	pool := NewDefaultPool[struct{}]()
	defer pool.Release()

	f := pool.Submit(func() (struct{}, error) {
		panic("oops")
	})

	_, err := f.Wait()
	assert.ErrorIs(t, err, ErrPanic)
}
