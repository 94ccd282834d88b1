package eventbus

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type pinged struct{ n int }
type ponged struct{}

func TestPublishDispatchesByType(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	var got []int
	unsub := Subscribe(func(ctx context.Context, e pinged) { got = append(got, e.n) })
	pongs := 0
	Subscribe(func(ctx context.Context, e ponged) { pongs++ })

	Publish(context.Background(), pinged{n: 1})
	Publish(context.Background(), ponged{})
	unsub()
	Publish(context.Background(), pinged{n: 2})

	require.Equal(t, []int{1}, got)
	require.Equal(t, 1, pongs)
}

func TestPublishWithoutBusIsNoop(t *testing.T) {
	Use(nil)
	called := false
	unsub := Subscribe(func(ctx context.Context, e pinged) { called = true })
	Publish(context.Background(), pinged{})
	unsub()
	require.False(t, called)
}

func TestUnsubscribeRemovesOnlyItsHandler(t *testing.T) {
	Use(New())
	t.Cleanup(func() { Use(nil) })

	var got []string
	subscribe := func(name string) func() {
		return Subscribe(func(ctx context.Context, e pinged) { got = append(got, name) })
	}
	subscribe("a")
	unsubB := subscribe("b")
	subscribe("c")

	unsubB()
	unsubB()
	Publish(context.Background(), pinged{})

	require.Equal(t, []string{"a", "c"}, got)
}
