package event_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/decorhub/decorhub/pkg/event"
)

func TestDispatchInOrder(t *testing.T) {
	bus := event.New()
	var got []string
	bus.Listen("inquiry.created", func(_ context.Context, p interface{}) { got = append(got, "a:"+p.(string)) })
	bus.Listen("inquiry.created", func(_ context.Context, p interface{}) { got = append(got, "b:"+p.(string)) })
	bus.Listen("other", func(context.Context, interface{}) { got = append(got, "other") })

	bus.Dispatch(context.Background(), "inquiry.created", "7")
	assert.Equal(t, []string{"a:7", "b:7"}, got)
	assert.Equal(t, 2, bus.Listeners("inquiry.created"))
}

func TestPanickingListenerIsIsolated(t *testing.T) {
	bus := event.New()
	called := false
	bus.Listen("e", func(context.Context, interface{}) { panic("boom") })
	bus.Listen("e", func(context.Context, interface{}) { called = true })

	assert.NotPanics(t, func() { bus.Dispatch(context.Background(), "e", nil) })
	assert.True(t, called)
}
