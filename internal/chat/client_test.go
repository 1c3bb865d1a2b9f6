package chat

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"go-relay/internal/errs"
)

func TestClient_Send_Refused_Once_Closed(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	client := NewClient(f.hub, nil, DefaultOptions(), zerolog.Nop())

	// Given a client still joining
	req.Equal(StateJoining, client.State())
	req.NoError(client.Send(context.Background(), "queued"))
	req.Equal("queued", <-client.send)

	// When it is marked closed
	client.state.Store(int32(StateClosed))

	// Then sends fail as transport errors without touching the queue
	err := client.Send(context.Background(), "late")
	req.True(errors.Is(err, errs.ErrTransport))
	req.Empty(client.send)
}

func TestClient_Send_Fails_When_Context_Done(t *testing.T) {
	req := require.New(t)
	f := newFixture(t)
	client := NewClient(f.hub, nil, Options{SendBuffer: 1}, zerolog.Nop())
	req.NoError(client.Send(context.Background(), "fills the queue"))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := client.Send(ctx, "blocked")
	req.True(errors.Is(err, errs.ErrTransport))
	req.True(errors.Is(err, context.Canceled))
}
