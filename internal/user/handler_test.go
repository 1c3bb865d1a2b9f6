package user

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"go-relay/internal/history"
)

type staticDirectory []string

func (d staticDirectory) Names() []string { return d }

func newTestRouter(t *testing.T, online []string) (http.Handler, *history.FileStore) {
	t.Helper()
	logs, err := history.NewFileStore(t.TempDir())
	require.NoError(t, err)
	h := NewHandler(NewService(staticDirectory(online), logs), zerolog.Nop())
	r := chi.NewRouter()
	r.Get("/api/users/online", h.Online)
	r.Get("/api/users/{name}/conversations", h.Conversations)
	r.Get("/api/conversations/{a}/{b}", h.Transcript)
	return r, logs
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	require.NoError(t, json.NewDecoder(rec.Body).Decode(out))
	return rec.Code
}

func TestHandler_Online_Is_Distinct_And_Sorted(t *testing.T) {
	req := require.New(t)
	router, _ := newTestRouter(t, []string{"bob", "ana", "bob"})

	var res OnlineResponse
	req.Equal(http.StatusOK, get(t, router, "/api/users/online", &res))
	req.Equal([]string{"ana", "bob"}, res.Users)
}

func TestHandler_Conversations_Lists_Peers(t *testing.T) {
	req := require.New(t)
	router, logs := newTestRouter(t, nil)
	ctx := context.Background()
	req.NoError(logs.Append(ctx, history.CanonicalKey("ana", "bob"), "ana: hi"))
	req.NoError(logs.Append(ctx, history.CanonicalKey("cat", "Ana"), "cat: yo"))
	req.NoError(logs.Append(ctx, history.CanonicalKey("bob", "cat"), "bob: hey"))

	var res ConversationsResponse
	req.Equal(http.StatusOK, get(t, router, "/api/users/ANA/conversations", &res))
	req.Equal([]string{"bob", "cat"}, res.Peers)

	req.Equal(http.StatusOK, get(t, router, "/api/users/nobody/conversations", &res))
	req.Empty(res.Peers)
}

func TestHandler_Transcript_Reads_Pair_In_Either_Order(t *testing.T) {
	req := require.New(t)
	router, logs := newTestRouter(t, nil)
	ctx := context.Background()
	req.NoError(logs.Append(ctx, history.CanonicalKey("ana", "bob"), "ana: hi bob"))
	req.NoError(logs.Append(ctx, history.CanonicalKey("bob", "ana"), "bob: hi ana"))

	var res TranscriptResponse
	req.Equal(http.StatusOK, get(t, router, "/api/conversations/Bob/ana", &res))
	req.Equal("ana-bob", res.Conversation)
	req.Equal([]string{"ana: hi bob", "bob: hi ana"}, res.Lines)
}
