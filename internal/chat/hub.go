package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/rs/zerolog"

	"go-relay/internal/errs"
	"go-relay/internal/history"
	"go-relay/internal/voice"
)

// Hub routes every inbound event. Each message is mirrored into the pairwise
// log of the sender and every other participant online, then delivered.
type Hub struct {
	registry *Registry
	logs     history.Store
	blobs    voice.Store
	log      zerolog.Logger
}

func NewHub(registry *Registry, logs history.Store, blobs voice.Store, log zerolog.Logger) *Hub {
	return &Hub{
		registry: registry,
		logs:     logs,
		blobs:    blobs,
		log:      log,
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

// Join registers p, replays its history to it alone, then announces it to
// everyone online, p included.
func (h *Hub) Join(ctx context.Context, p Peer, name string) error {
	h.registry.Register(p, name)
	h.log.Info().Str("name", name).Msg("🟢 joined")

	for line, err := range h.logs.Replay(ctx, name) {
		if err != nil {
			h.log.Error().Err(err).Str("name", name).Msg("❌ history replay failed")
			if err := p.Send(ctx, persistFailedNotice); err != nil {
				return err
			}
			break
		}
		if err := p.Send(ctx, line); err != nil {
			return err
		}
	}

	h.Broadcast(ctx, JoinNotice(name))
	return nil
}

// Dispatch handles one inbound frame from an active connection.
func (h *Hub) Dispatch(ctx context.Context, p Peer, name string, f Frame) error {
	switch f.Kind {
	case FrameText:
		if !utf8.ValidString(f.Text) {
			return h.dropFrame(name, f, "invalid utf-8")
		}
		return h.HandleText(ctx, p, name, f.Text)
	case FrameBinary:
		return h.HandleVoice(ctx, p, name, f.Data)
	case FrameClose:
		return ErrClosed
	}
	return h.dropFrame(name, f, "unrecognized frame")
}

func (h *Hub) dropFrame(name string, f Frame, reason string) error {
	h.log.Warn().Str("name", name).Stringer("kind", f.Kind).Msg("⚠️ dropped frame: " + reason)
	return fmt.Errorf("%w: %s frame from %s: %s", errs.ErrProtocol, f.Kind, name, reason)
}

// HandleText formats a chat line, fans it out and echoes it to the sender.
func (h *Hub) HandleText(ctx context.Context, p Peer, name, text string) error {
	body := stripOwnName(strings.TrimSpace(singleLine(text)), name)
	line := singleLine(ChatLine(name, body))

	persistErr := h.fanOut(ctx, p, name, line)
	if err := p.Send(ctx, line); err != nil {
		return err
	}
	if persistErr != nil {
		if err := p.Send(ctx, persistFailedNotice); err != nil {
			return err
		}
	}
	return persistErr
}

// HandleVoice stores the payload, fans out a notice pointing at it and echoes
// the notice to the sender.
func (h *Hub) HandleVoice(ctx context.Context, p Peer, name string, data []byte) error {
	handle, err := h.blobs.Put(ctx, data)
	if err != nil {
		h.log.Error().Err(err).Str("name", name).Msg("❌ voice note store failed")
		if sendErr := p.Send(ctx, storeFailedNotice); sendErr != nil {
			return sendErr
		}
		return err
	}

	line := singleLine(VoiceNotice(name, handle.URL))
	persistErr := h.fanOut(ctx, p, name, line)
	if err := p.Send(ctx, line); err != nil {
		return err
	}
	if persistErr != nil {
		if err := p.Send(ctx, persistFailedNotice); err != nil {
			return err
		}
	}
	return persistErr
}

// Leave deregisters p and tells everyone still online. Safe to call twice.
func (h *Hub) Leave(ctx context.Context, p Peer, name string) {
	if !h.registry.Deregister(p, name) {
		return
	}
	h.log.Info().Str("name", name).Msg("🔴 left")
	h.Broadcast(ctx, LeaveNotice(name))
}

// Broadcast sends text to every registered connection. A failing peer is
// logged and skipped.
func (h *Hub) Broadcast(ctx context.Context, text string) {
	for m := range h.registry.List() {
		if err := m.Peer.Send(ctx, text); err != nil {
			h.log.Warn().Err(err).Str("peer", m.Name).Msg("⚠️ broadcast delivery failed")
		}
	}
}

// fanOut appends line once per distinct conversation and sends it to every
// connection of a different participant. Two connections sharing a name get
// one log entry between them.
func (h *Hub) fanOut(ctx context.Context, sender Peer, name, line string) error {
	logged := make(map[history.Key]struct{})
	var persistErr error
	for m := range h.registry.List() {
		if m.Peer == sender || strings.EqualFold(m.Name, name) {
			continue
		}
		key := history.CanonicalKey(name, m.Name)
		if _, ok := logged[key]; !ok {
			logged[key] = struct{}{}
			if err := h.logs.Append(ctx, key, line); err != nil {
				h.log.Error().Err(err).Str("conversation", string(key)).Msg("❌ log append failed")
				persistErr = errors.Join(persistErr, err)
			}
		}
		if err := m.Peer.Send(ctx, line); err != nil {
			h.log.Warn().Err(err).Str("peer", m.Name).Msg("⚠️ delivery failed")
		}
	}
	return persistErr
}

var lineBreaks = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// singleLine keeps one message as one log entry.
func singleLine(s string) string {
	return lineBreaks.Replace(s)
}

// stripOwnName removes a leading "<name>:" some clients echo locally.
func stripOwnName(msg, name string) string {
	n := len(name)
	if len(msg) > n && msg[n] == ':' && strings.EqualFold(msg[:n], name) {
		return strings.TrimSpace(msg[n+1:])
	}
	return msg
}
