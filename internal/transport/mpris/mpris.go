// Package mpris drives a local MPRIS-capable media player over D-Bus.
package mpris

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/godbus/dbus/v5"

	"github.com/fablesound/fable-server/internal/playback"
)

const (
	playerInterface = "org.mpris.MediaPlayer2.Player"
	objectPath      = dbus.ObjectPath("/org/mpris/MediaPlayer2")
	propsInterface  = "org.freedesktop.DBus.Properties"

	// Skip increments. MPRIS only offers relative Seek, so the increment is
	// this transport's to define: short back, long forward, the usual
	// audiobook arrangement.
	skipBackUs    = int64(-10_000_000)
	skipForwardUs = int64(30_000_000)
)

// Transport controls one MPRIS player identified by its well-known bus name.
type Transport struct {
	conn    *dbus.Conn
	player  dbus.BusObject
	logger  *slog.Logger
	busName string
}

var _ playback.Transport = (*Transport)(nil)

// New connects to the session bus and binds to the player at busName.
func New(busName string, logger *slog.Logger) (*Transport, error) {
	conn, err := dbus.SessionBus()
	if err != nil {
		return nil, fmt.Errorf("connect to session bus: %w", err)
	}
	return &Transport{
		conn:    conn,
		player:  conn.Object(busName, objectPath),
		logger:  logger,
		busName: busName,
	}, nil
}

// Load hands the track URL to the player. MPRIS has no separate prepare
// step; OpenUri loads and may start playback, so Load pauses right after.
func (t *Transport) Load(ctx context.Context, track playback.Track) error {
	if err := t.call(ctx, "OpenUri", track.URL); err != nil {
		return fmt.Errorf("open uri: %w", err)
	}
	if err := t.call(ctx, "Pause"); err != nil {
		t.logger.Debug("pause after load failed", "error", err)
	}
	return nil
}

func (t *Transport) Play(ctx context.Context) error {
	return t.call(ctx, "Play")
}

func (t *Transport) Pause(ctx context.Context) error {
	return t.call(ctx, "Pause")
}

// SeekTo sets an absolute position via SetPosition, which needs the current
// mpris:trackid.
func (t *Transport) SeekTo(ctx context.Context, positionMs int64) error {
	trackID, err := t.trackID(ctx)
	if err != nil {
		return err
	}
	return t.call(ctx, "SetPosition", trackID, positionMs*1000)
}

func (t *Transport) SkipBack(ctx context.Context) error {
	return t.call(ctx, "Seek", skipBackUs)
}

func (t *Transport) SkipForward(ctx context.Context) error {
	return t.call(ctx, "Seek", skipForwardUs)
}

func (t *Transport) SetSpeed(ctx context.Context, speed float64) error {
	return t.setProperty(ctx, "Rate", dbus.MakeVariant(speed))
}

func (t *Transport) SetRepeat(ctx context.Context, repeat playback.RepeatMode) error {
	status := "None"
	switch repeat {
	case playback.RepeatAll:
		status = "Playlist"
	case playback.RepeatOne:
		status = "Track"
	}
	return t.setProperty(ctx, "LoopStatus", dbus.MakeVariant(status))
}

func (t *Transport) SetShuffle(ctx context.Context, enabled bool) error {
	return t.setProperty(ctx, "Shuffle", dbus.MakeVariant(enabled))
}

// Status reads PlaybackStatus, Position, and the track length out of the
// player's properties.
func (t *Transport) Status(ctx context.Context) (playback.Status, error) {
	var props map[string]dbus.Variant
	call := t.player.CallWithContext(ctx, propsInterface+".GetAll", 0, playerInterface)
	if call.Err != nil {
		return playback.Status{}, fmt.Errorf("get player properties: %w", call.Err)
	}
	if err := call.Store(&props); err != nil {
		return playback.Status{}, fmt.Errorf("decode player properties: %w", err)
	}

	status := playback.Status{State: playback.StateIdle}
	if v, ok := props["PlaybackStatus"]; ok {
		switch v.Value() {
		case "Playing":
			status.State = playback.StatePlaying
		case "Paused":
			status.State = playback.StatePaused
		case "Stopped":
			status.State = playback.StateIdle
		}
	}
	if v, ok := props["Position"]; ok {
		if us, ok := v.Value().(int64); ok {
			status.PositionMs = us / 1000
		}
	}
	if v, ok := props["Metadata"]; ok {
		if meta, ok := v.Value().(map[string]dbus.Variant); ok {
			if length, ok := meta["mpris:length"]; ok {
				if us, ok := length.Value().(int64); ok {
					status.DurationMs = us / 1000
				}
			}
		}
	}
	return status, nil
}

func (t *Transport) Stop(ctx context.Context) error {
	return t.call(ctx, "Stop")
}

func (t *Transport) Close() error {
	return t.conn.Close()
}

func (t *Transport) call(ctx context.Context, method string, args ...any) error {
	call := t.player.CallWithContext(ctx, playerInterface+"."+method, 0, args...)
	if call.Err != nil {
		return fmt.Errorf("%s %s: %w", t.busName, method, call.Err)
	}
	return nil
}

func (t *Transport) setProperty(ctx context.Context, prop string, value dbus.Variant) error {
	call := t.player.CallWithContext(ctx, propsInterface+".Set", 0, playerInterface, prop, value)
	if call.Err != nil {
		return fmt.Errorf("%s set %s: %w", t.busName, prop, call.Err)
	}
	return nil
}

func (t *Transport) trackID(ctx context.Context) (dbus.ObjectPath, error) {
	var variant dbus.Variant
	call := t.player.CallWithContext(ctx, propsInterface+".Get", 0, playerInterface, "Metadata")
	if call.Err != nil {
		return "", fmt.Errorf("%s get metadata: %w", t.busName, call.Err)
	}
	if err := call.Store(&variant); err != nil {
		return "", fmt.Errorf("%s decode metadata: %w", t.busName, err)
	}
	meta, ok := variant.Value().(map[string]dbus.Variant)
	if !ok {
		return "", fmt.Errorf("%s: unexpected metadata shape", t.busName)
	}
	id, ok := meta["mpris:trackid"].Value().(dbus.ObjectPath)
	if !ok {
		return "", fmt.Errorf("%s: metadata has no track id", t.busName)
	}
	return id, nil
}
