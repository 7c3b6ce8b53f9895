package alert

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"

	"github.com/harun/thakir/internal/config"
	"github.com/rs/zerolog/log"
)

// knownPlayers are tried in order when no player is configured
var knownPlayers = []string{"paplay", "pw-play", "aplay", "afplay"}

// SoundChannel plays an audible cue. Playback runs detached; the channel
// returns as soon as the player has started.
type SoundChannel struct {
	player string
	file   string
	bell   io.Writer

	lookPath func(string) (string, error)
	start    func(name string, args ...string) error
}

// NewSoundChannel creates a sound channel from cfg. With no playable file the
// terminal bell is rung on stderr.
func NewSoundChannel(cfg config.SoundConfig) *SoundChannel {
	return &SoundChannel{
		player:   cfg.Player,
		file:     cfg.File,
		bell:     os.Stderr,
		lookPath: exec.LookPath,
		start:    startDetached,
	}
}

// Name returns the channel name
func (c *SoundChannel) Name() string {
	return "sound"
}

// Deliver plays the sound
func (c *SoundChannel) Deliver(ctx context.Context, a Alert) error {
	if c.file == "" {
		return c.ring()
	}

	player := c.resolvePlayer()
	if player == "" {
		return c.ring()
	}

	if err := c.start(player, c.file); err != nil {
		return fmt.Errorf("failed to start %s: %w", player, err)
	}
	return nil
}

func (c *SoundChannel) resolvePlayer() string {
	if c.player != "" {
		if _, err := c.lookPath(c.player); err != nil {
			return ""
		}
		return c.player
	}
	for _, p := range knownPlayers {
		if _, err := c.lookPath(p); err == nil {
			return p
		}
	}
	return ""
}

func (c *SoundChannel) ring() error {
	if c.bell == nil {
		return nil
	}
	_, err := io.WriteString(c.bell, "\a")
	return err
}

func startDetached(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	if err := cmd.Start(); err != nil {
		return err
	}
	go func() {
		if err := cmd.Wait(); err != nil {
			log.Debug().Err(err).Str("player", name).Msg("Sound player exited with error")
		}
	}()
	return nil
}
