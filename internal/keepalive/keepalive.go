// Package keepalive refreshes the stored credentials shortly before the access token expires,
// so that long running sessions rarely hit an expired token.
package keepalive

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/notesphere/notes-gateway/internal/config"
	"github.com/notesphere/notes-gateway/internal/models"
)

const DefaultExpiryMargin time.Duration = 3 * time.Minute

// Refresher is the part of the gateway client used by the keepalive job.
type Refresher interface {
	Credentials(ctx context.Context) (models.CredentialPair, error)
	Refresh(ctx context.Context) (models.CredentialPair, error)
}

type Keepalive struct {
	refresher    Refresher
	expiryMargin time.Duration
}

type KeepaliveOption func(*Keepalive) error

func WithRefresher(refresher Refresher) KeepaliveOption {
	return func(k *Keepalive) error {
		k.refresher = refresher
		return nil
	}
}

func WithExpiryMargin(margin time.Duration) KeepaliveOption {
	return func(k *Keepalive) error {
		if margin <= 0 {
			return fmt.Errorf("the expiry margin has to be positive, got %s", margin)
		}
		k.expiryMargin = margin
		return nil
	}
}

func WithConfig(keepaliveConfig config.KeepaliveConfig) KeepaliveOption {
	return func(k *Keepalive) error {
		err := keepaliveConfig.Validate()
		if err != nil {
			return err
		}
		k.expiryMargin = keepaliveConfig.ExpiryMargin()
		return nil
	}
}

func NewKeepalive(options ...KeepaliveOption) (*Keepalive, error) {
	k := &Keepalive{expiryMargin: DefaultExpiryMargin}
	for _, opt := range options {
		err := opt(k)
		if err != nil {
			return &Keepalive{}, err
		}
	}
	if k.refresher == nil {
		return &Keepalive{}, fmt.Errorf("the keepalive job needs a refresher")
	}
	return k, nil
}

// GetScheduler returns a scheduler that checks the credentials every minute. The caller starts it.
func (k *Keepalive) GetScheduler() (*gocron.Scheduler, error) {
	s := gocron.NewScheduler(time.UTC)

	refreshTask := func(job gocron.Job) {
		_, err := k.RefreshIfExpiring(job.Context())
		if err != nil {
			slog.Error("KEEPALIVE", "message", "RefreshIfExpiring failed", "error", err)
		}
	}

	_, err := s.Every(1).
		Minutes().
		SingletonMode().
		DoWithJobDetails(refreshTask)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// RefreshIfExpiring refreshes the pair when its access token expires within the margin.
// It reports whether a refresh was made. Tokens without a readable expiry are left alone.
func (k *Keepalive) RefreshIfExpiring(ctx context.Context) (bool, error) {
	pair, err := k.refresher.Credentials(ctx)
	if err != nil {
		return false, err
	}
	if pair.Empty() || pair.RefreshToken == "" {
		slog.Debug("KEEPALIVE", "message", "no credentials stored, skipping")
		return false, nil
	}
	if !pair.ExpiresWithin(k.expiryMargin) {
		return false, nil
	}
	_, err = k.refresher.Refresh(ctx)
	if err != nil {
		return false, err
	}
	slog.Info("KEEPALIVE", "message", "the expiring access token was refreshed")
	return true, nil
}
