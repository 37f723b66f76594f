package api

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/yudstrz/maxy-rag-sales-mcp-notebooklm/internal/auth"
)

// recoveryTier identifies one rung of the credential recovery ladder.
type recoveryTier int

const (
	// tierTokenRefresh re-scrapes page tokens with the cookies already held.
	tierTokenRefresh recoveryTier = iota + 1
	// tierCredentialReload replaces the cookies themselves, from the cache
	// file first and the relogin collaborator second.
	tierCredentialReload
)

var recoveryTiers = []recoveryTier{tierTokenRefresh, tierCredentialReload}

// withAuthRecovery runs attempt and, on an authentication failure, climbs
// the recovery ladder one tier at a time, retrying attempt after each tier
// that succeeds. Each tier runs at most once per call. When the ladder is
// exhausted the caller gets auth.ErrCredentialsExpired.
func (c *Client) withAuthRecovery(ctx context.Context, attempt func() error) error {
	err := attempt()
	if err == nil || !isAuthFailure(err) {
		return err
	}

	for _, tier := range recoveryTiers {
		log.Warnf("authentication failure (%v), attempting recovery tier %d", err, tier)
		if !c.runRecoveryTier(ctx, tier) {
			continue
		}
		// Pooled connections were established under the old credentials.
		c.invalidateHTTPClient()

		err = attempt()
		if err == nil || !isAuthFailure(err) {
			return err
		}
	}
	return fmt.Errorf("recovery exhausted: %w", auth.ErrCredentialsExpired)
}

// runRecoveryTier reports whether the tier produced credentials worth
// retrying with.
func (c *Client) runRecoveryTier(ctx context.Context, tier recoveryTier) bool {
	switch tier {
	case tierTokenRefresh:
		if err := c.store.Refresh(ctx); err != nil {
			log.Warnf("token refresh failed: %v", err)
			return false
		}
		return true

	case tierCredentialReload:
		ok, err := c.store.LoadFromCache()
		if err != nil {
			log.Warnf("credential cache reload failed: %v", err)
		}
		if ok {
			c.store.ClearDerived()
			// A refresh doubles as proof the reloaded cookies still work.
			if err := c.store.Refresh(ctx); err == nil {
				return true
			}
			log.Warn("cached credentials are also expired")
		}
		return c.runRelogin(ctx)
	}
	return false
}

// runRelogin hands control to the configured relogin collaborator, usually
// a headless browser session, and installs whatever bundle it produces.
func (c *Client) runRelogin(ctx context.Context) bool {
	if c.relogin == nil {
		log.Warn("no relogin collaborator configured")
		return false
	}
	bundle, err := c.relogin(ctx)
	if err != nil {
		log.Warnf("relogin failed: %v", err)
		return false
	}
	if err := bundle.Validate(); err != nil {
		log.Warnf("relogin produced an invalid bundle: %v", err)
		return false
	}
	c.store.SetBundle(bundle)
	if err := c.store.SaveToCache(); err != nil {
		log.Warnf("saving refreshed credentials failed: %v", err)
	}
	if c.store.CSRFToken() == "" {
		if err := c.store.Refresh(ctx); err != nil {
			log.Warnf("token refresh after relogin failed: %v", err)
			return false
		}
	}
	return true
}
