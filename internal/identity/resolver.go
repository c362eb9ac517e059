package identity

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net"

	"github.com/lumastream/chat-gateway/internal/account"
	"github.com/lumastream/chat-gateway/internal/auth"
	"github.com/lumastream/chat-gateway/internal/domain"
	"github.com/lumastream/chat-gateway/pkg/log"
)

// Resolver derives a stable participant identity from an optional bearer
// credential, falling back to a deterministic anonymous identity derived from
// the connection's network address.
type Resolver struct {
	verifier  auth.Verifier
	directory account.Directory
}

func NewResolver(verifier auth.Verifier, directory account.Directory) *Resolver {
	return &Resolver{
		verifier:  verifier,
		directory: directory,
	}
}

// Resolve always produces a participant. Credential and lookup failures are
// recovered locally by the anonymous fallback, never surfaced to the caller.
func (r *Resolver) Resolve(ctx context.Context, bearer, remoteAddr string) *domain.Participant {
	if bearer != "" {
		if p := r.resolveVerified(ctx, bearer); p != nil {
			return p
		}
	}
	return &domain.Participant{
		IdentityID:    AnonymousIdentity(remoteAddr),
		Authenticated: false,
	}
}

func (r *Resolver) resolveVerified(ctx context.Context, bearer string) *domain.Participant {
	l := log.Ctx(ctx)

	claims, err := r.verifier.Verify(ctx, bearer)
	if err != nil {
		l.Debug().Err(err).Msg("credential verification failed, using anonymous identity")
		return nil
	}

	acct, err := r.directory.Lookup(ctx, claims.UserID)
	if err != nil {
		l.Debug().Err(err).Str(log.FieldIdentityID, claims.UserID).Msg("account lookup failed, using anonymous identity")
		return nil
	}

	return &domain.Participant{
		IdentityID:    acct.ID,
		DisplayName:   acct.Nickname,
		Authenticated: true,
	}
}

// AnonymousIdentity hashes the host portion of a network address into a
// deterministic identity, so reconnects from the same address collapse to one
// presence entry. Presence counting only; not an authentication mechanism.
func AnonymousIdentity(remoteAddr string) string {
	host, _, err := net.SplitHostPort(remoteAddr)
	if err != nil {
		host = remoteAddr
	}
	sum := sha256.Sum256([]byte(host))
	return hex.EncodeToString(sum[:])
}
