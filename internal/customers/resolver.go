// Package customers links orders to customer records, keyed by the
// identity-provider user id when known and by email for guests.
package customers

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"

	"github.com/milosbg/mbg-admin-backend/pkg/clerk"
	"github.com/milosbg/mbg-admin-backend/pkg/logger"
)

// UserFetcher reads identity-provider profiles.
type UserFetcher interface {
	GetUser(ctx context.Context, userID string) (*clerk.User, error)
}

// Identity is what a checkout or capture knows about the buyer.
type Identity struct {
	ClerkID string
	Email   string
	Name    string
}

func (i Identity) normalized() Identity {
	return Identity{
		ClerkID: strings.TrimSpace(i.ClerkID),
		Email:   strings.ToLower(strings.TrimSpace(i.Email)),
		Name:    strings.TrimSpace(i.Name),
	}
}

type Resolver struct {
	repo  *Repository
	users UserFetcher
	logg  *logger.Logger
}

// NewResolver builds a resolver. users may be nil when no identity provider
// is configured.
func NewResolver(repo *Repository, users UserFetcher, logg *logger.Logger) (*Resolver, error) {
	if repo == nil {
		return nil, errors.New("customers repository required")
	}
	return &Resolver{repo: repo, users: users, logg: logg}, nil
}

// Link upserts the customer for identity and links it to orderID. An
// identity with neither clerk id nor email is skipped.
func (r *Resolver) Link(ctx context.Context, identity Identity, orderID uuid.UUID) error {
	identity = r.enrich(ctx, identity.normalized())

	switch {
	case identity.ClerkID != "":
		customer, _, err := r.repo.UpsertByClerkID(ctx, identity.ClerkID, identity.Email, identity.Name)
		if err != nil {
			return err
		}
		_, err = r.repo.LinkOrder(ctx, customer.ID, orderID)
		return err
	case identity.Email != "":
		customer, _, err := r.repo.UpsertGuest(ctx, identity.Email, identity.Name)
		if err != nil {
			return err
		}
		_, err = r.repo.LinkOrder(ctx, customer.ID, orderID)
		return err
	default:
		if r.logg != nil {
			r.logg.Warn(r.logg.WithOrderID(ctx, orderID.String()), "customers.link.skipped_no_identity")
		}
		return nil
	}
}

// enrich fills a missing name or email from the identity provider. Lookup
// failures leave the identity unchanged.
func (r *Resolver) enrich(ctx context.Context, identity Identity) Identity {
	if r.users == nil || identity.ClerkID == "" || (identity.Name != "" && identity.Email != "") {
		return identity
	}
	user, err := r.users.GetUser(ctx, identity.ClerkID)
	if err != nil {
		if r.logg != nil {
			r.logg.WarnErr(r.logg.WithField(ctx, "clerk_id", identity.ClerkID), "customers.enrich.lookup_failed", err)
		}
		return identity
	}
	if identity.Name == "" {
		identity.Name = user.FullName()
	}
	if identity.Email == "" {
		identity.Email = user.PrimaryEmail()
	}
	return identity
}
