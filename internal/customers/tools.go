package customers

import (
	"context"

	"go.uber.org/multierr"
)

// Report counts what a maintenance pass touched.
type Report struct {
	Unique   int `json:"unique"`
	Created  int `json:"created"`
	Linked   int `json:"linked"`
	Checked  int `json:"checked"`
	Enriched int `json:"enriched"`
	Updated  int `json:"updated"`
	Failed   int `json:"failed"`
}

func (r Report) merge(other Report) Report {
	return Report{
		Unique:   r.Unique + other.Unique,
		Created:  r.Created + other.Created,
		Linked:   r.Linked + other.Linked,
		Checked:  r.Checked + other.Checked,
		Enriched: r.Enriched + other.Enriched,
		Updated:  r.Updated + other.Updated,
		Failed:   r.Failed + other.Failed,
	}
}

// Backfill makes sure every order placed under a clerk id is linked to that
// customer. Row failures are counted and logged; the pass continues.
func (r *Resolver) Backfill(ctx context.Context) (Report, error) {
	var report Report
	rows, err := r.repo.OrdersWithClerkID(ctx)
	if err != nil {
		return report, err
	}

	seen := map[string]struct{}{}
	var errs error
	for _, row := range rows {
		seen[row.ClerkID] = struct{}{}
		identity := Identity{ClerkID: row.ClerkID, Email: row.Contact.Email, Name: row.Contact.Name}.normalized()
		customer, created, err := r.repo.UpsertByClerkID(ctx, identity.ClerkID, identity.Email, identity.Name)
		if err != nil {
			report.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		if created {
			report.Created++
		}
		linked, err := r.repo.LinkOrder(ctx, customer.ID, row.OrderID)
		if err != nil {
			report.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		if linked {
			report.Linked++
		}
	}
	report.Unique = len(seen)
	r.logFailures(ctx, "customers.backfill.row_failures", errs)
	return report, nil
}

// Enrich fills missing names and emails of clerk-keyed customers from the
// identity provider.
func (r *Resolver) Enrich(ctx context.Context) (Report, error) {
	var report Report
	if r.users == nil {
		return report, nil
	}
	rows, err := r.repo.ListMissingProfile(ctx)
	if err != nil {
		return report, err
	}

	var errs error
	for _, customer := range rows {
		report.Checked++
		user, err := r.users.GetUser(ctx, *customer.ClerkID)
		if err != nil {
			report.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		var email, name string
		if customer.Email == "" {
			email = user.PrimaryEmail()
		}
		if customer.Name == "" {
			name = user.FullName()
		}
		if email == "" && name == "" {
			continue
		}
		report.Enriched++
		updated, err := r.repo.UpdateProfile(ctx, customer.ID, email, name)
		if err != nil {
			report.Failed++
			errs = multierr.Append(errs, err)
			continue
		}
		if updated {
			report.Updated++
		}
	}
	r.logFailures(ctx, "customers.enrich.row_failures", errs)
	return report, nil
}

// Repair runs Backfill then Enrich.
func (r *Resolver) Repair(ctx context.Context) (Report, error) {
	backfill, err := r.Backfill(ctx)
	if err != nil {
		return backfill, err
	}
	enrich, err := r.Enrich(ctx)
	if err != nil {
		return backfill, err
	}
	return backfill.merge(enrich), nil
}

func (r *Resolver) logFailures(ctx context.Context, msg string, errs error) {
	if errs == nil || r.logg == nil {
		return
	}
	ctx = r.logg.WithField(ctx, "failures", len(multierr.Errors(errs)))
	r.logg.WarnErr(ctx, msg, errs)
}
