package jobs

import (
	"context"
	"errors"
	"fmt"
	"time"

	"dpc-portal-backend/internal/cpigateway"
	"dpc-portal-backend/internal/domain"
	"dpc-portal-backend/internal/logger"
	"dpc-portal-backend/internal/service"
)

// aoLinkRecord is one row of the AO re-verification batch.
type aoLinkRecord struct {
	LinkID int64
	UserID int64
	OrgID  int64
	PacID  string
	NPI    string
}

// orgRecord is one row of the organization re-verification batch.
type orgRecord struct {
	OrgID int64
	NPI   string
}

// VerifyAos re-verifies approved AO-to-organization links whose last check
// is older than the lookback window, rejecting links (and cascading to the
// user and their organizations where the reason warrants) on failure.
func (jr *JobRunner) VerifyAos() {
	jr.runWithRecovery("VerifyAoJob", func() {
		ctx := context.Background()
		cfg := jr.config.Verification
		cutoff := time.Now().Add(-time.Duration(cfg.AoLookbackHours) * time.Hour)

		links, err := jr.dueAoLinks(ctx, cutoff, cfg.AoMaxRecords)
		if err != nil {
			logger.Error("Failed to select AO links for verification", "error", err)
			return
		}
		logger.Info("Verifying AO links", "count", len(links))

		for _, rec := range links {
			if err := jr.verifyAoLink(ctx, rec); err != nil {
				// Unexpected errors abort the remaining batch; the untouched
				// records are picked up again on the next run.
				logger.Error("Aborting AO verification batch", "link_id", rec.LinkID, "error", err)
				return
			}
		}
	})
}

func (jr *JobRunner) dueAoLinks(ctx context.Context, cutoff time.Time, limit int) ([]aoLinkRecord, error) {
	query := `
		SELECT l.id, l.user_id, l.provider_organization_id, u.pac_id, o.npi
		FROM ao_org_links l
		JOIN users u ON u.id = l.user_id
		JOIN provider_organizations o ON o.id = l.provider_organization_id
		WHERE l.verification_status = 'approved'
		  AND (l.last_checked_at IS NULL OR l.last_checked_at <= $1)
		ORDER BY l.last_checked_at ASC NULLS FIRST
		LIMIT $2
	`
	rows, err := jr.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []aoLinkRecord
	for rows.Next() {
		var rec aoLinkRecord
		if err := rows.Scan(&rec.LinkID, &rec.UserID, &rec.OrgID, &rec.PacID, &rec.NPI); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (jr *JobRunner) verifyAoLink(ctx context.Context, rec aoLinkRecord) error {
	_, err := jr.verifier.CheckAoEligibility(ctx, rec.NPI, domain.IdentifierPacID, rec.PacID)
	if err == nil {
		return jr.stampAoLink(ctx, rec)
	}

	var elig *service.EligibilityError
	if errors.As(err, &elig) {
		// A rejection is a final verdict; last_checked_at advances so the
		// record is not re-examined until the next lookback window.
		return jr.recordAoFailure(ctx, rec, elig.Reason)
	}

	var gwErr *cpigateway.GatewayError
	if errors.As(err, &gwErr) {
		// Transient gateway failure. last_checked_at stays put so the next
		// run retries this record instead of waiting out the window.
		logger.Warn("Skipping AO link on gateway failure",
			"link_id", rec.LinkID, "status", gwErr.StatusCode)
		return nil
	}
	return err
}

func (jr *JobRunner) stampAoLink(ctx context.Context, rec aoLinkRecord) error {
	now := time.Now()
	if _, err := jr.db.ExecContext(ctx,
		`UPDATE ao_org_links SET last_checked_at = $1 WHERE id = $2`, now, rec.LinkID); err != nil {
		return fmt.Errorf("failed to stamp AO link: %w", err)
	}
	if _, err := jr.db.ExecContext(ctx,
		`UPDATE users SET last_checked_at = $1, updated_at = $1 WHERE id = $2`, now, rec.UserID); err != nil {
		return fmt.Errorf("failed to stamp user: %w", err)
	}
	return nil
}

// recordAoFailure rejects the link and cascades per reason, atomically:
// ao_med_sanctions taints the user and every organization they hold an
// approved link to; no_approved_enrollment taints only the organization;
// anything else taints only the link itself.
func (jr *JobRunner) recordAoFailure(ctx context.Context, rec aoLinkRecord, reason domain.VerificationReason) error {
	tx, err := jr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cascade transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	switch reason {
	case domain.ReasonAoMedSanctions:
		// Organizations first: the subquery must still see this link as
		// approved to include its organization.
		if _, err := tx.ExecContext(ctx, `
			UPDATE provider_organizations
			SET verification_status = 'rejected', verification_reason = $1, updated_at = $2
			WHERE id IN (
				SELECT provider_organization_id FROM ao_org_links
				WHERE user_id = $3 AND verification_status = 'approved'
			)`, reason, now, rec.UserID); err != nil {
			return fmt.Errorf("failed to reject user's organizations: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE ao_org_links
			SET verification_status = 'rejected', verification_reason = $1, last_checked_at = $2
			WHERE user_id = $3 AND verification_status = 'approved'`,
			reason, now, rec.UserID); err != nil {
			return fmt.Errorf("failed to reject user's links: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE users
			SET verification_status = 'rejected', verification_reason = $1, last_checked_at = $2, updated_at = $2
			WHERE id = $3`, reason, now, rec.UserID); err != nil {
			return fmt.Errorf("failed to reject user: %w", err)
		}
	case domain.ReasonNoApprovedEnrollment:
		if _, err := tx.ExecContext(ctx, `
			UPDATE ao_org_links
			SET verification_status = 'rejected', verification_reason = $1, last_checked_at = $2
			WHERE id = $3`, reason, now, rec.LinkID); err != nil {
			return fmt.Errorf("failed to reject AO link: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `
			UPDATE provider_organizations
			SET verification_status = 'rejected', verification_reason = $1, updated_at = $2
			WHERE id = $3`, reason, now, rec.OrgID); err != nil {
			return fmt.Errorf("failed to reject organization: %w", err)
		}
	default:
		if _, err := tx.ExecContext(ctx, `
			UPDATE ao_org_links
			SET verification_status = 'rejected', verification_reason = $1, last_checked_at = $2
			WHERE id = $3`, reason, now, rec.LinkID); err != nil {
			return fmt.Errorf("failed to reject AO link: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cascade: %w", err)
	}
	logger.Info("AO link failed re-verification",
		"link_id", rec.LinkID, "user_id", rec.UserID, "reason", reason)
	return nil
}

// VerifyProviderOrganizations re-verifies approved organizations, draining
// the backlog in successive batches until a short batch signals it is done.
func (jr *JobRunner) VerifyProviderOrganizations() {
	jr.runWithRecovery("VerifyProviderOrganizationJob", func() {
		ctx := context.Background()
		cfg := jr.config.Verification
		cutoff := time.Now().Add(-time.Duration(cfg.OrgLookbackHours) * time.Hour)

		for {
			orgs, err := jr.dueOrganizations(ctx, cutoff, cfg.OrgMaxRecords)
			if err != nil {
				logger.Error("Failed to select organizations for verification", "error", err)
				return
			}
			logger.Info("Verifying provider organizations", "count", len(orgs))

			advanced := 0
			for _, rec := range orgs {
				progressed, err := jr.verifyOrganization(ctx, rec)
				if err != nil {
					logger.Error("Aborting organization verification batch", "organization_id", rec.OrgID, "error", err)
					return
				}
				if progressed {
					advanced++
				}
			}
			// Stop when the backlog is drained, or when nothing moved (every
			// record skipped on gateway failures) to avoid spinning.
			if len(orgs) < cfg.OrgMaxRecords || advanced == 0 {
				return
			}
		}
	})
}

func (jr *JobRunner) dueOrganizations(ctx context.Context, cutoff time.Time, limit int) ([]orgRecord, error) {
	query := `
		SELECT id, npi FROM provider_organizations
		WHERE verification_status = 'approved'
		  AND (last_checked_at IS NULL OR last_checked_at <= $1)
		ORDER BY last_checked_at ASC NULLS FIRST
		LIMIT $2
	`
	rows, err := jr.db.QueryContext(ctx, query, cutoff, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []orgRecord
	for rows.Next() {
		var rec orgRecord
		if err := rows.Scan(&rec.OrgID, &rec.NPI); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func (jr *JobRunner) verifyOrganization(ctx context.Context, rec orgRecord) (bool, error) {
	err := jr.checkOrganization(ctx, rec.NPI)
	if err == nil {
		if _, err := jr.db.ExecContext(ctx,
			`UPDATE provider_organizations SET last_checked_at = $1, updated_at = $1 WHERE id = $2`,
			time.Now(), rec.OrgID); err != nil {
			return false, fmt.Errorf("failed to stamp organization: %w", err)
		}
		return true, nil
	}

	var elig *service.EligibilityError
	if errors.As(err, &elig) {
		if err := jr.recordOrgFailure(ctx, rec, elig.Reason); err != nil {
			return false, err
		}
		return true, nil
	}

	var gwErr *cpigateway.GatewayError
	if errors.As(err, &gwErr) {
		logger.Warn("Skipping organization on gateway failure",
			"organization_id", rec.OrgID, "status", gwErr.StatusCode)
		return false, nil
	}
	return false, err
}

func (jr *JobRunner) checkOrganization(ctx context.Context, npi string) error {
	if err := jr.verifier.CheckOrgMedSanctions(ctx, npi); err != nil {
		return err
	}
	_, err := jr.verifier.GetApprovedEnrollments(ctx, npi)
	return err
}

// recordOrgFailure rejects the organization and every approved AO link under
// it, in one transaction.
func (jr *JobRunner) recordOrgFailure(ctx context.Context, rec orgRecord, reason domain.VerificationReason) error {
	tx, err := jr.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin cascade transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	if _, err := tx.ExecContext(ctx, `
		UPDATE provider_organizations
		SET verification_status = 'rejected', verification_reason = $1, last_checked_at = $2, updated_at = $2
		WHERE id = $3`, reason, now, rec.OrgID); err != nil {
		return fmt.Errorf("failed to reject organization: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `
		UPDATE ao_org_links
		SET verification_status = 'rejected', verification_reason = $1, last_checked_at = $2
		WHERE provider_organization_id = $3 AND verification_status = 'approved'`,
		reason, now, rec.OrgID); err != nil {
		return fmt.Errorf("failed to reject organization links: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cascade: %w", err)
	}
	logger.Info("Organization failed re-verification", "organization_id", rec.OrgID, "reason", reason)
	return nil
}
