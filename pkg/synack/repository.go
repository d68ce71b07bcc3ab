package synack

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/aringo/synacksync/internal/utils"
	"github.com/aringo/synacksync/pkg/sync"
	log "github.com/sirupsen/logrus"
)

// Repository persists the last-synchronized state of every record, one table
// per entity kind, keyed by the upstream id. It implements sync.Store.
type Repository struct {
	db    *sql.DB
	clock utils.Clock
}

func NewRepository(db *sql.DB, clock utils.Clock) *Repository {
	return &Repository{db: db, clock: clock}
}

var tables = map[sync.EntityKind]string{
	sync.KindTask:              "tasks",
	sync.KindTarget:            "targets",
	sync.KindPatchVerification: "patch_verifications",
}

// List returns the cached records of one kind that are still relevant:
// entries whose deadline, start, or expiry has passed age out of the
// reconciliation set without calendar deletes.
func (r *Repository) List(ctx context.Context, kind sync.EntityKind) ([]sync.CacheRecord, error) {
	switch kind {
	case sync.KindTask:
		return r.listTasks(ctx)
	case sync.KindTarget:
		return r.listTargets(ctx)
	case sync.KindPatchVerification:
		return r.listPatchVerifications(ctx)
	default:
		return nil, fmt.Errorf("unknown entity kind: %s", kind)
	}
}

func (r *Repository) listTasks(ctx context.Context) ([]sync.CacheRecord, error) {
	query := `SELECT id, title, description, listing_codename, time_given, claimed_on, max_completion_time,
					payout_amount, payout_currency, event_id
				FROM tasks WHERE max_completion_time > ?`
	rows, err := r.db.QueryContext(ctx, query, r.clock.Now().Unix())
	if err != nil {
		err := fmt.Errorf("could not query tasks: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var records []sync.CacheRecord
	for rows.Next() {
		var task Task
		var timeGiven, claimedOn, maxCompletion int64
		var eventID sql.NullString
		if err := rows.Scan(
			&task.TaskID,
			&task.Title,
			&task.Description,
			&task.ListingCodename,
			&timeGiven,
			&claimedOn,
			&maxCompletion,
			&task.PayoutAmount,
			&task.PayoutCurrency,
			&eventID,
		); err != nil {
			err := fmt.Errorf("could not scan task: %w", err)
			log.Error(err)
			return nil, err
		}
		task.TimeGiven = time.Duration(timeGiven) * time.Second
		task.ClaimedOn = time.Unix(claimedOn, 0).UTC()
		task.MaxCompletionTime = time.Unix(maxCompletion, 0).UTC()
		records = append(records, sync.CacheRecord{Record: task, EventID: eventID.String})
	}
	return records, rows.Err()
}

func (r *Repository) listTargets(ctx context.Context) ([]sync.CacheRecord, error) {
	query := `SELECT id, category, codename, average_payout, is_active, start, discovery, vuln_accepted,
					dynamic_payment_percentage, event_id
				FROM targets WHERE start > ?`
	rows, err := r.db.QueryContext(ctx, query, r.clock.Now().Unix())
	if err != nil {
		err := fmt.Errorf("could not query targets: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var records []sync.CacheRecord
	for rows.Next() {
		var target Target
		var start int64
		var eventID sql.NullString
		if err := rows.Scan(
			&target.Slug,
			&target.Category,
			&target.Codename,
			&target.AveragePayout,
			&target.IsActive,
			&start,
			&target.Discovery,
			&target.VulnAccepted,
			&target.DynamicPaymentPercentage,
			&eventID,
		); err != nil {
			err := fmt.Errorf("could not scan target: %w", err)
			log.Error(err)
			return nil, err
		}
		target.Start = time.Unix(start, 0).UTC()
		records = append(records, sync.CacheRecord{Record: target, EventID: eventID.String})
	}
	return records, rows.Err()
}

func (r *Repository) listPatchVerifications(ctx context.Context) ([]sync.CacheRecord, error) {
	query := `SELECT id, message, expires, vuln_id, vuln_title, event_id
				FROM patch_verifications WHERE expires > ?`
	rows, err := r.db.QueryContext(ctx, query, r.clock.Now().Unix())
	if err != nil {
		err := fmt.Errorf("could not query patch verifications: %w", err)
		log.Error(err)
		return nil, err
	}
	defer rows.Close()

	var records []sync.CacheRecord
	for rows.Next() {
		var verification PatchVerification
		var expires int64
		var eventID sql.NullString
		if err := rows.Scan(
			&verification.PatchID,
			&verification.Message,
			&expires,
			&verification.VulnID,
			&verification.VulnTitle,
			&eventID,
		); err != nil {
			err := fmt.Errorf("could not scan patch verification: %w", err)
			log.Error(err)
			return nil, err
		}
		verification.Expires = time.Unix(expires, 0).UTC()
		records = append(records, sync.CacheRecord{Record: verification, EventID: eventID.String})
	}
	return records, rows.Err()
}

// Upsert is a full replace keyed by id.
func (r *Repository) Upsert(ctx context.Context, record sync.CacheRecord) error {
	var eventID interface{}
	if record.EventID != "" {
		eventID = record.EventID
	}

	var query string
	var args []interface{}
	switch rec := record.Record.(type) {
	case Task:
		query = `INSERT OR REPLACE INTO tasks (
					id, title, description, listing_codename, time_given, claimed_on, max_completion_time,
					payout_amount, payout_currency, event_id
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{
			rec.TaskID, rec.Title, rec.Description, rec.ListingCodename,
			int64(rec.TimeGiven.Seconds()), rec.ClaimedOn.Unix(), rec.MaxCompletionTime.Unix(),
			rec.PayoutAmount, rec.PayoutCurrency, eventID,
		}
	case Target:
		query = `INSERT OR REPLACE INTO targets (
					id, category, codename, average_payout, is_active, start, discovery, vuln_accepted,
					dynamic_payment_percentage, event_id
				) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
		args = []interface{}{
			rec.Slug, rec.Category, rec.Codename, rec.AveragePayout, rec.IsActive,
			rec.Start.Unix(), rec.Discovery, rec.VulnAccepted, rec.DynamicPaymentPercentage, eventID,
		}
	case PatchVerification:
		query = `INSERT OR REPLACE INTO patch_verifications (
					id, message, expires, vuln_id, vuln_title, event_id
				) VALUES (?, ?, ?, ?, ?, ?)`
		args = []interface{}{
			rec.PatchID, rec.Message, rec.Expires.Unix(), rec.VulnID, rec.VulnTitle, eventID,
		}
	default:
		return fmt.Errorf("unknown record type %T", record.Record)
	}

	stmt, err := r.db.PrepareContext(ctx, query)
	if err != nil {
		err := fmt.Errorf("could not prepare query: %w", err)
		log.Error(err)
		return err
	}
	defer stmt.Close()

	if _, err := stmt.ExecContext(ctx, args...); err != nil {
		err := fmt.Errorf("could not execute query: %w", err)
		log.Error(err)
		return err
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, kind sync.EntityKind, id string) error {
	table, ok := tables[kind]
	if !ok {
		return fmt.Errorf("unknown entity kind: %s", kind)
	}
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id = ?", table), id); err != nil {
		err := fmt.Errorf("could not delete %s %s: %w", kind, id, err)
		log.Error(err)
		return err
	}
	return nil
}
