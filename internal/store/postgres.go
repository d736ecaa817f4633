package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"

	"evacnav/internal/model"
)

type Postgres struct {
	db *sql.DB
}

func NewPostgres(dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// MigrateDir applies every .sql file under dir in name order.
func (p *Postgres) MigrateDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	names := []string{}
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), ".sql") {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return err
		}
		if _, err := p.db.Exec(string(data)); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
	}
	return nil
}

func (p *Postgres) SavePlan(ctx context.Context, plan model.Plan) error {
	req, err := json.Marshal(plan.Request)
	if err != nil {
		return err
	}
	routes, err := json.Marshal(plan.Routes)
	if err != nil {
		return err
	}
	metrics, err := json.Marshal(plan.Metrics)
	if err != nil {
		return err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO plans (id, region, request, routes, metrics, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		ON CONFLICT (id) DO UPDATE SET routes=EXCLUDED.routes, metrics=EXCLUDED.metrics`,
		plan.ID, plan.Region, req, routes, metrics, plan.CreatedAt)
	return err
}

func (p *Postgres) GetPlan(ctx context.Context, id string) (model.Plan, error) {
	var plan model.Plan
	var req, routes, metrics []byte
	err := p.db.QueryRowContext(ctx, `
		SELECT id, region, request, routes, metrics, created_at FROM plans WHERE id=$1`, id).
		Scan(&plan.ID, &plan.Region, &req, &routes, &metrics, &plan.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Plan{}, ErrNotFound
	}
	if err != nil {
		return model.Plan{}, err
	}
	if err := json.Unmarshal(req, &plan.Request); err != nil {
		return model.Plan{}, err
	}
	if err := json.Unmarshal(routes, &plan.Routes); err != nil {
		return model.Plan{}, err
	}
	if err := json.Unmarshal(metrics, &plan.Metrics); err != nil {
		return model.Plan{}, err
	}
	return plan, nil
}

func (p *Postgres) ListPlans(ctx context.Context, region, cursor string, limit int) ([]model.Plan, string, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, region, request, routes, metrics, created_at FROM plans`
	args := []any{}
	where := ""
	if region != "" {
		args = append(args, region)
		where = ` WHERE region=$1`
	}
	if cursor != "" {
		args = append(args, cursor)
		if where == "" {
			where = ` WHERE id > $1`
		} else {
			where += ` AND id > $2`
		}
	}
	args = append(args, limit)
	q += where + ` ORDER BY id LIMIT $` + strconv.Itoa(len(args))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.Plan{}
	var next string
	for rows.Next() {
		var plan model.Plan
		var req, routes, metrics []byte
		if err := rows.Scan(&plan.ID, &plan.Region, &req, &routes, &metrics, &plan.CreatedAt); err != nil {
			return nil, "", err
		}
		_ = json.Unmarshal(req, &plan.Request)
		_ = json.Unmarshal(routes, &plan.Routes)
		_ = json.Unmarshal(metrics, &plan.Metrics)
		out = append(out, plan)
		next = plan.ID
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, rows.Err()
}

func (p *Postgres) CreateSubscription(ctx context.Context, sub model.AlertSubscription) (model.AlertSubscription, error) {
	if sub.ID == "" {
		sub.ID = uuid.New().String()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	sub.Active = true
	events, err := json.Marshal(sub.Events)
	if err != nil {
		return model.AlertSubscription{}, err
	}
	_, err = p.db.ExecContext(ctx, `
		INSERT INTO alert_subscriptions (id, url, secret, events, active, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		sub.ID, sub.URL, sub.Secret, events, sub.Active, sub.CreatedAt)
	if err != nil {
		return model.AlertSubscription{}, err
	}
	return sub, nil
}

func (p *Postgres) ListSubscriptions(ctx context.Context, cursor string, limit int) ([]model.AlertSubscription, string, error) {
	if limit <= 0 {
		limit = 50
	}
	q := `SELECT id, url, secret, events, active, created_at FROM alert_subscriptions`
	args := []any{}
	if cursor != "" {
		args = append(args, cursor)
		q += ` WHERE id > $1`
	}
	args = append(args, limit)
	q += ` ORDER BY id LIMIT $` + strconv.Itoa(len(args))
	rows, err := p.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, "", err
	}
	defer rows.Close()
	out := []model.AlertSubscription{}
	var next string
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, "", err
		}
		out = append(out, sub)
		next = sub.ID
	}
	if len(out) < limit {
		next = ""
	}
	return out, next, rows.Err()
}

func (p *Postgres) GetSubscriptionsForEvent(ctx context.Context, event string) ([]model.AlertSubscription, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, url, secret, events, active, created_at FROM alert_subscriptions
		WHERE active AND (events @> $1 OR events @> '["*"]') ORDER BY id`,
		`["`+event+`"]`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []model.AlertSubscription{}
	for rows.Next() {
		sub, err := scanSubscription(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, rows.Err()
}

func (p *Postgres) DeleteSubscription(ctx context.Context, id string) error {
	res, err := p.db.ExecContext(ctx, `DELETE FROM alert_subscriptions WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (p *Postgres) EnqueueAlert(ctx context.Context, subscriptionID, event string, payload []byte) (string, error) {
	id := uuid.New().String()
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO alert_deliveries (id, subscription_id, event, payload, status, attempts, next_attempt_at)
		VALUES ($1,$2,$3,$4,'pending',0,now())`,
		id, subscriptionID, event, payload)
	if err != nil {
		return "", err
	}
	return id, nil
}

func (p *Postgres) FetchDueAlerts(ctx context.Context, limit int) ([]AlertJob, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := p.db.QueryContext(ctx, `
		SELECT d.id, d.subscription_id, d.event, s.url, s.secret, d.payload, d.attempts
		FROM alert_deliveries d
		JOIN alert_subscriptions s ON s.id = d.subscription_id
		WHERE d.status='pending' AND d.next_attempt_at <= now()
		ORDER BY d.next_attempt_at LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := []AlertJob{}
	for rows.Next() {
		var j AlertJob
		if err := rows.Scan(&j.ID, &j.SubscriptionID, &j.Event, &j.URL, &j.Secret, &j.Payload, &j.Attempts); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	return out, rows.Err()
}

func (p *Postgres) MarkAlert(ctx context.Context, id string, success bool, nextAttemptAt *time.Time, lastError string) error {
	if success {
		_, err := p.db.ExecContext(ctx, `
			UPDATE alert_deliveries
			SET status='delivered', attempts=attempts+1, last_error=$2, delivered_at=now()
			WHERE id=$1`, id, lastError)
		return err
	}
	_, err := p.db.ExecContext(ctx, `
		UPDATE alert_deliveries
		SET attempts=attempts+1, last_error=$2, next_attempt_at=COALESCE($3, next_attempt_at)
		WHERE id=$1`, id, lastError, nextAttemptAt)
	return err
}

func (p *Postgres) FailAlert(ctx context.Context, id, lastError string) error {
	_, err := p.db.ExecContext(ctx, `
		UPDATE alert_deliveries SET status='failed', last_error=$2 WHERE id=$1`, id, lastError)
	return err
}

func scanSubscription(rows *sql.Rows) (model.AlertSubscription, error) {
	var sub model.AlertSubscription
	var events []byte
	if err := rows.Scan(&sub.ID, &sub.URL, &sub.Secret, &events, &sub.Active, &sub.CreatedAt); err != nil {
		return model.AlertSubscription{}, err
	}
	if err := json.Unmarshal(events, &sub.Events); err != nil {
		return model.AlertSubscription{}, err
	}
	return sub, nil
}

