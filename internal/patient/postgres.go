package patient

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists patient records in PostgreSQL.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, strings.TrimSpace(databaseURL))
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	if err := initSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &PostgresStore{pool: pool}, nil
}

func initSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS patients (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			age INTEGER NOT NULL DEFAULT 0,
			sex TEXT NOT NULL DEFAULT '',
			operation TEXT NOT NULL DEFAULT '',
			cfs TEXT NOT NULL DEFAULT '',
			medical_history TEXT NOT NULL DEFAULT '',
			worry TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_patients_created ON patients (created_at DESC);`,
		`CREATE TABLE IF NOT EXISTS conversation_log (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL REFERENCES patients(id),
			category TEXT NOT NULL,
			message TEXT NOT NULL DEFAULT '',
			response TEXT NOT NULL DEFAULT '',
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_conversation_log_patient_created ON conversation_log (patient_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS self_pay_items (
			id TEXT PRIMARY KEY,
			patient_id TEXT NOT NULL REFERENCES patients(id),
			item_name TEXT NOT NULL,
			price DOUBLE PRECISION NOT NULL,
			selected_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE INDEX IF NOT EXISTS idx_self_pay_items_patient ON self_pay_items (patient_id, selected_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) Create(ctx context.Context, name string) (Patient, error) {
	p := Patient{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO patients (id, name, created_at) VALUES ($1, $2, $3)`,
		p.ID, p.Name, p.CreatedAt,
	)
	if err != nil {
		return Patient{}, fmt.Errorf("create patient: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) Get(ctx context.Context, id string) (Patient, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, age, sex, operation, cfs, medical_history, worry, created_at
		 FROM patients WHERE id=$1`, id)
	p, err := scanPatient(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Patient{}, ErrNotFound
		}
		return Patient{}, fmt.Errorf("get patient: %w", err)
	}
	return p, nil
}

func (s *PostgresStore) FindByNameLike(ctx context.Context, name string) ([]Patient, error) {
	// position() keeps the containment check case-sensitive in both
	// directions without LIKE wildcard escaping.
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, age, sex, operation, cfs, medical_history, worry, created_at
		 FROM patients
		 WHERE position($1 IN name) > 0 OR position(name IN $1) > 0
		 ORDER BY created_at, id`, name)
	if err != nil {
		return nil, fmt.Errorf("query candidates: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate candidates: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CommitIntake(ctx context.Context, id string, update IntakeUpdate, summary string) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE patients
		 SET age=$2, sex=$3, operation=$4, cfs=$5, medical_history=$6, worry=$7
		 WHERE id=$1`,
		id, update.Age, update.Sex, update.Operation, update.CFS, update.MedicalHistory, update.Worry,
	)
	if err != nil {
		return fmt.Errorf("update patient: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO conversation_log (id, patient_id, category, response, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		uuid.NewString(), id, string(CategorySummary), summary, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert summary entry: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit intake: %w", err)
	}
	return nil
}

func (s *PostgresStore) AppendLog(ctx context.Context, entry LogEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO conversation_log (id, patient_id, category, message, response, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		entry.ID, entry.PatientID, string(entry.Category), entry.Message, entry.Response, entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("append log entry: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListLog(ctx context.Context, patientID string, category Category) ([]LogEntry, error) {
	query := `SELECT id, patient_id, category, message, response, created_at
		 FROM conversation_log WHERE patient_id=$1`
	args := []any{patientID}
	if category != "" {
		query += ` AND category=$2`
		args = append(args, string(category))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query log: %w", err)
	}
	defer rows.Close()

	var out []LogEntry
	for rows.Next() {
		var e LogEntry
		if err := rows.Scan(&e.ID, &e.PatientID, &e.Category, &e.Message, &e.Response, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan log entry: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) ListRecent(ctx context.Context, limit int) ([]Patient, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, age, sex, operation, cfs, medical_history, worry, created_at
		 FROM patients ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query recent patients: %w", err)
	}
	defer rows.Close()

	var out []Patient
	for rows.Next() {
		p, err := scanPatient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan patient: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate patients: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	var count int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM patients WHERE created_at >= $1`, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count patients: %w", err)
	}
	return count, nil
}

func (s *PostgresStore) AddSelfPayItems(ctx context.Context, patientID string, items []SelfPayItem) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	now := time.Now().UTC()
	for _, item := range items {
		id := item.ID
		if id == "" {
			id = uuid.NewString()
		}
		selectedAt := item.SelectedAt
		if selectedAt.IsZero() {
			selectedAt = now
		}
		_, err := tx.Exec(ctx,
			`INSERT INTO self_pay_items (id, patient_id, item_name, price, selected_at)
			 VALUES ($1, $2, $3, $4, $5)`,
			id, patientID, item.Name, item.Price, selectedAt,
		)
		if err != nil {
			return fmt.Errorf("insert self pay item: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit self pay items: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListSelfPayItems(ctx context.Context, patientID string) ([]SelfPayItem, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, patient_id, item_name, price, selected_at
		 FROM self_pay_items WHERE patient_id=$1 ORDER BY selected_at, id`, patientID)
	if err != nil {
		return nil, fmt.Errorf("query self pay items: %w", err)
	}
	defer rows.Close()

	var out []SelfPayItem
	for rows.Next() {
		var item SelfPayItem
		if err := rows.Scan(&item.ID, &item.PatientID, &item.Name, &item.Price, &item.SelectedAt); err != nil {
			return nil, fmt.Errorf("scan self pay item: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate self pay items: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPatient(row pgx.Row) (Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.Name, &p.Age, &p.Sex, &p.Operation, &p.CFS,
		&p.MedicalHistory, &p.Worry, &p.CreatedAt)
	if err != nil {
		return Patient{}, err
	}
	return p, nil
}
