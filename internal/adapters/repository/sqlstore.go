package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // registers the sqlite3 driver

	"github.com/okian/techmatch/internal/domain/model"
	"github.com/okian/techmatch/pkg/metrics"
)

const memoryDSN = "file::memory:?_foreign_keys=on"

const schema = `
CREATE TABLE IF NOT EXISTS tech_entries (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	category    TEXT NOT NULL,
	name        TEXT NOT NULL,
	name_key    TEXT NOT NULL UNIQUE,
	created_at  DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS freelancers (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL DEFAULT '',
	available   BOOLEAN NOT NULL DEFAULT 1,
	created_at  DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS freelancer_skills (
	freelancer_id TEXT NOT NULL REFERENCES freelancers(id) ON DELETE CASCADE,
	tech_id       INTEGER NOT NULL REFERENCES tech_entries(id),
	PRIMARY KEY (freelancer_id, tech_id)
);

CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	owner_id    TEXT NOT NULL DEFAULT '',
	title       TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'open',
	created_at  DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS project_requirements (
	project_id TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	tech_id    INTEGER NOT NULL REFERENCES tech_entries(id),
	required   BOOLEAN NOT NULL,
	PRIMARY KEY (project_id, tech_id)
);

CREATE TABLE IF NOT EXISTS reviews (
	id          TEXT PRIMARY KEY,
	author_id   TEXT NOT NULL,
	target_id   TEXT NOT NULL,
	rating      INTEGER NOT NULL CHECK (rating BETWEEN 1 AND 5),
	comment     TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'active',
	deleted_at  DATETIME,
	created_at  DATETIME NOT NULL,
	modified_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_reviews_target_status ON reviews(target_id, status);

CREATE TABLE IF NOT EXISTS notifications (
	id             TEXT PRIMARY KEY,
	recipient_id   TEXT NOT NULL,
	event_id       TEXT NOT NULL,
	subject_id     TEXT NOT NULL,
	counterpart_id TEXT NOT NULL,
	score          REAL NOT NULL,
	created_at     DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_notifications_recipient ON notifications(recipient_id, created_at);
`

// SQLStore implements Store on SQLite.
type SQLStore struct {
	db  *sql.DB
	cfg settings
}

var _ Store = (*SQLStore)(nil)

// OpenSQLite opens (or creates) the database at path and runs migrations.
// An empty path opens a private in-memory database.
func OpenSQLite(ctx context.Context, path string, opts ...Option) (*SQLStore, error) {
	cfg := defaultSettings()
	for _, opt := range opts {
		opt(&cfg)
	}

	dsn := memoryDSN
	if path != "" {
		dsn = fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if path == "" {
		// Every connection to :memory: is a separate database.
		db.SetMaxOpenConns(1)
	}

	s := &SQLStore{db: db, cfg: cfg}
	if err := s.migrate(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return s, nil
}

func (s *SQLStore) migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

// Close implements Store.
func (s *SQLStore) Close() error { return s.db.Close() }

// observe records the latency of one storage operation.
func observe(op string, start time.Time) {
	metrics.RecordStorageQueryLatency(op, float64(time.Since(start).Microseconds())/1000)
}

// InsertTech implements TechStore.
func (s *SQLStore) InsertTech(ctx context.Context, category, name string) (model.TechEntry, error) {
	defer observe("insert_tech", time.Now())
	key := model.NormalizeTechName(name)
	if key == "" {
		return model.TechEntry{}, fmt.Errorf("%w: empty technology name", ErrInvalidInput)
	}
	now := s.cfg.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tech_entries (category, name, name_key, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(name_key) DO NOTHING`,
		strings.TrimSpace(category), strings.TrimSpace(name), key, now, now)
	if err != nil {
		return model.TechEntry{}, fmt.Errorf("insert technology %q: %w", name, err)
	}
	return s.findTech(ctx, "name_key = ?", key)
}

// FindTechByName implements TechStore.
func (s *SQLStore) FindTechByName(ctx context.Context, name string) (model.TechEntry, error) {
	defer observe("find_tech", time.Now())
	return s.findTech(ctx, "name_key = ?", model.NormalizeTechName(name))
}

// FindTechByID implements TechStore.
func (s *SQLStore) FindTechByID(ctx context.Context, id model.TechID) (model.TechEntry, error) {
	defer observe("find_tech", time.Now())
	return s.findTech(ctx, "id = ?", int64(id))
}

func (s *SQLStore) findTech(ctx context.Context, where string, arg any) (model.TechEntry, error) {
	var e model.TechEntry
	err := s.db.QueryRowContext(ctx,
		`SELECT id, category, name, created_at, modified_at FROM tech_entries WHERE `+where, arg).
		Scan(&e.ID, &e.Category, &e.Name, &e.CreatedAt, &e.ModifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.TechEntry{}, fmt.Errorf("technology %v: %w", arg, ErrNotFound)
	}
	if err != nil {
		return model.TechEntry{}, fmt.Errorf("find technology %v: %w", arg, err)
	}
	return e, nil
}

// ListTech implements TechStore.
func (s *SQLStore) ListTech(ctx context.Context) ([]model.TechEntry, error) {
	defer observe("list_tech", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, category, name, created_at, modified_at FROM tech_entries ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list technologies: %w", err)
	}
	defer rows.Close()

	out := make([]model.TechEntry, 0)
	for rows.Next() {
		var e model.TechEntry
		if err := rows.Scan(&e.ID, &e.Category, &e.Name, &e.CreatedAt, &e.ModifiedAt); err != nil {
			return nil, fmt.Errorf("scan technology: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// FindFreelancer implements ProfileStore.
func (s *SQLStore) FindFreelancer(ctx context.Context, id string) (model.Freelancer, error) {
	defer observe("find_freelancer", time.Now())
	var f model.Freelancer
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, available, created_at, modified_at FROM freelancers WHERE id = ?`, id).
		Scan(&f.ID, &f.Name, &f.Available, &f.CreatedAt, &f.ModifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Freelancer{}, fmt.Errorf("freelancer %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Freelancer{}, fmt.Errorf("find freelancer %s: %w", id, err)
	}
	return f, nil
}

// FindProject implements ProfileStore.
func (s *SQLStore) FindProject(ctx context.Context, id string) (model.Project, error) {
	defer observe("find_project", time.Now())
	return findProject(ctx, s.db, id)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func findProject(ctx context.Context, q queryer, id string) (model.Project, error) {
	var p model.Project
	err := q.QueryRowContext(ctx,
		`SELECT id, owner_id, title, status, created_at, modified_at FROM projects WHERE id = ?`, id).
		Scan(&p.ID, &p.OwnerID, &p.Title, &p.Status, &p.CreatedAt, &p.ModifiedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Project{}, fmt.Errorf("project %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("find project %s: %w", id, err)
	}
	return p, nil
}

// FindSkillsByFreelancer implements ProfileStore.
func (s *SQLStore) FindSkillsByFreelancer(ctx context.Context, freelancerID string) (model.SkillSet, error) {
	defer observe("find_skills", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT tech_id FROM freelancer_skills WHERE freelancer_id = ?`, freelancerID)
	if err != nil {
		return nil, fmt.Errorf("find skills of %s: %w", freelancerID, err)
	}
	defer rows.Close()

	out := model.NewSkillSet()
	for rows.Next() {
		var id model.TechID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// FindRequirementsByProject implements ProfileStore.
func (s *SQLStore) FindRequirementsByProject(ctx context.Context, projectID string) (model.RequirementSet, error) {
	defer observe("find_requirements", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT tech_id, required FROM project_requirements WHERE project_id = ?`, projectID)
	if err != nil {
		return nil, fmt.Errorf("find requirements of %s: %w", projectID, err)
	}
	defer rows.Close()

	out := model.RequirementSet{}
	for rows.Next() {
		var (
			id       model.TechID
			required bool
		)
		if err := rows.Scan(&id, &required); err != nil {
			return nil, fmt.Errorf("scan requirement: %w", err)
		}
		out[id] = required
	}
	return out, rows.Err()
}

// FindAvailableFreelancers implements ProfileStore.
func (s *SQLStore) FindAvailableFreelancers(ctx context.Context) ([]string, error) {
	defer observe("find_available", time.Now())
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM freelancers WHERE available = 1 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("find available freelancers: %w", err)
	}
	defer rows.Close()

	out := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan freelancer id: %w", err)
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// UpsertFreelancer implements ProfileStore.
func (s *SQLStore) UpsertFreelancer(ctx context.Context, f model.Freelancer) error {
	defer observe("upsert_freelancer", time.Now())
	if strings.TrimSpace(f.ID) == "" {
		return fmt.Errorf("%w: empty freelancer id", ErrInvalidInput)
	}
	now := s.cfg.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO freelancers (id, name, available, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			available = excluded.available,
			modified_at = excluded.modified_at`,
		f.ID, f.Name, f.Available, now, now)
	if err != nil {
		return fmt.Errorf("upsert freelancer %s: %w", f.ID, err)
	}
	return nil
}

// SetAvailability implements ProfileStore.
func (s *SQLStore) SetAvailability(ctx context.Context, freelancerID string, available bool) error {
	defer observe("set_availability", time.Now())
	res, err := s.db.ExecContext(ctx,
		`UPDATE freelancers SET available = ?, modified_at = ? WHERE id = ?`,
		available, s.cfg.now(), freelancerID)
	if err != nil {
		return fmt.Errorf("set availability of %s: %w", freelancerID, err)
	}
	return expectRow(res, "freelancer", freelancerID)
}

// AddSkill implements ProfileStore.
func (s *SQLStore) AddSkill(ctx context.Context, freelancerID string, techID model.TechID) error {
	defer observe("add_skill", time.Now())
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, `SELECT 1 FROM freelancers WHERE id = ?`, "freelancer", freelancerID); err != nil {
			return err
		}
		if err := exists(ctx, tx, `SELECT 1 FROM tech_entries WHERE id = ?`, "technology", int64(techID)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`INSERT INTO freelancer_skills (freelancer_id, tech_id) VALUES (?, ?) ON CONFLICT DO NOTHING`,
			freelancerID, int64(techID))
		if err != nil {
			return fmt.Errorf("add skill %d to %s: %w", techID, freelancerID, err)
		}
		return nil
	})
}

// RemoveSkill implements ProfileStore.
func (s *SQLStore) RemoveSkill(ctx context.Context, freelancerID string, techID model.TechID) error {
	defer observe("remove_skill", time.Now())
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, `SELECT 1 FROM freelancers WHERE id = ?`, "freelancer", freelancerID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM freelancer_skills WHERE freelancer_id = ? AND tech_id = ?`, freelancerID, int64(techID))
		if err != nil {
			return fmt.Errorf("remove skill %d from %s: %w", techID, freelancerID, err)
		}
		return nil
	})
}

// UpsertProject implements ProfileStore.
func (s *SQLStore) UpsertProject(ctx context.Context, p model.Project) error {
	defer observe("upsert_project", time.Now())
	if strings.TrimSpace(p.ID) == "" {
		return fmt.Errorf("%w: empty project id", ErrInvalidInput)
	}
	if p.Status == "" {
		p.Status = model.ProjectOpen
	}
	if !p.Status.Valid() {
		return fmt.Errorf("%w: project status %q", ErrInvalidInput, p.Status)
	}
	now := s.cfg.now()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, owner_id, title, status, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			owner_id = excluded.owner_id,
			title = excluded.title,
			status = excluded.status,
			modified_at = excluded.modified_at`,
		p.ID, p.OwnerID, p.Title, string(p.Status), now, now)
	if err != nil {
		return fmt.Errorf("upsert project %s: %w", p.ID, err)
	}
	return nil
}

// SetRequirement implements ProfileStore.
func (s *SQLStore) SetRequirement(ctx context.Context, projectID string, techID model.TechID, required bool) error {
	defer observe("set_requirement", time.Now())
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := editable(ctx, tx, projectID); err != nil {
			return err
		}
		if err := exists(ctx, tx, `SELECT 1 FROM tech_entries WHERE id = ?`, "technology", int64(techID)); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `
			INSERT INTO project_requirements (project_id, tech_id, required) VALUES (?, ?, ?)
			ON CONFLICT(project_id, tech_id) DO UPDATE SET required = excluded.required`,
			projectID, int64(techID), required)
		if err != nil {
			return fmt.Errorf("set requirement %d on %s: %w", techID, projectID, err)
		}
		return nil
	})
}

// RemoveRequirement implements ProfileStore.
func (s *SQLStore) RemoveRequirement(ctx context.Context, projectID string, techID model.TechID) error {
	defer observe("remove_requirement", time.Now())
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := editable(ctx, tx, projectID); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx,
			`DELETE FROM project_requirements WHERE project_id = ? AND tech_id = ?`, projectID, int64(techID))
		if err != nil {
			return fmt.Errorf("remove requirement %d from %s: %w", techID, projectID, err)
		}
		return nil
	})
}

func editable(ctx context.Context, tx *sql.Tx, projectID string) error {
	p, err := findProject(ctx, tx, projectID)
	if err != nil {
		return err
	}
	if p.Frozen() {
		return fmt.Errorf("project %s (%s): %w", projectID, p.Status, ErrFrozen)
	}
	return nil
}

// AddReview implements ReviewStore.
func (s *SQLStore) AddReview(ctx context.Context, r model.Review) (model.Review, error) {
	defer observe("add_review", time.Now())
	if err := validateReview(r); err != nil {
		return model.Review{}, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	r.Status = model.ReviewActive
	r.DeletedAt = nil
	r.Audit = model.Audit{}
	r.Touch(s.cfg.now())

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO reviews (id, author_id, target_id, rating, comment, status, created_at, modified_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.AuthorID, r.TargetID, r.Rating, r.Comment, string(r.Status), r.CreatedAt, r.ModifiedAt)
	if err != nil {
		return model.Review{}, fmt.Errorf("add review %s: %w", r.ID, err)
	}
	return r, nil
}

const reviewColumns = `id, author_id, target_id, rating, comment, status, deleted_at, created_at, modified_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanReview(row scanner) (model.Review, error) {
	var (
		r         model.Review
		deletedAt sql.NullTime
	)
	if err := row.Scan(&r.ID, &r.AuthorID, &r.TargetID, &r.Rating, &r.Comment, &r.Status,
		&deletedAt, &r.CreatedAt, &r.ModifiedAt); err != nil {
		return model.Review{}, err
	}
	if deletedAt.Valid {
		t := deletedAt.Time
		r.DeletedAt = &t
	}
	return r, nil
}

// FindReview implements ReviewStore.
func (s *SQLStore) FindReview(ctx context.Context, id string) (model.Review, error) {
	defer observe("find_review", time.Now())
	r, err := scanReview(s.db.QueryRowContext(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Review{}, fmt.Errorf("review %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Review{}, fmt.Errorf("find review %s: %w", id, err)
	}
	return r, nil
}

// DeleteReview implements ReviewStore. Deleting twice keeps the first timestamp.
func (s *SQLStore) DeleteReview(ctx context.Context, id string) error {
	defer observe("delete_review", time.Now())
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if err := exists(ctx, tx, `SELECT 1 FROM reviews WHERE id = ?`, "review", id); err != nil {
			return err
		}
		now := s.cfg.now()
		_, err := tx.ExecContext(ctx, `
			UPDATE reviews SET status = ?, deleted_at = ?, modified_at = ?
			WHERE id = ? AND status <> ?`,
			string(model.ReviewDeleted), now, now, id, string(model.ReviewDeleted))
		if err != nil {
			return fmt.Errorf("delete review %s: %w", id, err)
		}
		return nil
	})
}

// FindNonDeletedReviewsByTarget implements ReviewStore.
func (s *SQLStore) FindNonDeletedReviewsByTarget(ctx context.Context, targetID string) ([]model.Review, error) {
	defer observe("find_reviews", time.Now())
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+reviewColumns+` FROM reviews WHERE target_id = ? AND status = ? ORDER BY created_at, id`,
		targetID, string(model.ReviewActive))
	if err != nil {
		return nil, fmt.Errorf("find reviews of %s: %w", targetID, err)
	}
	defer rows.Close()

	out := make([]model.Review, 0)
	for rows.Next() {
		r, err := scanReview(rows)
		if err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SaveNotification implements NotificationStore.
func (s *SQLStore) SaveNotification(ctx context.Context, n model.Notification) error {
	defer observe("save_notification", time.Now())
	if n.RecipientID == "" {
		return fmt.Errorf("%w: empty recipient", ErrInvalidInput)
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = timeOrNow(n.CreatedAt, s.cfg.now)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO notifications (id, recipient_id, event_id, subject_id, counterpart_id, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.RecipientID, n.EventID, n.SubjectID, n.CounterpartID, n.Score, n.CreatedAt)
	if err != nil {
		return fmt.Errorf("save notification for %s: %w", n.RecipientID, err)
	}
	return nil
}

// ListNotifications implements NotificationStore.
func (s *SQLStore) ListNotifications(ctx context.Context, recipientID string) ([]model.Notification, error) {
	defer observe("list_notifications", time.Now())
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, recipient_id, event_id, subject_id, counterpart_id, score, created_at
		FROM notifications WHERE recipient_id = ? ORDER BY created_at, rowid`, recipientID)
	if err != nil {
		return nil, fmt.Errorf("list notifications of %s: %w", recipientID, err)
	}
	defer rows.Close()

	out := make([]model.Notification, 0)
	for rows.Next() {
		var n model.Notification
		if err := rows.Scan(&n.ID, &n.RecipientID, &n.EventID, &n.SubjectID, &n.CounterpartID, &n.Score, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

func (s *SQLStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

func exists(ctx context.Context, tx *sql.Tx, query, kind string, arg any) error {
	var one int
	err := tx.QueryRowContext(ctx, query, arg).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %v: %w", kind, arg, ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("look up %s %v: %w", kind, arg, err)
	}
	return nil
}

func expectRow(res sql.Result, kind, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%s %s: %w", kind, id, ErrNotFound)
	}
	return nil
}
