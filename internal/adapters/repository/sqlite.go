package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/trackrank/internal/domain/model"
	"github.com/okian/trackrank/pkg/metrics"
)

const backendSQLite = "sqlite"

const schema = `
CREATE TABLE IF NOT EXISTS school (
	school_id INTEGER PRIMARY KEY,
	school_name TEXT NOT NULL,
	team_name TEXT
);
CREATE TABLE IF NOT EXISTS school_enrollment (
	school_id INTEGER NOT NULL REFERENCES school(school_id),
	year INTEGER NOT NULL,
	enrollment INTEGER NOT NULL,
	PRIMARY KEY (school_id, year)
);
CREATE TABLE IF NOT EXISTS athlete (
	athlete_id INTEGER PRIMARY KEY,
	school_id INTEGER NOT NULL REFERENCES school(school_id),
	first TEXT NOT NULL,
	last TEXT NOT NULL,
	gender TEXT NOT NULL,
	grad_year INTEGER
);
CREATE TABLE IF NOT EXISTS meet (
	meet_id INTEGER PRIMARY KEY,
	host TEXT,
	meet_type TEXT NOT NULL,
	meet_num INTEGER,
	year INTEGER NOT NULL,
	gender TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS event (
	event TEXT PRIMARY KEY,
	event_type TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS athlete_result (
	result_id INTEGER PRIMARY KEY AUTOINCREMENT,
	athlete_id INTEGER NOT NULL REFERENCES athlete(athlete_id),
	meet_id INTEGER NOT NULL REFERENCES meet(meet_id),
	event TEXT NOT NULL,
	result_type TEXT,
	grade TEXT,
	result TEXT,
	result2 REAL,
	place INTEGER
);
CREATE TABLE IF NOT EXISTS relay_result (
	relay_id INTEGER PRIMARY KEY AUTOINCREMENT,
	school_id INTEGER NOT NULL REFERENCES school(school_id),
	meet_id INTEGER NOT NULL REFERENCES meet(meet_id),
	event TEXT NOT NULL,
	result_type TEXT,
	result TEXT,
	result2 REAL,
	place INTEGER,
	athlete_names TEXT
);
CREATE INDEX IF NOT EXISTS idx_athlete_result_event_meet ON athlete_result(event, meet_id);
CREATE INDEX IF NOT EXISTS idx_athlete_result_athlete ON athlete_result(athlete_id);
CREATE INDEX IF NOT EXISTS idx_relay_result_event_meet ON relay_result(event, meet_id);
CREATE INDEX IF NOT EXISTS idx_relay_result_school ON relay_result(school_id);
`

// SQLiteStore reads the corpus from a SQLite database laid out like the
// scraped results database. Older databases without relay_result.result_type
// are supported; their relays read as finals.
type SQLiteStore struct {
	db              *sql.DB
	relayResultType bool
	catalog         atomic.Pointer[model.Catalog]
}

// OpenSQLite opens (or creates) the database at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serializes writers; one connection avoids SQLITE_BUSY on seed.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.CreateSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// CreateSchema creates missing tables and indexes.
func (s *SQLiteStore) CreateSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	ok, err := s.hasColumn(ctx, "relay_result", "result_type")
	if err != nil {
		return err
	}
	s.relayResultType = ok
	return nil
}

func (s *SQLiteStore) hasColumn(ctx context.Context, table, column string) (bool, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT name FROM pragma_table_info(?)", table)
	if err != nil {
		return false, fmt.Errorf("table info %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return false, err
		}
		if name == column {
			return true, nil
		}
	}
	return false, rows.Err()
}

// Seed inserts ds in one transaction.
func (s *SQLiteStore) Seed(ctx context.Context, ds *Dataset) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin seed: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	exec := func(query string, args ...any) error {
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("seed: %w", err)
		}
		return nil
	}
	for _, e := range ds.Events {
		if err = exec("INSERT OR REPLACE INTO event (event, event_type) VALUES (?, ?)", e.Name, string(e.Category)); err != nil {
			return err
		}
	}
	for _, r := range ds.Schools {
		if err = exec("INSERT INTO school (school_id, school_name, team_name) VALUES (?, ?, ?)", r.ID, r.Name, nullString(r.TeamName)); err != nil {
			return err
		}
	}
	for _, r := range ds.Enrollments {
		if err = exec("INSERT OR IGNORE INTO school_enrollment (school_id, year, enrollment) VALUES (?, ?, ?)", r.SchoolID, r.Year, r.Enrollment); err != nil {
			return err
		}
	}
	for _, r := range ds.Athletes {
		if err = exec("INSERT INTO athlete (athlete_id, school_id, first, last, gender, grad_year) VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, r.SchoolID, r.First, r.Last, r.Gender, r.GradYear); err != nil {
			return err
		}
	}
	for _, r := range ds.Meets {
		if err = exec("INSERT INTO meet (meet_id, host, meet_type, meet_num, year, gender) VALUES (?, ?, ?, ?, ?, ?)",
			r.ID, nullString(r.Host), r.MeetType, r.MeetNum, r.Year, r.Gender); err != nil {
			return err
		}
	}
	for _, r := range ds.Results {
		if err = exec("INSERT INTO athlete_result (athlete_id, meet_id, event, result_type, grade, result, result2, place) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			r.AthleteID, r.MeetID, r.Event, nullString(r.ResultType), nullString(r.Grade), r.Result, r.Value, r.Place); err != nil {
			return err
		}
	}
	for _, r := range ds.RelayResults {
		if err = exec("INSERT INTO relay_result (school_id, meet_id, event, result_type, result, result2, place, athlete_names) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
			r.SchoolID, r.MeetID, r.Event, nullString(r.ResultType), r.Result, r.Value, r.Place, r.AthleteNames); err != nil {
			return err
		}
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit seed: %w", err)
	}
	s.catalog.Store(nil)
	return s.updateMetrics(ctx)
}

func nullString(v string) sql.NullString {
	return sql.NullString{String: v, Valid: v != ""}
}

func observeSQL(query string, start time.Time, rows int) {
	metrics.RecordStoreQueryLatency(backendSQLite, query, float64(time.Since(start).Microseconds())/1000)
	metrics.RecordStoreRowsLoaded(backendSQLite, query, rows)
}

// Events implements Store.
func (s *SQLiteStore) Events(ctx context.Context) ([]model.Event, error) {
	start := time.Now()
	rows, err := s.db.QueryContext(ctx, "SELECT event, event_type FROM event ORDER BY event")
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()
	var out []model.Event
	for rows.Next() {
		var e model.Event
		var cat string
		if err := rows.Scan(&e.Name, &cat); err != nil {
			return nil, err
		}
		e.Category = model.Category(cat)
		out = append(out, e)
	}
	observeSQL("events", start, len(out))
	return out, rows.Err()
}

func (s *SQLiteStore) loadCatalog(ctx context.Context) (model.Catalog, error) {
	if c := s.catalog.Load(); c != nil {
		return *c, nil
	}
	events, err := s.Events(ctx)
	if err != nil {
		return nil, err
	}
	c := model.NewCatalog(events)
	s.catalog.Store(&c)
	return c, nil
}

// EventCategory implements Store.
func (s *SQLiteStore) EventCategory(ctx context.Context, name string) (model.Category, error) {
	c, err := s.loadCatalog(ctx)
	if err != nil {
		return "", err
	}
	cat, ok := c.Lookup(name)
	if !ok {
		return "", fmt.Errorf("event %q: %w", name, ErrNotFound)
	}
	return cat, nil
}

const meetColumns = "meet_id, host, meet_type, meet_num, year, gender"

type scanner interface {
	Scan(dest ...any) error
}

func scanMeet(row scanner) (model.Meet, error) {
	var (
		r    MeetRow
		host sql.NullString
		num  sql.NullInt64
	)
	if err := row.Scan(&r.ID, &host, &r.MeetType, &num, &r.Year, &r.Gender); err != nil {
		return model.Meet{}, err
	}
	r.Host, r.MeetNum = host.String, int(num.Int64)
	return r.meet(), nil
}

// Meet implements Store.
func (s *SQLiteStore) Meet(ctx context.Context, id int64) (model.Meet, error) {
	m, err := scanMeet(s.db.QueryRowContext(ctx, "SELECT "+meetColumns+" FROM meet WHERE meet_id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return model.Meet{}, fmt.Errorf("meet %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Meet{}, fmt.Errorf("query meet %d: %w", id, err)
	}
	return m, nil
}

// Meets implements Store.
func (s *SQLiteStore) Meets(ctx context.Context, filter MeetFilter) ([]model.Meet, error) {
	start := time.Now()
	var w where
	w.in("year", filter.Years)
	w.in("gender", stringsOf(filter.Genders))
	w.in("meet_type", stringsOf(filter.MeetTypes))
	rows, err := s.db.QueryContext(ctx, "SELECT "+meetColumns+" FROM meet"+w.String()+" ORDER BY meet_id", w.args...)
	if err != nil {
		return nil, fmt.Errorf("query meets: %w", err)
	}
	defer rows.Close()
	var out []model.Meet
	for rows.Next() {
		m, err := scanMeet(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	observeSQL("meets", start, len(out))
	return out, rows.Err()
}

// Athlete implements Store.
func (s *SQLiteStore) Athlete(ctx context.Context, id int64) (model.Athlete, error) {
	var (
		r    AthleteRow
		grad sql.NullInt64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT athlete_id, school_id, first, last, gender, grad_year FROM athlete WHERE athlete_id = ?", id).
		Scan(&r.ID, &r.SchoolID, &r.First, &r.Last, &r.Gender, &grad)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Athlete{}, fmt.Errorf("athlete %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.Athlete{}, fmt.Errorf("query athlete %d: %w", id, err)
	}
	r.GradYear = int(grad.Int64)
	return r.athlete(), nil
}

// School implements Store.
func (s *SQLiteStore) School(ctx context.Context, id int64) (model.School, error) {
	var (
		r    SchoolRow
		team sql.NullString
	)
	err := s.db.QueryRowContext(ctx, "SELECT school_id, school_name, team_name FROM school WHERE school_id = ?", id).
		Scan(&r.ID, &r.Name, &team)
	if errors.Is(err, sql.ErrNoRows) {
		return model.School{}, fmt.Errorf("school %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return model.School{}, fmt.Errorf("query school %d: %w", id, err)
	}
	r.TeamName = team.String
	return r.school(), nil
}

// Enrollment implements Store.
func (s *SQLiteStore) Enrollment(ctx context.Context, schoolID int64, year int) (int, bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		"SELECT enrollment FROM school_enrollment WHERE school_id = ? AND year = ?", schoolID, year).Scan(&n)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("query enrollment: %w", err)
	}
	return n, true, nil
}

// Enrollments implements Store.
func (s *SQLiteStore) Enrollments(ctx context.Context, year int) (map[int64]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT school_id, enrollment FROM school_enrollment WHERE year = ?", year)
	if err != nil {
		return nil, fmt.Errorf("query enrollments: %w", err)
	}
	defer rows.Close()
	out := make(map[int64]int)
	for rows.Next() {
		var id int64
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		out[id] = n
	}
	return out, rows.Err()
}

// Results implements Store.
func (s *SQLiteStore) Results(ctx context.Context, filter ResultFilter) ([]model.Result, error) {
	start := time.Now()
	var out []model.Result
	if filter.Source == "" || filter.Source == model.SourceIndividual {
		rs, err := s.individualResults(ctx, filter)
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	if filter.Source == "" || filter.Source == model.SourceRelay {
		rs, err := s.relayResults(ctx, filter, "")
		if err != nil {
			return nil, err
		}
		out = append(out, rs...)
	}
	observeSQL("results", start, len(out))
	return out, nil
}

// RelayResultsForAthlete implements Store.
func (s *SQLiteStore) RelayResultsForAthlete(ctx context.Context, athleteID int64, filter ResultFilter) ([]model.Result, error) {
	start := time.Now()
	a, err := s.Athlete(ctx, athleteID)
	if err != nil {
		return nil, err
	}
	filter.SchoolIDs = []int64{a.SchoolID}
	if a.Gender != "" {
		filter.Genders = []model.Gender{a.Gender}
	}
	rs, err := s.relayResults(ctx, filter, a.Last)
	if err != nil {
		return nil, err
	}
	out := rs[:0]
	for _, r := range rs {
		if OnRoster(a, r.AthleteNames) {
			out = append(out, r)
		}
	}
	observeSQL("relay_results_for_athlete", start, len(out))
	return out, nil
}

func applyMeetFilter(w *where, f ResultFilter) {
	w.in("m.gender", stringsOf(f.Genders))
	w.in("m.meet_type", stringsOf(f.MeetTypes))
	w.in("m.year", f.Years)
	w.in("m.meet_id", f.MeetIDs)
	if f.MinYear > 0 {
		w.add("m.year >= ?", f.MinYear)
	}
}

func (s *SQLiteStore) individualResults(ctx context.Context, f ResultFilter) ([]model.Result, error) {
	var w where
	applyMeetFilter(&w, f)
	w.in("ar.event", f.Events)
	w.in("ar.athlete_id", f.CompetitorIDs)
	w.in("a.school_id", f.SchoolIDs)
	query := `SELECT a.athlete_id, a.school_id, a.first, a.last, a.gender, s.school_name,
		m.meet_id, m.host, m.meet_type, m.meet_num, m.year, m.gender,
		ar.event, ar.result_type, ar.grade, ar.result, ar.result2, ar.place
		FROM athlete_result ar
		JOIN athlete a ON a.athlete_id = ar.athlete_id
		JOIN school s ON s.school_id = a.school_id
		JOIN meet m ON m.meet_id = ar.meet_id` + w.String() + " ORDER BY ar.result_id"

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query athlete results: %w", err)
	}
	defer rows.Close()

	var out []model.Result
	for rows.Next() {
		var a AthleteRow
		var m MeetRow
		var r ResultRow
		var school string
		var host, rtype, grade, result sql.NullString
		var num, place sql.NullInt64
		var value sql.NullFloat64
		if err := rows.Scan(&a.ID, &a.SchoolID, &a.First, &a.Last, &a.Gender, &school,
			&m.ID, &host, &m.MeetType, &num, &m.Year, &m.Gender,
			&r.Event, &rtype, &grade, &result, &value, &place); err != nil {
			return nil, err
		}
		m.Host, m.MeetNum = host.String, int(num.Int64)
		r.ResultType, r.Grade, r.Result = rtype.String, grade.String, result.String
		r.Value, r.Place = floatPtr(value), intPtr(place)
		res := r.result(m.meet(), a.athlete(), model.School{ID: a.SchoolID, Name: school})
		if in(f.Kinds, res.Kind) {
			out = append(out, res)
		}
	}
	return out, rows.Err()
}

func (s *SQLiteStore) relayResults(ctx context.Context, f ResultFilter, rosterHint string) ([]model.Result, error) {
	kindCol := "''"
	if s.relayResultType {
		kindCol = "rr.result_type"
	}
	var w where
	applyMeetFilter(&w, f)
	w.in("rr.event", f.Events)
	w.in("rr.school_id", f.CompetitorIDs)
	w.in("rr.school_id", f.SchoolIDs)
	if rosterHint != "" {
		w.add("rr.athlete_names LIKE ?", "%"+rosterHint+"%")
	}
	query := `SELECT s.school_id, s.school_name, s.team_name,
		m.meet_id, m.host, m.meet_type, m.meet_num, m.year, m.gender,
		rr.event, ` + kindCol + `, rr.result, rr.result2, rr.place, rr.athlete_names
		FROM relay_result rr
		JOIN school s ON s.school_id = rr.school_id
		JOIN meet m ON m.meet_id = rr.meet_id` + w.String() + " ORDER BY rr.relay_id"

	rows, err := s.db.QueryContext(ctx, query, w.args...)
	if err != nil {
		return nil, fmt.Errorf("query relay results: %w", err)
	}
	defer rows.Close()

	var out []model.Result
	for rows.Next() {
		var m MeetRow
		var school SchoolRow
		var r RelayRow
		var team, host, rtype, result, names sql.NullString
		var num, place sql.NullInt64
		var value sql.NullFloat64
		if err := rows.Scan(&school.ID, &school.Name, &team,
			&m.ID, &host, &m.MeetType, &num, &m.Year, &m.Gender,
			&r.Event, &rtype, &result, &value, &place, &names); err != nil {
			return nil, err
		}
		school.TeamName = team.String
		m.Host, m.MeetNum = host.String, int(num.Int64)
		r.ResultType, r.Result, r.AthleteNames = rtype.String, result.String, names.String
		r.Value, r.Place = floatPtr(value), intPtr(place)
		res := r.result(m.meet(), school.school())
		if in(f.Kinds, res.Kind) {
			out = append(out, res)
		}
	}
	return out, rows.Err()
}

// Years implements Store.
func (s *SQLiteStore) Years(ctx context.Context) ([]int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT DISTINCT year FROM meet ORDER BY year DESC")
	if err != nil {
		return nil, fmt.Errorf("query years: %w", err)
	}
	defer rows.Close()
	var out []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		out = append(out, y)
	}
	return out, rows.Err()
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) updateMetrics(ctx context.Context) error {
	for _, table := range []string{"school", "athlete", "meet", "athlete_result", "relay_result"} {
		var n int
		if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM "+table).Scan(&n); err != nil {
			return fmt.Errorf("count %s: %w", table, err)
		}
		metrics.UpdateStoreRecords(table, n)
	}
	return nil
}

// where accumulates AND-ed SQL conditions with positional arguments.
type where struct {
	conds []string
	args  []any
}

func (w *where) add(cond string, args ...any) {
	w.conds = append(w.conds, cond)
	w.args = append(w.args, args...)
}

func (w *where) in(col string, values any) {
	var args []any
	switch vs := values.(type) {
	case []string:
		for _, v := range vs {
			args = append(args, v)
		}
	case []int:
		for _, v := range vs {
			args = append(args, v)
		}
	case []int64:
		for _, v := range vs {
			args = append(args, v)
		}
	}
	if len(args) == 0 {
		return
	}
	w.add(col+" IN ("+strings.TrimSuffix(strings.Repeat("?, ", len(args)), ", ")+")", args...)
}

func (w *where) String() string {
	if len(w.conds) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.conds, " AND ")
}

func stringsOf[T ~string](vs []T) []string {
	out := make([]string, len(vs))
	for i, v := range vs {
		out[i] = string(v)
	}
	return out
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	return &v.Float64
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	n := int(v.Int64)
	return &n
}
