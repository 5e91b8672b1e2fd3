package progress

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abhisek/studycoach/internal/llm"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	topic         TEXT NOT NULL,
	difficulty    TEXT NOT NULL,
	score         REAL NOT NULL,
	total         INTEGER NOT NULL,
	correct       INTEGER NOT NULL,
	details       TEXT NOT NULL DEFAULT '{}',
	started_at    INTEGER NOT NULL,
	finished_at   INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS attempts (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	session_id    TEXT NOT NULL,
	topic         TEXT NOT NULL,
	question_id   TEXT NOT NULL,
	prompt        TEXT NOT NULL,
	kind          TEXT NOT NULL,
	difficulty    TEXT NOT NULL,
	answer        TEXT NOT NULL,
	correct       INTEGER NOT NULL,
	response_ms   INTEGER NOT NULL,
	created_at    INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_attempts_topic ON attempts(topic);
CREATE INDEX IF NOT EXISTS idx_attempts_session ON attempts(session_id);

CREATE TABLE IF NOT EXISTS question_stats (
	topic           TEXT NOT NULL,
	question_id     TEXT NOT NULL,
	prompt          TEXT NOT NULL,
	times_asked     INTEGER NOT NULL DEFAULT 0,
	times_correct   INTEGER NOT NULL DEFAULT 0,
	avg_response_ms REAL NOT NULL DEFAULT 0,
	last_correct    INTEGER NOT NULL DEFAULT 0,
	last_asked_at   INTEGER NOT NULL,
	PRIMARY KEY (topic, question_id)
);

CREATE TABLE IF NOT EXISTS llm_requests (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	provider      TEXT NOT NULL,
	model         TEXT NOT NULL,
	purpose       TEXT NOT NULL,
	input_tokens  INTEGER NOT NULL,
	output_tokens INTEGER NOT NULL,
	latency_ms    INTEGER NOT NULL,
	success       INTEGER NOT NULL,
	error_message TEXT NOT NULL DEFAULT '',
	created_at    INTEGER NOT NULL
);
`

// SQLiteStore is the durable Store backed by a local SQLite file. It
// also implements llm.RequestLog so provider calls land in the same
// database.
type SQLiteStore struct {
	db *sql.DB
	mu sync.Mutex
}

var _ Store = (*SQLiteStore)(nil)
var _ llm.RequestLog = (*SQLiteStore)(nil)

// Open opens (or creates) the database at path and applies the schema.
func Open(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// Single connection keeps SQLite happy under concurrent use.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("apply pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// DefaultDBPath resolves the database location: STUDYCOACH_DB if set,
// otherwise the XDG data directory.
func DefaultDBPath() (string, error) {
	if p := os.Getenv("STUDYCOACH_DB"); p != "" {
		return p, nil
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	return filepath.Join(dataHome, "studycoach", "studycoach.db"), nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) RecordAttempt(ctx context.Context, a *Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin attempt tx: %w", err)
	}
	defer tx.Rollback()

	createdAt := a.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO attempts (session_id, topic, question_id, prompt, kind, difficulty, answer, correct, response_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.SessionID, a.Topic, a.QuestionID, a.Prompt, a.Kind, a.Difficulty,
		a.Answer, boolToInt(a.Correct), a.ResponseMs, createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}

	// Running mean: new_avg = old_avg + (x - old_avg) / n.
	_, err = tx.ExecContext(ctx, `
		INSERT INTO question_stats (topic, question_id, prompt, times_asked, times_correct, avg_response_ms, last_correct, last_asked_at)
		VALUES (?, ?, ?, 1, ?, ?, ?, ?)
		ON CONFLICT (topic, question_id) DO UPDATE SET
			times_asked     = times_asked + 1,
			times_correct   = times_correct + excluded.times_correct,
			avg_response_ms = avg_response_ms + (excluded.avg_response_ms - avg_response_ms) / (times_asked + 1),
			last_correct    = excluded.last_correct,
			last_asked_at   = excluded.last_asked_at`,
		a.Topic, a.QuestionID, a.Prompt, boolToInt(a.Correct),
		float64(a.ResponseMs), boolToInt(a.Correct), createdAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("update question stats: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit attempt tx: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecordSession(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	details, err := json.Marshal(sess.Details)
	if err != nil {
		return fmt.Errorf("marshal session details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, topic, difficulty, score, total, correct, details, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.Topic, sess.Difficulty, sess.Score, sess.Total,
		sess.Correct, string(details), sess.StartedAt.Unix(), sess.FinishedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}
	return nil
}

func (s *SQLiteStore) HistoryForTopic(ctx context.Context, topic string, mode AvoidMode) ([]string, error) {
	query := `SELECT prompt FROM question_stats WHERE topic = ?`
	if mode == AvoidCorrect {
		query += ` AND last_correct = 1`
	}
	query += ` ORDER BY last_asked_at DESC`

	rows, err := s.db.QueryContext(ctx, query, topic)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var prompts []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

func (s *SQLiteStore) AccuracyForTopic(ctx context.Context, topic string) (float64, bool, error) {
	var total, correct int
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(correct), 0) FROM attempts WHERE topic = ?`,
		topic,
	).Scan(&total, &correct)
	if err != nil {
		return 0, false, fmt.Errorf("query accuracy: %w", err)
	}
	if total == 0 {
		return 0, false, nil
	}
	return float64(correct) / float64(total), true, nil
}

func (s *SQLiteStore) FrequentlyMissed(ctx context.Context, topic string, topK int) ([]QuestionAggregate, error) {
	if topK <= 0 {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT question_id, prompt, times_asked, times_correct, avg_response_ms, last_correct
		FROM question_stats
		WHERE topic = ? AND times_correct < times_asked
		ORDER BY (1.0 - CAST(times_correct AS REAL) / times_asked) DESC, times_asked DESC
		LIMIT ?`,
		topic, topK,
	)
	if err != nil {
		return nil, fmt.Errorf("query frequently missed: %w", err)
	}
	defer rows.Close()

	var out []QuestionAggregate
	for rows.Next() {
		var q QuestionAggregate
		var lastCorrect int
		if err := rows.Scan(&q.QuestionID, &q.Prompt, &q.TimesAsked, &q.TimesCorrect, &q.AvgResponseMs, &lastCorrect); err != nil {
			return nil, fmt.Errorf("scan aggregate row: %w", err)
		}
		q.LastCorrect = lastCorrect == 1
		out = append(out, q)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) StatsByTopic(ctx context.Context) ([]TopicStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT a.topic,
			COUNT(DISTINCT a.session_id),
			COUNT(*),
			COALESCE(SUM(a.correct), 0),
			COALESCE(AVG(a.response_ms), 0),
			MAX(a.created_at)
		FROM attempts a
		GROUP BY a.topic
		ORDER BY MAX(a.created_at) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query topic stats: %w", err)
	}
	defer rows.Close()

	var out []TopicStats
	for rows.Next() {
		var ts TopicStats
		var lastAt int64
		if err := rows.Scan(&ts.Topic, &ts.Sessions, &ts.Attempts, &ts.Correct, &ts.AvgResponseMs, &lastAt); err != nil {
			return nil, fmt.Errorf("scan topic stats row: %w", err)
		}
		ts.LastSessionAt = time.Unix(lastAt, 0).UTC()
		out = append(out, ts)
	}
	return out, rows.Err()
}

// AppendLLMRequest implements llm.RequestLog.
func (s *SQLiteStore) AppendLLMRequest(ctx context.Context, entry llm.RequestEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO llm_requests (provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.Provider, entry.Model, entry.Purpose, entry.InputTokens,
		entry.OutputTokens, entry.LatencyMs, boolToInt(entry.Success),
		entry.ErrorMessage, time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert llm request: %w", err)
	}
	return nil
}

// LLMUsage aggregates llm_requests rows per purpose.
type LLMUsage struct {
	Purpose      string
	Calls        int
	InputTokens  int
	OutputTokens int
	AvgLatencyMs int64
}

// RequestRecord is one row from the llm_requests table.
type RequestRecord struct {
	ID           int64
	CreatedAt    time.Time
	Provider     string
	Model        string
	Purpose      string
	InputTokens  int
	OutputTokens int
	LatencyMs    int64
	Success      bool
	ErrorMessage string
}

// RecentLLMRequests returns the newest request log rows, newest first.
func (s *SQLiteStore) RecentLLMRequests(ctx context.Context, limit int) ([]RequestRecord, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, created_at, provider, model, purpose, input_tokens, output_tokens, latency_ms, success, error_message
		FROM llm_requests
		ORDER BY id DESC
		LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query llm requests: %w", err)
	}
	defer rows.Close()

	var out []RequestRecord
	for rows.Next() {
		var r RequestRecord
		var createdAt int64
		var success int
		if err := rows.Scan(&r.ID, &createdAt, &r.Provider, &r.Model, &r.Purpose,
			&r.InputTokens, &r.OutputTokens, &r.LatencyMs, &success, &r.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan llm request row: %w", err)
		}
		r.CreatedAt = time.Unix(createdAt, 0).UTC()
		r.Success = success == 1
		out = append(out, r)
	}
	return out, rows.Err()
}

// LLMUsageByPurpose aggregates token usage per request purpose.
func (s *SQLiteStore) LLMUsageByPurpose(ctx context.Context) ([]LLMUsage, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT purpose, COUNT(*), COALESCE(SUM(input_tokens), 0), COALESCE(SUM(output_tokens), 0), COALESCE(AVG(latency_ms), 0)
		FROM llm_requests
		GROUP BY purpose
		ORDER BY COUNT(*) DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query llm usage: %w", err)
	}
	defer rows.Close()

	var out []LLMUsage
	for rows.Next() {
		var u LLMUsage
		var avg float64
		if err := rows.Scan(&u.Purpose, &u.Calls, &u.InputTokens, &u.OutputTokens, &avg); err != nil {
			return nil, fmt.Errorf("scan llm usage row: %w", err)
		}
		u.AvgLatencyMs = int64(avg)
		out = append(out, u)
	}
	return out, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
