package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/LeeDohoun/HQA-Project/internal/models"
	"github.com/LeeDohoun/HQA-Project/pkg/sqlite"
)

// Task statuses.
const (
	TaskRunning   = "running"
	TaskCompleted = "completed"
	TaskFailed    = "failed"
)

var ErrTaskNotFound = errors.New("task not found")

// TaskRecord is one persisted analysis run.
type TaskRecord struct {
	TaskID       string                `json:"task_id"`
	SubjectID    string                `json:"subject_id"`
	SubjectName  string                `json:"subject_name"`
	Mode         string                `json:"mode"`
	Status       string                `json:"status"`
	QualityGrade string                `json:"quality_grade,omitempty"`
	Decision     *models.FinalDecision `json:"decision,omitempty"`
	Error        string                `json:"error,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
}

// TaskStore persists task records in sqlite so results survive the
// process and can be fetched by task id later.
type TaskStore struct {
	db *sql.DB
}

func OpenTaskStore(dbPath string) (*TaskStore, error) {
	db, err := sqlite.Open(dbPath)
	if err != nil {
		return nil, err
	}
	s := &TaskStore{db: db}
	if err := s.initTable(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *TaskStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *TaskStore) initTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS tasks (
		task_id TEXT PRIMARY KEY,
		subject_id TEXT NOT NULL,
		subject_name TEXT,
		mode TEXT NOT NULL,
		status TEXT NOT NULL,
		quality_grade TEXT,
		decision_json TEXT,
		error TEXT,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create tasks table: %w", err)
	}
	return nil
}

func (s *TaskStore) CreateTask(ctx context.Context, taskID string, req models.AnalysisRequest) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tasks (task_id, subject_id, subject_name, mode, status)
		VALUES (?, ?, ?, ?, ?)`,
		taskID, req.SubjectID, req.SubjectName, req.Mode, TaskRunning)
	if err != nil {
		return fmt.Errorf("insert task %s: %w", taskID, err)
	}
	return nil
}

func (s *TaskStore) MarkCompleted(ctx context.Context, taskID string, state *models.AnalysisState) error {
	var decisionJSON []byte
	if state.Decision != nil {
		var err error
		decisionJSON, err = json.Marshal(state.Decision)
		if err != nil {
			return fmt.Errorf("marshal decision for %s: %w", taskID, err)
		}
	}
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, quality_grade = ?, decision_json = ?, updated_at = CURRENT_TIMESTAMP
		WHERE task_id = ?`,
		TaskCompleted, state.QualityGrade, string(decisionJSON), taskID)
	if err != nil {
		return fmt.Errorf("complete task %s: %w", taskID, err)
	}
	return nil
}

func (s *TaskStore) MarkFailed(ctx context.Context, taskID string, runErr error) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE tasks SET status = ?, error = ?, updated_at = CURRENT_TIMESTAMP
		WHERE task_id = ?`,
		TaskFailed, runErr.Error(), taskID)
	if err != nil {
		return fmt.Errorf("fail task %s: %w", taskID, err)
	}
	return nil
}

func (s *TaskStore) GetTask(ctx context.Context, taskID string) (*TaskRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT task_id, subject_id, subject_name, mode, status,
		       COALESCE(quality_grade, ''), COALESCE(decision_json, ''), COALESCE(error, ''),
		       created_at, updated_at
		FROM tasks WHERE task_id = ?`, taskID)

	var rec TaskRecord
	var decisionJSON string
	err := row.Scan(&rec.TaskID, &rec.SubjectID, &rec.SubjectName, &rec.Mode, &rec.Status,
		&rec.QualityGrade, &decisionJSON, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load task %s: %w", taskID, err)
	}

	if decisionJSON != "" {
		rec.Decision = &models.FinalDecision{}
		if err := json.Unmarshal([]byte(decisionJSON), rec.Decision); err != nil {
			return nil, fmt.Errorf("decode decision for %s: %w", taskID, err)
		}
	}
	return &rec, nil
}

// RecentTasks lists the newest records, most recent first.
func (s *TaskStore) RecentTasks(ctx context.Context, limit int) ([]TaskRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT task_id, subject_id, subject_name, mode, status,
		       COALESCE(quality_grade, ''), COALESCE(error, ''), created_at, updated_at
		FROM tasks ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var out []TaskRecord
	for rows.Next() {
		var rec TaskRecord
		if err := rows.Scan(&rec.TaskID, &rec.SubjectID, &rec.SubjectName, &rec.Mode,
			&rec.Status, &rec.QualityGrade, &rec.Error, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan task row: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
