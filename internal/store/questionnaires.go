// ABOUTME: SQLite implementation for scored questionnaire submissions
// ABOUTME: Stores the raw JSON answer set alongside the computed score

package store

import (
	"context"
	"fmt"
)

// SaveQuestionnaire stores a scored questionnaire submission.
func (s *SQLiteStore) SaveQuestionnaire(ctx context.Context, q *Questionnaire) error {
	query := `
		INSERT INTO questionnaires (id, user_id, type, answers, score, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		q.ID,
		q.UserID,
		q.Type,
		string(q.Answers),
		q.Score,
		formatTime(q.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("inserting questionnaire: %w", err)
	}

	s.logger.Debug("saved questionnaire",
		"id", q.ID,
		"user_id", q.UserID,
		"type", q.Type,
		"score", q.Score,
	)
	return nil
}

// QuestionnairesByUser retrieves a user's submissions, newest first.
func (s *SQLiteStore) QuestionnairesByUser(ctx context.Context, userID string) ([]*Questionnaire, error) {
	query := `
		SELECT id, user_id, type, answers, score, created_at
		FROM questionnaires
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
	`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("querying questionnaires: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var questionnaires []*Questionnaire
	for rows.Next() {
		var q Questionnaire
		var answers, createdStr string
		if err := rows.Scan(&q.ID, &q.UserID, &q.Type, &answers, &q.Score, &createdStr); err != nil {
			return nil, fmt.Errorf("scanning questionnaire row: %w", err)
		}
		q.Answers = []byte(answers)
		if q.CreatedAt, err = parseTime(createdStr); err != nil {
			return nil, err
		}
		questionnaires = append(questionnaires, &q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating questionnaire rows: %w", err)
	}

	return questionnaires, nil
}

// Ensure SQLiteStore implements QuestionnaireStore interface.
var _ QuestionnaireStore = (*SQLiteStore)(nil)
