package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"

	"duet-quiz-service/internal/domain"
)

const uniqueViolation = "23505"

// InstanceStore persists quiz instances as JSONB documents. Share-code
// uniqueness rides on a partial unique index over joinable instances, and
// responder idempotency on the (instance_id, responder_id) primary key, so
// concurrent writers race at the database instead of in application code.
type InstanceStore struct {
	pool *pgxpool.Pool
}

func NewInstanceStore(pool *pgxpool.Pool) *InstanceStore {
	return &InstanceStore{pool: pool}
}

func (s *InstanceStore) Create(ctx context.Context, inst *domain.QuizInstance) error {
	questions, err := json.Marshal(inst.Questions)
	if err != nil {
		return fmt.Errorf("marshal questions: %w", err)
	}
	var buckets []byte
	if len(inst.Buckets) > 0 {
		if buckets, err = json.Marshal(inst.Buckets); err != nil {
			return fmt.Errorf("marshal buckets: %w", err)
		}
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO quiz_instances (id, owner_id, mode, state, questions, buckets, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		inst.ID, inst.OwnerID, string(inst.Mode), string(inst.State), questions, buckets, inst.CreatedAt, inst.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert quiz instance: %w", err)
	}
	return nil
}

func (s *InstanceStore) Get(ctx context.Context, id string) (domain.QuizInstance, error) {
	return s.getOne(ctx, `
		SELECT id, owner_id, mode, state, share_code, questions, buckets, creator_answers, created_at, updated_at
		FROM quiz_instances WHERE id = $1`, id, domain.ErrInstanceNotFound)
}

func (s *InstanceStore) GetByCode(ctx context.Context, code string) (domain.QuizInstance, error) {
	return s.getOne(ctx, `
		SELECT id, owner_id, mode, state, share_code, questions, buckets, creator_answers, created_at, updated_at
		FROM quiz_instances WHERE share_code = $1 AND state = 'awaiting_taker'`, code, domain.ErrCodeNotFound)
}

func (s *InstanceStore) getOne(ctx context.Context, query, key string, notFound error) (domain.QuizInstance, error) {
	var (
		inst           domain.QuizInstance
		mode, state    string
		shareCode      sql.NullString
		questions      []byte
		buckets        []byte
		creatorAnswers []byte
	)
	err := s.pool.QueryRow(ctx, query, key).Scan(
		&inst.ID, &inst.OwnerID, &mode, &state, &shareCode,
		&questions, &buckets, &creatorAnswers, &inst.CreatedAt, &inst.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.QuizInstance{}, notFound
	}
	if err != nil {
		return domain.QuizInstance{}, fmt.Errorf("load quiz instance: %w", err)
	}

	inst.Mode = domain.Mode(mode)
	inst.State = domain.State(state)
	inst.ShareCode = shareCode.String
	if err := json.Unmarshal(questions, &inst.Questions); err != nil {
		return domain.QuizInstance{}, fmt.Errorf("unmarshal questions: %w", err)
	}
	if len(buckets) > 0 {
		if err := json.Unmarshal(buckets, &inst.Buckets); err != nil {
			return domain.QuizInstance{}, fmt.Errorf("unmarshal buckets: %w", err)
		}
	}
	if len(creatorAnswers) > 0 {
		var set domain.AnswerSet
		if err := json.Unmarshal(creatorAnswers, &set); err != nil {
			return domain.QuizInstance{}, fmt.Errorf("unmarshal creator answers: %w", err)
		}
		inst.CreatorAnswers = &set
	}

	if err := s.loadResponses(ctx, &inst); err != nil {
		return domain.QuizInstance{}, err
	}
	return inst, nil
}

func (s *InstanceStore) loadResponses(ctx context.Context, inst *domain.QuizInstance) error {
	rows, err := s.pool.Query(ctx, `SELECT responder_id, answers FROM quiz_responses WHERE instance_id = $1`, inst.ID)
	if err != nil {
		return fmt.Errorf("load responses: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			responderID string
			raw         []byte
		)
		if err := rows.Scan(&responderID, &raw); err != nil {
			return fmt.Errorf("scan response: %w", err)
		}
		var set domain.AnswerSet
		if err := json.Unmarshal(raw, &set); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
		if inst.Responses == nil {
			inst.Responses = make(map[string]domain.AnswerSet)
		}
		inst.Responses[responderID] = set
	}
	return rows.Err()
}

func (s *InstanceStore) SealCreator(ctx context.Context, id string, answers domain.AnswerSet, code string) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal creator answers: %w", err)
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE quiz_instances
		SET state = 'awaiting_taker', creator_answers = $2, share_code = $3, updated_at = now()
		WHERE id = $1 AND state = 'draft'`,
		id, raw, code)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.ErrCodeTaken
		}
		return fmt.Errorf("seal creator answers: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Either the instance is gone or it already left Draft.
		var state string
		err := s.pool.QueryRow(ctx, `SELECT state FROM quiz_instances WHERE id = $1`, id).Scan(&state)
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.ErrInstanceNotFound
		}
		if err != nil {
			return fmt.Errorf("check instance state: %w", err)
		}
		return domain.ErrWrongState
	}
	return nil
}

func (s *InstanceStore) AddResponse(ctx context.Context, id, responderID string, answers domain.AnswerSet, complete bool) error {
	raw, err := json.Marshal(answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin response tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	// Lock the instance row so the state check and the insert are one
	// atomic step against concurrent submissions.
	var state string
	err = tx.QueryRow(ctx, `SELECT state FROM quiz_instances WHERE id = $1 FOR UPDATE`, id).Scan(&state)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrInstanceNotFound
	}
	if err != nil {
		return fmt.Errorf("lock instance: %w", err)
	}
	if domain.State(state) != domain.StateAwaitingTaker {
		return domain.ErrWrongState
	}

	tag, err := tx.Exec(ctx, `
		INSERT INTO quiz_responses (instance_id, responder_id, answers, submitted_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (instance_id, responder_id) DO NOTHING`,
		id, responderID, raw, answers.SubmittedAt)
	if err != nil {
		return fmt.Errorf("insert response: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAlreadyResponded
	}

	if complete {
		tag, err := tx.Exec(ctx, `
			UPDATE quiz_instances SET state = 'completed', updated_at = now()
			WHERE id = $1 AND state = 'awaiting_taker'`, id)
		if err != nil {
			return fmt.Errorf("complete instance: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrWrongState
		}
	} else {
		if _, err := tx.Exec(ctx, `UPDATE quiz_instances SET updated_at = now() WHERE id = $1`, id); err != nil {
			return fmt.Errorf("touch instance: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit response: %w", err)
	}
	return nil
}
