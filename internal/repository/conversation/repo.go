package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/claimsdesk/claimsdesk/internal/domain"
)

// querier is the consumer interface over pgxpool.Pool (ISP).
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Repo persists conversations and feedback in PostgreSQL.
type Repo struct {
	db querier
}

// New creates a conversation repository.
func New(db querier) *Repo {
	return &Repo{db: db}
}

// NewPool connects a pgx pool for the conversation store.
func NewPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse database url: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect database: %w", err)
	}
	return pool, nil
}

// EnsureSchema creates the conversation tables if they do not exist.
func (r *Repo) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS conversations (
	id                     TEXT PRIMARY KEY,
	question               TEXT NOT NULL,
	answer                 TEXT NOT NULL,
	section                TEXT NOT NULL,
	model_used             TEXT NOT NULL,
	response_time_sec      DOUBLE PRECISION NOT NULL,
	relevance              TEXT NOT NULL,
	relevance_explanation  TEXT NOT NULL,
	prompt_tokens          INTEGER NOT NULL,
	completion_tokens      INTEGER NOT NULL,
	total_tokens           INTEGER NOT NULL,
	eval_prompt_tokens     INTEGER NOT NULL,
	eval_completion_tokens INTEGER NOT NULL,
	eval_total_tokens      INTEGER NOT NULL,
	openai_cost            DOUBLE PRECISION NOT NULL DEFAULT 0,
	created_at             TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS feedback (
	id              BIGSERIAL PRIMARY KEY,
	conversation_id TEXT NOT NULL REFERENCES conversations(id),
	score           INTEGER NOT NULL DEFAULT 0,
	relevance       TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_conversations_created_at ON conversations (created_at DESC);
CREATE INDEX IF NOT EXISTS idx_feedback_conversation_id ON feedback (conversation_id);
`

// Save stores one conversation with its full answer record.
func (r *Repo) Save(ctx context.Context, conv domain.Conversation) error {
	rec := conv.Record
	_, err := r.db.Exec(ctx, `
		INSERT INTO conversations (
			id, question, answer, section, model_used, response_time_sec,
			relevance, relevance_explanation,
			prompt_tokens, completion_tokens, total_tokens,
			eval_prompt_tokens, eval_completion_tokens, eval_total_tokens,
			openai_cost
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (id) DO UPDATE SET
			question = EXCLUDED.question,
			answer = EXCLUDED.answer,
			section = EXCLUDED.section,
			model_used = EXCLUDED.model_used,
			response_time_sec = EXCLUDED.response_time_sec,
			relevance = EXCLUDED.relevance,
			relevance_explanation = EXCLUDED.relevance_explanation,
			prompt_tokens = EXCLUDED.prompt_tokens,
			completion_tokens = EXCLUDED.completion_tokens,
			total_tokens = EXCLUDED.total_tokens,
			eval_prompt_tokens = EXCLUDED.eval_prompt_tokens,
			eval_completion_tokens = EXCLUDED.eval_completion_tokens,
			eval_total_tokens = EXCLUDED.eval_total_tokens,
			openai_cost = EXCLUDED.openai_cost
	`,
		conv.ID, conv.Question, rec.Answer, conv.Section, rec.ModelUsed.String(),
		rec.ResponseTime.Seconds(),
		string(rec.Relevance), rec.RelevanceExplanation,
		rec.AnswerTokens.Prompt, rec.AnswerTokens.Completion, rec.AnswerTokens.Total,
		rec.JudgeTokens.Prompt, rec.JudgeTokens.Completion, rec.JudgeTokens.Total,
		rec.Cost,
	)
	if err != nil {
		return fmt.Errorf("save conversation %s: %w", conv.ID, err)
	}
	return nil
}

// SaveFeedback stores one feedback event. A foreign-key violation maps to
// domain.ErrConversationNotFound.
func (r *Repo) SaveFeedback(ctx context.Context, conversationID string, fb domain.Feedback) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO feedback (conversation_id, score, relevance)
		VALUES ($1, $2, $3)
	`, conversationID, fb.Score, string(fb.Relevance))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" { // foreign_key_violation
			return fmt.Errorf("conversation %s: %w", conversationID, domain.ErrConversationNotFound)
		}
		return fmt.Errorf("save feedback for %s: %w", conversationID, err)
	}
	return nil
}

// Recent returns the newest conversations, optionally filtered by relevance.
func (r *Repo) Recent(ctx context.Context, limit int, relevance domain.Verdict) ([]domain.Conversation, error) {
	if limit <= 0 {
		limit = 5
	}

	query := `
		SELECT id, question, answer, section, model_used, response_time_sec,
		       relevance, relevance_explanation,
		       prompt_tokens, completion_tokens, total_tokens,
		       eval_prompt_tokens, eval_completion_tokens, eval_total_tokens,
		       openai_cost, created_at
		FROM conversations`
	args := []any{}
	if relevance != "" {
		query += ` WHERE relevance = $1 ORDER BY created_at DESC LIMIT $2`
		args = append(args, string(relevance), limit)
	} else {
		query += ` ORDER BY created_at DESC LIMIT $1`
		args = append(args, limit)
	}

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("recent conversations: %w", err)
	}
	defer rows.Close()

	var convs []domain.Conversation
	for rows.Next() {
		conv, err := scanConversation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan conversation: %w", err)
		}
		convs = append(convs, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("recent conversations: %w", err)
	}
	return convs, nil
}

// FeedbackStats aggregates all feedback events in one round-trip.
func (r *Repo) FeedbackStats(ctx context.Context) (domain.FeedbackStats, error) {
	var stats domain.FeedbackStats
	err := r.db.QueryRow(ctx, `
		SELECT
			COUNT(*) FILTER (WHERE score = 1),
			COUNT(*) FILTER (WHERE score = -1),
			COUNT(*) FILTER (WHERE relevance = 'RELEVANT'),
			COUNT(*) FILTER (WHERE relevance = 'PARTLY_RELEVANT'),
			COUNT(*) FILTER (WHERE relevance = 'NON_RELEVANT')
		FROM feedback
	`).Scan(
		&stats.ThumbsUp, &stats.ThumbsDown,
		&stats.Relevant, &stats.PartlyRelevant, &stats.NonRelevant,
	)
	if err != nil {
		return domain.FeedbackStats{}, fmt.Errorf("feedback stats: %w", err)
	}
	return stats, nil
}

func scanConversation(row pgx.Row) (domain.Conversation, error) {
	var (
		conv            domain.Conversation
		modelUsed       string
		responseTimeSec float64
		relevance       string
		createdAt       time.Time
	)
	err := row.Scan(
		&conv.ID, &conv.Question, &conv.Record.Answer, &conv.Section,
		&modelUsed, &responseTimeSec,
		&relevance, &conv.Record.RelevanceExplanation,
		&conv.Record.AnswerTokens.Prompt, &conv.Record.AnswerTokens.Completion, &conv.Record.AnswerTokens.Total,
		&conv.Record.JudgeTokens.Prompt, &conv.Record.JudgeTokens.Completion, &conv.Record.JudgeTokens.Total,
		&conv.Record.Cost, &createdAt,
	)
	if err != nil {
		return domain.Conversation{}, err
	}

	// Stored values may predate validation; degrade instead of failing the
	// whole listing.
	if ref, err := domain.ParseModelRef(modelUsed); err == nil {
		conv.Record.ModelUsed = ref
	}
	verdict, _ := domain.ParseVerdict(relevance)
	conv.Record.Relevance = verdict

	conv.Record.ResponseTime = time.Duration(responseTimeSec * float64(time.Second))
	conv.CreatedAt = createdAt
	return conv, nil
}
