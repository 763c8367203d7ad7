package adapter

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/asmitsaw/STARTX-Starterpack-of-your-career-sub001/internal/pkg/connections/port"
)

// PgConnectionGate answers the connection predicate against the social-graph
// service's connection relation. Read-only; the relation itself is owned and
// mutated elsewhere.
type PgConnectionGate struct {
	pool *pgxpool.Pool
}

func NewPgConnectionGate(pool *pgxpool.Pool) *PgConnectionGate {
	return &PgConnectionGate{pool: pool}
}

var _ port.Gate = (*PgConnectionGate)(nil)

func (g *PgConnectionGate) CanConverse(ctx context.Context, userA, userB string) (bool, error) {
	if g == nil || g.pool == nil {
		return false, errors.New("PgConnectionGate: nil pool")
	}
	var connected bool
	err := g.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM public.connection
			WHERE status = 'accepted'
			  AND ((requester_id = $1::uuid AND recipient_id = $2::uuid)
			    OR (requester_id = $2::uuid AND recipient_id = $1::uuid))
		)
	`, userA, userB).Scan(&connected)
	if err != nil {
		return false, err
	}
	return connected, nil
}
