package transfer

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/manolisliolios/rwa-standard/internal/audit"
	"github.com/manolisliolios/rwa-standard/internal/platform/metrics"
	dErrors "github.com/manolisliolios/rwa-standard/pkg/domain-errors"
	txcontext "github.com/manolisliolios/rwa-standard/pkg/platform/tx"
)

var tracer = otel.Tracer("github.com/manolisliolios/rwa-standard/internal/transfer")

// defaultUnitTimeout bounds how long one atomic unit may run.
const defaultUnitTimeout = 5 * time.Second

// UnitRunner executes a function as one atomic unit: every balance
// mutation inside either commits together or rolls back together, and a
// unit that leaves a transfer request pending cannot commit. Audit events
// emitted inside the unit are published only after commit.
type UnitRunner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

// scope tracks the transfer requests created inside one unit.
type scope struct {
	mu      sync.Mutex
	pending int
}

func (s *scope) track() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending++
}

func (s *scope) release() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pending--
}

func (s *scope) outstanding() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending
}

type scopeKey struct{}

func withScope(ctx context.Context, sc *scope) context.Context {
	return context.WithValue(ctx, scopeKey{}, sc)
}

func scopeFrom(ctx context.Context) (*scope, bool) {
	sc, ok := ctx.Value(scopeKey{}).(*scope)
	return sc, ok
}

// Snapshotter is implemented by in-memory stores that can capture and
// restore their records around an atomic unit.
type Snapshotter interface {
	Snapshot() any
	Restore(snapshot any)
}

// MemoryUnit serializes units under one coarse lock and rolls back by
// restoring store snapshots. It pairs with the in-memory stores.
type MemoryUnit struct {
	mu      sync.Mutex
	stores  []Snapshotter
	emitter *audit.Emitter
	metrics *metrics.Metrics
	timeout time.Duration
}

func NewMemoryUnit(emitter *audit.Emitter, m *metrics.Metrics, stores ...Snapshotter) *MemoryUnit {
	return &MemoryUnit{stores: stores, emitter: emitter, metrics: m}
}

func (u *MemoryUnit) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel, err := unitContext(ctx, u.timeout)
	if err != nil {
		return err
	}
	defer cancel()

	u.mu.Lock()
	defer u.mu.Unlock()

	snapshots := make([]any, len(u.stores))
	for i, s := range u.stores {
		snapshots[i] = s.Snapshot()
	}

	// Restore fires on error and on panic; a panic escaping fn must not
	// leave half the unit's mutations behind.
	committed := false
	defer func() {
		if committed {
			return
		}
		for i, s := range u.stores {
			s.Restore(snapshots[i])
		}
		u.metrics.IncUnitsAborted()
	}()

	buf := audit.NewBuffer()
	if err := runScoped(audit.WithBuffer(ctx, buf), fn); err != nil {
		return err
	}
	committed = true
	u.metrics.IncUnitsCommitted()
	u.emitter.FlushBuffer(ctx, buf)
	return nil
}

// PostgresUnit maps the atomic unit onto a SQL transaction. Stores joined
// through pkg/platform/tx share it; rollback is the database's.
type PostgresUnit struct {
	db      *sql.DB
	emitter *audit.Emitter
	metrics *metrics.Metrics
	timeout time.Duration
}

func NewPostgresUnit(db *sql.DB, emitter *audit.Emitter, m *metrics.Metrics) *PostgresUnit {
	return &PostgresUnit{db: db, emitter: emitter, metrics: m}
}

// maxSerializationRetries bounds how often one unit is replayed after
// losing a serialization conflict to a concurrent unit.
const maxSerializationRetries = 3

func (u *PostgresUnit) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, cancel, err := unitContext(ctx, u.timeout)
	if err != nil {
		return err
	}
	defer cancel()

	// Units run SERIALIZABLE so concurrent read-modify-write on the same
	// record cannot commit a stale balance document; the loser aborts with
	// SQLSTATE 40001 and the whole unit is replayed from scratch.
	for attempt := 0; ; attempt++ {
		err = u.runOnce(ctx, fn)
		if !isSerializationFailure(err) || attempt >= maxSerializationRetries {
			break
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = dErrors.Wrap(ctxErr, dErrors.CodeTimeout, "atomic unit aborted: context cancelled")
			break
		}
	}
	if err != nil {
		u.metrics.IncUnitsAborted()
		return err
	}
	u.metrics.IncUnitsCommitted()
	return nil
}

func (u *PostgresUnit) runOnce(ctx context.Context, fn func(ctx context.Context) error) error {
	sqlTx, err := u.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelSerializable})
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to begin atomic unit")
	}
	defer func() {
		_ = sqlTx.Rollback()
	}()

	buf := audit.NewBuffer()
	if err := runScoped(audit.WithBuffer(txcontext.WithTx(ctx, sqlTx), buf), fn); err != nil {
		return err
	}
	if err := sqlTx.Commit(); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to commit atomic unit")
	}
	u.emitter.FlushBuffer(ctx, buf)
	return nil
}

// isSerializationFailure reports whether err carries SQLSTATE 40001,
// Postgres's signal that the transaction lost a serialization conflict
// and is safe to replay.
func isSerializationFailure(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "40001"
}

// runScoped runs fn with a fresh request scope and enforces that every
// transfer request created inside was resolved before fn returned.
func runScoped(ctx context.Context, fn func(ctx context.Context) error) error {
	ctx, span := tracer.Start(ctx, "unit.run", trace.WithSpanKind(trace.SpanKindInternal))
	defer span.End()

	sc := &scope{}
	err := fn(withScope(ctx, sc))
	if err == nil {
		if n := sc.outstanding(); n > 0 {
			err = dErrors.Newf(dErrors.CodeInvariantViolation,
				"atomic unit left %d transfer request(s) unresolved", n)
		}
	}
	if err != nil {
		span.RecordError(err)
		return err
	}
	return nil
}

// unitContext applies the unit timeout when the caller set no deadline,
// and refuses to start a unit on a context that is already done.
func unitContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, dErrors.Wrap(err, dErrors.CodeTimeout, "atomic unit aborted: context cancelled")
	}
	if timeout == 0 {
		timeout = defaultUnitTimeout
	}
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		ctx, cancel := context.WithTimeout(ctx, timeout)
		return ctx, cancel, nil
	}
	return ctx, func() {}, nil
}
