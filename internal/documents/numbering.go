package documents

import (
	"context"
	"fmt"
	"sync"

	"github.com/domeo/domeo-backend/pkg/enums"
	pkgerrors "github.com/domeo/domeo-backend/pkg/errors"
	"github.com/domeo/domeo-backend/pkg/redis"
)

// FormatNumber renders a document number such as ORD-000042.
func FormatNumber(kind enums.DocumentKind, seq int64) string {
	return fmt.Sprintf("%s-%06d", kind.NumberPrefix(), seq)
}

type numberer interface {
	Next(ctx context.Context, kind enums.DocumentKind) (string, error)
}

type redisNumberer struct {
	seq redis.Sequencer
}

func (n redisNumberer) Next(ctx context.Context, kind enums.DocumentKind) (string, error) {
	seq, err := n.seq.NextSequence(ctx, kind.String())
	if err != nil {
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "allocate document number")
	}
	return FormatNumber(kind, seq), nil
}

// localNumberer is used when Redis is disabled. Each kind's counter is
// seeded from the row count the first time it is needed.
type localNumberer struct {
	mu       sync.Mutex
	repo     Repository
	counters map[enums.DocumentKind]int64
}

func newLocalNumberer(repo Repository) *localNumberer {
	return &localNumberer{repo: repo, counters: make(map[enums.DocumentKind]int64)}
}

func (n *localNumberer) Next(ctx context.Context, kind enums.DocumentKind) (string, error) {
	n.mu.Lock()
	defer n.mu.Unlock()
	current, ok := n.counters[kind]
	if !ok {
		count, err := n.repo.CountDocuments(ctx, kind)
		if err != nil {
			return "", err
		}
		current = count
	}
	current++
	n.counters[kind] = current
	return FormatNumber(kind, current), nil
}
