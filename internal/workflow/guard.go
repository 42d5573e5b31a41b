package workflow

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

// Guard admits at most one in-flight submission per form instance.
// Acquire returns ok=false when key is already held; release must be called
// once the submission finishes.
type Guard interface {
	Acquire(ctx context.Context, key string) (release func(), ok bool, err error)
}

// FormKey identifies one form instance of one user, e.g. "<uuid>:post:new".
func FormKey(userID uuid.UUID, form string) string {
	return userID.String() + ":" + form
}

// Form names used in guard keys.
const (
	FormNewPost = "post:new"
	FormProfile = "profile"
)

// FormEditPost is the form name for editing the post with id.
func FormEditPost(id uuid.UUID) string {
	return "post:" + id.String()
}

// LocalGuard is an in-process Guard. It serves single-instance deployments
// and tests.
type LocalGuard struct {
	mu   sync.Mutex
	held map[string]struct{}
}

// NewLocalGuard returns an empty LocalGuard.
func NewLocalGuard() *LocalGuard {
	return &LocalGuard{held: make(map[string]struct{})}
}

// Acquire implements Guard. It never returns an error.
func (g *LocalGuard) Acquire(_ context.Context, key string) (func(), bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.held[key]; busy {
		return nil, false, nil
	}
	g.held[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.held, key)
			g.mu.Unlock()
		})
	}, true, nil
}
