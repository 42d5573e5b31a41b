package workflow

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"inkpress/internal/models"
	"inkpress/internal/store"
)

// fakePosts is an in-memory PostRepository that records every write.
type fakePosts struct {
	mu        sync.Mutex
	posts     map[uuid.UUID]models.Post
	creates   []models.Post
	updates   []models.Post
	finds     int
	createErr error
	updateErr error
	findErr   error
	// entered is signalled when a write starts; block, when set, is
	// received from before the write returns.
	entered chan struct{}
	block   chan struct{}
}

func (f *fakePosts) hold() {
	if f.entered != nil {
		select {
		case f.entered <- struct{}{}:
		default:
		}
	}
	if f.block != nil {
		<-f.block
	}
}

func newFakePosts() *fakePosts {
	return &fakePosts{posts: make(map[uuid.UUID]models.Post)}
}

func (f *fakePosts) seed(p models.Post) models.Post {
	f.mu.Lock()
	defer f.mu.Unlock()
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	f.posts[p.ID] = p
	return p
}

func (f *fakePosts) Create(_ context.Context, p *models.Post) (*models.Post, error) {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creates = append(f.creates, *p)
	if f.createErr != nil {
		return nil, f.createErr
	}
	created := *p
	created.ID = uuid.New()
	created.CreatedAt = time.Now()
	created.UpdatedAt = created.CreatedAt
	f.posts[created.ID] = created
	return &created, nil
}

func (f *fakePosts) Update(_ context.Context, p *models.Post) error {
	f.hold()
	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, *p)
	if f.updateErr != nil {
		return f.updateErr
	}
	old, ok := f.posts[p.ID]
	if !ok || old.AuthorID != p.AuthorID {
		return &store.Error{Op: "update post", Kind: store.KindNotFound, Err: store.ErrNotFound}
	}
	// Mirror the SQL: the slug column is never written.
	p2 := *p
	p2.Slug = old.Slug
	f.posts[p.ID] = p2
	return nil
}

func (f *fakePosts) FindByIDForAuthor(_ context.Context, id, authorID uuid.UUID) (*models.Post, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finds++
	if f.findErr != nil {
		return nil, f.findErr
	}
	p, ok := f.posts[id]
	if !ok || p.AuthorID != authorID {
		return nil, &store.Error{Op: "find post by id", Kind: store.KindNotFound, Err: store.ErrNotFound}
	}
	return &p, nil
}

func (f *fakePosts) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.creates) + len(f.updates)
}

// fakeTags records Replace calls.
type fakeTags struct {
	replaced map[uuid.UUID][]string
	err      error
}

func (f *fakeTags) Replace(_ context.Context, postID uuid.UUID, names []string) error {
	if f.replaced == nil {
		f.replaced = make(map[uuid.UUID][]string)
	}
	f.replaced[postID] = names
	return f.err
}

// fixedSlugs hands out a predictable slug.
type fixedSlugs struct{ suffix string }

func (s fixedSlugs) Make(title string) string {
	return "slug-of-" + title + "-" + s.suffix
}

// mockProfiles is a testify mock of ProfileRepository.
type mockProfiles struct {
	mock.Mock
}

func (m *mockProfiles) Update(ctx context.Context, p *models.Profile) error {
	return m.Called(ctx, p).Error(0)
}

// brokenGuard always fails to reach its backend.
type brokenGuard struct{}

func (brokenGuard) Acquire(context.Context, string) (func(), bool, error) {
	return nil, false, errors.New("valkey down")
}

// recorder collects state transitions.
type recorder struct {
	mu    sync.Mutex
	steps []State
}

func (r *recorder) observe(_, to State) {
	r.mu.Lock()
	r.steps = append(r.steps, to)
	r.mu.Unlock()
}
