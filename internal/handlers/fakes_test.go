package handlers

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/emilythestrangee/dcplaces/backend/internal/identity"
	"github.com/emilythestrangee/dcplaces/backend/internal/models"
	"github.com/emilythestrangee/dcplaces/backend/internal/repository"
)

// memoryPosts keeps posts and their comment lists in memory.
type memoryPosts struct {
	mu       sync.Mutex
	nextID   int64
	clock    time.Time
	posts    map[int64]*models.Post
	comments map[int64][]models.Comment
}

func newMemoryPosts() *memoryPosts {
	return &memoryPosts{
		clock:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		posts:    make(map[int64]*models.Post),
		comments: make(map[int64][]models.Comment),
	}
}

func (m *memoryPosts) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memoryPosts) List(ctx context.Context, opts repository.ListOptions) ([]models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []models.Post
	for _, p := range m.posts {
		if opts.Search != "" && !strings.Contains(strings.ToLower(p.Title), strings.ToLower(opts.Search)) {
			continue
		}
		out = append(out, *p)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if opts.Sort == repository.SortUpvotes && a.Upvotes != b.Upvotes {
			return a.Upvotes > b.Upvotes
		}
		if opts.Sort != repository.SortUpvotes && !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID > b.ID
	})
	return out, nil
}

func (m *memoryPosts) Featured(ctx context.Context, limit int) ([]models.Post, error) {
	all, _ := m.List(ctx, repository.ListOptions{Sort: repository.SortNewest})
	var out []models.Post
	for _, p := range all {
		if p.ImageURL != "" && len(out) < limit {
			out = append(out, p)
		}
	}
	return out, nil
}

func (m *memoryPosts) Get(ctx context.Context, id int64) (*models.Post, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return nil, repository.ErrPostNotFound
	}
	cp := *p
	return &cp, nil
}

func (m *memoryPosts) Create(ctx context.Context, post *models.Post) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	post.ID = m.nextID
	post.CreatedAt = m.tick()
	post.Comments = "[]"
	cp := *post
	m.posts[post.ID] = &cp
	return nil
}

func (m *memoryPosts) Update(ctx context.Context, id int64, req models.UpdatePostRequest) (*models.Post, error) {
	m.mu.Lock()
	p, ok := m.posts[id]
	if !ok {
		m.mu.Unlock()
		return nil, repository.ErrPostNotFound
	}
	p.Title, p.Content, p.ImageURL = req.Title, req.Content, req.ImageURL
	m.mu.Unlock()
	return m.Get(ctx, id)
}

func (m *memoryPosts) Delete(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[id]; !ok {
		return repository.ErrPostNotFound
	}
	delete(m.posts, id)
	delete(m.comments, id)
	return nil
}

func (m *memoryPosts) Upvote(ctx context.Context, id int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.posts[id]
	if !ok {
		return 0, repository.ErrPostNotFound
	}
	p.Upvotes++
	return p.Upvotes, nil
}

// memoryComments shares memoryPosts' storage.
type memoryComments struct{ *memoryPosts }

func (m memoryComments) List(ctx context.Context, postID int64) ([]models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[postID]; !ok {
		return nil, repository.ErrPostNotFound
	}
	return append([]models.Comment(nil), m.comments[postID]...), nil
}

func (m memoryComments) Add(ctx context.Context, postID int64, content string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(content) == "" {
		return nil, repository.ErrEmptyComment
	}
	if _, ok := m.posts[postID]; !ok {
		return nil, repository.ErrPostNotFound
	}
	now := m.tick()
	c := models.Comment{ID: now.UnixMilli(), Content: content, CreatedAt: now}
	m.comments[postID] = append([]models.Comment{c}, m.comments[postID]...)
	return &c, nil
}

func (m memoryComments) Edit(ctx context.Context, postID, commentID int64, content string) (*models.Comment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if strings.TrimSpace(content) == "" {
		return nil, repository.ErrEmptyComment
	}
	if _, ok := m.posts[postID]; !ok {
		return nil, repository.ErrPostNotFound
	}
	for i, c := range m.comments[postID] {
		if c.ID == commentID {
			now := m.tick()
			m.comments[postID][i].Content = content
			m.comments[postID][i].EditedAt = &now
			cp := m.comments[postID][i]
			return &cp, nil
		}
	}
	return nil, repository.ErrCommentNotFound
}

func (m memoryComments) Delete(ctx context.Context, postID, commentID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.posts[postID]; !ok {
		return repository.ErrPostNotFound
	}
	list := m.comments[postID]
	for i, c := range list {
		if c.ID == commentID {
			m.comments[postID] = append(list[:i:i], list[i+1:]...)
			return nil
		}
	}
	return repository.ErrCommentNotFound
}

// fakeAuth knows a single account.
type fakeAuth struct {
	signOuts []string
}

func (f *fakeAuth) session() *identity.AuthData {
	u := models.User{ID: "user-1", Email: "known@example.com"}
	return &identity.AuthData{
		User:    &u,
		Session: &models.Session{AccessToken: "access-1", RefreshToken: "refresh-1", ExpiresIn: 3600, User: u},
	}
}

func (f *fakeAuth) SignUp(ctx context.Context, email, password string) identity.Result {
	if email == "known@example.com" {
		return identity.Result{Error: "User already registered"}
	}
	return identity.Result{Success: true, Data: &identity.AuthData{User: &models.User{ID: "user-2", Email: email}}}
}

func (f *fakeAuth) SignIn(ctx context.Context, email, password string) identity.Result {
	if email != "known@example.com" || password != "secret123" {
		return identity.Result{Error: "Invalid login credentials"}
	}
	return identity.Result{Success: true, Data: f.session()}
}

func (f *fakeAuth) SignOut(ctx context.Context, accessToken string) identity.Result {
	f.signOuts = append(f.signOuts, accessToken)
	return identity.Result{Success: true}
}

func (f *fakeAuth) RefreshSession(ctx context.Context, refreshToken string) identity.Result {
	if refreshToken != "refresh-1" {
		return identity.Result{Error: "Invalid Refresh Token"}
	}
	return identity.Result{Success: true, Data: f.session()}
}

func (f *fakeAuth) GetUser(ctx context.Context, accessToken string) identity.Result {
	return identity.Result{Success: true, Data: &identity.AuthData{User: f.session().User}}
}
