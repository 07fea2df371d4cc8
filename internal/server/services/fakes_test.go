package services

import (
	"bytes"
	"context"
	"database/sql"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"taskkeeper/internal/common"
	"taskkeeper/internal/dbx"
	"taskkeeper/internal/logging"
	"taskkeeper/internal/server/models"
	"taskkeeper/internal/server/repositories/sessions"
	"taskkeeper/internal/server/repositories/tasks"
	"taskkeeper/internal/server/repositories/users"
)

func discardLogger() logging.Logger {
	return logging.NewSlogLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// ---- users ----

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[string]*models.User)}
}

func (r *fakeUserRepo) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return nil, common.ErrAlreadyExists
		}
	}
	user.ID = uuid.NewString()
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *fakeUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, common.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (r *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, common.ErrNotFound
}

func (r *fakeUserRepo) Update(ctx context.Context, user *models.User) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return nil, common.ErrNotFound
	}
	for _, u := range r.users {
		if u.Email == user.Email && u.ID != user.ID {
			return nil, common.ErrAlreadyExists
		}
	}
	user.UpdatedAt = time.Now()
	cp := *user
	r.users[user.ID] = &cp
	return user, nil
}

func (r *fakeUserRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return common.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// ---- sessions ----

type fakeSessionRepo struct {
	mu        sync.Mutex
	tokens    map[string]map[string]bool // userID -> token set
	createErr error
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{tokens: make(map[string]map[string]bool)}
}

func (r *fakeSessionRepo) Create(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	if r.tokens[userID] == nil {
		r.tokens[userID] = make(map[string]bool)
	}
	r.tokens[userID][token] = true
	return nil
}

func (r *fakeSessionRepo) Exists(ctx context.Context, userID, token string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.tokens[userID][token], nil
}

func (r *fakeSessionRepo) Delete(ctx context.Context, userID, token string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens[userID], token)
	return nil
}

func (r *fakeSessionRepo) DeleteAllForUser(ctx context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tokens, userID)
	return nil
}

func (r *fakeSessionRepo) count(userID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tokens[userID])
}

// ---- tasks ----

type fakeTaskRepo struct {
	mu    sync.Mutex
	tasks map[string]*models.Task
}

func newFakeTaskRepo() *fakeTaskRepo {
	return &fakeTaskRepo{tasks: make(map[string]*models.Task)}
}

func (r *fakeTaskRepo) Create(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	task.ID = uuid.NewString()
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	cp := *task
	r.tasks[task.ID] = &cp
	return task, nil
}

func (r *fakeTaskRepo) GetByID(ctx context.Context, ownerID, id string) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, common.ErrNotFound
	}
	cp := *t
	return &cp, nil
}

func (r *fakeTaskRepo) List(ctx context.Context, ownerID string, filter tasks.ListFilter) ([]*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []*models.Task
	for _, t := range r.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		if filter.Completed != nil && t.Completed != *filter.Completed {
			continue
		}
		cp := *t
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		less := result[i].CreatedAt.Before(result[j].CreatedAt)
		if filter.SortDesc {
			return !less
		}
		return less
	})
	if filter.Skip > 0 {
		if filter.Skip >= len(result) {
			return nil, nil
		}
		result = result[filter.Skip:]
	}
	if filter.Limit > 0 && filter.Limit < len(result) {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *fakeTaskRepo) Update(ctx context.Context, task *models.Task) (*models.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[task.ID]
	if !ok || t.OwnerID != task.OwnerID {
		return nil, common.ErrNotFound
	}
	task.UpdatedAt = time.Now()
	cp := *task
	r.tasks[task.ID] = &cp
	return task, nil
}

func (r *fakeTaskRepo) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	t, ok := r.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return common.ErrNotFound
	}
	delete(r.tasks, id)
	return nil
}

func (r *fakeTaskRepo) DeleteAllForOwner(ctx context.Context, ownerID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, t := range r.tasks {
		if t.OwnerID == ownerID {
			delete(r.tasks, id)
		}
	}
	return nil
}

func (r *fakeTaskRepo) countForOwner(ownerID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, t := range r.tasks {
		if t.OwnerID == ownerID {
			n++
		}
	}
	return n
}

// ---- manager over the fakes ----

type fakeManager struct {
	userRepo    *fakeUserRepo
	sessionRepo *fakeSessionRepo
	taskRepo    *fakeTaskRepo
}

func newFakeManager() *fakeManager {
	return &fakeManager{
		userRepo:    newFakeUserRepo(),
		sessionRepo: newFakeSessionRepo(),
		taskRepo:    newFakeTaskRepo(),
	}
}

func (m *fakeManager) Users(db dbx.DBTX) users.Repository          { return m.userRepo }
func (m *fakeManager) Sessions(db dbx.DBTX) sessions.Repository    { return m.sessionRepo }
func (m *fakeManager) Tasks(db dbx.DBTX) tasks.Repository          { return m.taskRepo }
func (m *fakeManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return nil
}

// ---- avatar store ----

type fakeAvatarStore struct {
	mu      sync.Mutex
	avatars map[string][]byte
}

func newFakeAvatarStore() *fakeAvatarStore {
	return &fakeAvatarStore{avatars: make(map[string][]byte)}
}

func (s *fakeAvatarStore) Set(ctx context.Context, userID string, png []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.avatars[userID] = png
	return nil
}

func (s *fakeAvatarStore) Get(ctx context.Context, userID string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	png, ok := s.avatars[userID]
	if !ok {
		return nil, common.ErrNotFound
	}
	return png, nil
}

func (s *fakeAvatarStore) Delete(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.avatars, userID)
	return nil
}

// ---- mailer ----

type recordingMailer struct {
	welcome      chan string
	cancellation chan string
}

func newRecordingMailer() *recordingMailer {
	return &recordingMailer{
		welcome:      make(chan string, 8),
		cancellation: make(chan string, 8),
	}
}

func (m *recordingMailer) SendWelcome(ctx context.Context, email, name string) error {
	m.welcome <- email
	return nil
}

func (m *recordingMailer) SendCancellation(ctx context.Context, email, name string) error {
	m.cancellation <- email
	return nil
}

// ---- image helpers ----

func makeTestJPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x += 7 {
		for y := 0; y < h; y += 7 {
			img.Set(x, y, color.RGBA{R: 200, G: 30, B: 30, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("jpeg encode: %v", err)
	}
	return buf.Bytes()
}

func assertPNGSize(t testing.TB, data []byte, size int) {
	t.Helper()
	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored avatar is not PNG: %v", err)
	}
	b := img.Bounds()
	if b.Dx() != size || b.Dy() != size {
		t.Fatalf("avatar is %dx%d, want %dx%d", b.Dx(), b.Dy(), size, size)
	}
}
