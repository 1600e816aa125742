// Package memory implements an in-process store for development and tests.
// It satisfies every repository interface the services consume.
package memory

import (
	"context"
	"fmt"
	"maps"
	"sort"
	"sync"
	"time"

	"github.com/atinyakov/timeledger/internal/apperr"
	"github.com/atinyakov/timeledger/internal/models"
)

// Store keeps all data in maps guarded by one mutex.
type Store struct {
	mu sync.Mutex

	users    map[string]models.User
	byEmail  map[string]string
	sessions map[string]models.Session

	entries     map[int64]models.Entry
	categories  map[int64]models.Category
	reflections map[int64]models.Reflection

	nextID int64
	now    func() time.Time

	// beforePurge runs ahead of each resource purge during account deletion.
	beforePurge func(res models.Resource) error
}

// New creates an empty store.
func New() *Store {
	return &Store{
		users:       make(map[string]models.User),
		byEmail:     make(map[string]string),
		sessions:    make(map[string]models.Session),
		entries:     make(map[int64]models.Entry),
		categories:  make(map[int64]models.Category),
		reflections: make(map[int64]models.Reflection),
		now:         time.Now,
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// --- users ---

func (s *Store) UserExists(ctx context.Context, email string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.byEmail[email]
	return ok, nil
}

func (s *Store) CreateUser(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byEmail[user.Email]; ok {
		return apperr.ErrDuplicateIdentifier
	}
	user.CreatedAt = s.now().UTC()
	s.users[user.ID] = *user
	s.byEmail[user.Email] = user.ID
	return nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.byEmail[email]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	u := s.users[id]
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[id]
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return &u, nil
}

// --- sessions ---

func (s *Store) CreateSession(ctx context.Context, sess models.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[sess.UserID]; !ok {
		return fmt.Errorf("CreateSession: unknown user %s", sess.UserID)
	}
	s.sessions[sess.Token] = sess
	return nil
}

func (s *Store) ResolveSession(ctx context.Context, token string, now time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok || !sess.ExpiresAt.After(now) {
		return "", apperr.ErrNotFound
	}
	if _, ok := s.users[sess.UserID]; !ok {
		return "", apperr.ErrNotFound
	}
	return sess.UserID, nil
}

func (s *Store) DeleteSession(ctx context.Context, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, token)
	return nil
}

func (s *Store) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var n int64
	for token, sess := range s.sessions {
		if !sess.ExpiresAt.After(now) {
			delete(s.sessions, token)
			n++
		}
	}
	return n, nil
}

// --- ownership and account deletion ---

func (s *Store) OwnerOf(ctx context.Context, res models.Resource, id int64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		owner string
		ok    bool
	)
	switch res {
	case models.ResourceEntries:
		var e models.Entry
		e, ok = s.entries[id]
		owner = e.UserID
	case models.ResourceCategories:
		var c models.Category
		c, ok = s.categories[id]
		owner = c.UserID
	case models.ResourceReflections:
		var r models.Reflection
		r, ok = s.reflections[id]
		owner = r.UserID
	default:
		return "", fmt.Errorf("unknown resource %q", res)
	}
	if !ok {
		return "", apperr.ErrNotFound
	}
	return owner, nil
}

type snapshot struct {
	users       map[string]models.User
	byEmail     map[string]string
	sessions    map[string]models.Session
	entries     map[int64]models.Entry
	categories  map[int64]models.Category
	reflections map[int64]models.Reflection
}

func (s *Store) snapshot() snapshot {
	return snapshot{
		users:       maps.Clone(s.users),
		byEmail:     maps.Clone(s.byEmail),
		sessions:    maps.Clone(s.sessions),
		entries:     maps.Clone(s.entries),
		categories:  maps.Clone(s.categories),
		reflections: maps.Clone(s.reflections),
	}
}

func (s *Store) restore(snap snapshot) {
	s.users = snap.users
	s.byEmail = snap.byEmail
	s.sessions = snap.sessions
	s.entries = snap.entries
	s.categories = snap.categories
	s.reflections = snap.reflections
}

func (s *Store) purge(res models.Resource, userID string) error {
	switch res {
	case models.ResourceEntries:
		maps.DeleteFunc(s.entries, func(_ int64, e models.Entry) bool { return e.UserID == userID })
	case models.ResourceCategories:
		maps.DeleteFunc(s.categories, func(_ int64, c models.Category) bool { return c.UserID == userID })
	case models.ResourceReflections:
		maps.DeleteFunc(s.reflections, func(_ int64, r models.Reflection) bool { return r.UserID == userID })
	default:
		return fmt.Errorf("unknown resource %q", res)
	}
	return nil
}

// DeleteAccount removes every owned resource, the user and its sessions.
// Any failure restores the state from before the call.
func (s *Store) DeleteAccount(ctx context.Context, userID string) (err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := s.snapshot()
	defer func() {
		if err != nil {
			s.restore(snap)
		}
	}()

	for _, res := range models.OwnedResources {
		if s.beforePurge != nil {
			if err = s.beforePurge(res); err != nil {
				return err
			}
		}
		if err = s.purge(res, userID); err != nil {
			return err
		}
	}

	u, ok := s.users[userID]
	if !ok {
		return apperr.ErrNotFound
	}
	delete(s.users, userID)
	delete(s.byEmail, u.Email)
	maps.DeleteFunc(s.sessions, func(_ string, sess models.Session) bool { return sess.UserID == userID })
	return nil
}

// --- entries ---

func (s *Store) ListEntries(ctx context.Context, userID string) ([]models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Entry, 0)
	for _, e := range s.entries {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].StartTime.Equal(out[j].StartTime) {
			return out[i].ID < out[j].ID
		}
		return out[i].StartTime.Before(out[j].StartTime)
	})
	return out, nil
}

func (s *Store) CreateEntry(ctx context.Context, userID string, in models.EntryInput) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := models.Entry{ID: s.id(), UserID: userID, CreatedAt: s.now().UTC()}
	applyEntry(&e, in)
	s.entries[e.ID] = e
	return &e, nil
}

func (s *Store) UpdateEntry(ctx context.Context, userID string, id int64, in models.EntryInput) (*models.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return nil, apperr.ErrNotFound
	}
	applyEntry(&e, in)
	s.entries[id] = e
	return &e, nil
}

func (s *Store) DeleteEntry(ctx context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok || e.UserID != userID {
		return apperr.ErrNotFound
	}
	delete(s.entries, id)
	return nil
}

func applyEntry(e *models.Entry, in models.EntryInput) {
	e.StartTime = in.StartTime.UTC()
	e.EndTime = in.EndTime.UTC()
	e.ActivityName = in.ActivityName
	e.Category = in.Category
	e.Energy = in.Energy
	e.Intent = in.Intent
}

// --- categories ---

func (s *Store) ListCategories(ctx context.Context, userID string) ([]models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Category, 0)
	for _, c := range s.categories {
		if c.UserID == userID {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *Store) nameTaken(userID, name string, except int64) bool {
	for id, c := range s.categories {
		if id != except && c.UserID == userID && c.Name == name {
			return true
		}
	}
	return false
}

func (s *Store) CreateCategory(ctx context.Context, userID, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.nameTaken(userID, name, 0) {
		return nil, apperr.ErrDuplicateName
	}
	c := models.Category{ID: s.id(), UserID: userID, Name: name, CreatedAt: s.now().UTC()}
	s.categories[c.ID] = c
	return &c, nil
}

func (s *Store) UpdateCategory(ctx context.Context, userID string, id int64, name string) (*models.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return nil, apperr.ErrNotFound
	}
	if s.nameTaken(userID, name, id) {
		return nil, apperr.ErrDuplicateName
	}
	c.Name = name
	s.categories[id] = c
	return &c, nil
}

func (s *Store) DeleteCategory(ctx context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok || c.UserID != userID {
		return apperr.ErrNotFound
	}
	delete(s.categories, id)
	return nil
}

// --- reflections ---

func (s *Store) ListReflections(ctx context.Context, userID string) ([]models.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]models.Reflection, 0)
	for _, r := range s.reflections {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	// YYYY-MM-DD sorts lexically
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date == out[j].Date {
			return out[i].ID > out[j].ID
		}
		return out[i].Date > out[j].Date
	})
	return out, nil
}

func (s *Store) CreateReflection(ctx context.Context, userID string, in models.ReflectionInput) (*models.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r := models.Reflection{ID: s.id(), UserID: userID, Date: in.Date, Content: in.Content, CreatedAt: s.now().UTC()}
	s.reflections[r.ID] = r
	return &r, nil
}

func (s *Store) UpdateReflection(ctx context.Context, userID string, id int64, in models.ReflectionInput) (*models.Reflection, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reflections[id]
	if !ok || r.UserID != userID {
		return nil, apperr.ErrNotFound
	}
	r.Date = in.Date
	r.Content = in.Content
	s.reflections[id] = r
	return &r, nil
}

func (s *Store) DeleteReflection(ctx context.Context, userID string, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reflections[id]
	if !ok || r.UserID != userID {
		return apperr.ErrNotFound
	}
	delete(s.reflections, id)
	return nil
}
