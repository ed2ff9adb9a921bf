package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/sakif/refactorium/internal/apperror"
	"github.com/sakif/refactorium/internal/auth"
	"github.com/sakif/refactorium/internal/model"
)

// =========================================================================
// FAKES AND HELPERS
// =========================================================================

// fakeUserRepo is an in-memory repository.UserRepository.
// writes counts every mutating call so tests can assert "no side effects".
type fakeUserRepo struct {
	mu     sync.Mutex
	users  map[string]*model.User
	byGHID map[int64]*model.User
	nextID int
	writes int

	upsertErr error
	getErr    error
	updateErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{
		users:  make(map[string]*model.User),
		byGHID: make(map[int64]*model.User),
		nextID: 1,
	}
}

func (f *fakeUserRepo) Upsert(ctx context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	f.writes++

	if existing, ok := f.byGHID[user.GitHubID]; ok {
		existing.Login = user.Login
		existing.Email = user.Email
		existing.AvatarURL = user.AvatarURL
		*user = *existing
		return nil
	}

	user.ID = fmt.Sprintf("user-fake-id-%d", f.nextID)
	f.nextID++
	user.CreatedAt = time.Now()
	user.UpdatedAt = user.CreatedAt
	stored := *user
	f.users[user.ID] = &stored
	f.byGHID[user.GitHubID] = &stored
	return nil
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdateProfile(ctx context.Context, id string, edit model.ProfileEdit) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	f.writes++
	u.Name, u.Bio, u.Location, u.Website = edit.Name, edit.Bio, edit.Location, edit.Website
	u.LinkedinURL, u.TwitterURL = edit.LinkedinURL, edit.TwitterURL
	u.UpdatedAt = time.Now()
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) ApplySync(ctx context.Context, id string, fields model.SyncedFields) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	u, ok := f.users[id]
	if !ok {
		return nil, apperror.NotFound("user", id)
	}
	f.writes++
	u.Name, u.Bio, u.Location, u.Website = fields.Name, fields.Bio, fields.Location, fields.Website
	u.GitHubURL, u.TwitterURL = fields.GitHubURL, fields.TwitterURL
	u.UpdatedAt = time.Now()
	copied := *u
	return &copied, nil
}

// seed stores u as-is and returns its ID.
func (f *fakeUserRepo) seed(u model.User) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		u.ID = fmt.Sprintf("user-fake-id-%d", f.nextID)
		f.nextID++
	}
	f.users[u.ID] = &u
	f.byGHID[u.GitHubID] = &u
	return u.ID
}

type fakePrefsRepo struct {
	mu     sync.Mutex
	prefs  map[string]model.Preferences
	writes int
}

func newFakePrefsRepo() *fakePrefsRepo {
	return &fakePrefsRepo{prefs: make(map[string]model.Preferences)}
}

func (f *fakePrefsRepo) EnsurePreferences(ctx context.Context, p *model.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.prefs[p.UserID]; !ok {
		f.writes++
		f.prefs[p.UserID] = *p
	}
	return nil
}

func (f *fakePrefsRepo) GetPreferences(ctx context.Context, userID string) (*model.Preferences, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.prefs[userID]
	if !ok {
		return nil, apperror.NotFound("preferences", userID)
	}
	return &p, nil
}

func (f *fakePrefsRepo) SavePreferences(ctx context.Context, p *model.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.prefs[p.UserID] = *p
	return nil
}

type fakeCredRepo struct {
	mu     sync.Mutex
	creds  map[string][]byte
	writes int
	getErr error
}

func newFakeCredRepo() *fakeCredRepo {
	return &fakeCredRepo{creds: make(map[string][]byte)}
}

func (f *fakeCredRepo) PutCredential(ctx context.Context, userID, provider string, sealed []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.writes++
	f.creds[provider+":"+userID] = sealed
	return nil
}

func (f *fakeCredRepo) GetCredential(ctx context.Context, userID, provider string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	sealed, ok := f.creds[provider+":"+userID]
	if !ok {
		return nil, apperror.NotFound("credential", provider+":"+userID)
	}
	return sealed, nil
}

// fakeFavoriteRepo mimics the unique index: a duplicate insert fails with
// apperror.ErrAlreadyFavorited whatever FavoriteExists said.
type fakeFavoriteRepo struct {
	mu      sync.Mutex
	edges   map[string]model.Favorite
	catalog *fakeCatalog
	clock   time.Time
	writes  int
	calls   int

	// existsAlwaysFalse disables the fast path to exercise the constraint.
	existsAlwaysFalse bool
}

func newFakeFavoriteRepo(catalog *fakeCatalog) *fakeFavoriteRepo {
	return &fakeFavoriteRepo{
		edges:   make(map[string]model.Favorite),
		catalog: catalog,
		clock:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func edgeKey(userID, smellID string) string { return userID + "|" + smellID }

func (f *fakeFavoriteRepo) FavoriteExists(ctx context.Context, userID, smellID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.existsAlwaysFalse {
		return false, nil
	}
	_, ok := f.edges[edgeKey(userID, smellID)]
	return ok, nil
}

func (f *fakeFavoriteRepo) InsertFavorite(ctx context.Context, fav *model.Favorite) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := edgeKey(fav.UserID, fav.SmellID)
	if _, ok := f.edges[key]; ok {
		return apperror.AlreadyFavorited(fav.SmellID)
	}
	f.writes++
	f.clock = f.clock.Add(time.Second)
	fav.ID = fmt.Sprintf("fav-%d", f.writes)
	fav.CreatedAt = f.clock
	f.edges[key] = *fav
	return nil
}

func (f *fakeFavoriteRepo) DeleteFavorite(ctx context.Context, userID, smellID string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	key := edgeKey(userID, smellID)
	if _, ok := f.edges[key]; !ok {
		return false, nil
	}
	f.writes++
	delete(f.edges, key)
	return true, nil
}

func (f *fakeFavoriteRepo) ListFavorites(ctx context.Context, userID string) ([]model.FavoriteEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	entries := []model.FavoriteEntry{}
	for _, fav := range f.edges {
		if fav.UserID != userID {
			continue
		}
		smell, err := f.catalog.GetSmellSummary(ctx, fav.SmellID)
		if err != nil {
			return nil, err
		}
		entries = append(entries, model.FavoriteEntry{Favorite: fav, Smell: *smell, AddedAt: fav.CreatedAt})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].AddedAt.After(entries[j].AddedAt) })
	return entries, nil
}

type fakeCatalog struct {
	smells map[string]model.Smell
}

func newFakeCatalog(smells ...model.Smell) *fakeCatalog {
	c := &fakeCatalog{smells: make(map[string]model.Smell)}
	for _, s := range smells {
		c.smells[s.ID] = s
	}
	return c
}

func (c *fakeCatalog) GetSmellSummary(ctx context.Context, id string) (*model.SmellSummary, error) {
	s, ok := c.smells[id]
	if !ok {
		return nil, apperror.NotFound("smell", id)
	}
	return &model.SmellSummary{
		ID: s.ID, Title: s.Title, Category: s.Category,
		Description: s.Description, Difficulty: s.Difficulty, Tags: s.Tags,
	}, nil
}

func (c *fakeCatalog) UpsertSmell(ctx context.Context, smell *model.Smell) error {
	c.smells[smell.ID] = *smell
	return nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSealer(t *testing.T) *auth.Sealer {
	t.Helper()
	s, err := auth.NewSealer("test-sealing-key-16+")
	if err != nil {
		t.Fatalf("NewSealer: %v", err)
	}
	return s
}

func testTokens(t *testing.T) *auth.TokenService {
	t.Helper()
	ts, err := auth.NewTokenService("test-secret-at-least-16-chars!!", time.Hour)
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	return ts
}

func strPtr(s string) *string { return &s }

func smell42() model.Smell {
	return model.Smell{
		ID:          "item-42",
		Title:       "Long Method",
		Category:    "bloaters",
		Description: "A method that has grown too large",
		Difficulty:  "beginner",
		Tags:        model.Tags{"size"},
	}
}
