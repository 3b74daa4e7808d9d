// Package testutil wires the app against an in-memory SQLite database for
// service and handler tests.
package testutil

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/Dune005/syfte/internal/app"
	"github.com/Dune005/syfte/internal/config"
	"github.com/Dune005/syfte/internal/db"
	"github.com/Dune005/syfte/internal/model"
	"github.com/Dune005/syfte/internal/notify"
	"github.com/Dune005/syfte/internal/service"
	"github.com/Dune005/syfte/internal/storage"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// Password satisfies the password rules and is used for every test user.
const Password = "correct-horse-battery"

// NewDB opens a migrated in-memory SQLite database closed at test end.
func NewDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := db.Init(db.DriverSQLite, ":memory:?_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, db.RunMigrations(database.DB, db.DriverSQLite))
	return database
}

// Config returns a development config that needs no environment.
func Config() *config.Config {
	return &config.Config{
		AppName:                  "Syfte",
		AppEnv:                   "development",
		AppURL:                   "http://localhost:8090",
		Port:                     "8090",
		AppTimezone:              "UTC",
		DBDriver:                 db.DriverSQLite,
		JWTSecret:                "test-secret-that-is-long-enough",
		JWTExpiry:                time.Hour,
		TokenPasswordResetExpiry: time.Hour,
		VAPIDPublicKey:           "test-public-key",
		VAPIDSubject:             "mailto:test@syfte.ch",
		NotifyEnabled:            true,
		NotifySchedule:           "* * * * *",
		MaxActiveGoals:           50,
		MaxCustomActions:         100,
	}
}

// Clock is a settable time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

func NewClock(now time.Time) *Clock {
	return &Clock{now: now}
}

func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *Clock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// Delivery is a push message recorded by FakeSender.
type Delivery struct {
	UserID   string
	Endpoint string
	Message  notify.Message
}

// FakeSender records deliveries. Endpoints listed in Gone answer ErrGone.
type FakeSender struct {
	mu   sync.Mutex
	Sent []Delivery
	Gone map[string]bool
}

func (f *FakeSender) Send(_ context.Context, sub *model.PushSubscription, msg notify.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.Gone[sub.Endpoint] {
		return notify.ErrGone
	}
	f.Sent = append(f.Sent, Delivery{UserID: sub.UserID, Endpoint: sub.Endpoint, Message: msg})
	return nil
}

func (f *FakeSender) Deliveries() []Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Delivery(nil), f.Sent...)
}

// Env is a fully wired app with its test doubles.
type Env struct {
	*app.App
	Clock   *Clock
	Sender  *FakeSender
	Storage *storage.Memory
}

// NewEnv wires the app on a fresh database with the clock set to now (UTC).
func NewEnv(t *testing.T, now time.Time) *Env {
	t.Helper()

	clock := NewClock(now)
	sender := &FakeSender{Gone: map[string]bool{}}
	mem := storage.NewMemory("http://localhost:8090/files")
	calendar := service.NewCalendar(time.UTC, clock.Now)

	a := app.Wire(Config(), NewDB(t), calendar, mem, sender)
	return &Env{App: a, Clock: clock, Sender: sender, Storage: mem}
}

// CreateUser registers a user with Password.
func (e *Env) CreateUser(t *testing.T, username string) *model.User {
	t.Helper()

	user, err := e.AuthService.Register(context.Background(), service.RegisterInput{
		Username:  username,
		Email:     username + "@example.com",
		Password:  Password,
		FirstName: "Test",
		LastName:  username,
	})
	require.NoError(t, err)
	return user
}

// Befriend makes a and b accepted friends.
func (e *Env) Befriend(t *testing.T, a, b *model.User) {
	t.Helper()

	req, err := e.FriendService.SendRequest(context.Background(), a.ID, b.Username)
	require.NoError(t, err)
	_, err = e.FriendService.Accept(b.ID, req.ID)
	require.NoError(t, err)
}
