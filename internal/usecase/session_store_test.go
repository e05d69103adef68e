package usecase

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/apperror"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/entity"
	"github.com/rocketscienceinc/tictactoe-multiplayer/internal/repository"
	"github.com/rocketscienceinc/tictactoe-multiplayer/testing/suite"
)

var errRedisDown = errors.New("redis down")

type recordingPublisher struct {
	mu        sync.Mutex
	snapshots []*entity.Snapshot
}

func (that *recordingPublisher) Publish(_ context.Context, snapshot *entity.Snapshot) {
	that.mu.Lock()
	defer that.mu.Unlock()

	that.snapshots = append(that.snapshots, snapshot)
}

func (that *recordingPublisher) published() []*entity.Snapshot {
	that.mu.Lock()
	defer that.mu.Unlock()

	return append([]*entity.Snapshot(nil), that.snapshots...)
}

type mockSessionRepo struct {
	mock.Mock
}

func (that *mockSessionRepo) Create(ctx context.Context, session *entity.Snapshot) error {
	return that.Called(ctx, session).Error(0)
}

func (that *mockSessionRepo) CreateOrUpdate(ctx context.Context, session *entity.Snapshot) error {
	return that.Called(ctx, session).Error(0)
}

func (that *mockSessionRepo) GetByID(ctx context.Context, id string) (*entity.Snapshot, error) {
	args := that.Called(ctx, id)

	snapshot, _ := args.Get(0).(*entity.Snapshot)

	return snapshot, args.Error(1)
}

func newTestRules(t *testing.T, players int) *entity.Rules {
	t.Helper()

	rules, err := entity.NewRules(3, 3, entity.DefaultPlayers()[:players])
	require.NoError(t, err)

	return rules
}

func newTestStore(t *testing.T, players int) (*SessionStore, *recordingPublisher) {
	t.Helper()

	publisher := &recordingPublisher{}
	store := NewSessionStore(suite.NewLogger(), newTestRules(t, players), repository.NewMemorySessionRepository(), publisher)

	return store, publisher
}

func markedCells(snapshot *entity.Snapshot) int {
	marked := 0
	for _, cell := range snapshot.Board {
		if cell != nil {
			marked++
		}
	}

	return marked
}

func TestSessionStore_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("Creates sessions with distinct ids", func(t *testing.T) {
		store, _ := newTestStore(t, 4)

		// When: several sessions are created
		seen := make(map[string]struct{})
		for range 20 {
			session, err := store.Create(ctx)
			require.NoError(t, err)

			// Then: every id is new and the session is stored
			assert.NotContains(t, seen, session.ID)
			seen[session.ID] = struct{}{}

			stored, err := store.Get(ctx, session.ID)
			require.NoError(t, err)
			assert.True(t, stored.Active)
		}
	})

	t.Run("Retries on id collision", func(t *testing.T) {
		store, _ := newTestStore(t, 4)

		// Given: an id generator that repeats itself once
		ids := []string{"7", "7", "8"}
		store.newID = func() (string, error) {
			id := ids[0]
			ids = ids[1:]
			return id, nil
		}

		first, err := store.Create(ctx)
		require.NoError(t, err)

		// When: the next session draws the taken id first
		second, err := store.Create(ctx)

		// Then: it moves on to the next free id
		require.NoError(t, err)
		assert.Equal(t, "7", first.ID)
		assert.Equal(t, "8", second.ID)
	})

	t.Run("Gives up when every id is taken", func(t *testing.T) {
		store, _ := newTestStore(t, 4)
		store.newID = func() (string, error) { return "1", nil }

		_, err := store.Create(ctx)
		require.NoError(t, err)

		_, err = store.Create(ctx)

		assert.ErrorIs(t, err, ErrIDSpaceExhausted)
	})
}

func TestSessionStore_Get(t *testing.T) {
	ctx := context.Background()

	t.Run("Unknown id is SessionNotFound", func(t *testing.T) {
		store, _ := newTestStore(t, 4)

		_, err := store.Get(ctx, "404")

		assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})

	t.Run("Returned session is a private copy", func(t *testing.T) {
		store, _ := newTestStore(t, 4)
		created, err := store.Create(ctx)
		require.NoError(t, err)

		// Given: a caller modifying its copy without going through the store
		session, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		require.NoError(t, session.ApplyMove(0))

		// When: reading again
		again, err := store.Get(ctx, created.ID)
		require.NoError(t, err)

		// Then: the stored board is unchanged
		assert.Equal(t, entity.EmptyCell, again.Board[0])
	})
}

func TestSessionStore_Replace(t *testing.T) {
	ctx := context.Background()

	t.Run("Overwrites an existing session", func(t *testing.T) {
		store, _ := newTestStore(t, 4)
		created, err := store.Create(ctx)
		require.NoError(t, err)

		require.NoError(t, created.ApplyMove(3))
		require.NoError(t, store.Replace(ctx, created))

		stored, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, stored.Board[3])
	})

	t.Run("Refuses to create an unknown session", func(t *testing.T) {
		store, _ := newTestStore(t, 4)

		// When: replacing a session that was never created
		err := store.Replace(ctx, entity.NewSession("77", store.Rules()))

		// Then: SessionNotFound and nothing is written
		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		_, err = store.Get(ctx, "77")
		assert.ErrorIs(t, err, apperror.ErrSessionNotFound)
	})
}

func TestSessionStore_Update(t *testing.T) {
	ctx := context.Background()

	t.Run("Commits and publishes the new state", func(t *testing.T) {
		store, publisher := newTestStore(t, 4)
		created, err := store.Create(ctx)
		require.NoError(t, err)

		// When: a move is applied through Update
		snapshot, err := store.Update(ctx, created.ID, func(session *entity.Session) error {
			return session.ApplyMove(4)
		})

		// Then: the returned, stored and published states agree
		require.NoError(t, err)
		require.NotNil(t, snapshot.Board[4])
		stored, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, snapshot, stored.Snapshot())
		assert.Equal(t, []*entity.Snapshot{snapshot}, publisher.published())
	})

	t.Run("Rejected mutation writes and publishes nothing", func(t *testing.T) {
		store, publisher := newTestStore(t, 4)
		created, err := store.Create(ctx)
		require.NoError(t, err)

		// When: the mutation fails
		_, err = store.Update(ctx, created.ID, func(session *entity.Session) error {
			return session.ApplyMove(99)
		})

		// Then: the error is returned as is and state is untouched
		require.ErrorIs(t, err, apperror.ErrIndexOutOfRange)
		assert.Empty(t, publisher.published())
		stored, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, created.Snapshot(), stored.Snapshot())
	})

	t.Run("Unknown id is SessionNotFound", func(t *testing.T) {
		store, publisher := newTestStore(t, 4)
		called := false

		_, err := store.Update(ctx, "404", func(*entity.Session) error {
			called = true
			return nil
		})

		require.ErrorIs(t, err, apperror.ErrSessionNotFound)
		assert.False(t, called)
		assert.Empty(t, publisher.published())
	})

	t.Run("Storage failure is reported and nothing is published", func(t *testing.T) {
		// Given: a repository that fails on write
		rules := newTestRules(t, 4)
		repo := &mockSessionRepo{}
		repo.On("GetByID", mock.Anything, "1").Return(entity.NewSession("1", rules).Snapshot(), nil).Once()
		repo.On("CreateOrUpdate", mock.Anything, mock.AnythingOfType("*entity.Snapshot")).Return(errRedisDown).Once()

		publisher := &recordingPublisher{}
		store := NewSessionStore(suite.NewLogger(), rules, repo, publisher)

		// When: a move is applied
		_, err := store.Update(ctx, "1", func(session *entity.Session) error {
			return session.ApplyMove(0)
		})

		// Then: the storage error surfaces without a move rejection
		require.ErrorIs(t, err, errRedisDown)
		assert.NotErrorIs(t, err, apperror.ErrMoveRejected)
		assert.Empty(t, publisher.published())
		repo.AssertExpectations(t)
	})

	t.Run("Concurrent moves on one cell commit exactly once", func(t *testing.T) {
		store, publisher := newTestStore(t, 4)
		created, err := store.Create(ctx)
		require.NoError(t, err)

		// Given: N clients racing for the same cell
		const clients = 32
		errs := make(chan error, clients)

		var wg sync.WaitGroup
		for range clients {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, moveErr := store.Update(ctx, created.ID, func(session *entity.Session) error {
					return session.ApplyMove(4)
				})
				errs <- moveErr
			}()
		}
		wg.Wait()
		close(errs)

		// Then: one succeeds and every other one sees CellOccupied
		succeeded, occupied := 0, 0
		for moveErr := range errs {
			switch {
			case moveErr == nil:
				succeeded++
			case errors.Is(moveErr, apperror.ErrCellOccupied):
				occupied++
			default:
				t.Errorf("unexpected error: %v", moveErr)
			}
		}
		assert.Equal(t, 1, succeeded)
		assert.Equal(t, clients-1, occupied)
		assert.Len(t, publisher.published(), 1)

		stored, err := store.Get(ctx, created.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, stored.CurrentPlayerIndex)
	})

	t.Run("Concurrent moves are published in commit order", func(t *testing.T) {
		// Given: a 5x5 board so no one can win within the moves played
		rules, err := entity.NewRules(5, 5, entity.DefaultPlayers())
		require.NoError(t, err)
		publisher := &recordingPublisher{}
		store := NewSessionStore(suite.NewLogger(), rules, repository.NewMemorySessionRepository(), publisher)
		created, err := store.Create(ctx)
		require.NoError(t, err)

		// When: every cell of the first three rows is claimed concurrently
		var wg sync.WaitGroup
		for cell := range 15 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, moveErr := store.Update(ctx, created.ID, func(session *entity.Session) error {
					return session.ApplyMove(cell)
				})
				assert.NoError(t, moveErr)
			}()
		}
		wg.Wait()

		// Then: each published snapshot has exactly one more mark than the previous one
		published := publisher.published()
		require.Len(t, published, 15)
		for i, snapshot := range published {
			assert.Equal(t, i+1, markedCells(snapshot))
			assert.Equal(t, (i+1)%4, snapshot.CurrentPlayerIndex)
		}
	})

	t.Run("Different sessions progress independently", func(t *testing.T) {
		store, _ := newTestStore(t, 2)
		first, err := store.Create(ctx)
		require.NoError(t, err)
		second, err := store.Create(ctx)
		require.NoError(t, err)

		// When: a move is applied to the first session only
		_, err = store.Update(ctx, first.ID, func(session *entity.Session) error {
			return session.ApplyMove(0)
		})
		require.NoError(t, err)

		// Then: the second session is untouched
		other, err := store.Get(ctx, second.ID)
		require.NoError(t, err)
		assert.Equal(t, entity.EmptyCell, other.Board[0])
	})
}
