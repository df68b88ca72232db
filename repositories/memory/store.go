// Package memory holds in-memory implementations of the repository
// interfaces. Services and handlers use them in tests.
package memory

import (
	"context"
	"sync"

	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/models"
	"github.com/dickygaluhkrnwn/clashub-nextjs-sub000/repositories"
)

type matchKey struct {
	tournamentID int
	id           string
}

type memberKey struct {
	clanID int
	userID int
}

type state struct {
	users        map[int]models.User
	clans        map[int]models.Clan
	members      map[memberKey]models.ClanMember
	joinRequests map[int]models.JoinRequest
	snapshots    map[int]models.ClanSnapshot
	tournaments  map[int]models.Tournament
	teams        map[int]models.TournamentTeam
	matches      map[matchKey]models.TournamentMatch
	posts        map[int]models.Post
	nextID       int
}

func newState() state {
	return state{
		users:        map[int]models.User{},
		clans:        map[int]models.Clan{},
		members:      map[memberKey]models.ClanMember{},
		joinRequests: map[int]models.JoinRequest{},
		snapshots:    map[int]models.ClanSnapshot{},
		tournaments:  map[int]models.Tournament{},
		teams:        map[int]models.TournamentTeam{},
		matches:      map[matchKey]models.TournamentMatch{},
		posts:        map[int]models.Post{},
	}
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s state) clone() state {
	return state{
		users:        cloneMap(s.users),
		clans:        cloneMap(s.clans),
		members:      cloneMap(s.members),
		joinRequests: cloneMap(s.joinRequests),
		snapshots:    cloneMap(s.snapshots),
		tournaments:  cloneMap(s.tournaments),
		teams:        cloneMap(s.teams),
		matches:      cloneMap(s.matches),
		posts:        cloneMap(s.posts),
		nextID:       s.nextID,
	}
}

// Store is the shared backing data of every in-memory repository.
// Transactions are serialised and rolled back by restoring a copy of the
// data taken when the transaction began.
type Store struct {
	txMu sync.Mutex
	mu   sync.Mutex
	data state
}

func NewStore() *Store {
	return &Store{data: newState()}
}

func (s *Store) id() int {
	s.data.nextID++
	return s.data.nextID
}

func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, exec repositories.SQLExecutor) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	saved := s.data.clone()
	s.mu.Unlock()

	if err := fn(ctx, nil); err != nil {
		s.mu.Lock()
		s.data = saved
		s.mu.Unlock()
		return err
	}
	return nil
}

// Repositories bundles every repository backed by one Store.
type Repositories struct {
	Tx           repositories.Transactor
	Users        repositories.UserRepository
	Clans        repositories.ClanRepository
	JoinRequests repositories.JoinRequestRepository
	Snapshots    repositories.ClanSnapshotRepository
	Tournaments  repositories.TournamentRepository
	Teams        repositories.TournamentTeamRepository
	Matches      repositories.MatchRepository
	Posts        repositories.PostRepository
}

func New() *Repositories {
	s := NewStore()
	return &Repositories{
		Tx:           s,
		Users:        &userRepository{s},
		Clans:        &clanRepository{s},
		JoinRequests: &joinRequestRepository{s},
		Snapshots:    &snapshotRepository{s},
		Tournaments:  &tournamentRepository{s},
		Teams:        &teamRepository{s},
		Matches:      &matchRepository{s},
		Posts:        &postRepository{s},
	}
}
