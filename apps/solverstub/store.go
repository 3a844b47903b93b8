package main

import (
	"sync"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"

	usr "github.com/trezcool/examplan/core/user"
)

var (
	errNotFound    = errors.New("not found")
	errInvalidRole = errors.New("invalid role")
)

type (
	// memDB is the stub's in-memory storage; good enough for local development,
	// gone on restart.
	memDB struct {
		user     *userTable
		schedule *scheduleTable
	}

	userTable struct {
		t       map[int64]*dbUser
		pkCount int64
		mutex   sync.RWMutex
	}

	scheduleTable struct {
		t       map[int64]*dbSchedule
		pkCount int64
		mutex   sync.RWMutex
	}

	dbUser struct {
		ID           int64
		Username     string
		PasswordHash []byte
		Role         string
	}

	// dbSchedule is a persisted generation: the posted config and the computed
	// result, both as raw JSON. At most one row is published at a time.
	dbSchedule struct {
		ID          int64
		UserID      int64
		Name        string
		ConfigJSON  []byte
		ResultJSON  []byte
		CreatedAt   time.Time
		IsPublished bool
	}
)

func openDB() *memDB {
	return &memDB{
		user:     &userTable{t: make(map[int64]*dbUser)},
		schedule: &scheduleTable{t: make(map[int64]*dbSchedule)},
	}
}

// createUser provisions an account, enforcing the role set and the password
// policy before hashing. Used for startup seeding; there is no signup endpoint.
func (db *memDB) createUser(username, password, role string) (*dbUser, error) {
	if !usr.ValidRole(role) {
		return nil, errors.Wrap(errInvalidRole, role)
	}
	if err := usr.ValidatePassword(password, username); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	db.user.mutex.Lock()
	defer db.user.mutex.Unlock()
	db.user.pkCount++
	u := &dbUser{
		ID:           db.user.pkCount,
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	db.user.t[u.ID] = u
	return u, nil
}

func (db *memDB) getUserByUsername(username string) (*dbUser, error) {
	db.user.mutex.RLock()
	defer db.user.mutex.RUnlock()

	for _, u := range db.user.t {
		if u.Username == username {
			return u, nil
		}
	}
	return nil, errNotFound
}

func (db *memDB) getUserByID(id int64) (*dbUser, error) {
	db.user.mutex.RLock()
	defer db.user.mutex.RUnlock()

	if u, ok := db.user.t[id]; ok {
		return u, nil
	}
	return nil, errNotFound
}

func (db *memDB) createSchedule(userID int64, name string, configJSON, resultJSON []byte) *dbSchedule {
	db.schedule.mutex.Lock()
	defer db.schedule.mutex.Unlock()

	db.schedule.pkCount++
	s := &dbSchedule{
		ID:         db.schedule.pkCount,
		UserID:     userID,
		Name:       name,
		ConfigJSON: configJSON,
		ResultJSON: resultJSON,
		CreatedAt:  time.Now().UTC(),
	}
	db.schedule.t[s.ID] = s
	return s
}

func (db *memDB) getSchedule(id int64) (*dbSchedule, error) {
	db.schedule.mutex.RLock()
	defer db.schedule.mutex.RUnlock()

	if s, ok := db.schedule.t[id]; ok {
		return s, nil
	}
	return nil, errNotFound
}

// publishSchedule marks the given schedule published and resets the flag on
// every other row.
func (db *memDB) publishSchedule(id int64) error {
	db.schedule.mutex.Lock()
	defer db.schedule.mutex.Unlock()

	s, ok := db.schedule.t[id]
	if !ok {
		return errNotFound
	}
	for _, other := range db.schedule.t {
		other.IsPublished = false
	}
	s.IsPublished = true
	return nil
}

func (db *memDB) publishedSchedule() (*dbSchedule, error) {
	db.schedule.mutex.RLock()
	defer db.schedule.mutex.RUnlock()

	for _, s := range db.schedule.t {
		if s.IsPublished {
			return s, nil
		}
	}
	return nil, errNotFound
}
