// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/google/uuid"

	"github.com/parlor-chat/parlor/internal/config"
	"github.com/parlor-chat/parlor/internal/logging"
	"github.com/parlor-chat/parlor/internal/metrics"
	"github.com/parlor-chat/parlor/internal/models"
)

const userKeyPrefix = "user:"

// ErrClosed is returned once the store has been closed.
var ErrClosed = errors.New("user store closed")

// BadgerUserStore stores users in BadgerDB.
type BadgerUserStore struct {
	db  *badger.DB
	now func() time.Time
}

// Open opens (or creates) the Badger database described by cfg.
func Open(cfg config.StoreConfig) (*BadgerUserStore, error) {
	opts := badger.DefaultOptions(cfg.Path)
	if cfg.InMemory {
		opts = badger.DefaultOptions("").WithInMemory(true)
	}
	opts.Logger = newBadgerLogger()

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", cfg.Path, err)
	}
	return NewBadgerUserStore(db), nil
}

// NewBadgerUserStore wraps an already opened database.
func NewBadgerUserStore(db *badger.DB) *BadgerUserStore {
	return &BadgerUserStore{db: db, now: time.Now}
}

// Close closes the underlying database.
func (s *BadgerUserStore) Close() error {
	return s.db.Close()
}

// Ping reports whether the store can serve requests.
func (s *BadgerUserStore) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return ErrClosed
	}
	return nil
}

// GetByID returns the user with the given id or models.ErrUserNotFound.
func (s *BadgerUserStore) GetByID(_ context.Context, id string) (user *models.User, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("get", time.Since(start), ignoreNotFound(err))
	}()

	if s.db.IsClosed() {
		return nil, ErrClosed
	}

	err = s.db.View(func(txn *badger.Txn) error {
		var getErr error
		user, getErr = readUser(txn, id)
		return getErr
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// Upsert creates the user or renames an existing one. A new user receives a
// fresh session id; an existing user keeps theirs.
func (s *BadgerUserStore) Upsert(_ context.Context, id, username string) (user *models.User, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("upsert", time.Since(start), err)
	}()

	err = s.db.Update(func(txn *badger.Txn) error {
		existing, getErr := readUser(txn, id)
		switch {
		case errors.Is(getErr, models.ErrUserNotFound):
			user = &models.User{ID: id, SessionID: uuid.NewString()}
		case getErr != nil:
			return getErr
		default:
			user = existing
		}
		user.Username = username
		user.UpdatedAt = s.now().UTC()
		return writeUser(txn, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// RotateSession assigns a new session id to the user and returns the updated
// record. Connections opened with the previous id are no longer accepted.
func (s *BadgerUserStore) RotateSession(_ context.Context, id string) (user *models.User, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("rotate_session", time.Since(start), ignoreNotFound(err))
	}()

	err = s.db.Update(func(txn *badger.Txn) error {
		var getErr error
		if user, getErr = readUser(txn, id); getErr != nil {
			return getErr
		}
		user.SessionID = uuid.NewString()
		user.UpdatedAt = s.now().UTC()
		return writeUser(txn, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

// SetOnline records whether the user currently has at least one live
// connection. Unknown users are ignored.
func (s *BadgerUserStore) SetOnline(_ context.Context, id string, online bool) (err error) {
	start := time.Now()
	defer func() {
		metrics.RecordStoreOperation("set_online", time.Since(start), err)
	}()

	return s.db.Update(func(txn *badger.Txn) error {
		user, getErr := readUser(txn, id)
		if errors.Is(getErr, models.ErrUserNotFound) {
			return nil
		}
		if getErr != nil {
			return getErr
		}
		if user.IsOnline == online {
			return nil
		}
		user.IsOnline = online
		user.UpdatedAt = s.now().UTC()
		return writeUser(txn, user)
	})
}

// ResetOnline clears the online flag of every user. Called at startup since
// no connection survives a restart.
func (s *BadgerUserStore) ResetOnline(_ context.Context) (int, error) {
	var reset int
	err := s.db.Update(func(txn *badger.Txn) error {
		it := txn.NewIterator(badger.DefaultIteratorOptions)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		var stale []*models.User
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var user models.User
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			}); err != nil {
				return fmt.Errorf("decode user: %w", err)
			}
			if user.IsOnline {
				stale = append(stale, &user)
			}
		}

		for _, user := range stale {
			user.IsOnline = false
			if err := writeUser(txn, user); err != nil {
				return err
			}
		}
		reset = len(stale)
		return nil
	})
	return reset, err
}

func readUser(txn *badger.Txn, id string) (*models.User, error) {
	item, err := txn.Get([]byte(userKeyPrefix + id))
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}

	var user models.User
	if err := item.Value(func(val []byte) error {
		return json.Unmarshal(val, &user)
	}); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

func writeUser(txn *badger.Txn, user *models.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := txn.Set([]byte(userKeyPrefix+user.ID), data); err != nil {
		return fmt.Errorf("set user: %w", err)
	}
	return nil
}

func ignoreNotFound(err error) error {
	if errors.Is(err, models.ErrUserNotFound) {
		return nil
	}
	return err
}

// badgerLogger routes Badger's internal logging through zerolog. Info and
// debug output is demoted to debug to keep startup quiet.
type badgerLogger struct{}

func newBadgerLogger() badger.Logger {
	return badgerLogger{}
}

func (badgerLogger) Errorf(format string, args ...interface{}) {
	logging.Error().Str("component", "badger").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Warningf(format string, args ...interface{}) {
	logging.Warn().Str("component", "badger").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Infof(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}

func (badgerLogger) Debugf(format string, args ...interface{}) {
	logging.Debug().Str("component", "badger").Msg(strings.TrimSpace(fmt.Sprintf(format, args...)))
}
