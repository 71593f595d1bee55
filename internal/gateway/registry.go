// Parlor - Real-time Channel Gateway
// Copyright 2026 The Parlor Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/parlor-chat/parlor

package gateway

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrAlreadyRegistered is returned when a connection registers twice.
	ErrAlreadyRegistered = errors.New("connection already registered")

	// ErrNotRegistered is returned when an unregistered connection subscribes.
	ErrNotRegistered = errors.New("connection not registered")

	// ErrEmptyChannel is returned for an empty channel name.
	ErrEmptyChannel = errors.New("empty channel name")
)

// channelEntry is a channel's subscriber set. The entry lives exactly as long
// as the set is non-empty.
type channelEntry struct {
	subscribers map[*Conn]struct{}
}

// eviction is what UnsubscribeAll removed for one connection.
type eviction struct {
	identity    Identity
	channels    []string
	lastForUser bool
}

// RegistryStats is a point-in-time size summary.
type RegistryStats struct {
	Connections   int
	Users         int
	Channels      int
	Subscriptions int
}

// Registry maps authenticated connections to identities and channels to their
// subscribers. All state is guarded by one lock and no method performs I/O
// while holding it.
type Registry struct {
	mu          sync.RWMutex
	identities  map[*Conn]Identity
	channels    map[string]*channelEntry
	memberships map[*Conn]map[string]struct{}
	users       map[string]map[*Conn]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		identities:  make(map[*Conn]Identity),
		channels:    make(map[string]*channelEntry),
		memberships: make(map[*Conn]map[string]struct{}),
		users:       make(map[string]map[*Conn]struct{}),
	}
}

// Register binds identity to conn.
func (r *Registry) Register(conn *Conn, identity Identity) error {
	_, err := r.register(conn, identity)
	return err
}

// register reports whether conn is the user's first live connection.
func (r *Registry) register(conn *Conn, identity Identity) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.identities[conn]; exists {
		return false, ErrAlreadyRegistered
	}

	r.identities[conn] = identity
	r.memberships[conn] = make(map[string]struct{})

	conns, ok := r.users[identity.UserID]
	if !ok {
		conns = make(map[*Conn]struct{})
		r.users[identity.UserID] = conns
	}
	conns[conn] = struct{}{}

	return len(conns) == 1, nil
}

// Subscribe adds conn to channel. It reports false when conn was already a
// subscriber.
func (r *Registry) Subscribe(conn *Conn, channel string) (bool, error) {
	if channel == "" {
		return false, ErrEmptyChannel
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	joined, ok := r.memberships[conn]
	if !ok {
		return false, ErrNotRegistered
	}
	if _, already := joined[channel]; already {
		return false, nil
	}

	entry, ok := r.channels[channel]
	if !ok {
		entry = &channelEntry{subscribers: make(map[*Conn]struct{})}
		r.channels[channel] = entry
	}
	entry.subscribers[conn] = struct{}{}
	joined[channel] = struct{}{}

	return true, nil
}

// Unsubscribe removes conn from channel. It reports whether conn was a subscriber.
func (r *Registry) Unsubscribe(conn *Conn, channel string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined, ok := r.memberships[conn]
	if !ok {
		return false
	}
	if _, member := joined[channel]; !member {
		return false
	}

	delete(joined, channel)
	r.removeSubscriber(channel, conn)
	return true
}

// UnsubscribeAll removes conn from every channel and drops its identity,
// returning the identity it held. A second call reports false.
func (r *Registry) UnsubscribeAll(conn *Conn) (Identity, bool) {
	ev, ok := r.evict(conn)
	return ev.identity, ok
}

func (r *Registry) evict(conn *Conn) (eviction, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	identity, ok := r.identities[conn]
	if !ok {
		return eviction{}, false
	}

	joined := r.memberships[conn]
	channels := make([]string, 0, len(joined))
	for channel := range joined {
		r.removeSubscriber(channel, conn)
		channels = append(channels, channel)
	}
	sort.Strings(channels)

	delete(r.memberships, conn)
	delete(r.identities, conn)

	last := false
	if conns, ok := r.users[identity.UserID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(r.users, identity.UserID)
			last = true
		}
	}

	return eviction{identity: identity, channels: channels, lastForUser: last}, true
}

// removeSubscriber must be called with mu held.
func (r *Registry) removeSubscriber(channel string, conn *Conn) {
	entry, ok := r.channels[channel]
	if !ok {
		return
	}
	delete(entry.subscribers, conn)
	if len(entry.subscribers) == 0 {
		delete(r.channels, channel)
	}
}

// Lookup returns the identity bound to conn.
func (r *Registry) Lookup(conn *Conn) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	identity, ok := r.identities[conn]
	return identity, ok
}

// Subscribers returns a copy of channel's subscriber set. The copy is safe to
// iterate while other goroutines mutate the registry.
func (r *Registry) Subscribers(channel string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.channels[channel]
	if !ok {
		return nil
	}
	out := make([]*Conn, 0, len(entry.subscribers))
	for conn := range entry.subscribers {
		out = append(out, conn)
	}
	return out
}

// Channels returns the sorted channel names conn is subscribed to.
func (r *Registry) Channels(conn *Conn) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	joined := r.memberships[conn]
	out := make([]string, 0, len(joined))
	for channel := range joined {
		out = append(out, channel)
	}
	sort.Strings(out)
	return out
}

// HasChannel reports whether channel currently has subscribers.
func (r *Registry) HasChannel(channel string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.channels[channel]
	return ok
}

// Connections returns every registered connection.
func (r *Registry) Connections() []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Conn, 0, len(r.identities))
	for conn := range r.identities {
		out = append(out, conn)
	}
	return out
}

// ConnectionsOf returns the registered connections of one user.
func (r *Registry) ConnectionsOf(userID string) []*Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := r.users[userID]
	out := make([]*Conn, 0, len(conns))
	for conn := range conns {
		out = append(out, conn)
	}
	return out
}

// UserOnline reports whether the user has at least one registered connection.
func (r *Registry) UserOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.users[userID]) > 0
}

// Stats returns the registry's current size.
func (r *Registry) Stats() RegistryStats {
	r.mu.RLock()
	defer r.mu.RUnlock()

	subs := 0
	for _, entry := range r.channels {
		subs += len(entry.subscribers)
	}
	return RegistryStats{
		Connections:   len(r.identities),
		Users:         len(r.users),
		Channels:      len(r.channels),
		Subscriptions: subs,
	}
}

// SubscriberCounts returns the subscriber count of every channel.
func (r *Registry) SubscriberCounts() map[string]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]int, len(r.channels))
	for name, entry := range r.channels {
		out[name] = len(entry.subscribers)
	}
	return out
}

// CheckInvariants verifies the registry's internal consistency:
//   - identities, memberships and the per-user index cover the same connections
//   - every subscriber of a channel has an identity and lists that channel
//   - every membership is mirrored in the channel's subscriber set
//   - no channel entry is empty
func (r *Registry) CheckInvariants() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.identities) != len(r.memberships) {
		return fmt.Errorf("%d identities but %d membership sets", len(r.identities), len(r.memberships))
	}

	indexed := 0
	for userID, conns := range r.users {
		if len(conns) == 0 {
			return fmt.Errorf("user %s has an empty connection set", userID)
		}
		for conn := range conns {
			identity, ok := r.identities[conn]
			if !ok {
				return fmt.Errorf("user index holds unregistered connection %s", conn.ID())
			}
			if identity.UserID != userID {
				return fmt.Errorf("connection %s indexed under %s but belongs to %s", conn.ID(), userID, identity.UserID)
			}
			indexed++
		}
	}
	if indexed != len(r.identities) {
		return fmt.Errorf("user index covers %d of %d connections", indexed, len(r.identities))
	}

	for name, entry := range r.channels {
		if len(entry.subscribers) == 0 {
			return fmt.Errorf("channel %q has no subscribers", name)
		}
		for conn := range entry.subscribers {
			if _, ok := r.identities[conn]; !ok {
				return fmt.Errorf("channel %q holds unregistered connection %s", name, conn.ID())
			}
			if _, ok := r.memberships[conn][name]; !ok {
				return fmt.Errorf("channel %q holds %s without a membership record", name, conn.ID())
			}
		}
	}

	for conn, joined := range r.memberships {
		if _, ok := r.identities[conn]; !ok {
			return fmt.Errorf("membership set for unregistered connection %s", conn.ID())
		}
		for name := range joined {
			entry, ok := r.channels[name]
			if !ok {
				return fmt.Errorf("%s lists missing channel %q", conn.ID(), name)
			}
			if _, ok := entry.subscribers[conn]; !ok {
				return fmt.Errorf("%s lists channel %q but is not a subscriber", conn.ID(), name)
			}
		}
	}

	return nil
}
