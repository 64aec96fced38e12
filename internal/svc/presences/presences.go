package presences

import (
	"strings"
	"sync"

	"go.uber.org/zap"
)

// Directory maps a user to the one connection currently able to receive pushes for them.
//
// A user has at most one entry: a newer connection overwrites the older one, and a
// connection can only remove the entry it still owns.
type Directory interface {
	Register(userID, connectionID string) bool
	Unregister(connectionID string) bool
	Lookup(userID string) (string, bool)
	Online(userID string) bool
	Len() int
}

type directory struct {
	mx     sync.RWMutex
	byUser map[string]string
	byConn map[string]string
}

func New() Directory {
	return &directory{
		byUser: map[string]string{},
		byConn: map[string]string{},
	}
}

// ValidUserID reports whether a handshake identity can be registered.
// Empty ids and the placeholders a browser client emits for an unset value are refused.
func ValidUserID(userID string) bool {
	switch strings.TrimSpace(userID) {
	case "", "undefined", "null":
		return false
	}

	return true
}

// Register inserts or overwrites the entry for userID. Invalid input is ignored.
func (d *directory) Register(userID, connectionID string) bool {
	if !ValidUserID(userID) || connectionID == "" {
		return false
	}

	d.mx.Lock()
	defer d.mx.Unlock()

	if prev, ok := d.byUser[userID]; ok && prev != connectionID {
		// the previous connection stays open but is no longer addressable
		delete(d.byConn, prev)

		zap.S().Debugw("presence replaced",
			"user_id", userID,
			"previous_connection_id", prev,
			"connection_id", connectionID,
		)
	}

	// a connection identifies once; drop anything it held under another user
	if owner, ok := d.byConn[connectionID]; ok && owner != userID {
		delete(d.byUser, owner)
	}

	d.byUser[userID] = connectionID
	d.byConn[connectionID] = userID

	return true
}

// Unregister removes the entry owned by connectionID, if it still owns one.
func (d *directory) Unregister(connectionID string) bool {
	if connectionID == "" {
		return false
	}

	d.mx.Lock()
	defer d.mx.Unlock()

	userID, ok := d.byConn[connectionID]
	if !ok {
		return false
	}

	delete(d.byConn, connectionID)

	if d.byUser[userID] != connectionID {
		return false
	}

	delete(d.byUser, userID)

	return true
}

func (d *directory) Lookup(userID string) (string, bool) {
	d.mx.RLock()
	defer d.mx.RUnlock()

	c, ok := d.byUser[userID]

	return c, ok
}

func (d *directory) Online(userID string) bool {
	_, ok := d.Lookup(userID)

	return ok
}

func (d *directory) Len() int {
	d.mx.RLock()
	defer d.mx.RUnlock()

	return len(d.byUser)
}
