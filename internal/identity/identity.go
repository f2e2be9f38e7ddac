// Package identity holds the local device identity shown on the main
// page: the peer id other machines use to reach this one, a device UUID,
// and the fingerprint of the device key.
package identity

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/binary"
	"fmt"
	"regexp"
	"strconv"
	"sync"

	"github.com/denisbrodbeck/machineid"
	"github.com/google/uuid"
	"golang.org/x/crypto/ssh"

	rderr "rdesk/internal/errors"
)

// NotAvailable is the change-id failure when the id being replaced is
// no longer the current one.
const NotAvailable = "Not available"

// idRe is the accepted form of a custom id: a letter, then 5 to 15
// letters, digits, underscores, or dashes.
var idRe = regexp.MustCompile(`^[a-zA-Z][\w-]{5,15}$`)

// ValidID reports whether id is an acceptable custom id.
func ValidID(id string) bool {
	return idRe.MatchString(id)
}

// machineID reads the identifier the OS keeps for this machine.
var machineID = machineid.ID

// Identity is the device identity.  It is safe for concurrent use.
type Identity struct {
	uuid        uuid.UUID
	fingerprint string
	changeable  bool

	mu sync.RWMutex
	id string
}

// New generates a fresh identity: a random UUID, the numeric id derived
// from it, and an ed25519 device key.
func New() (*Identity, error) {
	u, err := uuid.NewRandom()
	if err != nil {
		return nil, fmt.Errorf("generate device uuid: %w", err)
	}
	_, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("generate device key: %w", err)
	}
	signer, err := ssh.NewSignerFromKey(priv)
	if err != nil {
		return nil, fmt.Errorf("device key: %w", err)
	}
	return &Identity{
		uuid:        u,
		fingerprint: ssh.FingerprintSHA256(signer.PublicKey()),
		changeable:  machineReadable(),
		id:          NumericID(u),
	}, nil
}

func machineReadable() bool {
	id, err := machineID()
	return err == nil && id != ""
}

// NumericID maps u to a 9-digit id that never starts with 0.
func NumericID(u uuid.UUID) string {
	n := binary.BigEndian.Uint64(u[:8])%900_000_000 + 100_000_000
	return strconv.FormatUint(n, 10)
}

// ID returns the current peer id.
func (i *Identity) ID() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.id
}

// UUID returns the device UUID.
func (i *Identity) UUID() string { return i.uuid.String() }

// Fingerprint returns the SHA256 fingerprint of the device key.
func (i *Identity) Fingerprint() string { return i.fingerprint }

// CanChangeID reports whether the id may be changed on this machine.
// A custom id is tied to the OS machine id, so it is refused when that
// cannot be read.
func (i *Identity) CanChangeID() bool { return i.changeable }

// ChangeID replaces oldID with newID.  It fails with ErrInvalidID when
// newID is malformed and with NotAvailable when oldID is stale, which
// happens when two changes race.
func (i *Identity) ChangeID(ctx context.Context, oldID, newID string) error {
	if !ValidID(newID) {
		return rderr.ErrInvalidID
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.id != oldID {
		return rderr.New(NotAvailable)
	}
	i.id = newID
	return nil
}
