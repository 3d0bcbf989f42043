package database

import (
	"errors"

	"github.com/lib/pq"
)

var (
	ErrProductNotFound      = errors.New("product not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrDuplicateOrderNumber = errors.New("duplicate order number")
)

// Conflict names the reason Postgres aborted a transaction that may succeed
// when run again. The values are the SQLSTATE condition names.
type Conflict string

const (
	ConflictNone            Conflict = ""
	ConflictDeadlock        Conflict = "deadlock_detected"
	ConflictSerialization   Conflict = "serialization_failure"
	ConflictLockUnavailable Conflict = "lock_not_available"
)

// LockConflict finds a *pq.Error anywhere in err's chain and reports whether
// it is a lock conflict. Every other failure, including constraint
// violations, is ConflictNone.
func LockConflict(err error) Conflict {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return ConflictNone
	}

	switch c := Conflict(pqErr.Code.Name()); c {
	case ConflictDeadlock, ConflictSerialization, ConflictLockUnavailable:
		return c
	}
	return ConflictNone
}

func IsRetryable(err error) bool {
	return LockConflict(err) != ConflictNone
}
