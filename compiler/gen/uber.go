package gen

import (
	"fmt"
	"strings"
)

// UberStore selects the concurrency wrapper around every stored value
// of the generated ObjectStore.
type UberStore uint8

// Uber store options.
const (
	UberDisabled UberStore = iota
	UberSingle
	UberStdRwLock
	UberParkingLotRwLock
	UberAsyncRwLock
	UberNDRwLock
	UberStdMutex
	UberParkingLotMutex
	endUber
)

var uberNames = [...]string{
	UberDisabled:         "Disabled",
	UberSingle:           "Single",
	UberStdRwLock:        "StdRwLock",
	UberParkingLotRwLock: "ParkingLotRwLock",
	UberAsyncRwLock:      "AsyncRwLock",
	UberNDRwLock:         "NDRwLock",
	UberStdMutex:         "StdMutex",
	UberParkingLotMutex:  "ParkingLotMutex",
}

// UberStores lists every option, in declaration order.
func UberStores() []UberStore {
	all := make([]UberStore, 0, endUber)
	for u := UberDisabled; u < endUber; u++ {
		all = append(all, u)
	}
	return all
}

// String returns the option name.
func (u UberStore) String() string {
	if u < endUber {
		return uberNames[u]
	}
	return fmt.Sprintf("UberStore(%d)", u)
}

// ParseUberStore parses an option name. Matching ignores case.
func ParseUberStore(s string) (UberStore, error) {
	for u, name := range uberNames {
		if strings.EqualFold(name, s) {
			return UberStore(u), nil
		}
	}
	if s == "" {
		return UberDisabled, nil
	}
	return UberDisabled, NewConfigError("UberStore", s, "unknown uber store; use one of "+strings.Join(uberNames[:], ", "))
}

// MarshalText implements encoding.TextMarshaler.
func (u UberStore) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (u *UberStore) UnmarshalText(text []byte) error {
	v, err := ParseUberStore(string(text))
	if err != nil {
		return err
	}
	*u = v
	return nil
}

// Enabled reports whether stored values are wrapped.
func (u UberStore) Enabled() bool { return u != UberDisabled }

// IsAsync reports whether lock acquisition must be awaited.
func (u UberStore) IsAsync() bool { return u == UberAsyncRwLock }

// IsLock reports whether the wrapper is thread safe and shared through Arc.
func (u UberStore) IsLock() bool { return u.Enabled() && u != UberSingle }

// IsRwLock reports whether the wrapper distinguishes readers from writers.
func (u UberStore) IsRwLock() bool {
	switch u {
	case UberStdRwLock, UberParkingLotRwLock, UberAsyncRwLock, UberNDRwLock:
		return true
	}
	return false
}

// Pointer returns the shared pointer type name: "Rc" or "Arc".
func (u UberStore) Pointer() string {
	if u == UberSingle {
		return "Rc"
	}
	return "Arc"
}

// Cell returns the interior mutability type name.
func (u UberStore) Cell() string {
	switch u {
	case UberSingle:
		return "RefCell"
	case UberStdMutex, UberParkingLotMutex:
		return "Mutex"
	case UberDisabled:
		return ""
	default:
		return "RwLock"
	}
}

// Wrap returns the wrapped type of inner, e.g. "Arc<RwLock<Foo>>".
func (u UberStore) Wrap(inner string) string {
	if !u.Enabled() {
		return inner
	}
	return fmt.Sprintf("%s<%s<%s>>", u.Pointer(), u.Cell(), inner)
}

// New returns the constructor expression wrapping expr.
func (u UberStore) New(expr string) string {
	if !u.Enabled() {
		return expr
	}
	return fmt.Sprintf("%s::new(%s::new(%s))", u.Pointer(), u.Cell(), expr)
}

// Read returns the accessor suffix that acquires a read guard.
func (u UberStore) Read() string {
	switch u {
	case UberSingle:
		return ".borrow()"
	case UberStdRwLock, UberNDRwLock:
		return ".read().unwrap()"
	case UberParkingLotRwLock:
		return ".read()"
	case UberAsyncRwLock:
		return ".read().await"
	case UberStdMutex:
		return ".lock().unwrap()"
	case UberParkingLotMutex:
		return ".lock()"
	}
	return ""
}

// Write returns the accessor suffix that acquires a write guard.
func (u UberStore) Write() string {
	switch u {
	case UberSingle:
		return ".borrow_mut()"
	case UberStdRwLock, UberNDRwLock:
		return ".write().unwrap()"
	case UberParkingLotRwLock:
		return ".write()"
	case UberAsyncRwLock:
		return ".write().await"
	}
	return u.Read()
}

// Async returns "async " for asynchronous wrappers.
func (u UberStore) Async() string {
	if u.IsAsync() {
		return "async "
	}
	return ""
}

// Await returns ".await" for asynchronous wrappers.
func (u UberStore) Await() string {
	if u.IsAsync() {
		return ".await"
	}
	return ""
}

// UsePath returns the use declaration that brings the wrapper types
// into scope.
func (u UberStore) UsePath() string {
	switch u {
	case UberSingle:
		return "use std::cell::RefCell;\nuse std::rc::Rc;"
	case UberStdRwLock:
		return "use std::sync::{Arc, RwLock};"
	case UberParkingLotRwLock:
		return "use parking_lot::RwLock;\nuse std::sync::Arc;"
	case UberAsyncRwLock:
		return "use async_std::sync::{Arc, RwLock};"
	case UberNDRwLock:
		return "use no_deadlocks::RwLock;\nuse std::sync::Arc;"
	case UberStdMutex:
		return "use std::sync::{Arc, Mutex};"
	case UberParkingLotMutex:
		return "use parking_lot::Mutex;\nuse std::sync::Arc;"
	}
	return ""
}

// Serializable reports whether serde can serialize the wrapper, which
// the bincode persistence needs.
func (u UberStore) Serializable() bool {
	return u != UberAsyncRwLock && u != UberNDRwLock
}

// Storage selects how the generated ObjectStore keeps its values.
type Storage uint8

// Storage disciplines.
const (
	// StorageHashMap keys values by their Uuid in a HashMap.
	StorageHashMap Storage = iota
	// StorageVec keys values by slot index in a vector with a free list.
	StorageVec
)

// String returns the discipline name.
func (s Storage) String() string {
	if s == StorageVec {
		return "vec"
	}
	return "hashmap"
}

// ParseStorage parses a discipline name.
func ParseStorage(s string) (Storage, error) {
	switch strings.ToLower(s) {
	case "", "hashmap", "map":
		return StorageHashMap, nil
	case "vec", "vector":
		return StorageVec, nil
	}
	return StorageHashMap, NewConfigError("Storage", s, "unknown storage; use hashmap or vec")
}

// MarshalText implements encoding.TextMarshaler.
func (s Storage) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *Storage) UnmarshalText(text []byte) error {
	v, err := ParseStorage(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// IDType returns the emitted type of object ids under the discipline.
func (s Storage) IDType() string {
	if s == StorageVec {
		return "usize"
	}
	return "Uuid"
}
