// Package group implements the group directory (spec §6): a plain mapping
// from group name to a set of users, with create/add/remove/list operations.
package group

import (
	"errors"
	"regexp"
	"sort"

	"github.com/arnavp/treasurer/internal/ledger"
)

var (
	ErrGroupExists   = errors.New("group already exists")
	ErrGroupNotFound = errors.New("group not found")
	ErrUserExists    = errors.New("user already a member")
	ErrUserNotFound  = errors.New("user not a member")
	ErrInvalidName   = errors.New("group name must be 3-12 uppercase ASCII letters")
	ErrInvalidHandle = errors.New("user handle must be exactly 2 uppercase ASCII letters")
)

var (
	nameRegex   = regexp.MustCompile(`^[A-Z]{3,12}$`)
	handleRegex = regexp.MustCompile(`^[A-Z]{2}$`)
)

// ValidName reports whether name satisfies spec §6's group-handle grammar.
func ValidName(name string) bool {
	return nameRegex.MatchString(name)
}

// ValidHandle reports whether handle satisfies spec §6's user-handle grammar.
func ValidHandle(handle string) bool {
	return handleRegex.MatchString(handle)
}

// Directory is the group-name-to-member-set mapping. The zero value is not
// usable; construct with New.
type Directory struct {
	groups map[string]map[string]ledger.User
}

// New returns an empty directory.
func New() *Directory {
	return &Directory{groups: make(map[string]map[string]ledger.User)}
}

// Create adds a new, empty group. Fails if name is malformed or the group
// already exists (spec §6, "create (fails if name exists)").
func (d *Directory) Create(name string) error {
	if !ValidName(name) {
		return ErrInvalidName
	}
	if _, ok := d.groups[name]; ok {
		return ErrGroupExists
	}
	d.groups[name] = make(map[string]ledger.User)
	return nil
}

// Add inserts u into the named group. Fails if the group is absent, the
// handle is malformed, or u is already a member (spec §6, "add member (fails
// if user already present or group absent)").
func (d *Directory) Add(name string, u ledger.User) error {
	if !ValidHandle(u.Name) {
		return ErrInvalidHandle
	}
	members, ok := d.groups[name]
	if !ok {
		return ErrGroupNotFound
	}
	if _, ok := members[u.Name]; ok {
		return ErrUserExists
	}
	members[u.Name] = u
	return nil
}

// Remove deletes u from the named group. Fails if the group is absent or u
// is not a member (spec §6, "remove member (fails if user absent or group
// absent)").
func (d *Directory) Remove(name string, u ledger.User) error {
	members, ok := d.groups[name]
	if !ok {
		return ErrGroupNotFound
	}
	if _, ok := members[u.Name]; !ok {
		return ErrUserNotFound
	}
	delete(members, u.Name)
	return nil
}

// Members lists the group's users, sorted by handle. Returns ErrGroupNotFound
// if the group does not exist.
func (d *Directory) Members(name string) ([]ledger.User, error) {
	members, ok := d.groups[name]
	if !ok {
		return nil, ErrGroupNotFound
	}
	out := make([]ledger.User, 0, len(members))
	for _, u := range members {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Exists reports whether the named group has been created.
func (d *Directory) Exists(name string) bool {
	_, ok := d.groups[name]
	return ok
}

// Names returns every group name, sorted, for callers that need to persist
// or enumerate the full directory (e.g. the storage facade's group key).
func (d *Directory) Names() []string {
	names := make([]string, 0, len(d.groups))
	for name := range d.groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
