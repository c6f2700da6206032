package models

import "fmt"

// Account is a user resolved to its role. The concrete type is either
// ParentAccount or ChildAccount.
type Account interface {
	User() *User
	account()
}

// ParentAccount is a user with the parent role
type ParentAccount struct {
	user *User
}

// ChildAccount is a user with the child role
type ChildAccount struct {
	user *User
}

func (p ParentAccount) User() *User { return p.user }
func (p ParentAccount) account()    {}

// Code returns the parent's current code, or "" if none is assigned
func (p ParentAccount) Code() string {
	if p.user.ParentCode == nil {
		return ""
	}
	return *p.user.ParentCode
}

func (c ChildAccount) User() *User { return c.user }
func (c ChildAccount) account()    {}

// ParentID returns the linked parent's id and whether the child is linked
func (c ChildAccount) ParentID() (int64, bool) {
	if c.user.ParentID == nil {
		return 0, false
	}
	return *c.user.ParentID, true
}

// AccountOf resolves u to its role variant
func AccountOf(u *User) (Account, error) {
	if u == nil {
		return nil, fmt.Errorf("nil user")
	}
	switch u.Role {
	case RoleParent:
		return ParentAccount{user: u}, nil
	case RoleChild:
		return ChildAccount{user: u}, nil
	default:
		return nil, fmt.Errorf("unknown role %q for user %d", u.Role, u.ID)
	}
}

// AsParent returns u as a ParentAccount if it has the parent role
func AsParent(u *User) (ParentAccount, bool) {
	if u == nil || u.Role != RoleParent {
		return ParentAccount{}, false
	}
	return ParentAccount{user: u}, true
}

// AsChild returns u as a ChildAccount if it has the child role
func AsChild(u *User) (ChildAccount, bool) {
	if u == nil || u.Role != RoleChild {
		return ChildAccount{}, false
	}
	return ChildAccount{user: u}, true
}
