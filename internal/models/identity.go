package models

// Identity is the authenticated caller handed to every service call that
// needs one. The zero value is the anonymous caller.
type Identity struct {
	UserID   uint
	Nickname string
}

// Anonymous reports whether no user is signed in.
func (i Identity) Anonymous() bool {
	return i.UserID == 0
}
