package session

import "github.com/tanweijie/studysprint/internal/auth"

// Actions describes what the current user may do with a session snapshot.
// It is advice for the view layer; the service re-validates every mutation.
type Actions struct {
	Joined  bool
	Creator bool

	CanJoin     bool
	CanLeave    bool
	CanEdit     bool
	CanComplete bool
	CanDelete   bool
}

// PermittedActions computes the legal action set for an identity against a
// snapshot. A nil identity (guest) may only view. A joined participant may
// always leave: capacity and completion gate joining, not leaving. Creator
// rights are independent of participation.
func PermittedActions(ident *auth.Identity, d Detail) Actions {
	if ident == nil {
		return Actions{}
	}

	var a Actions
	a.Joined = HasParticipant(d.Participants, ident.UserID)
	a.Creator = ident.Username != "" && ident.Username == d.Session.CreatorUsername

	if a.Joined {
		a.CanLeave = true
	} else {
		a.CanJoin = !d.Full() && !d.Session.Completed()
	}

	if a.Creator {
		a.CanEdit = true
		a.CanDelete = true
		a.CanComplete = !d.Session.Completed()
	}

	return a
}
