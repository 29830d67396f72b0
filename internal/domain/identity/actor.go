package identity

import "time"

// Actor is whoever is performing an operation.
type Actor struct {
	UID         string `json:"uid"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	Role        Role   `json:"role"`
}

// SystemActor is the identity used by the publication sweep.
var SystemActor = Actor{UID: "system", DisplayName: "Scheduled publisher", Role: RoleSystem}

// ActorStamp is an immutable snapshot of the actor at the time of a write.
type ActorStamp struct {
	UID         string    `json:"uid"`
	Email       string    `json:"email,omitempty"`
	DisplayName string    `json:"displayName,omitempty"`
	Role        Role      `json:"role"`
	At          time.Time `json:"at"`
}

func (a Actor) Stamp(at time.Time) ActorStamp {
	return ActorStamp{UID: a.UID, Email: a.Email, DisplayName: a.DisplayName, Role: a.Role, At: at.UTC()}
}

func (p *Profile) Actor() Actor {
	return Actor{UID: p.UID, Email: p.Email, DisplayName: p.DisplayName, Role: p.Role}
}
