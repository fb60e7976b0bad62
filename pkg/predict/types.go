// Package predict implements the hard part of spec.md: the per-entity
// Controller state machine (predict / send / reconcile / replay) and the
// scene-wide TickCoordinator that drives it (spec.md §4.1, §4.2).
package predict

import "fmt"

// Role is one of the five states spec.md §4.2 names for a Controller.
type Role int

const (
	// RoleDormant: identity has no controllerConnectionId yet.
	RoleDormant Role = iota
	// RoleLocalHost: local process is host and controls this entity.
	RoleLocalHost
	// RoleLocalClient: local process controls this entity, but is not host.
	RoleLocalClient
	// RoleProxiedHost: local process is host, entity is controlled elsewhere.
	RoleProxiedHost
	// RoleRemoteObserver: local process neither hosts nor controls this entity.
	RoleRemoteObserver
)

func (r Role) String() string {
	switch r {
	case RoleDormant:
		return "Dormant"
	case RoleLocalHost:
		return "LocalHost"
	case RoleLocalClient:
		return "LocalClient"
	case RoleProxiedHost:
		return "ProxiedHost"
	case RoleRemoteObserver:
		return "RemoteObserver"
	default:
		return fmt.Sprintf("Role(%d)", int(r))
	}
}

// IsLocal reports whether this role runs prediction locally (host or client).
func (r Role) IsLocal() bool {
	return r == RoleLocalHost || r == RoleLocalClient
}

// Identity is spec.md §3's Controller identity: {entityId,
// controllerConnectionId}. ControllerConnectionID is assigned once by the
// host, replicated host->all, and is immutable thereafter; zero means
// dormant.
type Identity struct {
	EntityID               uint64
	ControllerConnectionID uint64
}

// IsDormant reports whether no controller has been assigned yet.
func (id Identity) IsDormant() bool {
	return id.ControllerConnectionID == 0
}

// RuntimeContext is passed into the coordinator instead of relying on
// global static accessors (spec.md §9): local identity, host flag, wall
// clock and per-frame delta all come from here.
type RuntimeContext struct {
	// IsHost reports whether this process is the authoritative host.
	IsHost bool
	// LocalConnectionID is this process's own controllerConnectionId (0 if
	// this process controls no entity, e.g. a pure dashboard/spectator).
	LocalConnectionID uint64
	// WallNow returns the current wall-clock time in seconds.
	WallNow func() float64
}

// ResolveRole implements spec.md §2's role table plus the Dormant state
// spec.md §4.2 adds.
func ResolveRole(ctx RuntimeContext, id Identity) Role {
	if id.IsDormant() {
		return RoleDormant
	}
	controls := id.ControllerConnectionID == ctx.LocalConnectionID
	switch {
	case ctx.IsHost && controls:
		return RoleLocalHost
	case controls && !ctx.IsHost:
		return RoleLocalClient
	case ctx.IsHost && !controls:
		return RoleProxiedHost
	default:
		return RoleRemoteObserver
	}
}
