// Package actor carries the authenticated caller through every service call.
package actor

import (
	"github.com/google/uuid"
	"github.com/sangkips/pos-api/internal/domain/enum"
	"github.com/sangkips/pos-api/pkg/apperror"
)

// Context is the resolved identity of the caller: who they are, which
// business they act for, and what they may do. It is built once per request.
type Context struct {
	UserID       uuid.UUID
	BusinessID   uuid.UUID
	BranchID     *uuid.UUID
	Username     string
	Role         enum.Role
	Capabilities enum.CapabilitySet
}

// New builds an actor from already-resolved values.
func New(userID, businessID uuid.UUID, branchID *uuid.UUID, role enum.Role, caps enum.CapabilitySet) Context {
	return Context{
		UserID:       userID,
		BusinessID:   businessID,
		BranchID:     branchID,
		Role:         role,
		Capabilities: caps,
	}
}

// Has reports whether the actor holds c.
func (a Context) Has(c enum.Capability) bool {
	return a.Capabilities.Has(c)
}

// Require returns PermissionDenied unless the actor holds c.
func (a Context) Require(c enum.Capability) error {
	if !a.Has(c) {
		return apperror.NewPermissionDenied(c.String())
	}
	return nil
}

// RequireAny returns PermissionDenied unless the actor holds at least one of caps.
func (a Context) RequireAny(caps ...enum.Capability) error {
	if a.Capabilities.HasAny(caps...) {
		return nil
	}
	if len(caps) == 0 {
		return apperror.ErrForbidden
	}
	return apperror.NewPermissionDenied(caps[0].String())
}

func (a Context) IsAdmin() bool {
	return a.Role == enum.RoleAdmin
}

// BranchScope returns the branch the actor is pinned to. It is nil when the
// actor has no branch or holds manage_branches, which spans every branch.
func (a Context) BranchScope() *uuid.UUID {
	if a.BranchID == nil || a.Has(enum.CapManageBranches) {
		return nil
	}
	return a.BranchID
}

// RequireBranch denies a pinned actor access to any branch but its own.
func (a Context) RequireBranch(branchID uuid.UUID) error {
	if scope := a.BranchScope(); scope != nil && *scope != branchID {
		return apperror.ErrBranchAccessDenied
	}
	return nil
}
