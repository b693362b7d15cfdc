// Package policy decides whether a principal may perform an action on a post.
//
// Decide is a pure function. Callers look the post up first so that a
// missing post surfaces as not found before ownership is considered.
package policy

import (
	"errors"

	"github.com/geocoder89/bloghub/internal/auth"
	"github.com/geocoder89/bloghub/internal/domain/post"
)

type Action string

const (
	ActionRead    Action = "read"
	ActionList    Action = "list"
	ActionCreate  Action = "create"
	ActionUpdate  Action = "update"
	ActionPublish Action = "publish"
	ActionDelete  Action = "delete"
	ActionListOwn Action = "list-own"
	// ActionReadDraft gates reading an unpublished post by id.
	ActionReadDraft Action = "read-draft"
)

type Reason string

const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonNotOwner        Reason = "not owner"
	ReasonMissingResource Reason = "missing resource"
	ReasonUnknownAction   Reason = "unknown action"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
)

type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision { return Decision{Allowed: true} }

func deny(r Reason) Decision { return Decision{Reason: r} }

// Err maps a deny to ErrUnauthenticated or ErrForbidden, nil when allowed.
func (d Decision) Err() error {
	switch {
	case d.Allowed:
		return nil
	case d.Reason == ReasonUnauthenticated:
		return ErrUnauthenticated
	default:
		return ErrForbidden
	}
}

func Decide(principal *auth.Principal, action Action, resource *post.Post) Decision {
	switch action {
	case ActionRead, ActionList:
		return allow()

	case ActionCreate, ActionListOwn:
		if principal == nil {
			return deny(ReasonUnauthenticated)
		}
		return allow()

	case ActionUpdate, ActionPublish, ActionDelete, ActionReadDraft:
		// unauthenticated wins over ownership
		if principal == nil {
			return deny(ReasonUnauthenticated)
		}
		if resource == nil {
			return deny(ReasonMissingResource)
		}
		if !IsOwner(principal, resource) {
			return deny(ReasonNotOwner)
		}
		return allow()

	default:
		return deny(ReasonUnknownAction)
	}
}

func IsOwner(principal *auth.Principal, resource *post.Post) bool {
	return principal != nil && resource != nil &&
		principal.ID != "" && resource.AuthorID == principal.ID
}
