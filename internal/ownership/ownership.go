// Package ownership decides whether a caller may act on a resource.
//
// Every read-sensitive or mutating subscription operation funnels through
// Check, so the "not found before not owner" ordering lives with the
// callers: they resolve the resource first and only then ask this package.
package ownership

import (
	"errors"

	"github.com/bwmarrin/snowflake"
)

var ErrNotOwner = errors.New("not_owner")

// Check compares a resource owner against the authenticated caller.
// It is used both for loaded resources (owner column) and for
// path-supplied target identities ("list my subscriptions").
func Check(ownerID, callerID snowflake.ID) error {
	if ownerID != callerID {
		return ErrNotOwner
	}
	return nil
}
