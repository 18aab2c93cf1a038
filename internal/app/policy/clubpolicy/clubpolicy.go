// internal/app/policy/clubpolicy/clubpolicy.go
package clubpolicy

import (
	"context"

	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/app/system/timeouts"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Lookup is the read side the resolver needs. found=false means the
// record does not exist; err is reserved for read failures.
type Lookup interface {
	ClubLeaderID(ctx context.Context, clubID primitive.ObjectID) (leaderID primitive.ObjectID, found bool, err error)
	MemberRole(ctx context.Context, clubID, userID primitive.ObjectID) (role string, found bool, err error)
	UserRole(ctx context.Context, userID primitive.ObjectID) (role string, found bool, err error)
}

// Resolution is a user's effective role in one club.
//
// Role is "" when the user is not signed in or a read failed; Err tells
// the two apart.
type Resolution struct {
	Role          string
	AllowedInChat bool
	Err           error
}

// Unauthenticated reports whether the resolution is for a signed-out user.
func (r Resolution) Unauthenticated() bool {
	return r.Role == "" && r.Err == nil
}

// Resolver decides a user's role in a club. It is read-only.
type Resolver struct {
	lookup Lookup
	log    *zap.Logger
}

func NewResolver(lookup Lookup, log *zap.Logger) *Resolver {
	return &Resolver{lookup: lookup, log: log}
}

// Resolve checks, first match wins:
//  1. the club's leader id equals userID: leader
//  2. a member record exists: its role (empty reads as member); chat
//     is allowed only for leader and member
//  3. the user's global role is admin: admin
//  4. otherwise visitor
//
// A missing club resolves to visitor. A NilObjectID user is signed out.
// Read failures never panic or escape; they come back in Err.
func (rv *Resolver) Resolve(ctx context.Context, clubID, userID primitive.ObjectID) Resolution {
	if userID.IsZero() {
		return Resolution{}
	}

	ctx, cancel := timeouts.WithTimeout(ctx, timeouts.Short(), rv.log, "resolve club role")
	defer cancel()

	fail := func(step string, err error) Resolution {
		rv.log.Warn("club role lookup failed",
			zap.String("step", step),
			zap.String("club_id", clubID.Hex()),
			zap.String("user_id", userID.Hex()),
			zap.Error(err))
		return Resolution{Err: err}
	}

	leaderID, found, err := rv.lookup.ClubLeaderID(ctx, clubID)
	if err != nil {
		return fail("club", err)
	}
	if !found {
		return Resolution{Role: models.RoleVisitor}
	}
	if !leaderID.IsZero() && leaderID == userID {
		return Resolution{Role: models.RoleLeader, AllowedInChat: true}
	}

	memberRole, found, err := rv.lookup.MemberRole(ctx, clubID, userID)
	if err != nil {
		return fail("member", err)
	}
	if found {
		role := memberRole
		if role == "" {
			role = models.RoleMember
		}
		role = normalize.Role(role)
		return Resolution{
			Role:          role,
			AllowedInChat: role == models.RoleLeader || role == models.RoleMember,
		}
	}

	globalRole, found, err := rv.lookup.UserRole(ctx, userID)
	if err != nil {
		return fail("user", err)
	}
	if found && globalRole == models.RoleAdmin {
		return Resolution{Role: models.RoleAdmin, AllowedInChat: true}
	}

	return Resolution{Role: models.RoleVisitor}
}

// CanManageClub reports whether the resolution may edit the club and
// decide its join requests and members.
func CanManageClub(res Resolution) bool {
	return res.Err == nil && (res.Role == models.RoleLeader || res.Role == models.RoleAdmin)
}

// CanDeleteMessage reports whether a user holding role in the message's
// club may delete it: the author always, otherwise leaders and admins.
func CanDeleteMessage(msg models.Message, userID primitive.ObjectID, role string) bool {
	if !userID.IsZero() && msg.SenderID == userID {
		return true
	}
	return role == models.RoleLeader || role == models.RoleAdmin
}
