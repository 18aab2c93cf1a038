// internal/app/policy/clubpolicy/request.go
package clubpolicy

import (
	"net/http"

	"github.com/dalemusser/clubhub/internal/app/system/authz"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ForRequest resolves the signed-in caller against clubID. userID is
// NilObjectID for a signed-out caller.
func (rv *Resolver) ForRequest(r *http.Request, clubID primitive.ObjectID) (res Resolution, userID primitive.ObjectID) {
	_, _, userID, _ = authz.UserCtx(r)
	return rv.Resolve(r.Context(), clubID, userID), userID
}

// CanManage reports whether the caller may manage the club. A global
// admin may, even when a member record in the club outranks the admin
// role during resolution.
func CanManage(r *http.Request, res Resolution) bool {
	return CanManageClub(res) || (res.Err == nil && authz.IsAdmin(r))
}
