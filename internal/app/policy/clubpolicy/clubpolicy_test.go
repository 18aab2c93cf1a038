package clubpolicy_test

import (
	"context"
	"errors"
	"testing"

	"github.com/dalemusser/clubhub/internal/app/policy/clubpolicy"
	"github.com/dalemusser/clubhub/internal/domain/models"
	"github.com/dalemusser/clubhub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

type memberKey struct{ club, user primitive.ObjectID }

type fakeLookup struct {
	leaders   map[primitive.ObjectID]primitive.ObjectID
	members   map[memberKey]string
	users     map[primitive.ObjectID]string
	clubErr   error
	memberErr error
	userErr   error
	calls     int
}

func newFakeLookup() *fakeLookup {
	return &fakeLookup{
		leaders: map[primitive.ObjectID]primitive.ObjectID{},
		members: map[memberKey]string{},
		users:   map[primitive.ObjectID]string{},
	}
}

func (f *fakeLookup) ClubLeaderID(_ context.Context, clubID primitive.ObjectID) (primitive.ObjectID, bool, error) {
	f.calls++
	if f.clubErr != nil {
		return primitive.NilObjectID, false, f.clubErr
	}
	leader, ok := f.leaders[clubID]
	return leader, ok, nil
}

func (f *fakeLookup) MemberRole(_ context.Context, clubID, userID primitive.ObjectID) (string, bool, error) {
	f.calls++
	if f.memberErr != nil {
		return "", false, f.memberErr
	}
	role, ok := f.members[memberKey{clubID, userID}]
	return role, ok, nil
}

func (f *fakeLookup) UserRole(_ context.Context, userID primitive.ObjectID) (string, bool, error) {
	f.calls++
	if f.userErr != nil {
		return "", false, f.userErr
	}
	role, ok := f.users[userID]
	return role, ok, nil
}

type fixture struct {
	lookup             *fakeLookup
	resolver           *clubpolicy.Resolver
	chess              primitive.ObjectID
	u1, u2, u3, u4, u5 primitive.ObjectID
}

// Chess is led by u1; u2 is a member; u3 is a global admin; u4 has no
// relation; u5 is a member whose global role says visitor.
func newFixture() fixture {
	f := fixture{
		lookup: newFakeLookup(),
		chess:  primitive.NewObjectID(),
		u1:     primitive.NewObjectID(),
		u2:     primitive.NewObjectID(),
		u3:     primitive.NewObjectID(),
		u4:     primitive.NewObjectID(),
		u5:     primitive.NewObjectID(),
	}
	f.lookup.leaders[f.chess] = f.u1
	f.lookup.members[memberKey{f.chess, f.u1}] = models.RoleMember
	f.lookup.members[memberKey{f.chess, f.u2}] = models.RoleMember
	f.lookup.members[memberKey{f.chess, f.u5}] = models.RoleMember
	f.lookup.users[f.u1] = models.RoleLeader
	f.lookup.users[f.u2] = models.RoleMember
	f.lookup.users[f.u3] = models.RoleAdmin
	f.lookup.users[f.u4] = models.RoleVisitor
	f.lookup.users[f.u5] = models.RoleVisitor
	f.resolver = clubpolicy.NewResolver(f.lookup, zap.NewNop())
	return f
}

func TestResolve_Scenarios(t *testing.T) {
	f := newFixture()

	tests := []struct {
		name    string
		user    primitive.ObjectID
		role    string
		allowed bool
	}{
		{"leader of the club", f.u1, models.RoleLeader, true},
		{"member record", f.u2, models.RoleMember, true},
		{"global admin without membership", f.u3, models.RoleAdmin, true},
		{"no relation", f.u4, models.RoleVisitor, false},
		{"member record beats stale global role", f.u5, models.RoleMember, true},
		{"unknown user", primitive.NewObjectID(), models.RoleVisitor, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.resolver.Resolve(context.Background(), f.chess, tt.user)
			if res.Err != nil {
				t.Fatalf("unexpected error: %v", res.Err)
			}
			if res.Role != tt.role {
				t.Errorf("Role: got %q, want %q", res.Role, tt.role)
			}
			if res.AllowedInChat != tt.allowed {
				t.Errorf("AllowedInChat: got %v, want %v", res.AllowedInChat, tt.allowed)
			}
		})
	}
}

func TestResolve_LeaderWinsOverMemberRecord(t *testing.T) {
	f := newFixture()
	// u1 has both a leader id match and a member record
	res := f.resolver.Resolve(context.Background(), f.chess, f.u1)
	if res.Role != models.RoleLeader {
		t.Errorf("Role: got %q, want leader", res.Role)
	}
}

func TestResolve_MemberRecordLeaderRole(t *testing.T) {
	f := newFixture()
	co := primitive.NewObjectID()
	f.lookup.members[memberKey{f.chess, co}] = "Leader"

	res := f.resolver.Resolve(context.Background(), f.chess, co)
	if res.Role != models.RoleLeader || !res.AllowedInChat {
		t.Errorf("got %+v, want leader allowed", res)
	}
}

func TestResolve_MemberRecordWithoutRole(t *testing.T) {
	f := newFixture()
	legacy := primitive.NewObjectID()
	f.lookup.members[memberKey{f.chess, legacy}] = ""

	res := f.resolver.Resolve(context.Background(), f.chess, legacy)
	if res.Role != models.RoleMember || !res.AllowedInChat {
		t.Errorf("got %+v, want member allowed", res)
	}
}

func TestResolve_MemberRecordWithUnknownRole(t *testing.T) {
	f := newFixture()
	odd := primitive.NewObjectID()
	f.lookup.members[memberKey{f.chess, odd}] = "treasurer"

	res := f.resolver.Resolve(context.Background(), f.chess, odd)
	if res.Role != models.RoleVisitor || res.AllowedInChat {
		t.Errorf("got %+v, want visitor not allowed", res)
	}
}

func TestResolve_Unauthenticated(t *testing.T) {
	f := newFixture()
	res := f.resolver.Resolve(context.Background(), f.chess, primitive.NilObjectID)
	if res.Role != "" || res.AllowedInChat || res.Err != nil {
		t.Errorf("got %+v, want empty resolution", res)
	}
	if !res.Unauthenticated() {
		t.Error("expected Unauthenticated")
	}
	if f.lookup.calls != 0 {
		t.Errorf("signed-out resolve must not read, got %d calls", f.lookup.calls)
	}
}

func TestResolve_MissingClub(t *testing.T) {
	f := newFixture()
	res := f.resolver.Resolve(context.Background(), primitive.NewObjectID(), f.u3)
	if res.Role != models.RoleVisitor || res.AllowedInChat || res.Err != nil {
		t.Errorf("got %+v, want visitor", res)
	}
}

func TestResolve_ReadErrors(t *testing.T) {
	boom := errors.New("boom")
	for _, step := range []string{"club", "member", "user"} {
		t.Run(step, func(t *testing.T) {
			f := newFixture()
			switch step {
			case "club":
				f.lookup.clubErr = boom
			case "member":
				f.lookup.memberErr = boom
			case "user":
				f.lookup.userErr = boom
			}
			res := f.resolver.Resolve(context.Background(), f.chess, f.u4)
			if !errors.Is(res.Err, boom) {
				t.Errorf("Err: got %v, want boom", res.Err)
			}
			if res.Role != "" || res.AllowedInChat {
				t.Errorf("failed resolve must not grant anything: %+v", res)
			}
			if res.Unauthenticated() {
				t.Error("a read error is not a sign-out")
			}
		})
	}
}

func TestCanManageClub(t *testing.T) {
	tests := []struct {
		res  clubpolicy.Resolution
		want bool
	}{
		{clubpolicy.Resolution{Role: models.RoleLeader, AllowedInChat: true}, true},
		{clubpolicy.Resolution{Role: models.RoleAdmin, AllowedInChat: true}, true},
		{clubpolicy.Resolution{Role: models.RoleMember, AllowedInChat: true}, false},
		{clubpolicy.Resolution{Role: models.RoleVisitor}, false},
		{clubpolicy.Resolution{Err: errors.New("x")}, false},
	}
	for _, tt := range tests {
		if got := clubpolicy.CanManageClub(tt.res); got != tt.want {
			t.Errorf("CanManageClub(%+v): got %v, want %v", tt.res, got, tt.want)
		}
	}
}

func TestCanDeleteMessage(t *testing.T) {
	author := primitive.NewObjectID()
	other := primitive.NewObjectID()
	msg := models.Message{ID: primitive.NewObjectID(), SenderID: author}

	tests := []struct {
		name string
		user primitive.ObjectID
		role string
		want bool
	}{
		{"author as member", author, models.RoleMember, true},
		{"other member", other, models.RoleMember, false},
		{"leader", other, models.RoleLeader, true},
		{"admin", other, models.RoleAdmin, true},
		{"visitor", other, models.RoleVisitor, false},
		{"signed out", primitive.NilObjectID, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := clubpolicy.CanDeleteMessage(msg, tt.user, tt.role); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMongoLookup_Resolve(t *testing.T) {
	db := testutil.SetupTestDB(t)
	fixtures := testutil.NewFixtures(t, db)
	ctx, cancel := testutil.TestContext()
	defer cancel()

	leader, chess := fixtures.CreateLeader(ctx, "Lead", "lead@example.com", "Chess")
	member := fixtures.CreateMember(ctx, "Mem", "mem@example.com", chess.ID)
	admin := fixtures.CreateAdmin(ctx, "Admin", "admin@example.com")
	visitor := fixtures.CreateVisitor(ctx, "Vis", "vis@example.com")

	resolver := clubpolicy.NewResolver(clubpolicy.NewMongoLookup(db), zap.NewNop())

	want := map[primitive.ObjectID]string{
		leader.ID:  models.RoleLeader,
		member.ID:  models.RoleMember,
		admin.ID:   models.RoleAdmin,
		visitor.ID: models.RoleVisitor,
	}
	for id, role := range want {
		res := resolver.Resolve(ctx, chess.ID, id)
		if res.Err != nil {
			t.Fatalf("Resolve failed: %v", res.Err)
		}
		if res.Role != role {
			t.Errorf("user %s: got %q, want %q", id.Hex(), res.Role, role)
		}
	}

	if res := resolver.Resolve(ctx, primitive.NewObjectID(), admin.ID); res.Role != models.RoleVisitor {
		t.Errorf("missing club: got %q, want visitor", res.Role)
	}
}
