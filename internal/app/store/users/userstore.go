package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/clubhub/internal/app/system/normalize"
	"github.com/dalemusser/clubhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

var (
	// ErrDuplicateEmail is returned when a user with the email already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	errBadRole        = errors.New(`role must be "admin"|"leader"|"member"|"visitor"`)
	errEmailRequired  = errors.New("email is required")
)

// GetByID loads a user by ObjectID.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by normalized email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByGoogleID looks up a user linked to a Google account.
func (s *Store) GetByGoogleID(ctx context.Context, googleID string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"google_id": googleID}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Create inserts a new user. Users start as visitors unless a role is given.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.Email = normalize.Email(u.Email)
	if u.Email == "" {
		return models.User{}, errEmailRequired
	}
	u.ID = primitive.NewObjectID()
	u.DisplayName = normalize.Name(u.DisplayName)
	if u.DisplayName == "" {
		u.DisplayName = u.Email
	}
	u.DisplayNameCI = text.Fold(u.DisplayName)
	u.AuthMethod = normalize.AuthMethod(u.AuthMethod)
	if u.Role == "" {
		u.Role = models.RoleVisitor
	}
	if !models.IsValidRole(u.Role) {
		return models.User{}, errBadRole
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// FindOrCreateGoogle returns the user linked to googleID, links an
// existing account with the same email, or creates a visitor on first
// sign-in. created reports the last case.
func (s *Store) FindOrCreateGoogle(ctx context.Context, googleID, email, displayName string) (u *models.User, created bool, err error) {
	u, err = s.GetByGoogleID(ctx, googleID)
	if err == nil {
		return u, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	u, err = s.GetByEmail(ctx, email)
	if err == nil {
		_, err = s.c.UpdateByID(ctx, u.ID, bson.M{"$set": bson.M{
			"google_id":  googleID,
			"updated_at": time.Now().UTC(),
		}})
		if err != nil {
			return nil, false, err
		}
		u.GoogleID = googleID
		return u, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}

	nu, err := s.Create(ctx, models.User{
		DisplayName: displayName,
		Email:       email,
		AuthMethod:  "google",
		GoogleID:    googleID,
	})
	if err != nil {
		return nil, false, err
	}
	return &nu, true, nil
}

// ProfileUpdate holds the fields collected by profile completion.
type ProfileUpdate struct {
	DisplayName string
	Phone       string
	DOB         string
	Gender      string
	Stream      string
	Course      string
}

// UpdateProfile sets the profile-completion fields. An empty display
// name leaves the existing one in place.
func (s *Store) UpdateProfile(ctx context.Context, id primitive.ObjectID, p ProfileUpdate) error {
	set := bson.M{
		"phone":      normalize.Text(p.Phone),
		"dob":        normalize.Text(p.DOB),
		"gender":     normalize.Text(p.Gender),
		"stream":     normalize.Text(p.Stream),
		"course":     normalize.Text(p.Course),
		"updated_at": time.Now().UTC(),
	}
	if name := normalize.Name(p.DisplayName); name != "" {
		set["display_name"] = name
		set["display_name_ci"] = text.Fold(name)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// SetPasswordHash stores a bcrypt hash for password sign-in.
func (s *Store) SetPasswordHash(ctx context.Context, id primitive.ObjectID, hash string) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"password_hash": hash,
		"updated_at":    time.Now().UTC(),
	}})
	return err
}

// SetRole changes the global role without touching club_id.
func (s *Store) SetRole(ctx context.Context, id primitive.ObjectID, role string) error {
	if !models.IsValidRole(role) {
		return errBadRole
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"role":       role,
		"updated_at": time.Now().UTC(),
	}})
	return err
}

// PromoteToMember records acceptance into a club: club_id is set and a
// visitor becomes a member. Admins and leaders keep their global role.
func (s *Store) PromoteToMember(ctx context.Context, id, clubID primitive.ObjectID) error {
	now := time.Now().UTC()
	if _, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": models.RoleVisitor},
		bson.M{"$set": bson.M{"role": models.RoleMember, "updated_at": now}},
	); err != nil {
		return err
	}
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"club_id": clubID, "updated_at": now}})
	return err
}

// AssignLeader records the user as leader of clubID: club_id is set and
// the global role becomes leader. Admins keep their role.
func (s *Store) AssignLeader(ctx context.Context, id, clubID primitive.ObjectID) error {
	now := time.Now().UTC()
	if _, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": bson.M{"$ne": models.RoleAdmin}},
		bson.M{"$set": bson.M{"role": models.RoleLeader, "updated_at": now}},
	); err != nil {
		return err
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"club_id": clubID, "updated_at": now}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ClearClub unsets club_id when it still points at clubID, then demotes
// a plain member with no club back to visitor.
func (s *Store) ClearClub(ctx context.Context, id, clubID primitive.ObjectID) error {
	now := time.Now().UTC()
	if _, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "club_id": clubID},
		bson.M{"$unset": bson.M{"club_id": ""}, "$set": bson.M{"updated_at": now}},
	); err != nil {
		return err
	}
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "role": models.RoleMember, "club_id": bson.M{"$exists": false}},
		bson.M{"$set": bson.M{"role": models.RoleVisitor, "updated_at": now}},
	)
	return err
}

// EnsureAdmin promotes the user with email to admin, creating the account
// if necessary. Used at startup to bootstrap the first administrator.
func (s *Store) EnsureAdmin(ctx context.Context, email string) (u *models.User, created bool, err error) {
	email = normalize.Email(email)
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var existing models.User
	err = s.c.FindOneAndUpdate(ctx,
		bson.M{"email": email},
		bson.M{"$set": bson.M{"role": models.RoleAdmin, "updated_at": time.Now().UTC()}},
		opts,
	).Decode(&existing)
	if err == nil {
		return &existing, false, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, false, err
	}
	nu, err := s.Create(ctx, models.User{
		DisplayName: "Administrator",
		Email:       email,
		Role:        models.RoleAdmin,
	})
	if err != nil {
		return nil, false, err
	}
	return &nu, true, nil
}

// RoleOf returns the user's global role. found is false when the user
// does not exist.
func (s *Store) RoleOf(ctx context.Context, id primitive.ObjectID) (role string, found bool, err error) {
	var row struct {
		Role string `bson:"role"`
	}
	proj := options.FindOne().SetProjection(bson.M{"role": 1})
	err = s.c.FindOne(ctx, bson.M{"_id": id}, proj).Decode(&row)
	if err == mongo.ErrNoDocuments {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return normalize.Role(row.Role), true, nil
}

// NamesByIDs returns display names for the given ids. Missing users are
// absent from the map.
func (s *Store) NamesByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]string, error) {
	out := make(map[primitive.ObjectID]string, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	proj := options.Find().SetProjection(bson.M{"display_name": 1})
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}}, proj)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			ID   primitive.ObjectID `bson:"_id"`
			Name string             `bson:"display_name"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.ID] = row.Name
	}
	return out, cur.Err()
}
