package userstore

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/system/normalize"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced on Create and SetPassword.
const MinPasswordLength = 8

var (
	// ErrDuplicateEmail is returned when attempting to create a user with an email that already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrBadRole is returned for a role outside admin|teacher|student|parent.
	ErrBadRole = errors.New(`role must be "admin"|"teacher"|"student"|"parent"`)
	// ErrWeakPassword is returned for passwords shorter than MinPasswordLength.
	ErrWeakPassword = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
)

// bcryptCost is a var so tests can lower it.
var bcryptCost = bcrypt.DefaultCost

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// HashPassword bcrypt-hashes a plain-text password.
func HashPassword(plain string) (string, error) {
	if len(plain) < MinPasswordLength {
		return "", ErrWeakPassword
	}
	h, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(h), nil
}

// CheckPassword reports whether plain matches the user's stored hash.
func CheckPassword(u *models.User, plain string) bool {
	if u == nil || u.PasswordHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(plain)) == nil
}

// Create inserts a new user after normalizing & validating fields.
// password may be empty for accounts that only sign in with Google.
func (s *Store) Create(ctx context.Context, u models.User, password string) (models.User, error) {
	u.ID = primitive.NewObjectID()
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	u.Email = normalize.Email(u.Email)
	u.EmailCI = u.Email
	u.Role = normalize.Role(u.Role)

	if !models.ValidRole(u.Role) {
		return models.User{}, ErrBadRole
	}
	if password != "" {
		h, err := HashPassword(password)
		if err != nil {
			return models.User{}, err
		}
		u.PasswordHash = h
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

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByIDAndRole loads a user only if they have role.
func (s *Store) GetByIDAndRole(ctx context.Context, id primitive.ObjectID, role string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id, "role": role}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by case-insensitive email. Returns mongo.ErrNoDocuments if not found.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email_ci": normalize.Email(email)}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetMany loads users by ID, keyed by ID. Missing IDs are simply absent.
func (s *Store) GetMany(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]models.User, error) {
	out := make(map[primitive.ObjectID]models.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	cur, err := s.c.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	for cur.Next(ctx) {
		var u models.User
		if err := cur.Decode(&u); err != nil {
			return nil, err
		}
		out[u.ID] = u
	}
	return out, cur.Err()
}

// ListFilter narrows List.
type ListFilter struct {
	Role      string
	Query     string // prefix match on folded full name
	TeacherID *primitive.ObjectID
}

func (f ListFilter) bson() bson.M {
	q := bson.M{}
	if f.Role != "" {
		q["role"] = f.Role
	}
	if f.TeacherID != nil {
		q["teacher_id"] = *f.TeacherID
	}
	if folded := text.Fold(normalize.Name(f.Query)); folded != "" {
		q["full_name_ci"] = bson.M{"$regex": "^" + regexp.QuoteMeta(folded)}
	}
	return q
}

// List returns one page of users ordered by folded name, plus the total count.
func (s *Store) List(ctx context.Context, f ListFilter, p paging.Params) ([]models.User, int64, error) {
	filter := f.bson()
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(bson.D{{Key: "full_name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, 0, err
	}
	return users, total, nil
}

// ToggleActive flips is_active for a user with role and returns the new value.
// The flip happens server-side in one update so concurrent toggles can't lose a write.
func (s *Store) ToggleActive(ctx context.Context, id primitive.ObjectID, role string) (bool, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"is_active":  bson.M{"$not": bson.A{"$is_active"}},
			"updated_at": "$$NOW",
		}}},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"is_active": 1})

	var out struct {
		IsActive bool `bson:"is_active"`
	}
	if err := s.c.FindOneAndUpdate(ctx, bson.M{"_id": id, "role": role}, pipeline, opts).Decode(&out); err != nil {
		return false, err
	}
	return out.IsActive, nil
}

// AssignTeacher sets a student's teacher. Returns mongo.ErrNoDocuments when
// studentID is not a student.
func (s *Store) AssignTeacher(ctx context.Context, studentID, teacherID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": studentID, "role": models.RoleStudent},
		bson.M{"$set": bson.M{"teacher_id": teacherID, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// LinkChild adds studentID to a parent's children. Linking twice is a no-op.
func (s *Store) LinkChild(ctx context.Context, parentID, studentID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": parentID, "role": models.RoleParent},
		bson.M{
			"$addToSet": bson.M{"child_ids": studentID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// ParentsOf returns every active parent linked to studentID.
func (s *Store) ParentsOf(ctx context.Context, studentID primitive.ObjectID) ([]models.User, error) {
	cur, err := s.c.Find(ctx, bson.M{"role": models.RoleParent, "child_ids": studentID, "is_active": true})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)
	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// IsTeacherOf reports whether studentID is assigned to teacherID.
func (s *Store) IsTeacherOf(ctx context.Context, teacherID, studentID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": studentID, "role": models.RoleStudent, "teacher_id": teacherID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// TeacherOwnsAll reports whether every ID in studentIDs is one of teacherID's students.
func (s *Store) TeacherOwnsAll(ctx context.Context, teacherID primitive.ObjectID, studentIDs []primitive.ObjectID) (bool, error) {
	if len(studentIDs) == 0 {
		return false, nil
	}
	uniq := map[primitive.ObjectID]struct{}{}
	for _, id := range studentIDs {
		uniq[id] = struct{}{}
	}
	n, err := s.c.CountDocuments(ctx, bson.M{
		"_id":        bson.M{"$in": studentIDs},
		"role":       models.RoleStudent,
		"teacher_id": teacherID,
	})
	if err != nil {
		return false, err
	}
	return n == int64(len(uniq)), nil
}

// TouchLastLogin records a successful sign-in.
func (s *Store) TouchLastLogin(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	_, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"last_login_at": now}})
	return err
}

// SetPassword replaces a user's password.
func (s *Store) SetPassword(ctx context.Context, id primitive.ObjectID, plain string) error {
	h, err := HashPassword(plain)
	if err != nil {
		return err
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{"password_hash": h, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return mongo.ErrNoDocuments
	}
	return nil
}

// Delete removes a user and the references other users hold to them:
// parents lose the child link and students lose the teacher link.
// Returns the number of documents deleted (0 or 1).
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	if res.DeletedCount == 0 {
		return 0, nil
	}
	now := time.Now().UTC()
	if _, err := s.c.UpdateMany(ctx, bson.M{"child_ids": id},
		bson.M{"$pull": bson.M{"child_ids": id}, "$set": bson.M{"updated_at": now}}); err != nil {
		return res.DeletedCount, err
	}
	if _, err := s.c.UpdateMany(ctx, bson.M{"teacher_id": id},
		bson.M{"$unset": bson.M{"teacher_id": ""}, "$set": bson.M{"updated_at": now}}); err != nil {
		return res.DeletedCount, err
	}
	return res.DeletedCount, nil
}

// CountByRole returns the number of users per role. Roles with no users are 0.
func (s *Store) CountByRole(ctx context.Context) (map[string]int64, error) {
	cur, err := s.c.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$role", "n": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := map[string]int64{
		models.RoleAdmin: 0, models.RoleTeacher: 0, models.RoleStudent: 0, models.RoleParent: 0,
	}
	for cur.Next(ctx) {
		var row struct {
			Role string `bson:"_id"`
			N    int64  `bson:"n"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		out[row.Role] = row.N
	}
	return out, cur.Err()
}
