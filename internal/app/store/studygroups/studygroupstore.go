package studygroupstore

import (
	"context"
	"errors"
	"time"

	"github.com/Elqomdes/hedeflynet/internal/app/system/normalize"
	"github.com/Elqomdes/hedeflynet/internal/app/system/paging"
	"github.com/Elqomdes/hedeflynet/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Group size bounds.
const (
	MinMembers = 2
	MaxMembers = 100
)

var (
	ErrBadSize          = errors.New("max members must be between 2 and 100")
	ErrAlreadyMember    = errors.New("you are already a member of this group")
	ErrPrivate          = errors.New("this group is private")
	ErrFull             = errors.New("this group is full")
	ErrNotMember        = errors.New("you are not a member of this group")
	ErrOwnerCannotLeave = errors.New("the owner cannot leave their own group")
	ErrNotOwner         = errors.New("only the group owner can do this")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("study_groups")}
}

// Create inserts a group whose only member is its owner.
func (s *Store) Create(ctx context.Context, g models.StudyGroup) (models.StudyGroup, error) {
	if g.MaxMembers < MinMembers || g.MaxMembers > MaxMembers {
		return models.StudyGroup{}, ErrBadSize
	}
	g.ID = primitive.NewObjectID()
	g.Name = normalize.Name(g.Name)
	g.NameCI = normalize.NameCI(g.Name)
	g.Subject = normalize.Subject(g.Subject)
	g.MemberIDs = []primitive.ObjectID{g.OwnerID}
	g.MemberCount = 1
	g.InvitedIDs = nil
	now := time.Now().UTC()
	g.CreatedAt = now
	g.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, g); err != nil {
		return models.StudyGroup{}, err
	}
	return g, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.StudyGroup, error) {
	var g models.StudyGroup
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&g); err != nil {
		return nil, err
	}
	return &g, nil
}

// Filter narrows List. Viewer is required: a viewer sees public groups,
// groups they belong to and groups they were invited to. With Mine set only
// their own memberships are returned.
type Filter struct {
	Viewer  primitive.ObjectID
	Subject string
	Mine    bool
}

func (s *Store) List(ctx context.Context, f Filter, p paging.Params) ([]models.StudyGroup, int64, error) {
	filter := bson.M{}
	if f.Mine {
		filter["member_ids"] = f.Viewer
	} else {
		filter["$or"] = bson.A{
			bson.M{"is_public": true},
			bson.M{"member_ids": f.Viewer},
			bson.M{"invited_ids": f.Viewer},
		}
	}
	if sub := normalize.Subject(f.Subject); sub != "" {
		filter["subject"] = sub
	}
	total, err := s.c.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	cur, err := s.c.Find(ctx, filter, p.FindOptions(bson.D{{Key: "name_ci", Value: 1}, {Key: "_id", Value: 1}}))
	if err != nil {
		return nil, 0, err
	}
	defer cur.Close(ctx)
	var out []models.StudyGroup
	if err := cur.All(ctx, &out); err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// Join adds userID to the group. The capacity and access checks are part
// of the update filter, so a group can never exceed max_members.
func (s *Store) Join(ctx context.Context, id, userID primitive.ObjectID) (*models.StudyGroup, error) {
	var g models.StudyGroup
	err := s.c.FindOneAndUpdate(ctx,
		bson.M{
			"_id":        id,
			"member_ids": bson.M{"$ne": userID},
			"$or":        bson.A{bson.M{"is_public": true}, bson.M{"invited_ids": userID}},
			"$expr":      bson.M{"$lt": bson.A{"$member_count", "$max_members"}},
		},
		bson.M{
			"$addToSet": bson.M{"member_ids": userID},
			"$pull":     bson.M{"invited_ids": userID},
			"$inc":      bson.M{"member_count": 1},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&g)
	if err == nil {
		return &g, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	cur, gerr := s.GetByID(ctx, id)
	if gerr != nil {
		return nil, gerr
	}
	switch {
	case cur.HasMember(userID):
		return nil, ErrAlreadyMember
	case !cur.IsPublic && !containsID(cur.InvitedIDs, userID):
		return nil, ErrPrivate
	default:
		return nil, ErrFull
	}
}

// Leave removes a non-owner member.
func (s *Store) Leave(ctx context.Context, id, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "member_ids": userID, "owner_id": bson.M{"$ne": userID}},
		bson.M{
			"$pull": bson.M{"member_ids": userID},
			"$inc":  bson.M{"member_count": -1},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	cur, gerr := s.GetByID(ctx, id)
	if gerr != nil {
		return gerr
	}
	if cur.OwnerID == userID {
		return ErrOwnerCannotLeave
	}
	return ErrNotMember
}

// Invite lets userID join a private group. Only the owner may invite.
func (s *Store) Invite(ctx context.Context, id, ownerID, userID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "owner_id": ownerID},
		bson.M{"$addToSet": bson.M{"invited_ids": userID}, "$set": bson.M{"updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 1 {
		return nil
	}
	if _, gerr := s.GetByID(ctx, id); gerr != nil {
		return gerr
	}
	return ErrNotOwner
}

// RemoveUser takes a deleted user out of every group. Ownership of a group
// they owned passes to the longest-standing remaining member; groups left
// with no members are deleted and their IDs returned.
func (s *Store) RemoveUser(ctx context.Context, userID primitive.ObjectID) ([]primitive.ObjectID, error) {
	now := time.Now().UTC()

	cur, err := s.c.Find(ctx, bson.M{"owner_id": userID})
	if err != nil {
		return nil, err
	}
	var owned []models.StudyGroup
	if err := cur.All(ctx, &owned); err != nil {
		return nil, err
	}

	var emptied []primitive.ObjectID
	for _, g := range owned {
		next, ok := nextOwner(g.MemberIDs, userID)
		if !ok {
			if _, err := s.c.DeleteOne(ctx, bson.M{"_id": g.ID}); err != nil {
				return nil, err
			}
			emptied = append(emptied, g.ID)
			continue
		}
		if _, err := s.c.UpdateOne(ctx, bson.M{"_id": g.ID, "owner_id": userID},
			bson.M{"$set": bson.M{"owner_id": next, "updated_at": now}}); err != nil {
			return nil, err
		}
	}

	if _, err := s.c.UpdateMany(ctx, bson.M{"member_ids": userID}, bson.M{
		"$pull": bson.M{"member_ids": userID},
		"$inc":  bson.M{"member_count": -1},
		"$set":  bson.M{"updated_at": now},
	}); err != nil {
		return nil, err
	}
	if _, err := s.c.UpdateMany(ctx, bson.M{"invited_ids": userID}, bson.M{
		"$pull": bson.M{"invited_ids": userID},
		"$set":  bson.M{"updated_at": now},
	}); err != nil {
		return nil, err
	}
	return emptied, nil
}

func nextOwner(members []primitive.ObjectID, leaving primitive.ObjectID) (primitive.ObjectID, bool) {
	for _, m := range members {
		if m != leaving {
			return m, true
		}
	}
	return primitive.NilObjectID, false
}

// IsMember reports whether userID belongs to the group.
func (s *Store) IsMember(ctx context.Context, id, userID primitive.ObjectID) (bool, error) {
	n, err := s.c.CountDocuments(ctx, bson.M{"_id": id, "member_ids": userID})
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func containsID(ids []primitive.ObjectID, id primitive.ObjectID) bool {
	for _, x := range ids {
		if x == id {
			return true
		}
	}
	return false
}
