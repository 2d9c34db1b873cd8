package mongo

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillmart/internal/logger"
	"skillmart/internal/services/users"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const (
	usersCollection = "users"
	emailIndexName  = "users_email_unique"
	nameIndexName   = "users_name_unique"
)

// UsersRepo implements users.Repository and auth.UsersRepo for MongoDB
type UsersRepo struct {
	collection *mongo.Collection
}

// NewUsersRepo creates a new users repository and ensures its indexes
func NewUsersRepo(parentCtx context.Context, db *mongo.Database) (*UsersRepo, error) {
	collection := db.Collection(usersCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(emailIndexName),
		},
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true).SetName(nameIndexName),
		},
		{Keys: bson.D{{Key: "profession", Value: 1}}},
		{Keys: bson.D{{Key: "likedUsers", Value: 1}}},
		{Keys: bson.D{{Key: "likes", Value: -1}, {Key: "_id", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}},
	}

	ctx, cancel := context.WithTimeout(parentCtx, OpTimeout)
	defer cancel()

	for _, indexModel := range indexes {
		_, err := collection.Indexes().CreateOne(ctx, indexModel)
		if err != nil {
			if mongo.IsDuplicateKeyError(err) {
				logger.L().Debug("index already exists, continuing", "collection", usersCollection)
				continue
			}
			logger.L().Error("failed to create index", "collection", usersCollection, "error", err)
			return nil, fmt.Errorf("failed to create users collection index: %w", err)
		}
	}

	return &UsersRepo{
		collection: collection,
	}, nil
}

// translateNotFound maps the driver ErrNoDocuments to users.ErrUserNotFound.
func translateNotFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return users.ErrUserNotFound
	}
	return err
}

// translateDuplicate maps unique index violations to the domain conflict errors.
func translateDuplicate(err error) error {
	if !mongo.IsDuplicateKeyError(err) {
		return err
	}
	if strings.Contains(err.Error(), nameIndexName) {
		return users.ErrNameTaken
	}
	return users.ErrEmailTaken
}

func now() time.Time {
	return time.Now().UTC().Truncate(time.Millisecond)
}

// Create inserts a new user
func (r *UsersRepo) Create(ctx context.Context, user *users.User) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	ts := now()
	user.CreatedAt = ts
	user.UpdatedAt = ts
	if user.Sections == nil {
		user.Sections = []users.Section{}
	}
	if user.LikedUsers == nil {
		user.LikedUsers = []bson.ObjectID{}
	}

	_, err := r.collection.InsertOne(ctx, user)
	return translateDuplicate(err)
}

// FindByEmail returns the full record, credentials included
func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (*users.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var user users.User
	if err := r.collection.FindOne(ctx, bson.M{"email": email}).Decode(&user); err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

// FindByID returns the public view of a user
func (r *UsersRepo) FindByID(ctx context.Context, id bson.ObjectID) (*users.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	return r.findPublic(ctx, id)
}

func (r *UsersRepo) findPublic(ctx context.Context, id bson.ObjectID) (*users.User, error) {
	opts := options.FindOne().SetProjection(publicProjection)

	var user users.User
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}, opts).Decode(&user); err != nil {
		return nil, translateNotFound(err)
	}
	return &user, nil
}

func (r *UsersRepo) exists(ctx context.Context, id bson.ObjectID) (bool, error) {
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": id}, options.Count().SetLimit(1))
	return n > 0, err
}

// NameTakenByOther reports whether a user other than exclude holds name
func (r *UsersRepo) NameTakenByOther(ctx context.Context, name string, exclude bson.ObjectID) (bool, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	filter := bson.M{"name": name, "_id": bson.M{"$ne": exclude}}
	n, err := r.collection.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateProfile applies the non-nil fields of patch
func (r *UsersRepo) UpdateProfile(ctx context.Context, id bson.ObjectID, patch users.ProfilePatch) (*users.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	set, ok := buildProfileUpdate(patch)
	if !ok {
		return r.findPublic(ctx, id)
	}
	set["updatedAt"] = now()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(publicProjection)

	var updated users.User
	err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": id}, bson.M{"$set": set}, opts).Decode(&updated)
	if err != nil {
		return nil, translateDuplicate(translateNotFound(err))
	}
	return &updated, nil
}

// AddSection appends section in a single $push
func (r *UsersRepo) AddSection(ctx context.Context, userID bson.ObjectID, section users.Section) (*users.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	update := bson.M{
		"$push": bson.M{"sections": section},
		"$set":  bson.M{"updatedAt": now()},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(publicProjection)

	var updated users.User
	if err := r.collection.FindOneAndUpdate(ctx, bson.M{"_id": userID}, update, opts).Decode(&updated); err != nil {
		return nil, translateNotFound(err)
	}
	return &updated, nil
}

// DeleteSection pulls the section and returns it with the resulting user
func (r *UsersRepo) DeleteSection(ctx context.Context, userID, sectionID bson.ObjectID) (*users.Section, *users.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	ts := now()
	filter := bson.M{"_id": userID, "sections._id": sectionID}
	update := bson.M{
		"$pull": bson.M{"sections": bson.M{"_id": sectionID}},
		"$set":  bson.M{"updatedAt": ts},
	}
	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.Before).
		SetProjection(publicProjection)

	var before users.User
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&before)
	if errors.Is(err, mongo.ErrNoDocuments) {
		found, existsErr := r.exists(ctx, userID)
		if existsErr != nil {
			return nil, nil, existsErr
		}
		if !found {
			return nil, nil, users.ErrUserNotFound
		}
		return nil, nil, users.ErrSectionNotFound
	}
	if err != nil {
		return nil, nil, err
	}

	var removed *users.Section
	kept := make([]users.Section, 0, len(before.Sections))
	for i := range before.Sections {
		if before.Sections[i].ID == sectionID {
			removed = &before.Sections[i]
			continue
		}
		kept = append(kept, before.Sections[i])
	}
	if removed == nil {
		return nil, nil, users.ErrSectionNotFound
	}

	after := before
	after.Sections = kept
	after.UpdatedAt = ts

	return removed, &after, nil
}

// ToggleLike flips membership of target in actor's likedUsers. Each branch is
// a membership-guarded update followed by the counter change; on a replica set
// both writes share a transaction. A standalone server has no transactions, so
// the counter is recomputed from the likedUsers arrays after the write.
func (r *UsersRepo) ToggleLike(ctx context.Context, actorID, targetID bson.ObjectID) (*users.User, bool, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	if !IsReplicaSet() {
		_, liked, err := r.toggleLike(ctx, actorID, targetID)
		if err != nil {
			return nil, false, err
		}
		if err := r.recountLikes(ctx, targetID); err != nil {
			return nil, false, err
		}
		target, err := r.findPublic(ctx, targetID)
		if err != nil {
			return nil, false, err
		}
		return target, liked, nil
	}

	sess, err := r.collection.Database().Client().StartSession()
	if err != nil {
		return nil, false, err
	}
	defer sess.EndSession(ctx)

	type outcome struct {
		target *users.User
		liked  bool
	}
	res, err := sess.WithTransaction(ctx, func(txCtx context.Context) (any, error) {
		target, liked, err := r.toggleLike(txCtx, actorID, targetID)
		if err != nil {
			return nil, err
		}
		return outcome{target: target, liked: liked}, nil
	})
	if err != nil {
		return nil, false, err
	}
	out := res.(outcome)
	return out.target, out.liked, nil
}

func (r *UsersRepo) toggleLike(ctx context.Context, actorID, targetID bson.ObjectID) (*users.User, bool, error) {
	found, err := r.exists(ctx, targetID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return nil, false, users.ErrUserNotFound
	}

	ts := now()

	added, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": actorID, "likedUsers": bson.M{"$ne": targetID}},
		bson.M{"$addToSet": bson.M{"likedUsers": targetID}, "$set": bson.M{"updatedAt": ts}},
	)
	if err != nil {
		return nil, false, err
	}

	liked := added.ModifiedCount == 1
	if liked {
		_, err = r.collection.UpdateOne(ctx,
			bson.M{"_id": targetID},
			bson.M{"$inc": bson.M{"likes": 1}},
		)
	} else {
		var removed *mongo.UpdateResult
		removed, err = r.collection.UpdateOne(ctx,
			bson.M{"_id": actorID, "likedUsers": targetID},
			bson.M{"$pull": bson.M{"likedUsers": targetID}, "$set": bson.M{"updatedAt": ts}},
		)
		if err == nil && removed.MatchedCount == 0 {
			// neither branch matched: the actor is gone, or a concurrent
			// toggle already removed the like
			found, err = r.exists(ctx, actorID)
			if err == nil && !found {
				return nil, false, users.ErrUserNotFound
			}
		}
		if err == nil && removed.ModifiedCount == 1 {
			_, err = r.collection.UpdateOne(ctx,
				bson.M{"_id": targetID, "likes": bson.M{"$gt": 0}},
				bson.M{"$inc": bson.M{"likes": -1}},
			)
		}
	}
	if err != nil {
		return nil, false, err
	}

	target, err := r.findPublic(ctx, targetID)
	if err != nil {
		return nil, false, err
	}
	return target, liked, nil
}

const likeRecountAttempts = 5

// recountLikes sets target.likes to the number of users whose likedUsers holds
// it. A pass that finds the counter already equal to a fresh count ends the
// loop, so toggles racing with the recount still converge.
func (r *UsersRepo) recountLikes(ctx context.Context, targetID bson.ObjectID) error {
	for range likeRecountAttempts {
		n, err := r.collection.CountDocuments(ctx, bson.M{"likedUsers": targetID})
		if err != nil {
			return err
		}
		res, err := r.collection.UpdateOne(ctx,
			bson.M{"_id": targetID, "likes": bson.M{"$ne": n}},
			bson.M{"$set": bson.M{"likes": n}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return nil
		}
	}
	logger.L().Warn("likes counter still moving after recount", "target", targetID.Hex())
	return nil
}

// ListLiked hydrates the actor's likedUsers, preserving like order
func (r *UsersRepo) ListLiked(ctx context.Context, actorID bson.ObjectID) ([]users.LikedUser, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	var actor struct {
		LikedUsers []bson.ObjectID `bson:"likedUsers"`
	}
	opts := options.FindOne().SetProjection(bson.M{"likedUsers": 1})
	if err := r.collection.FindOne(ctx, bson.M{"_id": actorID}, opts).Decode(&actor); err != nil {
		return nil, translateNotFound(err)
	}
	if len(actor.LikedUsers) == 0 {
		return []users.LikedUser{}, nil
	}

	cursor, err := r.collection.Find(ctx,
		bson.M{"_id": bson.M{"$in": actor.LikedUsers}},
		options.Find().SetProjection(bson.M{"name": 1, "profilePic": 1, "profession": 1}),
	)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	var found []users.LikedUser
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}

	byID := make(map[bson.ObjectID]users.LikedUser, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]users.LikedUser, 0, len(found))
	for _, id := range actor.LikedUsers {
		if u, ok := byID[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

// Search runs a profession/name search with optional facets and sorts
func (r *UsersRepo) Search(ctx context.Context, q users.SearchQuery) ([]*users.User, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	opts := options.Find().
		SetSort(buildSearchSort(q)).
		SetProjection(publicProjection)
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}

	cursor, err := r.collection.Find(ctx, buildSearchFilter(q), opts)
	if err != nil {
		return nil, err
	}
	defer func(ctxToClose context.Context) {
		if cerr := cursor.Close(ctxToClose); cerr != nil {
			logger.L().Error("failed to close cursor", "error", cerr)
		}
	}(ctx)

	found := []*users.User{}
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	return found, nil
}

// Suggest returns the most liked matching professions followed by matching names
func (r *UsersRepo) Suggest(ctx context.Context, term string, limit int) ([]users.Suggestion, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	match := containsFold(term)
	out := make([]users.Suggestion, 0, limit)

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"profession": match}}},
		{{Key: "$group", Value: bson.M{"_id": "$profession", "likes": bson.M{"$sum": "$likes"}}}},
		{{Key: "$sort", Value: bson.D{{Key: "likes", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: limit}},
	}
	cursor, err := r.collection.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	var professions []struct {
		Value string `bson:"_id"`
	}
	if err := cursor.All(ctx, &professions); err != nil {
		return nil, err
	}
	for _, p := range professions {
		out = append(out, users.Suggestion{Type: users.SuggestionProfession, Value: p.Value})
	}

	remaining := limit - len(out)
	if remaining <= 0 {
		return out, nil
	}

	nameCursor, err := r.collection.Find(ctx,
		bson.M{"name": match},
		options.Find().
			SetProjection(bson.M{"name": 1}).
			SetSort(bson.D{{Key: "likes", Value: -1}, {Key: "name", Value: 1}}).
			SetLimit(int64(remaining)),
	)
	if err != nil {
		return nil, err
	}
	var names []struct {
		Name string `bson:"name"`
	}
	if err := nameCursor.All(ctx, &names); err != nil {
		return nil, err
	}
	for _, n := range names {
		out = append(out, users.Suggestion{Type: users.SuggestionName, Value: n.Name})
	}

	return out, nil
}

// SetResetOTP stores a hashed reset code and its expiry
func (r *UsersRepo) SetResetOTP(ctx context.Context, id bson.ObjectID, otpHash string, expires time.Time) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"resetPasswordOTP": otpHash, "resetPasswordExpire": expires.UTC()}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return users.ErrUserNotFound
	}
	return nil
}

// ConsumeResetOTP swaps the password and clears reset state, but only while
// otpHash is still the stored, unexpired code. It reports whether it applied.
func (r *UsersRepo) ConsumeResetOTP(ctx context.Context, id bson.ObjectID, otpHash, passwordHash string) (bool, error) {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	ts := now()
	res, err := r.collection.UpdateOne(ctx,
		bson.M{
			"_id":                 id,
			"resetPasswordOTP":    otpHash,
			"resetPasswordExpire": bson.M{"$gt": ts},
		},
		bson.M{
			"$set":   bson.M{"password": passwordHash, "updatedAt": ts},
			"$unset": bson.M{"resetPasswordOTP": "", "resetPasswordExpire": ""},
		},
	)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

// ClearResetOTP drops any pending reset code
func (r *UsersRepo) ClearResetOTP(ctx context.Context, id bson.ObjectID) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$unset": bson.M{"resetPasswordOTP": "", "resetPasswordExpire": ""}},
	)
	return err
}

// Ping checks that the database answers
func (r *UsersRepo) Ping(ctx context.Context) error {
	ctx, cancel := repoCtx(ctx)
	defer cancel()

	return r.collection.Database().Client().Ping(ctx, nil)
}
