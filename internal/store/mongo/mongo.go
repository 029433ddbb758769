// internal/store/mongo/mongo.go
//
// MongoDB implementation of store.Store.
// Collections:
//   - users: {_id, username, name, passwordHash, blogs: [ObjectID]}
//   - blogs: {_id, title, author, url, likes, comments: [string], user: ObjectID}
//
// Usernames are unique case-insensitively (collation strength 2 on the index
// and on lookups).

package mongo

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/robalobadob/bloglist/internal/model"
	"github.com/robalobadob/bloglist/internal/store"
)

var usernameCollation = &options.Collation{Locale: "en", Strength: 2}

// Store is a store.Store backed by a MongoDB database.
type Store struct {
	client *mongo.Client
	users  *mongo.Collection
	blogs  *mongo.Collection
}

var _ store.Store = (*Store)(nil)

type userDoc struct {
	ID           primitive.ObjectID   `bson:"_id"`
	Username     string               `bson:"username"`
	Name         string               `bson:"name"`
	PasswordHash string               `bson:"passwordHash"`
	Blogs        []primitive.ObjectID `bson:"blogs"`
}

type blogDoc struct {
	ID       primitive.ObjectID  `bson:"_id"`
	Title    string              `bson:"title"`
	Author   string              `bson:"author"`
	URL      string              `bson:"url"`
	Likes    int                 `bson:"likes"`
	Comments []string            `bson:"comments"`
	User     *primitive.ObjectID `bson:"user,omitempty"`
}

// Open connects to uri, selects database dbName and ensures indexes.
func Open(ctx context.Context, uri, dbName string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongodb: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("ping mongodb: %w", err)
	}

	db := client.Database(dbName)
	s := &Store{client: client, users: db.Collection("users"), blogs: db.Collection("blogs")}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true).SetCollation(usernameCollation),
	})
	if err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("create username index: %w", err)
	}
	log.Info().Str("db", dbName).Msg("connected to MongoDB")
	return s, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

func (s *Store) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

// drop removes both collections; used by tests.
func (s *Store) drop(ctx context.Context) error {
	if err := s.users.Drop(ctx); err != nil {
		return err
	}
	return s.blogs.Drop(ctx)
}

// ------------------------------- users -------------------------------------

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	doc := userDoc{
		ID:           primitive.NewObjectID(),
		Username:     u.Username,
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		Blogs:        []primitive.ObjectID{},
	}
	if _, err := s.users.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return store.ErrDuplicateUsername
		}
		return err
	}
	u.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetUser(ctx context.Context, id string) (model.User, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.User{}, err
	}
	var doc userDoc
	if err := s.users.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.User{}, notFound(err)
	}
	return doc.toModel(), nil
}

func (s *Store) FindUserByUsername(ctx context.Context, username string) (model.User, error) {
	var doc userDoc
	opts := options.FindOne().SetCollation(usernameCollation)
	if err := s.users.FindOne(ctx, bson.M{"username": username}, opts).Decode(&doc); err != nil {
		return model.User{}, notFound(err)
	}
	return doc.toModel(), nil
}

func (s *Store) ListUsers(ctx context.Context) ([]model.User, error) {
	cur, err := s.users.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.User, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *Store) AddUserPost(ctx context.Context, userID, postID string) error {
	uid, err := objectID(userID)
	if err != nil {
		return err
	}
	pid, err := objectID(postID)
	if err != nil {
		return err
	}
	res, err := s.users.UpdateByID(ctx, uid, bson.M{"$push": bson.M{"blogs": pid}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ------------------------------- posts -------------------------------------

func (s *Store) CreatePost(ctx context.Context, p *model.Post) error {
	doc := blogDoc{
		ID:       primitive.NewObjectID(),
		Title:    p.Title,
		Author:   p.Author,
		URL:      p.URL,
		Likes:    p.Likes,
		Comments: p.Comments,
	}
	if doc.Comments == nil {
		doc.Comments = []string{}
	}
	if p.UserID != "" {
		uid, err := objectID(p.UserID)
		if err != nil {
			return err
		}
		doc.User = &uid
	}
	if _, err := s.blogs.InsertOne(ctx, doc); err != nil {
		return err
	}
	p.ID = doc.ID.Hex()
	return nil
}

func (s *Store) GetPost(ctx context.Context, id string) (model.Post, error) {
	oid, err := objectID(id)
	if err != nil {
		return model.Post{}, err
	}
	var doc blogDoc
	if err := s.blogs.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		return model.Post{}, notFound(err)
	}
	return doc.toModel(), nil
}

func (s *Store) ListPosts(ctx context.Context) ([]model.Post, error) {
	cur, err := s.blogs.Find(ctx, bson.D{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	var docs []blogDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, err
	}
	out := make([]model.Post, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}

func (s *Store) UpdatePost(ctx context.Context, id string, patch model.PostPatch) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	set := bson.M{}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Author != nil {
		set["author"] = *patch.Author
	}
	if patch.URL != nil {
		set["url"] = *patch.URL
	}
	if patch.Likes != nil {
		set["likes"] = *patch.Likes
	}
	if patch.Comments != nil {
		set["comments"] = *patch.Comments
	}
	if len(set) == 0 {
		n, err := s.blogs.CountDocuments(ctx, bson.M{"_id": oid})
		if err != nil {
			return err
		}
		if n == 0 {
			return store.ErrNotFound
		}
		return nil
	}
	res, err := s.blogs.UpdateByID(ctx, oid, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) SetComments(ctx context.Context, id string, comments []string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	if comments == nil {
		comments = []string{}
	}
	res, err := s.blogs.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"comments": comments}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

func (s *Store) DeletePost(ctx context.Context, id string) error {
	oid, err := objectID(id)
	if err != nil {
		return err
	}
	res, err := s.blogs.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return store.ErrNotFound
	}
	return nil
}

// ------------------------------- helpers -----------------------------------

func (d userDoc) toModel() model.User {
	posts := make([]string, 0, len(d.Blogs))
	for _, b := range d.Blogs {
		posts = append(posts, b.Hex())
	}
	return model.User{
		ID:           d.ID.Hex(),
		Username:     d.Username,
		Name:         d.Name,
		PasswordHash: d.PasswordHash,
		Posts:        posts,
	}
}

func (d blogDoc) toModel() model.Post {
	p := model.Post{
		ID:       d.ID.Hex(),
		Title:    d.Title,
		Author:   d.Author,
		URL:      d.URL,
		Likes:    d.Likes,
		Comments: d.Comments,
	}
	if d.User != nil {
		p.UserID = d.User.Hex()
	}
	return p
}

func objectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, store.ErrMalformedID
	}
	return oid, nil
}

func notFound(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return store.ErrNotFound
	}
	return err
}
