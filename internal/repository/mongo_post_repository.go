package repository

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/spec-kit/docs-hub/internal/domain"
)

// CollectionProvider hands out collections from a lazily established connection.
type CollectionProvider interface {
	Collection(ctx context.Context, name string) (*mongo.Collection, error)
}

type postDocument struct {
	ID        bson.ObjectID `bson:"_id,omitempty"`
	Title     string        `bson:"title"`
	Slug      string        `bson:"slug"`
	Content   string        `bson:"content"`
	Excerpt   string        `bson:"excerpt"`
	Published bool          `bson:"published"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

func (d postDocument) toDomain() domain.Post {
	return domain.Post{
		ID:        d.ID.Hex(),
		Title:     d.Title,
		Slug:      d.Slug,
		Content:   d.Content,
		Excerpt:   d.Excerpt,
		Published: d.Published,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

type mongoPostRepository struct {
	provider   CollectionProvider
	collection string
}

// NewMongoPostRepository returns a document store implementation.
func NewMongoPostRepository(provider CollectionProvider, collection string) PostRepository {
	if collection == "" {
		collection = "posts"
	}
	return &mongoPostRepository{provider: provider, collection: collection}
}

// MongoPostIndexes returns a connect hook that creates the unique slug index, the
// listing index and the text index on collection. Creating an existing index is a no-op,
// so the hook runs on every new connection and no write can precede the slug index.
func MongoPostIndexes(collection string) func(ctx context.Context, db *mongo.Database) error {
	if collection == "" {
		collection = "posts"
	}
	return func(ctx context.Context, db *mongo.Database) error {
		return ensurePostIndexes(ctx, db.Collection(collection))
	}
}

func ensurePostIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "slug", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_slug"),
		},
		{
			Keys:    bson.D{{Key: "published", Value: 1}, {Key: "createdAt", Value: -1}},
			Options: options.Index().SetName("published_created_at"),
		},
		{
			Keys:    bson.D{{Key: "title", Value: "text"}, {Key: "content", Value: "text"}},
			Options: options.Index().SetName("title_content_text"),
		},
	})
	if err != nil {
		return fmt.Errorf("create post indexes: %w", err)
	}
	return nil
}

func (r *mongoPostRepository) coll(ctx context.Context) (*mongo.Collection, error) {
	return r.provider.Collection(ctx, r.collection)
}

func (r *mongoPostRepository) ListPublished(ctx context.Context) ([]domain.Post, error) {
	return r.find(ctx, bson.M{"published": true})
}

func (r *mongoPostRepository) ListAll(ctx context.Context) ([]domain.Post, error) {
	return r.find(ctx, bson.M{})
}

func (r *mongoPostRepository) GetBySlug(ctx context.Context, slug string, includeUnpublished bool) (*domain.Post, error) {
	filter := bson.M{"slug": slug}
	if !includeUnpublished {
		filter["published"] = true
	}
	return r.findOne(ctx, filter)
}

func (r *mongoPostRepository) GetByID(ctx context.Context, id string) (*domain.Post, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *mongoPostRepository) SlugExists(ctx context.Context, slug, excludeID string) (bool, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return false, err
	}
	filter := bson.M{"slug": slug}
	if oid, err := bson.ObjectIDFromHex(excludeID); err == nil {
		filter["_id"] = bson.M{"$ne": oid}
	}
	count, err := coll.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count slug: %w", err)
	}
	return count > 0, nil
}

func (r *mongoPostRepository) Create(ctx context.Context, post *domain.Post) error {
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}
	doc := postDocument{
		ID:        bson.NewObjectID(),
		Title:     post.Title,
		Slug:      post.Slug,
		Content:   post.Content,
		Excerpt:   post.Excerpt,
		Published: post.Published,
		CreatedAt: post.CreatedAt,
		UpdatedAt: post.UpdatedAt,
	}
	if _, err := coll.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrSlugTaken
		}
		return fmt.Errorf("insert post: %w", err)
	}
	post.ID = doc.ID.Hex()
	return nil
}

func (r *mongoPostRepository) Update(ctx context.Context, post *domain.Post) error {
	oid, err := bson.ObjectIDFromHex(post.ID)
	if err != nil {
		return ErrNotFound
	}
	coll, err := r.coll(ctx)
	if err != nil {
		return err
	}

	update := bson.M{"$set": bson.M{
		"title":     post.Title,
		"slug":      post.Slug,
		"content":   post.Content,
		"excerpt":   post.Excerpt,
		"published": post.Published,
		"updatedAt": post.UpdatedAt,
	}}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var doc postDocument
	if err := coll.FindOneAndUpdate(ctx, bson.M{"_id": oid}, update, opts).Decode(&doc); err != nil {
		switch {
		case errors.Is(err, mongo.ErrNoDocuments):
			return ErrNotFound
		case mongo.IsDuplicateKeyError(err):
			return ErrSlugTaken
		}
		return fmt.Errorf("update post: %w", err)
	}
	*post = doc.toDomain()
	return nil
}

func (r *mongoPostRepository) Delete(ctx context.Context, id string) (bool, error) {
	oid, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return false, nil
	}
	coll, err := r.coll(ctx)
	if err != nil {
		return false, err
	}
	res, err := coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return false, fmt.Errorf("delete post: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func (r *mongoPostRepository) Search(ctx context.Context, query string) ([]domain.Post, error) {
	pattern := bson.M{"$regex": regexp.QuoteMeta(query), "$options": "i"}
	return r.find(ctx, bson.M{
		"published": true,
		"$or": []bson.M{
			{"title": pattern},
			{"content": pattern},
			{"excerpt": pattern},
		},
	})
}

func (r *mongoPostRepository) find(ctx context.Context, filter bson.M) ([]domain.Post, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cur, err := coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find posts: %w", err)
	}
	defer cur.Close(ctx)

	var docs []postDocument
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode posts: %w", err)
	}
	posts := make([]domain.Post, 0, len(docs))
	for _, doc := range docs {
		posts = append(posts, doc.toDomain())
	}
	return posts, nil
}

func (r *mongoPostRepository) findOne(ctx context.Context, filter bson.M) (*domain.Post, error) {
	coll, err := r.coll(ctx)
	if err != nil {
		return nil, err
	}
	var doc postDocument
	if err := coll.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find post: %w", err)
	}
	post := doc.toDomain()
	return &post, nil
}
