package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/Tireon003/notification-management-service/internal/models"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoNotificationRepository implements NotificationRepository for MongoDB.
// The single-document conditional updates give the same atomicity guarantees
// as the SQL implementation's conditional UPDATE statements.
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository.
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// notificationDoc is the BSON representation. IDs are stored as strings so the
// documents stay readable and index-friendly.
type notificationDoc struct {
	ID               string     `bson:"_id"`
	UserID           string     `bson:"user_id"`
	Title            string     `bson:"title"`
	Text             string     `bson:"text"`
	CreatedAt        time.Time  `bson:"created_at"`
	ReadAt           *time.Time `bson:"read_at"`
	Category         *string    `bson:"category"`
	Confidence       *float64   `bson:"confidence"`
	ProcessingStatus string     `bson:"processing_status"`
}

func toDoc(n *models.Notification) notificationDoc {
	doc := notificationDoc{
		ID:               n.ID.String(),
		UserID:           n.UserID.String(),
		Title:            n.Title,
		Text:             n.Text,
		CreatedAt:        n.CreatedAt,
		ReadAt:           n.ReadAt,
		Confidence:       n.Confidence,
		ProcessingStatus: string(n.ProcessingStatus),
	}
	if n.Category != nil {
		category := string(*n.Category)
		doc.Category = &category
	}
	return doc
}

func (d notificationDoc) toModel() (*models.Notification, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, err
	}
	notification := &models.Notification{
		ID:               id,
		UserID:           userID,
		Title:            d.Title,
		Text:             d.Text,
		CreatedAt:        d.CreatedAt,
		ReadAt:           d.ReadAt,
		Confidence:       d.Confidence,
		ProcessingStatus: models.ProcessingStatus(d.ProcessingStatus),
	}
	if d.Category != nil {
		category := models.Category(*d.Category)
		notification.Category = &category
	}
	return notification, nil
}

func (r *MongoNotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	_, err := r.collection.InsertOne(ctx, toDoc(notification))
	return err
}

func (r *MongoNotificationRepository) GetOne(ctx context.Context, id uuid.UUID) (*models.Notification, error) {
	var doc notificationDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return doc.toModel()
}

func (r *MongoNotificationRepository) GetAll(ctx context.Context, paginator Paginator) ([]models.Notification, error) {
	findOptions := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	if paginator.Offset != nil {
		findOptions = findOptions.SetSkip(int64(*paginator.Offset))
	}
	if paginator.Limit != nil {
		findOptions = findOptions.SetLimit(int64(*paginator.Limit))
	}

	cursor, err := r.collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var docs []notificationDoc
	if err = cursor.All(ctx, &docs); err != nil {
		return nil, err
	}

	notifications := make([]models.Notification, 0, len(docs))
	for _, doc := range docs {
		notification, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, *notification)
	}
	return notifications, nil
}

func (r *MongoNotificationRepository) Update(ctx context.Context, id uuid.UUID, fields map[string]interface{}) (*models.Notification, error) {
	set := bson.M{}
	for name, value := range fields {
		switch v := value.(type) {
		case models.Category:
			set[name] = string(v)
		case models.ProcessingStatus:
			set[name] = string(v)
		default:
			set[name] = value
		}
	}

	return r.findOneAndUpdate(ctx, bson.M{"_id": id.String()}, bson.M{"$set": set}, models.ErrNotFound)
}

func (r *MongoNotificationRepository) MarkRead(ctx context.Context, id uuid.UUID, readAt time.Time) (*models.Notification, error) {
	filter := bson.M{"_id": id.String(), "read_at": nil}
	updated, err := r.findOneAndUpdate(ctx, filter, bson.M{"$set": bson.M{"read_at": readAt}}, models.ErrNotFound)
	if err == nil {
		return updated, nil
	}
	if !errors.Is(err, models.ErrNotFound) {
		return nil, err
	}

	// The conditional update matched nothing: distinguish a missing document
	// from one that is already read.
	current, getErr := r.GetOne(ctx, id)
	if getErr != nil {
		return nil, getErr
	}
	if current.Read() {
		return nil, models.ErrAlreadyRead
	}
	return nil, models.ErrNotFound
}

func (r *MongoNotificationRepository) TransitionStatus(ctx context.Context, id uuid.UUID, from, to models.ProcessingStatus) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id.String(), "processing_status": string(from)},
		bson.M{"$set": bson.M{"processing_status": string(to)}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (r *MongoNotificationRepository) CompleteAnalysis(ctx context.Context, id uuid.UUID, category models.Category, confidence float64) (bool, error) {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": id.String(), "processing_status": string(models.StatusProcessing)},
		bson.M{"$set": bson.M{
			"processing_status": string(models.StatusCompleted),
			"category":          string(category),
			"confidence":        confidence,
		}},
	)
	if err != nil {
		return false, err
	}
	return result.ModifiedCount > 0, nil
}

func (r *MongoNotificationRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M, notFound error) (*models.Notification, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc notificationDoc
	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, notFound
		}
		return nil, err
	}
	return doc.toModel()
}
