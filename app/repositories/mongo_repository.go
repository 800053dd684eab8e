package repositories

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/quickkiraana/kiraana/app/models"
	"github.com/quickkiraana/kiraana/pkg/apperr"
	"github.com/quickkiraana/kiraana/pkg/metrics"
)

// newestSort is the ordering for "most recent order" queries.
var newestSort = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}}

// MongoOrderRepository stores orders in the "orders" collection.
type MongoOrderRepository struct {
	col *mongo.Collection
}

func NewMongoOrderRepository(db *mongo.Database) *MongoOrderRepository {
	return &MongoOrderRepository{col: db.Collection("orders")}
}

// EnsureIndexes creates the lookup indexes used by ListByShop and
// LatestByPhone.
func (r *MongoOrderRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "shopkeeper", Value: 1}, {Key: "createdAt", Value: -1}}},
		{Keys: bson.D{{Key: "customerPhone", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

func (r *MongoOrderRepository) Create(ctx context.Context, o *models.Order) error {
	defer metrics.ObserveStore("mongo", "orders.create", time.Now())
	if _, err := r.col.InsertOne(ctx, o); err != nil {
		return apperr.Wrap("create order", err)
	}
	return nil
}

func (r *MongoOrderRepository) FindByID(ctx context.Context, id models.OrderID) (*models.Order, error) {
	defer metrics.ObserveStore("mongo", "orders.find", time.Now())
	if !id.Valid() {
		return nil, errOrderNotFound
	}
	var o models.Order
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&o); err != nil {
		return nil, noDocument(err, errOrderNotFound, "find order")
	}
	return &o, nil
}

func (r *MongoOrderRepository) ListByShop(ctx context.Context, shopID models.ShopID) ([]models.Order, error) {
	defer metrics.ObserveStore("mongo", "orders.list", time.Now())
	cur, err := r.col.Find(ctx, bson.M{"shopkeeper": shopID}, options.Find().SetSort(newestSort))
	if err != nil {
		return nil, apperr.Wrap("list orders", err)
	}
	orders := make([]models.Order, 0)
	if err := cur.All(ctx, &orders); err != nil {
		return nil, apperr.Wrap("decode orders", err)
	}
	return orders, nil
}

func (r *MongoOrderRepository) LatestByPhone(ctx context.Context, phone string) (*models.Order, error) {
	defer metrics.ObserveStore("mongo", "orders.latest_by_phone", time.Now())
	var o models.Order
	err := r.col.FindOne(ctx, bson.M{"customerPhone": phone}, options.FindOne().SetSort(newestSort)).Decode(&o)
	if err != nil {
		return nil, noDocument(err, errOrderNotFound, "find order by phone")
	}
	return &o, nil
}

func (r *MongoOrderRepository) UpdateStatus(ctx context.Context, id models.OrderID, status models.Status, at time.Time) error {
	defer metrics.ObserveStore("mongo", "orders.update_status", time.Now())
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$set": bson.M{"status": status, "updatedAt": at},
	})
	if err != nil {
		return apperr.Wrap("update order status", err)
	}
	if res.MatchedCount == 0 {
		return errOrderNotFound
	}
	return nil
}

// MongoShopRepository stores shops in the "shopkeepers" collection.
type MongoShopRepository struct {
	col *mongo.Collection
}

func NewMongoShopRepository(db *mongo.Database) *MongoShopRepository {
	return &MongoShopRepository{col: db.Collection("shopkeepers")}
}

// EnsureIndexes creates the unique email index that Create relies on.
func (r *MongoShopRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "pincode", Value: 1}}},
	})
	return err
}

func (r *MongoShopRepository) Create(ctx context.Context, s *models.Shop) error {
	defer metrics.ObserveStore("mongo", "shops.create", time.Now())
	if _, err := r.col.InsertOne(ctx, s); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errDuplicateShop
		}
		return apperr.Wrap("create shop", err)
	}
	return nil
}

func (r *MongoShopRepository) FindByID(ctx context.Context, id models.ShopID) (*models.Shop, error) {
	defer metrics.ObserveStore("mongo", "shops.find", time.Now())
	if !id.Valid() {
		return nil, errShopNotFound
	}
	var s models.Shop
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&s); err != nil {
		return nil, noDocument(err, errShopNotFound, "find shop")
	}
	return &s, nil
}

func (r *MongoShopRepository) FindByEmail(ctx context.Context, email string) (*models.Shop, error) {
	defer metrics.ObserveStore("mongo", "shops.find_by_email", time.Now())
	var s models.Shop
	if err := r.col.FindOne(ctx, bson.M{"email": email}).Decode(&s); err != nil {
		return nil, noDocument(err, errShopNotFound, "find shop by email")
	}
	return &s, nil
}

func (r *MongoShopRepository) List(ctx context.Context, pincode string) ([]models.Shop, error) {
	defer metrics.ObserveStore("mongo", "shops.list", time.Now())
	filter := bson.M{}
	if pincode != "" {
		filter["pincode"] = pincode
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, apperr.Wrap("list shops", err)
	}
	shops := make([]models.Shop, 0)
	if err := cur.All(ctx, &shops); err != nil {
		return nil, apperr.Wrap("decode shops", err)
	}
	return shops, nil
}

func (r *MongoShopRepository) Update(ctx context.Context, s *models.Shop) error {
	defer metrics.ObserveStore("mongo", "shops.update", time.Now())
	res, err := r.col.UpdateOne(ctx, bson.M{"_id": s.ID}, bson.M{"$set": bson.M{
		"name":      s.Name,
		"email":     s.Email,
		"password":  s.PasswordHash,
		"phone":     s.Phone,
		"shopName":  s.ShopName,
		"pincode":   s.Pincode,
		"shopImage": s.ShopImage,
		"updatedAt": s.UpdatedAt,
	}})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return errDuplicateShop
		}
		return apperr.Wrap("update shop", err)
	}
	if res.MatchedCount == 0 {
		return errShopNotFound
	}
	return nil
}

func noDocument(err error, nf *apperr.Error, op string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nf
	}
	return apperr.Wrap(op, err)
}
