package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"storefront-service/internal/domain"
)

// Collection names
const (
	productsCollection   = "products"
	categoriesCollection = "categories"
	ordersCollection     = "orders"
)

// MongoStore implements Store on top of a MongoDB database.
type MongoStore struct {
	db         *mongo.Database
	products   *mongo.Collection
	categories *mongo.Collection
	orders     *mongo.Collection
}

var _ Store = (*MongoStore)(nil)

// NewMongoStore creates a MongoStore over an already connected database handle.
func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{
		db:         db,
		products:   db.Collection(productsCollection),
		categories: db.Collection(categoriesCollection),
		orders:     db.Collection(ordersCollection),
	}
}

// ConnectMongo dials uri, verifies the connection and returns a store for database dbName.
func ConnectMongo(ctx context.Context, uri, dbName string) (*MongoStore, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("store: ConnectMongo failed to connect: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("store: ConnectMongo failed to ping: %w", err)
	}
	return NewMongoStore(client.Database(dbName)), nil
}

// EnsureIndexes creates the secondary indexes used by the catalog queries.
// Category names are indexed but not unique.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.products.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "category", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("store: EnsureIndexes failed on products: %w", err)
	}
	if _, err := s.categories.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "orderIndex", Value: 1}}},
		{Keys: bson.D{{Key: "name", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("store: EnsureIndexes failed on categories: %w", err)
	}
	if _, err := s.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("store: EnsureIndexes failed on orders: %w", err)
	}
	return nil
}

// --- Documents ---

type imageDocument struct {
	URL string `bson:"url"`
}

type productDocument struct {
	ID            primitive.ObjectID `bson:"_id,omitempty"`
	Name          string             `bson:"name"`
	SellingPrice  float64            `bson:"sellingPrice"`
	OriginalPrice float64            `bson:"originalPrice"`
	Description   string             `bson:"description"`
	Category      string             `bson:"category"`
	Images        []imageDocument    `bson:"images"`
	CreatedAt     time.Time          `bson:"createdAt"`
}

type categoryDocument struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Name       string             `bson:"name"`
	OrderIndex int                `bson:"orderIndex"`
}

type customerDocument struct {
	Name     string `bson:"name"`
	Phone    string `bson:"phone"`
	Pincode  string `bson:"pincode"`
	City     string `bson:"city"`
	State    string `bson:"state"`
	HouseNo  string `bson:"houseNo"`
	RoadName string `bson:"roadName"`
	Landmark string `bson:"landmark,omitempty"`
}

type orderItemDocument struct {
	Product  primitive.ObjectID `bson:"product"`
	Quantity int                `bson:"quantity"`
}

type orderDocument struct {
	ID          primitive.ObjectID  `bson:"_id,omitempty"`
	Customer    customerDocument    `bson:"customer"`
	Items       []orderItemDocument `bson:"items"`
	TotalAmount float64             `bson:"totalAmount"`
	Status      string              `bson:"status"`
	CreatedAt   time.Time           `bson:"createdAt"`
}

func parseObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, ErrInvalidID
	}
	return oid, nil
}

func toProductDocument(p *domain.Product) productDocument {
	images := make([]imageDocument, 0, len(p.Images))
	for _, img := range p.Images {
		images = append(images, imageDocument{URL: img.URL})
	}
	return productDocument{
		Name:          p.Name,
		SellingPrice:  p.SellingPrice,
		OriginalPrice: p.OriginalPrice,
		Description:   p.Description,
		Category:      p.Category,
		Images:        images,
		CreatedAt:     p.CreatedAt,
	}
}

func (d productDocument) toDomain() domain.Product {
	images := make([]domain.ProductImage, 0, len(d.Images))
	for _, img := range d.Images {
		images = append(images, domain.ProductImage{URL: img.URL})
	}
	return domain.Product{
		ID:            d.ID.Hex(),
		Name:          d.Name,
		SellingPrice:  d.SellingPrice,
		OriginalPrice: d.OriginalPrice,
		Description:   d.Description,
		Category:      d.Category,
		Images:        images,
		CreatedAt:     d.CreatedAt.UTC(),
	}
}

func (d categoryDocument) toDomain() domain.Category {
	return domain.Category{ID: d.ID.Hex(), Name: d.Name, OrderIndex: d.OrderIndex}
}

func (d orderDocument) toDomain() domain.Order {
	items := make([]domain.OrderItem, 0, len(d.Items))
	for _, it := range d.Items {
		items = append(items, domain.OrderItem{ProductID: it.Product.Hex(), Quantity: it.Quantity})
	}
	return domain.Order{
		ID: d.ID.Hex(),
		Customer: domain.Customer{
			Name:     d.Customer.Name,
			Phone:    d.Customer.Phone,
			Pincode:  d.Customer.Pincode,
			City:     d.Customer.City,
			State:    d.Customer.State,
			HouseNo:  d.Customer.HouseNo,
			RoadName: d.Customer.RoadName,
			Landmark: d.Customer.Landmark,
		},
		Items:       items,
		TotalAmount: d.TotalAmount,
		Status:      domain.OrderStatus(d.Status),
		CreatedAt:   d.CreatedAt.UTC(),
	}
}

// --- ProductStorer Implementation ---

func (s *MongoStore) CreateProduct(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	doc := toProductDocument(product)
	doc.ID = primitive.NewObjectID()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}
	if _, err := s.products.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("store: CreateProduct failed to insert: %w", err)
	}
	created := doc.toDomain()
	return &created, nil
}

func (s *MongoStore) GetProductByID(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc productDocument
	if err := s.products.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: GetProductByID failed to decode: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (s *MongoStore) GetProductsByIDs(ctx context.Context, ids []string) ([]domain.Product, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := parseObjectID(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []domain.Product{}, nil
	}
	return s.findProducts(ctx, "GetProductsByIDs", bson.M{"_id": bson.M{"$in": oids}}, options.Find())
}

func (s *MongoStore) ListProducts(ctx context.Context, params ListProductsParams) ([]domain.Product, error) {
	filter := bson.M{}
	if params.Category != "" {
		filter["category"] = params.Category
	}
	opts := options.Find().SetSort(bson.D{{Key: "name", Value: 1}})
	return s.findProducts(ctx, "ListProducts", filter, opts)
}

func (s *MongoStore) findProducts(ctx context.Context, op string, filter bson.M, opts *options.FindOptions) ([]domain.Product, error) {
	cursor, err := s.products.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("store: %s failed to query products: %w", op, err)
	}
	var docs []productDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("store: %s failed to decode products: %w", op, err)
	}
	products := make([]domain.Product, 0, len(docs))
	for _, d := range docs {
		products = append(products, d.toDomain())
	}
	return products, nil
}

func (s *MongoStore) UpdateProduct(ctx context.Context, id string, update domain.ProductUpdate) (*domain.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}

	set := bson.M{}
	if update.Name != nil {
		set["name"] = *update.Name
	}
	if update.SellingPrice != nil {
		set["sellingPrice"] = *update.SellingPrice
	}
	if update.OriginalPrice != nil {
		set["originalPrice"] = *update.OriginalPrice
	}
	if update.Description != nil {
		set["description"] = *update.Description
	}
	if update.Category != nil {
		set["category"] = *update.Category
	}
	if update.Images != nil {
		images := make([]imageDocument, 0, len(update.Images))
		for _, img := range update.Images {
			images = append(images, imageDocument{URL: img.URL})
		}
		set["images"] = images
	}
	if len(set) == 0 {
		return s.GetProductByID(ctx, id)
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc productDocument
	err = s.products.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: UpdateProduct failed to update: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (s *MongoStore) DeleteProduct(ctx context.Context, id string) (*domain.Product, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc productDocument
	if err := s.products.FindOneAndDelete(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("store: DeleteProduct failed to delete: %w", err)
	}
	p := doc.toDomain()
	return &p, nil
}

func (s *MongoStore) DistinctCategories(ctx context.Context) ([]string, error) {
	values, err := s.products.Distinct(ctx, "category", bson.D{})
	if err != nil {
		return nil, fmt.Errorf("store: DistinctCategories failed: %w", err)
	}
	names := make([]string, 0, len(values))
	for _, v := range values {
		if name, ok := v.(string); ok && name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// --- CategoryStorer Implementation ---

func (s *MongoStore) ListCategories(ctx context.Context) ([]domain.Category, error) {
	opts := options.Find().SetSort(bson.D{{Key: "orderIndex", Value: 1}})
	cursor, err := s.categories.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to query categories: %w", err)
	}
	var docs []categoryDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("store: ListCategories failed to decode categories: %w", err)
	}
	categories := make([]domain.Category, 0, len(docs))
	for _, d := range docs {
		categories = append(categories, d.toDomain())
	}
	return categories, nil
}

func (s *MongoStore) FindCategoryByName(ctx context.Context, name string) (*domain.Category, error) {
	var doc categoryDocument
	if err := s.categories.FindOne(ctx, bson.M{"name": name}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrCategoryNotFound
		}
		return nil, fmt.Errorf("store: FindCategoryByName failed to decode: %w", err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (s *MongoStore) CountCategories(ctx context.Context) (int, error) {
	n, err := s.categories.CountDocuments(ctx, bson.D{})
	if err != nil {
		return 0, fmt.Errorf("store: CountCategories failed: %w", err)
	}
	return int(n), nil
}

func (s *MongoStore) CreateCategory(ctx context.Context, category *domain.Category) (*domain.Category, error) {
	doc := categoryDocument{ID: primitive.NewObjectID(), Name: category.Name, OrderIndex: category.OrderIndex}
	if _, err := s.categories.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("store: CreateCategory failed to insert: %w", err)
	}
	c := doc.toDomain()
	return &c, nil
}

func (s *MongoStore) SetCategoryOrder(ctx context.Context, id string, orderIndex int) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := s.categories.UpdateByID(ctx, oid, bson.M{"$set": bson.M{"orderIndex": orderIndex}})
	if err != nil {
		return fmt.Errorf("store: SetCategoryOrder failed to update: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrCategoryNotFound
	}
	return nil
}

// --- OrderStorer Implementation ---

func (s *MongoStore) CreateOrder(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	items := make([]orderItemDocument, 0, len(order.Items))
	for _, it := range order.Items {
		oid, err := parseObjectID(it.ProductID)
		if err != nil {
			return nil, err
		}
		items = append(items, orderItemDocument{Product: oid, Quantity: it.Quantity})
	}

	status := order.Status
	if status == "" {
		status = domain.OrderStatusPending
	}
	createdAt := order.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	c := order.Customer
	doc := orderDocument{
		ID: primitive.NewObjectID(),
		Customer: customerDocument{
			Name: c.Name, Phone: c.Phone, Pincode: c.Pincode, City: c.City,
			State: c.State, HouseNo: c.HouseNo, RoadName: c.RoadName, Landmark: c.Landmark,
		},
		Items:       items,
		TotalAmount: order.TotalAmount,
		Status:      string(status),
		CreatedAt:   createdAt,
	}
	if _, err := s.orders.InsertOne(ctx, doc); err != nil {
		return nil, fmt.Errorf("store: CreateOrder failed to insert: %w", err)
	}
	created := doc.toDomain()
	return &created, nil
}

func (s *MongoStore) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	var doc orderDocument
	if err := s.orders.FindOne(ctx, bson.M{"_id": oid}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: GetOrderByID failed to decode: %w", err)
	}
	o := doc.toDomain()
	return &o, nil
}

func (s *MongoStore) ListOrders(ctx context.Context) ([]domain.Order, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.orders.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("store: ListOrders failed to query orders: %w", err)
	}
	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("store: ListOrders failed to decode orders: %w", err)
	}
	orders := make([]domain.Order, 0, len(docs))
	for _, d := range docs {
		orders = append(orders, d.toDomain())
	}
	return orders, nil
}

func (s *MongoStore) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) (*domain.Order, error) {
	oid, err := parseObjectID(id)
	if err != nil {
		return nil, err
	}
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc orderDocument
	err = s.orders.FindOneAndUpdate(ctx, bson.M{"_id": oid}, bson.M{"$set": bson.M{"status": string(status)}}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("store: UpdateOrderStatus failed to update: %w", err)
	}
	o := doc.toDomain()
	return &o, nil
}

func (s *MongoStore) DeleteOrder(ctx context.Context, id string) error {
	oid, err := parseObjectID(id)
	if err != nil {
		return err
	}
	res, err := s.orders.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("store: DeleteOrder failed to delete: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}

// Ping verifies the primary is reachable.
func (s *MongoStore) Ping(ctx context.Context) error {
	return s.db.Client().Ping(ctx, readpref.Primary())
}

func (s *MongoStore) Close() error {
	log.Println("INFO: Disconnecting from MongoDB...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.db.Client().Disconnect(ctx); err != nil {
		log.Printf("ERROR: Failed to disconnect from MongoDB: %v", err)
		return err
	}
	log.Println("INFO: MongoDB connection closed successfully.")
	return nil
}
