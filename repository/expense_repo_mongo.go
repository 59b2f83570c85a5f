package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"expensetracker/models"

	"github.com/shopspring/decimal"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const expenseCollection = "expenses"

type expenseDocument struct {
	ID          primitive.ObjectID   `bson:"_id,omitempty"`
	Amount      primitive.Decimal128 `bson:"amount"`
	Category    string               `bson:"category"`
	Description string               `bson:"description,omitempty"`
	Date        time.Time            `bson:"date"`
	Status      string               `bson:"status"`
	CreatedBy   primitive.ObjectID   `bson:"created_by"`
	CreatedAt   time.Time            `bson:"created_at"`
	UpdatedAt   time.Time            `bson:"updated_at"`
}

type MongoExpenseRepo struct {
	DB *mongo.Database
}

func NewMongoExpenseRepo(db *mongo.Database) *MongoExpenseRepo {
	return &MongoExpenseRepo{DB: db}
}

// EnsureIndexes creates the owner/date index used by scoped listings.
func (r *MongoExpenseRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.DB.Collection(expenseCollection).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "created_by", Value: 1}, {Key: "date", Value: -1}},
	})
	return err
}

func (r *MongoExpenseRepo) CreateExpense(ctx context.Context, e *models.Expense) error {
	owner, err := primitive.ObjectIDFromHex(e.CreatedBy)
	if err != nil {
		return fmt.Errorf("invalid owner id %q: %w", e.CreatedBy, err)
	}
	amount, err := primitive.ParseDecimal128(e.Amount.String())
	if err != nil {
		return fmt.Errorf("encode amount: %w", err)
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	if e.UpdatedAt.IsZero() {
		e.UpdatedAt = e.CreatedAt
	}

	doc := expenseDocument{
		ID:          primitive.NewObjectID(),
		Amount:      amount,
		Category:    e.Category,
		Description: e.Description,
		Date:        e.Date,
		Status:      e.Status.String(),
		CreatedBy:   owner,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if _, err := r.DB.Collection(expenseCollection).InsertOne(ctx, doc); err != nil {
		return err
	}
	e.ID = doc.ID.Hex()
	return nil
}

func (r *MongoExpenseRepo) GetExpense(ctx context.Context, id string) (*models.Expense, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}
	var doc expenseDocument
	err = r.DB.Collection(expenseCollection).FindOne(ctx, bson.M{"_id": oid}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toModel()
}

func (r *MongoExpenseRepo) ListExpenses(ctx context.Context, filter models.ExpenseFilter) ([]*models.Expense, error) {
	out := []*models.Expense{}
	bsonFilter, ok := mongoFilter(filter)
	if !ok {
		return out, nil
	}

	opts := options.Find().SetSort(bson.D{
		{Key: "date", Value: -1},
		{Key: "created_at", Value: 1},
		{Key: "_id", Value: 1},
	})
	cur, err := r.DB.Collection(expenseCollection).Find(ctx, bsonFilter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var doc expenseDocument
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		e, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, cur.Err()
}

// TransitionStatus relies on FindOneAndUpdate matching both id and
// current status, so only one concurrent caller can win.
func (r *MongoExpenseRepo) TransitionStatus(ctx context.Context, id string, from, to models.ExpenseStatus, at time.Time) (*models.Expense, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, nil
	}

	var doc expenseDocument
	err = r.DB.Collection(expenseCollection).FindOneAndUpdate(ctx,
		bson.M{"_id": oid, "status": from.String()},
		bson.M{"$set": bson.M{"status": to.String(), "updated_at": at}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, err
	}
	return doc.toModel()
}

func (r *MongoExpenseRepo) CategoryTotals(ctx context.Context, filter models.ExpenseFilter) ([]models.CategoryTotal, error) {
	out := []models.CategoryTotal{}
	bsonFilter, ok := mongoFilter(filter)
	if !ok {
		return out, nil
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bsonFilter}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$category"},
			{Key: "total", Value: bson.D{{Key: "$sum", Value: "$amount"}}},
			{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
		{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}},
	}
	cur, err := r.DB.Collection(expenseCollection).Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	for cur.Next(ctx) {
		var row struct {
			Category string               `bson:"_id"`
			Total    primitive.Decimal128 `bson:"total"`
			Count    int                  `bson:"count"`
		}
		if err := cur.Decode(&row); err != nil {
			return nil, err
		}
		total, err := decimal.NewFromString(row.Total.String())
		if err != nil {
			return nil, fmt.Errorf("decode total for %q: %w", row.Category, err)
		}
		out = append(out, models.CategoryTotal{Category: row.Category, Total: total, Count: row.Count})
	}
	return out, cur.Err()
}

// mongoFilter reports false when the filter can match nothing, such as an
// owner id that is not an ObjectID.
func mongoFilter(filter models.ExpenseFilter) (bson.M, bool) {
	m := bson.M{}
	if filter.OwnerID != "" {
		owner, err := primitive.ObjectIDFromHex(filter.OwnerID)
		if err != nil {
			return nil, false
		}
		m["created_by"] = owner
	}
	if filter.Category != "" {
		m["category"] = filter.Category
	}
	if filter.Date != nil {
		m["date"] = filter.Date.UTC()
	}
	return m, true
}

func (d expenseDocument) toModel() (*models.Expense, error) {
	amount, err := decimal.NewFromString(d.Amount.String())
	if err != nil {
		return nil, fmt.Errorf("decode amount: %w", err)
	}
	status, err := models.ParseExpenseStatus(d.Status)
	if err != nil {
		return nil, err
	}
	return &models.Expense{
		ID:          d.ID.Hex(),
		Amount:      amount,
		Category:    d.Category,
		Description: d.Description,
		Date:        d.Date.UTC(),
		Status:      status,
		CreatedBy:   d.CreatedBy.Hex(),
		CreatedAt:   d.CreatedAt.UTC(),
		UpdatedAt:   d.UpdatedAt.UTC(),
	}, nil
}
