package mongo

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainrules "rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	domainunits "rentcal/internal/domain/units"
)

type PriceRuleRepository struct {
	col    *mongo.Collection
	logger *slog.Logger
}

func NewPriceRuleRepository(db *mongo.Database, opts ...RepositoryOption) *PriceRuleRepository {
	cfg := newRepoConfig(opts)
	col := db.Collection("rule_price")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "unit_id", Value: 1}, {Key: "start_date", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &PriceRuleRepository{col: col, logger: cfg.logger}
}

func (r *PriceRuleRepository) ByID(ctx context.Context, id domainrules.RuleID) (*domainrules.PriceRule, error) {
	var doc priceRuleDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrules.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

// ListByUnit keeps malformed rules when no window is given so they can still
// be listed and deleted; the resolver ignores them.
func (r *PriceRuleRepository) ListByUnit(ctx context.Context, unit domainunits.UnitID, window *daterange.Range) ([]*domainrules.PriceRule, error) {
	filter := bson.M{"unit_id": unit}
	if window != nil {
		// inclusive rule range touching the half-open window
		filter["start_date"] = bson.M{"$lt": dateString(window.End), "$ne": ""}
		filter["end_date"] = bson.M{"$gte": dateString(window.Start)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, r.logger, "rule_price", priceRuleDocument.toAggregate)
}

func (r *PriceRuleRepository) Save(ctx context.Context, rule *domainrules.PriceRule) error {
	doc := priceRuleDocument{
		ID:        string(rule.ID),
		UnitID:    string(rule.UnitID),
		StartDate: dateString(rule.Start),
		EndDate:   dateString(rule.End),
		MinNights: rule.MinNights,
		CreatedAt: rule.CreatedAt.UnixMilli(),
	}
	if rule.Price != nil {
		cents := rule.Price.Cents
		doc.PriceCents = &cents
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *PriceRuleRepository) Delete(ctx context.Context, id domainrules.RuleID) error {
	return deleteByID(ctx, r.col, string(id))
}

type priceRuleDocument struct {
	ID        string `bson:"_id"`
	UnitID    string `bson:"unit_id"`
	StartDate string `bson:"start_date"`
	EndDate   string `bson:"end_date"`
	// PriceCents is nil when the price was missing upstream.
	PriceCents *int64 `bson:"price_cents"`
	MinNights  int    `bson:"min_nights"`
	CreatedAt  int64  `bson:"created_at"`
}

func (d priceRuleDocument) toAggregate() (*domainrules.PriceRule, error) {
	rule := &domainrules.PriceRule{
		ID:        domainrules.RuleID(d.ID),
		UnitID:    domainunits.UnitID(d.UnitID),
		Start:     parseDate(d.StartDate),
		End:       parseDate(d.EndDate),
		MinNights: d.MinNights,
		CreatedAt: timestampToTime(d.CreatedAt),
	}
	if d.PriceCents != nil {
		price := money.FromCents(*d.PriceCents)
		rule.Price = &price
	}
	return rule, nil
}

type ClosureRepository struct {
	col    *mongo.Collection
	logger *slog.Logger
}

func NewClosureRepository(db *mongo.Database, opts ...RepositoryOption) *ClosureRepository {
	cfg := newRepoConfig(opts)
	col := db.Collection("rule_closure")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "unit_id", Value: 1}, {Key: "start_date", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &ClosureRepository{col: col, logger: cfg.logger}
}

func (r *ClosureRepository) ByID(ctx context.Context, id domainrules.RuleID) (*domainrules.ClosureRule, error) {
	var doc closureDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrules.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *ClosureRepository) ListByUnit(ctx context.Context, unit domainunits.UnitID, window *daterange.Range) ([]*domainrules.ClosureRule, error) {
	filter := bson.M{"unit_id": unit}
	if window != nil {
		filter["start_date"] = bson.M{"$lt": dateString(window.End), "$ne": ""}
		filter["end_date"] = bson.M{"$gt": dateString(window.Start)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "start_date", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, r.logger, "rule_closure", closureDocument.toAggregate)
}

func (r *ClosureRepository) Save(ctx context.Context, rule *domainrules.ClosureRule) error {
	doc := closureDocument{
		ID:        string(rule.ID),
		UnitID:    string(rule.UnitID),
		StartDate: dateString(rule.Start),
		EndDate:   dateString(rule.End),
		Reason:    rule.Reason,
		External:  rule.External,
		Calendar:  rule.Calendar,
		CreatedAt: rule.CreatedAt.UnixMilli(),
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *ClosureRepository) Delete(ctx context.Context, id domainrules.RuleID) error {
	return deleteByID(ctx, r.col, string(id))
}

func (r *ClosureRepository) DeleteExternal(ctx context.Context, unit domainunits.UnitID, calendar string) (int, error) {
	res, err := r.col.DeleteMany(ctx, bson.M{"unit_id": unit, "is_external_booking": true, "calendar": calendar})
	if err != nil {
		return 0, err
	}
	return int(res.DeletedCount), nil
}

type closureDocument struct {
	ID        string `bson:"_id"`
	UnitID    string `bson:"unit_id"`
	StartDate string `bson:"start_date"`
	EndDate   string `bson:"end_date"`
	Reason    string `bson:"reason"`
	External  bool   `bson:"is_external_booking"`
	Calendar  string `bson:"calendar"`
	CreatedAt int64  `bson:"created_at"`
}

func (d closureDocument) toAggregate() (*domainrules.ClosureRule, error) {
	return &domainrules.ClosureRule{
		ID:        domainrules.RuleID(d.ID),
		UnitID:    domainunits.UnitID(d.UnitID),
		Start:     parseDate(d.StartDate),
		End:       parseDate(d.EndDate),
		Reason:    d.Reason,
		External:  d.External,
		Calendar:  d.Calendar,
		CreatedAt: timestampToTime(d.CreatedAt),
	}, nil
}

type CheckInOutRepository struct {
	col    *mongo.Collection
	logger *slog.Logger
}

func NewCheckInOutRepository(db *mongo.Database, opts ...RepositoryOption) *CheckInOutRepository {
	cfg := newRepoConfig(opts)
	return &CheckInOutRepository{col: db.Collection("rule_checkinout"), logger: cfg.logger}
}

func (r *CheckInOutRepository) ByID(ctx context.Context, id domainrules.RuleID) (*domainrules.CheckInOutRule, error) {
	var doc checkInOutDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainrules.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *CheckInOutRepository) ListByUnit(ctx context.Context, unit domainunits.UnitID) ([]*domainrules.CheckInOutRule, error) {
	cur, err := r.col.Find(ctx, bson.M{"unit_id": unit}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, r.logger, "rule_checkinout", checkInOutDocument.toAggregate)
}

func (r *CheckInOutRepository) Save(ctx context.Context, rule *domainrules.CheckInOutRule) error {
	doc := checkInOutDocument{
		ID:         string(rule.ID),
		UnitID:     string(rule.UnitID),
		RuleType:   string(rule.Type),
		Recurrence: string(rule.Recurrence),
		DayOfWeek:  rule.DayOfWeek,
		CreatedAt:  rule.CreatedAt.UnixMilli(),
	}
	if rule.SpecificDate != nil {
		doc.SpecificDate = dateString(*rule.SpecificDate)
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

func (r *CheckInOutRepository) Delete(ctx context.Context, id domainrules.RuleID) error {
	return deleteByID(ctx, r.col, string(id))
}

type checkInOutDocument struct {
	ID           string `bson:"_id"`
	UnitID       string `bson:"unit_id"`
	RuleType     string `bson:"rule_type"`
	Recurrence   string `bson:"recurrence"`
	SpecificDate string `bson:"specific_date,omitempty"`
	DayOfWeek    *int   `bson:"day_of_week,omitempty"`
	CreatedAt    int64  `bson:"created_at"`
}

// toAggregate keeps rules whose date or weekday is unusable; Matches
// reports false for them.
func (d checkInOutDocument) toAggregate() (*domainrules.CheckInOutRule, error) {
	rule := &domainrules.CheckInOutRule{
		ID:         domainrules.RuleID(d.ID),
		UnitID:     domainunits.UnitID(d.UnitID),
		Type:       domainrules.RuleType(d.RuleType),
		Recurrence: domainrules.Recurrence(d.Recurrence),
		DayOfWeek:  d.DayOfWeek,
		CreatedAt:  timestampToTime(d.CreatedAt),
	}
	if date := parseDate(d.SpecificDate); !date.IsZero() {
		rule.SpecificDate = &date
	}
	return rule, nil
}

func deleteByID(ctx context.Context, col *mongo.Collection, id string) error {
	res, err := col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return domainrules.ErrNotFound
	}
	return nil
}

var (
	_ domainrules.PriceRuleRepository  = (*PriceRuleRepository)(nil)
	_ domainrules.ClosureRepository    = (*ClosureRepository)(nil)
	_ domainrules.CheckInOutRepository = (*CheckInOutRepository)(nil)
)
