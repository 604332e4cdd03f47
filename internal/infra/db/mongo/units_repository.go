package mongo

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"rentcal/internal/domain/shared/money"
	domainunits "rentcal/internal/domain/units"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

type UnitRepository struct {
	col    *mongo.Collection
	logger *slog.Logger
}

func NewUnitRepository(db *mongo.Database, opts ...RepositoryOption) *UnitRepository {
	cfg := newRepoConfig(opts)
	return &UnitRepository{col: db.Collection("agg_unit"), logger: cfg.logger}
}

func (r *UnitRepository) ByID(ctx context.Context, id domainunits.UnitID) (*domainunits.Unit, error) {
	var doc unitDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainunits.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *UnitRepository) List(ctx context.Context) ([]*domainunits.Unit, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, r.logger, "agg_unit", unitDocument.toAggregate)
}

func (r *UnitRepository) Save(ctx context.Context, u *domainunits.Unit) error {
	doc := newUnitDocument(u)
	filter := bson.M{"_id": doc.ID, "version": u.Version}
	doc.Version = u.Version + 1
	res, err := r.col.UpdateOne(ctx, filter, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	u.Version = doc.Version
	return nil
}

type unitDocument struct {
	ID                string  `bson:"_id"`
	Title             string  `bson:"title"`
	Status            string  `bson:"status"`
	BasePrice         int64   `bson:"base_price_cents"`
	CleaningFee       int64   `bson:"cleaning_fee_cents"`
	ExtraGuestFee     int64   `bson:"extra_guest_fee_cents"`
	MaxGuests         int     `bson:"max_guests"`
	IncludedGuests    int     `bson:"included_guests"`
	Bedrooms          int     `bson:"bedrooms"`
	Bathrooms         float64 `bson:"bathrooms"`
	MinStayNights     int     `bson:"min_stay_nights"`
	GapDays           int     `bson:"gap_between_bookings"`
	MinBookingAdvance int     `bson:"min_booking_advance"`
	MaxBookingAdvance int     `bson:"max_booking_advance"`
	AvailableFrom     string  `bson:"available_from,omitempty"`
	Color             string  `bson:"color,omitempty"`
	CreatedAt         int64   `bson:"created_at"`
	UpdatedAt         int64   `bson:"updated_at"`
	Version           int64   `bson:"version"`
}

func newUnitDocument(u *domainunits.Unit) unitDocument {
	return unitDocument{
		ID:                string(u.ID),
		Title:             u.Title,
		Status:            string(u.Status),
		BasePrice:         u.BasePrice.Cents,
		CleaningFee:       u.CleaningFee.Cents,
		ExtraGuestFee:     u.ExtraGuestFee.Cents,
		MaxGuests:         u.MaxGuests,
		IncludedGuests:    u.IncludedGuests,
		Bedrooms:          u.Bedrooms,
		Bathrooms:         u.Bathrooms,
		MinStayNights:     u.MinStayNights,
		GapDays:           u.GapDays,
		MinBookingAdvance: u.MinBookingAdvance,
		MaxBookingAdvance: u.MaxBookingAdvance,
		AvailableFrom:     dateString(u.AvailableFrom),
		Color:             u.Color,
		CreatedAt:         u.CreatedAt.UnixMilli(),
		UpdatedAt:         u.UpdatedAt.UnixMilli(),
		Version:           u.Version,
	}
}

func (d unitDocument) toAggregate() (*domainunits.Unit, error) {
	if d.MaxGuests < 1 {
		return nil, domainunits.ErrGuestsLimit
	}
	return &domainunits.Unit{
		ID:                domainunits.UnitID(d.ID),
		Title:             d.Title,
		Status:            domainunits.Status(d.Status),
		BasePrice:         money.FromCents(d.BasePrice),
		CleaningFee:       money.FromCents(d.CleaningFee),
		ExtraGuestFee:     money.FromCents(d.ExtraGuestFee),
		MaxGuests:         d.MaxGuests,
		IncludedGuests:    d.IncludedGuests,
		Bedrooms:          d.Bedrooms,
		Bathrooms:         d.Bathrooms,
		MinStayNights:     d.MinStayNights,
		GapDays:           d.GapDays,
		MinBookingAdvance: d.MinBookingAdvance,
		MaxBookingAdvance: d.MaxBookingAdvance,
		AvailableFrom:     parseDate(d.AvailableFrom),
		Color:             d.Color,
		CreatedAt:         timestampToTime(d.CreatedAt),
		UpdatedAt:         timestampToTime(d.UpdatedAt),
		Version:           d.Version,
	}, nil
}

type GroupRepository struct {
	col    *mongo.Collection
	logger *slog.Logger
}

func NewGroupRepository(db *mongo.Database, opts ...RepositoryOption) *GroupRepository {
	cfg := newRepoConfig(opts)
	return &GroupRepository{col: db.Collection("agg_unit_group"), logger: cfg.logger}
}

func (r *GroupRepository) ByID(ctx context.Context, id domainunits.GroupID) (*domainunits.Group, error) {
	var doc groupDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainunits.ErrGroupNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *GroupRepository) List(ctx context.Context) ([]*domainunits.Group, error) {
	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, r.logger, "agg_unit_group", groupDocument.toAggregate)
}

func (r *GroupRepository) Save(ctx context.Context, g *domainunits.Group) error {
	doc := groupDocument{ID: string(g.ID), Name: g.Name, Active: g.Active}
	for _, id := range g.UnitIDs {
		doc.UnitIDs = append(doc.UnitIDs, string(id))
	}
	_, err := r.col.UpdateByID(ctx, doc.ID, bson.M{"$set": doc}, options.Update().SetUpsert(true))
	return err
}

type groupDocument struct {
	ID      string   `bson:"_id"`
	Name    string   `bson:"name"`
	UnitIDs []string `bson:"unit_ids"`
	Active  bool     `bson:"is_active"`
}

func (d groupDocument) toAggregate() (*domainunits.Group, error) {
	members := make([]domainunits.UnitID, 0, len(d.UnitIDs))
	for _, id := range d.UnitIDs {
		members = append(members, domainunits.UnitID(id))
	}
	g, err := domainunits.NewGroup(domainunits.GroupID(d.ID), d.Name, members)
	if err != nil {
		return nil, err
	}
	g.Active = d.Active
	return g, nil
}

var (
	_ domainunits.Repository      = (*UnitRepository)(nil)
	_ domainunits.GroupRepository = (*GroupRepository)(nil)
)
