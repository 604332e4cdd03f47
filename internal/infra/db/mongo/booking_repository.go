package mongo

import (
	"context"
	"errors"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainbooking "rentcal/internal/domain/booking"
	domainpricing "rentcal/internal/domain/pricing"
	domainrules "rentcal/internal/domain/rules"
	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
	domainunits "rentcal/internal/domain/units"
)

type BookingRepository struct {
	col    *mongo.Collection
	logger *slog.Logger
}

func NewBookingRepository(db *mongo.Database, opts ...RepositoryOption) *BookingRepository {
	cfg := newRepoConfig(opts)
	col := db.Collection("agg_booking")
	idx := mongo.IndexModel{Keys: bson.D{{Key: "unit_id", Value: 1}, {Key: "range.check_in", Value: 1}}}
	_, _ = col.Indexes().CreateOne(context.Background(), idx)
	return &BookingRepository{col: col, logger: cfg.logger}
}

func (r *BookingRepository) ByID(ctx context.Context, id domainbooking.BookingID) (*domainbooking.Booking, error) {
	var doc bookingDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainbooking.ErrBookingNotFound
		}
		return nil, err
	}
	return doc.toAggregate()
}

func (r *BookingRepository) ListByUnit(ctx context.Context, unit domainunits.UnitID, window *daterange.Range) ([]*domainbooking.Booking, error) {
	filter := bson.M{"unit_id": unit}
	if window != nil {
		filter["range.check_in"] = bson.M{"$lt": dateString(window.End)}
		filter["range.check_out"] = bson.M{"$gt": dateString(window.Start)}
	}
	opts := options.Find().SetSort(bson.D{{Key: "range.check_in", Value: 1}, {Key: "_id", Value: 1}})
	cur, err := r.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	return decodeAll(ctx, cur, r.logger, "agg_booking", bookingDocument.toAggregate)
}

func (r *BookingRepository) Save(ctx context.Context, b *domainbooking.Booking) error {
	doc := newBookingDocument(b)
	filter := bson.M{"_id": doc.ID, "version": b.Version}
	doc.Version = b.Version + 1
	update := bson.M{"$set": doc}
	opts := options.Update().SetUpsert(true)
	res, err := r.col.UpdateOne(ctx, filter, update, opts)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	if res.MatchedCount == 0 && res.UpsertedCount == 0 {
		return ErrConcurrentUpdate
	}
	b.Version = doc.Version
	return nil
}

type bookingDocument struct {
	ID        string        `bson:"_id"`
	UnitID    string        `bson:"unit_id"`
	GuestName string        `bson:"guest_name"`
	Range     rangeDocument `bson:"range"`
	Guests    int           `bson:"guests"`
	Adults    int           `bson:"adults"`
	Children  int           `bson:"children"`
	Price     quoteDocument `bson:"price"`
	Status    string        `bson:"status"`
	CreatedAt int64         `bson:"created_at"`
	UpdatedAt int64         `bson:"updated_at"`
	Version   int64         `bson:"version"`
}

type rangeDocument struct {
	CheckIn  string `bson:"check_in"`
	CheckOut string `bson:"check_out"`
}

type nightDocument struct {
	Date   string `bson:"date"`
	Cents  int64  `bson:"price_cents"`
	Custom bool   `bson:"is_custom"`
	RuleID string `bson:"rule_id,omitempty"`
}

type quoteDocument struct {
	Nights        []nightDocument `bson:"nights"`
	ExtraGuests   int             `bson:"extra_guests"`
	Accommodation int64           `bson:"accommodation_cents"`
	ExtraGuestFee int64           `bson:"extra_guest_fee_cents"`
	Subtotal      int64           `bson:"subtotal_cents"`
	CleaningFee   int64           `bson:"cleaning_fee_cents"`
	Total         int64           `bson:"total_cents"`
	Average       int64           `bson:"average_nightly_cents"`
}

func newBookingDocument(b *domainbooking.Booking) bookingDocument {
	q := quoteDocument{
		ExtraGuests:   b.Price.ExtraGuests,
		Accommodation: b.Price.Accommodation.Cents,
		ExtraGuestFee: b.Price.ExtraGuestFee.Cents,
		Subtotal:      b.Price.Subtotal.Cents,
		CleaningFee:   b.Price.CleaningFee.Cents,
		Total:         b.Price.Total.Cents,
		Average:       b.Price.AverageNightly.Cents,
	}
	for _, n := range b.Price.NightlyPrices {
		q.Nights = append(q.Nights, nightDocument{Date: dateString(n.Date), Cents: n.Price.Cents, Custom: n.IsCustom, RuleID: string(n.RuleID)})
	}
	return bookingDocument{
		ID:        string(b.ID),
		UnitID:    string(b.UnitID),
		GuestName: b.GuestName,
		Range:     rangeDocument{CheckIn: dateString(b.Stay.Start), CheckOut: dateString(b.Stay.End)},
		Guests:    b.Guests,
		Adults:    b.Adults,
		Children:  b.Children,
		Price:     q,
		Status:    string(b.Status),
		CreatedAt: b.CreatedAt.UnixMilli(),
		UpdatedAt: b.UpdatedAt.UnixMilli(),
		Version:   b.Version,
	}
}

func (d bookingDocument) toAggregate() (*domainbooking.Booking, error) {
	stay, err := daterange.New(parseDate(d.Range.CheckIn), parseDate(d.Range.CheckOut))
	if err != nil {
		return nil, err
	}
	status, err := domainbooking.ParseStatus(d.Status)
	if err != nil {
		return nil, err
	}
	quote := domainpricing.Quote{
		UnitID:         domainunits.UnitID(d.UnitID),
		Stay:           stay,
		Nights:         stay.Nights(),
		Guests:         d.Guests,
		ExtraGuests:    d.Price.ExtraGuests,
		Accommodation:  money.FromCents(d.Price.Accommodation),
		ExtraGuestFee:  money.FromCents(d.Price.ExtraGuestFee),
		Subtotal:       money.FromCents(d.Price.Subtotal),
		CleaningFee:    money.FromCents(d.Price.CleaningFee),
		Total:          money.FromCents(d.Price.Total),
		AverageNightly: money.FromCents(d.Price.Average),
	}
	for _, n := range d.Price.Nights {
		quote.NightlyPrices = append(quote.NightlyPrices, domainpricing.Night{
			Date: parseDate(n.Date), Price: money.FromCents(n.Cents), IsCustom: n.Custom, RuleID: domainrules.RuleID(n.RuleID),
		})
	}
	if !quote.CleaningFee.IsZero() {
		quote.Fees = append(quote.Fees, domainpricing.Fee{Name: domainpricing.FeeCleaning, Amount: quote.CleaningFee})
	}
	if !quote.ExtraGuestFee.IsZero() {
		quote.Fees = append(quote.Fees, domainpricing.Fee{Name: domainpricing.FeeExtraGuests, Amount: quote.ExtraGuestFee})
	}
	return &domainbooking.Booking{
		ID:        domainbooking.BookingID(d.ID),
		UnitID:    domainunits.UnitID(d.UnitID),
		GuestName: d.GuestName,
		Stay:      stay,
		Guests:    d.Guests,
		Adults:    d.Adults,
		Children:  d.Children,
		Price:     quote,
		Status:    status,
		CreatedAt: timestampToTime(d.CreatedAt),
		UpdatedAt: timestampToTime(d.UpdatedAt),
		Version:   d.Version,
	}, nil
}

var _ domainbooking.Repository = (*BookingRepository)(nil)
