package mongo

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

const connectTimeout = 10 * time.Second

type Client struct {
	DB *mongo.Database
}

// New connects and pings within connectTimeout so a wrong URI fails at
// startup instead of on the first request.
func New(ctx context.Context, uri, database string) (*Client, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()
	opts := options.Client().
		ApplyURI(uri).
		SetRetryWrites(true).
		SetServerSelectionTimeout(connectTimeout).
		SetAppName("rentcal")
	m, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, err
	}
	if err := m.Ping(ctx, readpref.Primary()); err != nil {
		_ = m.Disconnect(context.Background())
		return nil, err
	}
	return &Client{DB: m.Database(database)}, nil
}

func (c *Client) Ping(ctx context.Context) error {
	return c.DB.Client().Ping(ctx, nil)
}

func (c *Client) Close(ctx context.Context) error {
	return c.DB.Client().Disconnect(ctx)
}

// Repositories builds every aggregate repository over the client database.
func (c *Client) Repositories(opts ...RepositoryOption) Factory {
	return Factory{
		DB:             c.DB,
		UnitsRepo:      NewUnitRepository(c.DB, opts...),
		GroupsRepo:     NewGroupRepository(c.DB, opts...),
		PriceRulesRepo: NewPriceRuleRepository(c.DB, opts...),
		ClosuresRepo:   NewClosureRepository(c.DB, opts...),
		CheckInOutRepo: NewCheckInOutRepository(c.DB, opts...),
		BookingsRepo:   NewBookingRepository(c.DB, opts...),
	}
}
