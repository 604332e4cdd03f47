package validation

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rentcal/internal/domain/shared/daterange"
	"rentcal/internal/domain/shared/money"
)

type sample struct {
	UnitID string         `json:"unit_id" validate:"required"`
	Start  daterange.Date `json:"start" validate:"required"`
	Price  money.Money    `json:"price" validate:"gte=0"`
	Kind   string         `json:"kind" validate:"omitempty,oneof=price closure"`
	Guests int            `validate:"min=1,max=16"`
}

func TestValidatorAcceptsValidStruct(t *testing.T) {
	v := New()
	err := v.Validate(context.Background(), sample{UnitID: "u1", Start: daterange.MustParse("2025-01-01"), Price: money.FromUnits(10), Guests: 2})
	assert.NoError(t, err)
}

func TestValidatorTranslatesErrors(t *testing.T) {
	v := New()
	err := v.Validate(context.Background(), &sample{Price: money.FromCents(-1), Kind: "other"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalid))

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	fields := map[string]string{}
	for _, e := range verrs {
		fields[e.Field] = e.Message
	}
	assert.Equal(t, "unit_id is required", fields["unit_id"])
	assert.Equal(t, "start is required", fields["start"])
	assert.Equal(t, "price must be at least 0", fields["price"])
	assert.Equal(t, "kind must be one of [price closure]", fields["kind"])
	assert.Equal(t, "Guests must be at least 1", fields["Guests"])
}

func TestValidatorIgnoresNonStructs(t *testing.T) {
	v := New()
	assert.NoError(t, v.Validate(context.Background(), "text"))
	assert.NoError(t, v.Validate(context.Background(), (*sample)(nil)))
}
