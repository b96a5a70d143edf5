package apperr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bidForm struct {
	ProductName string `json:"productName" validate:"required"`
	Quantity    int    `json:"quantity" validate:"gte=1"`
	Urgency     string `json:"urgency" validate:"oneof=immediate today tomorrow this_week"`
}

func TestValidateReportsJSONFieldNames(t *testing.T) {
	err := Validate(bidForm{Quantity: 0, Urgency: "someday"})
	require.Error(t, err)

	assert.Equal(t, KindValidation, KindOf(err))
	assert.Contains(t, err.Error(), "productName is required")
	assert.Contains(t, err.Error(), "quantity must satisfy gte=1")
	assert.Contains(t, err.Error(), "urgency must be one of")
}

func TestValidatePasses(t *testing.T) {
	assert.NoError(t, Validate(bidForm{ProductName: "onions", Quantity: 3, Urgency: "today"}))
}

type priceForm struct {
	Price float64 `json:"price" validate:"gte=0,cents"`
}

func TestValidateCents(t *testing.T) {
	for _, ok := range []float64{0, 15, 22.5, 0.34, 1999.99} {
		assert.NoError(t, Validate(priceForm{Price: ok}), "%v", ok)
	}
	for _, bad := range []float64{0.335, 12.001} {
		err := Validate(priceForm{Price: bad})
		require.Error(t, err, "%v", bad)
		assert.Contains(t, err.Error(), "price must have at most 2 decimal places")
	}
}
