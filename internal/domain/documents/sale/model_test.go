package sale

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barpos/internal/core/apperror"
	"barpos/internal/core/id"
	"barpos/internal/core/types"
)

func TestOwnerResolve(t *testing.T) {
	tableID, employeeID := id.New(), id.New()

	kind, ownerID, err := Owner{BartableID: &tableID}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, OwnerBartable, kind)
	assert.Equal(t, tableID, ownerID)

	kind, _, err = Owner{EmployeeID: &employeeID}.Resolve()
	require.NoError(t, err)
	assert.Equal(t, OwnerEmployee, kind)

	_, _, err = Owner{BartableID: &tableID, EmployeeID: &employeeID}.Resolve()
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))

	_, _, err = Owner{}.Resolve()
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(err))
}

func TestUnitPrice_EmployeeDiscount(t *testing.T) {
	price := types.MustMoney("100")

	table := NewSale(OwnerBartable, id.New(), "S-2026-00001")
	assert.True(t, table.UnitPrice(price).Equal(types.MustMoney("100")))

	staff := NewSale(OwnerEmployee, id.New(), "S-2026-00002")
	assert.True(t, staff.UnitPrice(price).Equal(types.MustMoney("80")))
}

func TestLines_AddRemoveRoundTrip(t *testing.T) {
	s := NewSale(OwnerBartable, id.New(), "S-2026-00001")
	beer, wine := id.New(), id.New()

	s.AddLine(beer, types.MustMoney("50"))
	s.AddLine(beer, types.MustMoney("50"))
	s.AddLine(wine, types.MustMoney("7.5"))
	s.RecalculateTotal()

	require.Len(t, s.Lines, 2)
	assert.Equal(t, 2, s.Lines[0].Quantity)
	assert.True(t, s.Lines[0].Subtotal.Equal(types.MustMoney("100")))
	assert.True(t, s.Total.Equal(types.MustMoney("107.5")))

	require.NoError(t, s.RemoveLine(wine))
	s.RecalculateTotal()
	require.Len(t, s.Lines, 1)
	assert.True(t, s.Total.Equal(types.MustMoney("100")))

	require.NoError(t, s.RemoveLine(beer))
	require.NoError(t, s.RemoveLine(beer))
	s.RecalculateTotal()
	assert.Empty(t, s.Lines)
	assert.True(t, s.Total.IsZero())

	err := s.RemoveLine(beer)
	assert.True(t, apperror.IsNotFound(err))
}

func TestCanModify(t *testing.T) {
	s := NewSale(OwnerBartable, id.New(), "S-2026-00001")
	assert.NoError(t, s.CanModify())

	s.Open = false
	assert.Equal(t, apperror.CodeSaleClosed, apperror.CodeOf(s.CanModify()))
}

func TestSaleValidate(t *testing.T) {
	ctx := context.Background()
	doc := NewSale(OwnerBartable, id.New(), "S-2026-00001")
	require.NoError(t, doc.Validate(ctx))

	doc.EmployeeID = id.Ptr(id.New())
	assert.Equal(t, apperror.CodeValidation, apperror.CodeOf(doc.Validate(ctx)), "two owners")
	doc.EmployeeID = nil

	doc.Open = false
	assert.Equal(t, apperror.CodeUnpaidClose, apperror.CodeOf(doc.Validate(ctx)))

	doc.PaymentMethodID = id.Ptr(id.New())
	assert.NoError(t, doc.Validate(ctx))
}
