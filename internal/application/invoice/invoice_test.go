package invoice

import (
	"bytes"
	"testing"
	"time"

	"marketdesk/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func soldLead() domain.Lead {
	return domain.Lead{
		ID:    "l1",
		Asset: domain.AssetRef{ID: "a1", Title: "Corner bakery"},
		Buyer: domain.Party{ID: "b1", Name: "Bo Buyer", Email: "bo@example.com"},
		State: domain.Sold{SaleID: "sale-1", Price: 150, Quantity: 3, TotalAmount: 450, Manual: true},
	}
}

func TestFromLead(t *testing.T) {
	issued := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	inv, err := FromLead(soldLead(), "Sam Seller", issued)
	require.NoError(t, err)
	assert.Equal(t, Invoice{
		Number: "sale-1", Date: issued, SellerName: "Sam Seller",
		Buyer: domain.Party{ID: "b1", Name: "Bo Buyer", Email: "bo@example.com"},
		Item:  "Corner bakery", Quantity: 3, UnitPrice: 150, Total: 450,
	}, inv)
	assert.Equal(t, "invoice-sale-1.pdf", inv.FileName())
}

func TestFromLead_OnlySold(t *testing.T) {
	l := soldLead()
	l.State = domain.Accepted{}
	_, err := FromLead(l, "", time.Now())
	assert.ErrorIs(t, err, ErrNotSold)

	l.State = domain.Unsold{SaleID: "s", Base: domain.LeadAccepted}
	_, err = FromLead(l, "", time.Now())
	assert.ErrorIs(t, err, ErrNotSold)
}

func TestRender_WritesPDF(t *testing.T) {
	inv, err := FromLead(soldLead(), "Sam Seller", time.Now())
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Render(&buf, inv))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	assert.Greater(t, buf.Len(), 500)
}
