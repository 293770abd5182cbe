package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLead(t *testing.T, raw string) Lead {
	t.Helper()
	var l Lead
	require.NoError(t, json.Unmarshal([]byte(raw), &l))
	return l
}

func TestLeadUnmarshal_PopulatedRefs(t *testing.T) {
	l := decodeLead(t, `{
		"_id": "l1", "seller": "s1", "quantity": 5, "price": 100, "status": "negotiating",
		"asset": {"_id": "a1", "title": "Bakery", "price": 100},
		"buyer": {"_id": "b1", "name": "Ann", "email": "ann@example.com", "phone": "555"},
		"createdAt": "2024-03-01T10:00:00Z"
	}`)
	assert.Equal(t, "a1", l.Asset.ID)
	assert.Equal(t, "Bakery", l.Asset.Title)
	assert.Equal(t, "ann@example.com", l.Buyer.Email)
	assert.Equal(t, Negotiating{}, l.State)
	assert.Equal(t, Billing{UnitPrice: 100, Quantity: 5, Total: 500}, l.RequestedBilling())
}

func TestLeadUnmarshal_BareIDRefs(t *testing.T) {
	l := decodeLead(t, `{"_id": "l1", "asset": "a1", "buyer": "b1", "status": "accepted"}`)
	assert.Equal(t, "a1", l.Asset.ID)
	assert.Empty(t, l.Asset.Title)
	assert.Equal(t, "b1", l.Buyer.ID)
	assert.Equal(t, Accepted{}, l.State)
}

func TestLeadUnmarshal_SoldOverlay(t *testing.T) {
	l := decodeLead(t, `{"_id": "l1", "status": "accepted", "salesStatus": "sold",
		"soldPrice": 150, "soldQuantity": 3, "soldTotalAmount": 450, "saleId": "s9", "isManuallyMarkedSold": true}`)
	sold, ok := l.State.(Sold)
	require.True(t, ok)
	assert.Equal(t, Sold{SaleID: "s9", Price: 150, Quantity: 3, TotalAmount: 450, Manual: true}, sold)
	final, ok := l.FinalBilling()
	require.True(t, ok)
	assert.Equal(t, 450.0, final.Total)
	assert.Equal(t, "s9", l.SaleID())
}

func TestLeadUnmarshal_SoldWithoutAcceptIsDropped(t *testing.T) {
	l := decodeLead(t, `{"_id": "l1", "status": "rejected", "salesStatus": "sold", "saleId": "s9"}`)
	assert.Equal(t, Rejected{}, l.State)
	assert.Empty(t, l.SaleID())
}

func TestLeadUnmarshal_UnsoldKeepsBase(t *testing.T) {
	l := decodeLead(t, `{"_id": "l1", "status": "rejected", "salesStatus": "unsold", "saleId": "s2"}`)
	assert.Equal(t, Unsold{SaleID: "s2", Base: LeadRejected}, l.State)
	assert.Equal(t, LeadRejected, l.State.Status())
	assert.Equal(t, SalesUnsold, l.State.SalesStatus())
}

func TestLeadMarshal_RoundTripsWireFields(t *testing.T) {
	l := Lead{ID: "l1", Asset: AssetRef{ID: "a1", Title: "Shop"}, Quantity: 2, Price: 10,
		State: Sold{SaleID: "s1", Price: 12, Quantity: 2, TotalAmount: 24, Manual: true}}
	b, err := json.Marshal(l)
	require.NoError(t, err)

	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Equal(t, "accepted", m["status"])
	assert.Equal(t, "sold", m["salesStatus"])
	assert.Equal(t, "s1", m["saleId"])
	assert.Equal(t, 24.0, m["soldTotalAmount"])
	asset, _ := m["asset"].(map[string]interface{})
	assert.Equal(t, "Shop", asset["title"])
}

func TestLeadMarshal_NoOverlayIsNull(t *testing.T) {
	b, err := json.Marshal(Lead{ID: "l1", State: Accepted{}})
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &m))
	assert.Nil(t, m["saleId"])
	assert.Nil(t, m["soldPrice"])
	_, has := m["salesStatus"]
	assert.False(t, has)
}

func TestLeadTransitions(t *testing.T) {
	l := Lead{ID: "l1", State: Negotiating{}}

	_, err := l.MarkSold("s", 1, 1)
	assert.Equal(t, ErrNotAccepted, err)
	_, err = l.MarkUnsold("s")
	assert.Equal(t, ErrNotResolvable, err)
	_, err = l.Unmark()
	assert.Equal(t, ErrNoSale, err)
	_, err = l.WithStatus(LeadNegotiating)
	assert.Equal(t, ErrInvalidStatus, err)

	accepted, err := l.WithStatus(LeadAccepted)
	require.NoError(t, err)
	_, err = accepted.WithStatus(LeadRejected)
	assert.Equal(t, ErrNotNegotiating, err)

	sold, err := accepted.MarkSold("s1", 150, 3)
	require.NoError(t, err)
	assert.Equal(t, 450.0, sold.State.(Sold).TotalAmount)

	back, err := sold.Unmark()
	require.NoError(t, err)
	assert.Equal(t, Accepted{}, back.State)
	assert.Empty(t, back.SaleID())

	rejected, _ := Lead{State: Negotiating{}}.WithStatus(LeadRejected)
	unsold, err := rejected.MarkUnsold("s2")
	require.NoError(t, err)
	restored, err := unsold.Unmark()
	require.NoError(t, err)
	assert.Equal(t, Rejected{}, restored.State)
}
