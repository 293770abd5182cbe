package domain

// CreateSaleInput is the POST /sales body.
type CreateSaleInput struct {
	Price      float64     `json:"price"`
	Quantity   int         `json:"quantity"`
	Status     SalesStatus `json:"status"`
	InterestID string      `json:"interestId"`
	AssetID    string      `json:"assetId"`
	BuyerID    string      `json:"buyerId"`
	SellerID   string      `json:"sellerId"`
}

// Sale is the upstream sale record. Only the id is needed to patch a lead.
type Sale struct {
	ID         string      `json:"_id"`
	Price      float64     `json:"price"`
	Quantity   int         `json:"quantity"`
	Status     SalesStatus `json:"status"`
	InterestID string      `json:"interestId,omitempty"`
}

// SaleFor builds the create body for a lead.
func SaleFor(l Lead, status SalesStatus, price float64, quantity int) CreateSaleInput {
	return CreateSaleInput{
		Price:      price,
		Quantity:   quantity,
		Status:     status,
		InterestID: l.ID,
		AssetID:    l.Asset.ID,
		BuyerID:    l.Buyer.ID,
		SellerID:   l.SellerID,
	}
}
