// Package contracts holds the wire schema shared between the shop and order
// services. It is the only payload crossing the messaging bridge.
package contracts

// ProductEntry is one product occurrence with the price captured at
// placement time. Repeated products stay repeated; nothing is deduplicated.
type ProductEntry struct {
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

// OrderDetails is produced by the shop when an order is placed and consumed
// by the order service to materialize a bill. OrderNumber correlates 1:1
// with the order id that produced the message.
type OrderDetails struct {
	User        string         `json:"user"`
	Address     string         `json:"address"`
	Products    []ProductEntry `json:"products"`
	OrderNumber uint           `json:"order_number"`
}
