package transport

type CreateOrderRequest struct {
	Address    string `json:"address"     validate:"required"`
	ProductIDs []uint `json:"product_ids" validate:"required,min=1"`
}

type UpdateOrderRequest struct {
	Address    string `json:"address"     validate:"required"`
	ProductIDs []uint `json:"product_ids" validate:"required,min=1"`
}

type ProductRequest struct {
	Name        string  `json:"name"        validate:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price"       validate:"required,gt=0"`
	Count       uint    `json:"count"`
}
