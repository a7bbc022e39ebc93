package models

type Item struct {
	// Name is the display name of the item.
	Name string `json:"name"`

	// Price is the unit price. Integers and numeric strings are accepted on input.
	Price float64 `json:"price"`

	// IsOffer is optional and stays nil when the client omits it or sends null.
	IsOffer *bool `json:"is_offer"`
}

type Accessory struct {
	// ID is assigned by the store and never changes.
	ID int `json:"id" bson:"id"`

	Name  string `json:"name" bson:"name"`
	Color string `json:"color" bson:"color"`

	// InStock is nil when the stock state is unknown.
	InStock *bool `json:"in_stock" bson:"in_stock"`
}

// AccessoryInput is the client supplied part of an accessory.
type AccessoryInput struct {
	Name    string `json:"name"`
	Color   string `json:"color"`
	InStock *bool  `json:"in_stock"`
}

// ToAccessory combines the input with a store assigned id.
func (in AccessoryInput) ToAccessory(id int) Accessory {
	return Accessory{
		ID:      id,
		Name:    in.Name,
		Color:   in.Color,
		InStock: CopyBool(in.InStock),
	}
}

// Input returns the mutable fields of the accessory.
func (a Accessory) Input() AccessoryInput {
	return AccessoryInput{
		Name:    a.Name,
		Color:   a.Color,
		InStock: CopyBool(a.InStock),
	}
}

// CopyBool returns a pointer to a copy of *b, or nil.
func CopyBool(b *bool) *bool {
	if b == nil {
		return nil
	}
	v := *b
	return &v
}

// Bool returns a pointer to v.
func Bool(v bool) *bool {
	return &v
}
