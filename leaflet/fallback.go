package leaflet

// Fallback returns the sample dataset served when live extraction fails.
// Callers get a fresh copy and may modify it.
func Fallback() []Product {
	out := make([]Product, len(fallbackProducts))
	copy(out, fallbackProducts)
	return out
}

// IsFallback reports whether products is exactly the sample dataset.
func IsFallback(products []Product) bool {
	if len(products) != len(fallbackProducts) {
		return false
	}
	for i := range products {
		if !products[i].Equal(fallbackProducts[i]) {
			return false
		}
	}
	return true
}

var fallbackProducts = []Product{
	sample(0, "Mini Cucumbers Brussels Sprouts Flavour", "$3.49", "250g per pack", "Fresh Produce", "Super Savers", "Fresh vegetables"),
	sample(1, "Strawberries", "$2.49", "250g Pack", "Fresh Produce", "Super Savers", "Fresh berries"),
	sample(2, "Sweet Corn Cobs", "$3.99", "4 pack per kg", "Fresh Produce", "Super Savers", "Fresh corn"),
	sample(3, "Australian Blueberries", "$3.99", "125g Pack", "Fresh Produce", "", "Australian Grown"),
	sample(4, "White Flat Mushrooms", "$4.99", "200g Pack", "Fresh Produce", "Super Savers", ""),
	sample(5, "Aussie Asparagus", "$2.69", "per bunch", "Fresh Produce", "", "Fresh, locally grown"),
	sample(6, "Freerange Acero RSPCA Approved Chicken Breast Fillets", "$7.49", "per kg", "Meat & Poultry", "", "RSPCA Approved, Australian"),
	sample(7, "Schultz Oven Roast Crumbed Chicken Tenderloin", "$8.49", "400g", "Meat & Poultry", "", ""),
	sample(8, "Ocean King Cooked Prawn Value Pack", "$8.99", "500g", "Seafood", "", ""),
	sample(9, "The Fishmonger Fresh Tasmanian Skin On Salmon Fillets", "$24.99", "500g-720g", "Seafood", "", "Fresh Tasmanian"),
	sample(10, "Arnott's Tim Tam", "$2.49", "200g-200g", "Snacks", "ALDI Special Buys", ""),
	sample(11, "Dime Canola Oil or Sunflower Oil", "$7.59", "4L", "Pantry", "ALDI Special Buys", ""),
	sample(12, "Coca-Cola Classic or Coca-Cola No Sugar", "$9.49", "10x375ml", "Beverages", "", "Can multipack"),
}

func sample(id int, name, price, unit, category, offer, info string) Product {
	return NewProduct(id, map[string]string{
		FieldProductName:    name,
		FieldPrice:          price,
		FieldUnit:           unit,
		FieldCategory:       category,
		FieldSpecialOffer:   offer,
		FieldAdditionalInfo: info,
	})
}
