package vision

const (
	maxTokens   = 4000
	temperature = 0.1
)

const extractionPrompt = `You are an expert at extracting product information from retail leaflets.

Analyze this ALDI leaflet image and extract ALL visible products with their details.

For each product, extract:
1. product_name: The full product name/description
2. price: The price (include currency symbol if visible)
3. unit: The unit/quantity (e.g., "per kg", "250g Pack", "each")
4. category: Product category (e.g., "Fresh Produce", "Meat", "Beverages", "Snacks")
5. special_offer: Any special offer text (e.g., "Super Savers", "Special Buys")
6. additional_info: Any extra details (certifications, origin, etc.)

Return ONLY a valid JSON array with no additional text. Format:

[
  {
    "product_name": "Mini Cucumbers",
    "price": "$3.49",
    "unit": "250g per pack",
    "category": "Fresh Produce",
    "special_offer": "Super Savers",
    "additional_info": "Brussels Sprouts flavor"
  }
]

Extract every single product visible in the image systematically from left to right, top to bottom.`
