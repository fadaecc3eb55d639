package domain

// Category classifies a merchant's line of business.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryElectronics   Category = "electronics"
	CategoryTravel        Category = "travel"
	CategorySubscriptions Category = "subscriptions"
	CategoryFashion       Category = "fashion"
	CategoryEntertainment Category = "entertainment"
	CategoryHealth        Category = "health"
	CategoryUtilities     Category = "utilities"
	CategoryTransfer      Category = "transfer"
	CategoryGambling      Category = "gambling"
)

// Categories lists every known merchant category.
func Categories() []Category {
	return []Category{
		CategoryFood,
		CategoryElectronics,
		CategoryTravel,
		CategorySubscriptions,
		CategoryFashion,
		CategoryEntertainment,
		CategoryHealth,
		CategoryUtilities,
		CategoryTransfer,
		CategoryGambling,
	}
}

// Merchant is a payment counterparty. Immutable after generation.
type Merchant struct {
	ID       string   `json:"merchant_id"`
	Category Category `json:"merchant_category"`
}
