package pricing

import "github.com/bloomcare/bloom-waitlist/internal/models"

type Feature struct {
	Text string `json:"text"`
}

// Option describes one answer to the pricing question. Price and Period are empty for
// the two "would not pay" answers.
type Option struct {
	ID            models.PricingPreference `json:"id"`
	Title         string                   `json:"title"`
	Label         string                   `json:"label"`
	Price         string                   `json:"price,omitempty"`
	Period        string                   `json:"period,omitempty"`
	Description   string                   `json:"description,omitempty"`
	Features      []Feature                `json:"features,omitempty"`
	IsMostPopular bool                     `json:"is_most_popular"`
}

// Options lists every preference in the order the form shows them.
func Options() []Option {
	return []Option{
		{
			ID:          models.PricingMonthly,
			Title:       "Monthly Subscription",
			Label:       "Yes, I would pay $9.99/month",
			Price:       "$9.99",
			Period:      "/month",
			Description: "Unlimited access to AI support at a price less than a coffee a week.",
			Features: []Feature{
				{Text: "Unlimited AI answers and conversations"},
				{Text: "Access to knowledge library"},
				{Text: "Personalized recommendations"},
				{Text: "Cancel anytime"},
			},
		},
		{
			ID:          models.PricingAnnual,
			Title:       "Annual Subscription",
			Label:       "Yes, I would pay $79.99/year",
			Price:       "$79.99",
			Period:      "/year",
			Description: "Best value for your entire postpartum journey.",
			Features: []Feature{
				{Text: "Everything in monthly plan"},
				{Text: "2 months free compared to monthly"},
				{Text: "Priority support"},
				{Text: "Early access to new features"},
			},
			IsMostPopular: true,
		},
		{
			ID:    models.PricingTooExpensive,
			Title: "Too expensive",
			Label: "These prices are too high for me",
		},
		{
			ID:    models.PricingNotPay,
			Title: "Would not pay",
			Label: "I would not pay for this service",
		},
	}
}
