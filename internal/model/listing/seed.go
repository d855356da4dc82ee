package listing

import "time"

// Seed provides the sample catalogue served by the in-memory store in development.
func Seed() []Listing {
	base := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	return []Listing{
		{
			ID:           "seed-plumbing",
			UserID:       "seed",
			Name:         "Ravi Kumar",
			ServiceName:  "Plumbing",
			Description:  "Local plumber available for repairs and installations, leak fixing and bathroom fittings.",
			Location:     "Indiranagar, 560038",
			Availability: "Mon-Sat, 8am-7pm",
			Charges:      "Starts from ₹300",
			Contact:      "+91 98450 12345",
			CreatedAt:    base,
		},
		{
			ID:           "seed-baking",
			UserID:       "seed",
			Name:         "Meera Nair",
			ServiceName:  "Home Baking",
			Description:  "Custom birthday cakes, cupcakes and eggless bakes made to order at home.",
			Location:     "Koramangala, 560034",
			Availability: "Orders 2 days in advance",
			Charges:      "₹600 per kg",
			Contact:      "meera.bakes@example.com",
			CreatedAt:    base.Add(time.Hour),
		},
		{
			ID:           "seed-tutoring",
			UserID:       "seed",
			Name:         "Asha Rao",
			ServiceName:  "Maths Tutoring",
			Description:  "One-to-one maths lessons for grades 6 to 10, online or at your home.",
			Location:     "Jayanagar, 560041",
			Availability: "Weekday evenings",
			Charges:      "₹500/hour",
			Contact:      "asha.tutor@example.com",
			CreatedAt:    base.Add(2 * time.Hour),
		},
		{
			ID:           "seed-ac-repair",
			UserID:       "seed",
			Name:         "Imran Sheikh",
			ServiceName:  "AC Mechanic",
			Description:  "Air conditioner servicing, gas refill and repairs for split and window units.",
			Location:     "HSR Layout, 560102",
			Availability: "All days, 9am-9pm",
			Charges:      "Service visit ₹450",
			Contact:      "+91 99000 67890",
			CreatedAt:    base.Add(3 * time.Hour),
		},
	}
}
