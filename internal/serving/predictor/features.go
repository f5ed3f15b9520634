package predictor

import "fmt"

// Features is one booking as entered on the form. Categorical fields carry
// the integer codes the model was trained on.
type Features struct {
	LeadTime           int     `json:"lead_time"`
	NoOfSpecialRequest int     `json:"no_of_special_request"`
	AvgPricePerRoom    float64 `json:"avg_price_per_room"`
	ArrivalMonth       int     `json:"arrival_month"`
	ArrivalDate        int     `json:"arrival_date"`
	MarketSegmentType  int     `json:"market_segment_type"`
	NoOfWeekNights     int     `json:"no_of_week_nights"`
	NoOfWeekendNights  int     `json:"no_of_weekend_nights"`
	TypeOfMealPlan     int     `json:"type_of_meal_plan"`
	RoomTypeReserved   int     `json:"room_type_reserved"`
}

// fieldColumns maps form field names to training column names. The form
// says no_of_special_request; the dataset column is plural.
var fieldColumns = map[string]string{
	"lead_time":             "lead_time",
	"no_of_special_request": "no_of_special_requests",
	"avg_price_per_room":    "avg_price_per_room",
	"arrival_month":         "arrival_month",
	"arrival_date":          "arrival_date",
	"market_segment_type":   "market_segment_type",
	"no_of_week_nights":     "no_of_week_nights",
	"no_of_weekend_nights":  "no_of_weekend_nights",
	"type_of_meal_plan":     "type_of_meal_plan",
	"room_type_reserved":    "room_type_reserved",
}

// FieldNames lists the form fields in display order.
var FieldNames = []string{
	"lead_time",
	"no_of_special_request",
	"avg_price_per_room",
	"arrival_month",
	"arrival_date",
	"market_segment_type",
	"no_of_week_nights",
	"no_of_weekend_nights",
	"type_of_meal_plan",
	"room_type_reserved",
}

// columns returns the feature values keyed by training column name.
func (f Features) columns() map[string]float64 {
	return map[string]float64{
		"lead_time":              float64(f.LeadTime),
		"no_of_special_requests": float64(f.NoOfSpecialRequest),
		"avg_price_per_room":     f.AvgPricePerRoom,
		"arrival_month":          float64(f.ArrivalMonth),
		"arrival_date":           float64(f.ArrivalDate),
		"market_segment_type":    float64(f.MarketSegmentType),
		"no_of_week_nights":      float64(f.NoOfWeekNights),
		"no_of_weekend_nights":   float64(f.NoOfWeekendNights),
		"type_of_meal_plan":      float64(f.TypeOfMealPlan),
		"room_type_reserved":     float64(f.RoomTypeReserved),
	}
}

// Validate rejects values outside what a booking can hold.
func (f Features) Validate() error {
	switch {
	case f.LeadTime < 0:
		return fmt.Errorf("lead_time must be >= 0")
	case f.NoOfSpecialRequest < 0:
		return fmt.Errorf("no_of_special_request must be >= 0")
	case f.AvgPricePerRoom < 0:
		return fmt.Errorf("avg_price_per_room must be >= 0")
	case f.ArrivalMonth < 1 || f.ArrivalMonth > 12:
		return fmt.Errorf("arrival_month must be in 1..12")
	case f.ArrivalDate < 1 || f.ArrivalDate > 31:
		return fmt.Errorf("arrival_date must be in 1..31")
	case f.NoOfWeekNights < 0 || f.NoOfWeekendNights < 0:
		return fmt.Errorf("night counts must be >= 0")
	case f.MarketSegmentType < 0 || f.TypeOfMealPlan < 0 || f.RoomTypeReserved < 0:
		return fmt.Errorf("category codes must be >= 0")
	}
	return nil
}
