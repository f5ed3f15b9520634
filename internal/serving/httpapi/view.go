package httpapi

import (
	"embed"
	"html/template"
	"net/url"

	"github.com/yungbote/hotel-reservation-prediction/internal/serving/predictor"
)

const indexTemplate = "index.html"

//go:embed templates/*.html
var templateFS embed.FS

func parseTemplates() *template.Template {
	return template.Must(template.New("").ParseFS(templateFS, "templates/*.html"))
}

type fieldView struct {
	Name  string
	Label string
	Step  string
	Value string
}

var fieldLabels = map[string]string{
	"lead_time":             "Lead time (days)",
	"no_of_special_request": "Special requests",
	"avg_price_per_room":    "Average price per room",
	"arrival_month":         "Arrival month",
	"arrival_date":          "Arrival date",
	"market_segment_type":   "Market segment type",
	"no_of_week_nights":     "Week nights",
	"no_of_weekend_nights":  "Weekend nights",
	"type_of_meal_plan":     "Meal plan",
	"room_type_reserved":    "Room type reserved",
}

// indexView drives the page. HasPrediction false is the "no prediction"
// state, distinct from a prediction of 0.
type indexView struct {
	Fields        []fieldView
	HasPrediction bool
	Prediction    int
	Error         string
}

// newIndexView echoes submitted values back into the form.
func newIndexView(values url.Values) indexView {
	v := indexView{Fields: make([]fieldView, 0, len(predictor.FieldNames))}
	for _, name := range predictor.FieldNames {
		step := "1"
		if name == "avg_price_per_room" {
			step = "0.01"
		}
		v.Fields = append(v.Fields, fieldView{
			Name:  name,
			Label: fieldLabels[name],
			Step:  step,
			Value: values.Get(name),
		})
	}
	return v
}
