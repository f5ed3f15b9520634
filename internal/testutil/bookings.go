// Package testutil generates deterministic hotel booking data for tests.
package testutil

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"
	"testing"
)

// BookingColumns is the raw dataset header, identifier first and target last.
var BookingColumns = []string{
	"Booking_ID",
	"no_of_adults",
	"no_of_children",
	"no_of_weekend_nights",
	"no_of_week_nights",
	"type_of_meal_plan",
	"required_car_parking_space",
	"room_type_reserved",
	"lead_time",
	"arrival_year",
	"arrival_month",
	"arrival_date",
	"market_segment_type",
	"repeated_guest",
	"no_of_previous_cancellations",
	"no_of_previous_bookings_not_canceled",
	"avg_price_per_room",
	"no_of_special_requests",
	"booking_status",
}

var (
	CategoricalColumns = []string{
		"type_of_meal_plan",
		"required_car_parking_space",
		"room_type_reserved",
		"market_segment_type",
		"repeated_guest",
		"booking_status",
	}
	NumericalColumns = []string{
		"no_of_adults",
		"no_of_children",
		"no_of_weekend_nights",
		"no_of_week_nights",
		"lead_time",
		"arrival_year",
		"arrival_month",
		"arrival_date",
		"no_of_previous_cancellations",
		"no_of_previous_bookings_not_canceled",
		"avg_price_per_room",
		"no_of_special_requests",
	}
)

type BookingOptions struct {
	Rows int
	Seed int64
	// IndexColumn prepends a blank-headed row index, as pandas writes it.
	IndexColumn bool
	// DuplicateEvery repeats the previous booking (new id) every N rows; 0 disables.
	DuplicateEvery int
}

var (
	mealPlans = []string{"Meal Plan 1", "Meal Plan 1", "Meal Plan 1", "Meal Plan 2", "Not Selected", "Meal Plan 3"}
	segments  = []string{"Online", "Online", "Online", "Offline", "Corporate", "Aviation", "Complementary"}
)

// BookingsCSV renders a synthetic booking table. Cancellation odds rise with
// lead time and price and fall with special requests, so a model can learn it.
func BookingsCSV(opts BookingOptions) []byte {
	rng := rand.New(rand.NewSource(opts.Seed))
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	header := BookingColumns
	if opts.IndexColumn {
		header = append([]string{""}, BookingColumns...)
	}
	_ = w.Write(header)

	var prev []string
	for i := 0; i < opts.Rows; i++ {
		id := fmt.Sprintf("INN%05d", i+1)
		var rec []string
		if opts.DuplicateEvery > 0 && prev != nil && i%opts.DuplicateEvery == 0 {
			rec = append([]string{id}, prev[1:]...)
		} else {
			rec = booking(rng, id)
		}
		prev = rec
		if opts.IndexColumn {
			rec = append([]string{strconv.Itoa(i)}, rec...)
		}
		_ = w.Write(rec)
	}
	w.Flush()
	return buf.Bytes()
}

func booking(rng *rand.Rand, id string) []string {
	leadTime := int(rng.ExpFloat64() * 85)
	if leadTime > 440 {
		leadTime = 440
	}
	special := 0
	if r := rng.Float64(); r > 0.55 {
		special = 1 + rng.Intn(3)
	}
	segment := segments[rng.Intn(len(segments))]
	price := 60 + rng.Float64()*120
	if segment == "Complementary" {
		price = 0
	}
	price = math.Round(price*100) / 100
	prevCancel := 0
	if rng.Float64() < 0.01 {
		prevCancel = 1 + rng.Intn(12)
	}
	prevOK := 0
	repeated := 0
	if rng.Float64() < 0.03 {
		repeated = 1
		prevOK = 1 + rng.Intn(40)
	}
	children := 0
	if rng.Float64() < 0.08 {
		children = 1 + rng.Intn(2)
	}

	z := -2.1 + 0.014*float64(leadTime) - 1.1*float64(special) + 0.012*(price-100)
	if segment == "Online" {
		z += 0.7
	}
	if repeated == 1 {
		z -= 2
	}
	status := "Not_Canceled"
	if rng.Float64() < 1/(1+math.Exp(-z)) {
		status = "Canceled"
	}

	return []string{
		id,
		strconv.Itoa(1 + rng.Intn(3)),
		strconv.Itoa(children),
		strconv.Itoa(rng.Intn(3)),
		strconv.Itoa(rng.Intn(6)),
		mealPlans[rng.Intn(len(mealPlans))],
		strconv.Itoa(boolInt(rng.Float64() < 0.03)),
		fmt.Sprintf("Room_Type %d", 1+rng.Intn(4)),
		strconv.Itoa(leadTime),
		strconv.Itoa(2017 + rng.Intn(2)),
		strconv.Itoa(1 + rng.Intn(12)),
		strconv.Itoa(1 + rng.Intn(28)),
		segment,
		strconv.Itoa(repeated),
		strconv.Itoa(prevCancel),
		strconv.Itoa(prevOK),
		strconv.FormatFloat(price, 'f', -1, 64),
		strconv.Itoa(special),
		status,
	}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// WriteBookingsCSV writes BookingsCSV(opts) to dir/name and returns the path.
func WriteBookingsCSV(t testing.TB, dir, name string, opts BookingOptions) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, BookingsCSV(opts), 0o644); err != nil {
		t.Fatalf("write bookings: %v", err)
	}
	return path
}
