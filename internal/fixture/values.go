package fixture

import (
	"strings"
	"time"

	"db-sanity/internal/schema"

	"github.com/brianvoe/gofakeit/v6"
)

var (
	dateFrom = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	dateTo   = time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
)

// GenerateValue produces a plausible value for a free column, chosen by
// what the column name means.
func GenerateValue(f *gofakeit.Faker, colName string) schema.Value {
	meaning := AnalyzeMeaning(colName)
	has := func(words ...string) bool {
		for _, w := range words {
			if strings.Contains(meaning, w) {
				return true
			}
		}
		return false
	}

	switch {
	case has("email"):
		return schema.NewString(f.Email())
	case has("phone"):
		return schema.NewString(f.Phone())
	case has("first"):
		return schema.NewString(f.FirstName())
	case has("last"):
		return schema.NewString(f.LastName())
	case has("name"):
		return schema.NewString(f.Name())
	case has("address", "street"):
		return schema.NewString(f.Street())
	case has("zipcode"):
		return schema.NewString(f.Zip())
	case has("city"):
		return schema.NewString(f.City())
	case has("country"):
		return schema.NewString(f.Country())
	case has("latitude"):
		return schema.NewNumber(f.Latitude())
	case has("longitude"):
		return schema.NewNumber(f.Longitude())
	case has("yesno", "flag", "enabled", "active"):
		return schema.NewBool(f.Bool())
	case has("date", "time", "created", "updated", "registered", "modified", "deleted"):
		return schema.NewString(f.DateRange(dateFrom, dateTo).Format(time.RFC3339))
	case has("price", "amount", "balance", "cost", "temperature"):
		return schema.NewNumber(f.Price(0.99, 999.99))
	case has("count", "quantity", "number", "sequence", "index", "order", "age"):
		return schema.NewInt(int64(f.Number(1, 100)))
	case has("url"):
		return schema.NewString(f.URL())
	case has("ip"):
		return schema.NewString(f.IPv4Address())
	case has("title", "subject"):
		return schema.NewString(strings.TrimSuffix(f.Sentence(3), "."))
	case has("description", "message", "text", "comment", "note"):
		return schema.NewString(f.Sentence(8))
	}
	return schema.NewString(f.Word())
}
