package catalog

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func intPtr(i int) *int { return &i }

func TestRecord_StockState(t *testing.T) {
	tests := []struct {
		name      string
		stock     int
		threshold *int
		want      StockState
	}{
		{name: "below threshold is low", stock: 3, threshold: intPtr(5), want: StockLow},
		{name: "equal to threshold is low", stock: 5, threshold: intPtr(5), want: StockLow},
		{name: "above threshold is ok", stock: 6, threshold: intPtr(5), want: StockOK},
		{name: "zero is out regardless of threshold", stock: 0, threshold: intPtr(5), want: StockOut},
		{name: "zero without threshold is out", stock: 0, want: StockOut},
		{name: "no threshold is never low", stock: 1, want: StockOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Record{Stock: tt.stock, LowStockThreshold: tt.threshold}
			if got := r.StockState(); got != tt.want {
				t.Errorf("StockState() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRecord_Validate(t *testing.T) {
	langs := DefaultLanguages
	valid := Record{Name: map[string]string{"RU": "Насос"}, SKU: "P-1"}

	if err := valid.Validate(langs); err != nil {
		t.Fatalf("Validate() unexpected error: %v", err)
	}

	tests := []struct {
		name string
		mut  func(r *Record)
	}{
		{name: "blank name", mut: func(r *Record) { r.Name = map[string]string{"EN": "  "} }},
		{name: "missing sku", mut: func(r *Record) { r.SKU = "" }},
		{name: "unknown status", mut: func(r *Record) { r.Status = "deleted" }},
		{name: "local preview thumbnail", mut: func(r *Record) { r.Thumbnail = "blob:http://localhost/abc" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := valid.Clone()
			tt.mut(&r)
			err := r.Validate(langs)
			if !errors.Is(err, ErrInvalidRecord) {
				t.Errorf("Validate() = %v, want ErrInvalidRecord", err)
			}
		})
	}
}

func TestRecord_ClampAndTouch(t *testing.T) {
	r := Record{
		Price:             decimal.NewFromInt(-3),
		Cost:              decimal.NewFromFloat(-0.5),
		Stock:             -2,
		LowStockThreshold: intPtr(-1),
	}
	r.Clamp()
	if !r.Price.IsZero() || !r.Cost.IsZero() || r.Stock != 0 || *r.LowStockThreshold != 0 {
		t.Errorf("Clamp() left negatives: %+v", r)
	}

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	r.Touch(created)
	later := created.Add(time.Hour)
	r.Touch(later)
	if !r.CreatedAt.Equal(created) {
		t.Errorf("CreatedAt overwritten: %v", r.CreatedAt)
	}
	if !r.UpdatedAt.Equal(later) {
		t.Errorf("UpdatedAt = %v, want %v", r.UpdatedAt, later)
	}
}

func TestSet_UpsertRemovePick(t *testing.T) {
	s := NewSet([]Record{{ID: "a", SKU: "A"}, {ID: "b", SKU: "B"}, {ID: "c", SKU: "C"}})

	s.Upsert(Record{ID: "b", SKU: "B2"})
	s.Upsert(Record{ID: "d", SKU: "D"})
	if s.Len() != 4 {
		t.Fatalf("Len() = %d, want 4", s.Len())
	}
	if got, _ := s.Get("b"); got.SKU != "B2" {
		t.Errorf("Get(b).SKU = %q, want B2", got.SKU)
	}

	picked := s.Pick([]string{"d", "a"})
	if len(picked) != 2 || picked[0].ID != "a" || picked[1].ID != "d" {
		t.Errorf("Pick() should follow set order, got %+v", picked)
	}

	if n := s.Remove("a", "x"); n != 1 {
		t.Errorf("Remove() = %d, want 1", n)
	}
	if _, ok := s.Get("a"); ok {
		t.Error("record a still present after Remove")
	}
	if got, ok := s.Get("c"); !ok || got.SKU != "C" {
		t.Error("index broken after Remove")
	}
}
