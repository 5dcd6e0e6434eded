package catalog

// StockState classifies a record's inventory level.
type StockState string

const (
	StockOK  StockState = "ok"
	StockLow StockState = "low"
	StockOut StockState = "out"
)

// StockState reports out-of-stock in preference to low-stock.
func (r Record) StockState() StockState {
	if r.IsOutOfStock() {
		return StockOut
	}
	if r.IsLowStock() {
		return StockLow
	}
	return StockOK
}

// IsOutOfStock is true when stock is zero or below.
func (r Record) IsOutOfStock() bool {
	return r.Stock <= 0
}

// IsLowStock is true when a threshold is defined and stock has reached it.
// An out-of-stock record with a threshold is also low stock.
func (r Record) IsLowStock() bool {
	t, ok := r.Threshold()
	return ok && r.Stock <= t
}
