package enums

// StockStatus is the normalized stock-on-hand state reported by the warehouse.
type StockStatus string

const (
	StockStatusAvailable  StockStatus = "available"
	StockStatusOutOfStock StockStatus = "out_of_stock"
	StockStatusNotFound   StockStatus = "not_found"
	StockStatusError      StockStatus = "error"
)

// String implements fmt.Stringer.
func (s StockStatus) String() string {
	return string(s)
}
