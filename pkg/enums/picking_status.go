package enums

// PickingStatus is the normalized picking state reported by the warehouse.
type PickingStatus string

const (
	PickingStatusCompleted  PickingStatus = "completed"
	PickingStatusIncomplete PickingStatus = "incomplete"
	PickingStatusNotFound   PickingStatus = "not_found"
	PickingStatusError      PickingStatus = "error"
)

// String implements fmt.Stringer.
func (s PickingStatus) String() string {
	return string(s)
}
