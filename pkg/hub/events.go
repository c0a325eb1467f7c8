package hub

// Event types on the wire.
const (
	TypeLocationUpdate = "location_update" // vendor -> hub
	TypeVendorMoved    = "vendor_moved"    // hub -> users
	TypeNewOrder       = "new_order"       // hub -> vendors
)

const defaultIcon = "default"

type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// LocationUpdate is the inbound vendor payload. Pointer fields distinguish
// missing keys from zero values.
type LocationUpdate struct {
	Type     string `json:"type"`
	VendorID string `json:"vendor_id,omitempty"`
	Location *struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	} `json:"location"`
	Icon string `json:"icon,omitempty"`
}

// LocationEvent is pushed to every user when a vendor moves.
type LocationEvent struct {
	Type     string   `json:"type"`
	VendorID string   `json:"vendor_id"`
	Location Location `json:"location"`
	Icon     string   `json:"icon"`
}

// NewOrderEvent is pushed to every vendor when an order is placed.
type NewOrderEvent struct {
	Type  string `json:"type"`
	Order any    `json:"order"`
}

// locationEvent converts a well-formed update into the outbound event for
// vendorID. ok is false for anything that is not a complete location_update.
func (u LocationUpdate) locationEvent(vendorID string) (ev LocationEvent, ok bool) {
	if u.Type != TypeLocationUpdate || u.Location == nil || u.Location.Lat == nil || u.Location.Lng == nil {
		return LocationEvent{}, false
	}
	icon := u.Icon
	if icon == "" {
		icon = defaultIcon
	}
	return LocationEvent{
		Type:     TypeVendorMoved,
		VendorID: vendorID,
		Location: Location{Lat: *u.Location.Lat, Lng: *u.Location.Lng},
		Icon:     icon,
	}, true
}
