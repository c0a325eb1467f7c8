package storage

import (
	"fmt"
	"strings"
)

// Key schema for Pebble storage:
//
//   ord:<orderID>              → Order
//   vord:<vendorID>:<orderID>  → (empty) vendor → order index
//   vnd:<vendorID>             → VendorProfile

// Key prefixes
const (
	prefixOrder       = "ord:"
	prefixVendorOrder = "vord:"
	prefixVendor      = "vnd:"
)

// orderKey returns the key for an order
// Format: "ord:{orderID}"
func orderKey(orderID string) []byte {
	return []byte(prefixOrder + orderID)
}

// vendorOrderKey returns the index key linking a vendor to one of its orders
// Format: "vord:{vendorID}:{orderID}"
func vendorOrderKey(vendorID, orderID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%s", prefixVendorOrder, vendorID, orderID))
}

// vendorOrderPrefix returns the prefix for all order index keys of a vendor
// Format: "vord:{vendorID}:"
func vendorOrderPrefix(vendorID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixVendorOrder, vendorID))
}

// orderIDFromIndex extracts the order id from an index key under prefix.
// Keys belonging to a longer vendor id sharing the prefix are rejected.
func orderIDFromIndex(key, prefix []byte) (string, bool) {
	id := string(key[len(prefix):])
	if id == "" || strings.Contains(id, ":") {
		return "", false
	}
	return id, true
}

// vendorKey returns the key for a vendor profile
// Format: "vnd:{vendorID}"
func vendorKey(vendorID string) []byte {
	return []byte(prefixVendor + vendorID)
}

// keyUpperBound returns the exclusive upper bound for a prefix scan
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
