package enums

import (
	"fmt"
	"strings"
)

// AddressType identifies which saved address slot a row occupies. A user keeps
// at most one address per type.
type AddressType string

const (
	AddressTypeBilling  AddressType = "billing"
	AddressTypeShipping AddressType = "shipping"
	AddressTypeOther    AddressType = "other"
)

var validAddressTypes = []AddressType{
	AddressTypeBilling,
	AddressTypeShipping,
	AddressTypeOther,
}

// String implements fmt.Stringer.
func (a AddressType) String() string {
	return string(a)
}

// IsValid reports whether the value is a known AddressType.
func (a AddressType) IsValid() bool {
	for _, candidate := range validAddressTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseAddressType converts raw input into an AddressType. Input is trimmed
// and lower-cased before matching, so "Billing" and "SHIPPING" are accepted.
func ParseAddressType(value string) (AddressType, error) {
	normalized := strings.ToLower(strings.TrimSpace(value))
	for _, candidate := range validAddressTypes {
		if string(candidate) == normalized {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid address type %q", value)
}
