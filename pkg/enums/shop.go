package enums

import "fmt"

// ShopStatus tracks the install lifecycle of a merchant shop.
type ShopStatus string

const (
	ShopStatusActive      ShopStatus = "active"
	ShopStatusUninstalled ShopStatus = "uninstalled"
)

var validShopStatuses = []ShopStatus{
	ShopStatusActive,
	ShopStatusUninstalled,
}

// String implements fmt.Stringer.
func (s ShopStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShopStatus.
func (s ShopStatus) IsValid() bool {
	for _, candidate := range validShopStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShopStatus converts raw input into a ShopStatus.
func ParseShopStatus(value string) (ShopStatus, error) {
	for _, candidate := range validShopStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shop status %q", value)
}

// ConnectionMode selects between one shared board-service credential and per-user credentials.
type ConnectionMode string

const (
	ConnectionModeSingle ConnectionMode = "single"
	ConnectionModeMulti  ConnectionMode = "multi"
)

// IsValid reports whether the value is a known ConnectionMode.
func (m ConnectionMode) IsValid() bool {
	return m == ConnectionModeSingle || m == ConnectionModeMulti
}

// ParseConnectionMode converts raw input into a ConnectionMode.
func ParseConnectionMode(value string) (ConnectionMode, error) {
	mode := ConnectionMode(value)
	if !mode.IsValid() {
		return "", fmt.Errorf("invalid connection mode %q", value)
	}
	return mode, nil
}
