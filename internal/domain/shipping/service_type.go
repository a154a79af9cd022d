package shipping

import "strings"

// ServiceType is a Kvikk delivery service.
type ServiceType string

const (
	ServiceTypeStandard ServiceType = "standard"
	ServiceTypeExpress  ServiceType = "express"
	ServiceTypeEconomy  ServiceType = "economy"
)

// IsValid returns true if the service type is known to the carrier
func (s ServiceType) IsValid() bool {
	switch s {
	case ServiceTypeStandard, ServiceTypeExpress, ServiceTypeEconomy:
		return true
	default:
		return false
	}
}

// String returns the string representation of ServiceType
func (s ServiceType) String() string {
	return string(s)
}

// RequestedServiceTypes is the fixed list sent with every rate request.
func RequestedServiceTypes() []ServiceType {
	return []ServiceType{ServiceTypeStandard, ServiceTypeExpress, ServiceTypeEconomy}
}

// serviceTypeTable maps a token found in a shipping-line code to a service.
// Entries are tried in order and the first match wins, so a code carrying
// both "express" and "economy" resolves to express.
var serviceTypeTable = []struct {
	token   string
	service ServiceType
}{
	{token: "express", service: ServiceTypeExpress},
	{token: "economy", service: ServiceTypeEconomy},
}

// ServiceTypeForCode resolves a shipping-line code. Matching is
// case-insensitive; codes matching no entry are standard.
func ServiceTypeForCode(code string) ServiceType {
	normalized := strings.ToLower(strings.TrimSpace(code))
	for _, entry := range serviceTypeTable {
		if strings.Contains(normalized, entry.token) {
			return entry.service
		}
	}
	return ServiceTypeStandard
}

// ParseServiceType parses an exact service name such as a settings value.
func ParseServiceType(s string) (ServiceType, bool) {
	st := ServiceType(strings.ToLower(strings.TrimSpace(s)))
	if !st.IsValid() {
		return "", false
	}
	return st, true
}

// AmbiguousServiceCode reports whether code matches more than one table
// entry, in which case ServiceTypeForCode picked the first by table order.
func AmbiguousServiceCode(code string) bool {
	normalized := strings.ToLower(code)
	matches := 0
	for _, entry := range serviceTypeTable {
		if strings.Contains(normalized, entry.token) {
			matches++
		}
	}
	return matches > 1
}
