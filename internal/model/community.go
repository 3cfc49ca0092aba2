package model

import "time"

// EnrichmentResult holds the optional fields returned by a grounded lookup.
// Every field may be blank; a fully blank result is still a valid outcome
// ("looked up, nothing found") and is persisted like any other.
type EnrichmentResult struct {
	Street            string `json:"street,omitempty"`
	City              string `json:"city,omitempty"`
	State             string `json:"state,omitempty"`
	Zip               string `json:"zip,omitempty"`
	ContactName       string `json:"contact_name,omitempty"`
	ContactEmail      string `json:"contact_email,omitempty"`
	ContactPhone      string `json:"contact_phone,omitempty"`
	ManagementCompany string `json:"management_company,omitempty"`
}

// Empty reports whether no field was populated. This is a logging
// classification only, never a gate on persistence.
func (r EnrichmentResult) Empty() bool {
	return r == EnrichmentResult{}
}

// Community is a persisted enrichment row, identified by name within a
// location scope.
type Community struct {
	ID        string           `json:"id"`
	Name      string           `json:"name"`
	Location  string           `json:"location"`
	Result    EnrichmentResult `json:"result"`
	CreatedAt time.Time        `json:"created_at"`
}
