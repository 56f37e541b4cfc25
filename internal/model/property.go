package model

// PropertyRecord is the structured result of extracting one rental-property
// page. It is owned by the job that produced it and immutable once attached.
type PropertyRecord struct {
	Name      string `json:"name"`
	Address   string `json:"address,omitempty"`
	Phone     string `json:"phone,omitempty"`
	SourceURL string `json:"sourceUrl"`

	PMSType PMSType `json:"pmsType"`

	YearBuilt         int           `json:"yearBuilt,omitempty"`
	YearRenovated     int           `json:"yearRenovated,omitempty"`
	BuildingType      string        `json:"buildingType,omitempty"`
	ManagementCompany string        `json:"managementCompany,omitempty"`
	PropertyClass     PropertyClass `json:"propertyClass,omitempty"`

	TotalUnits       int     `json:"totalUnits,omitempty"`
	OccupancyPercent float64 `json:"occupancyPercent,omitempty"`
	AvgRentPerSqft   float64 `json:"avgRentPerSqft,omitempty"`
	AvgDaysToLease   int     `json:"avgDaysToLease,omitempty"`

	// Fees in minor currency units (cents)
	ParkingFeeMonthlyCents int64 `json:"parkingFeeMonthlyCents,omitempty"`
	PetRentMonthlyCents    int64 `json:"petRentMonthlyCents,omitempty"`
	ApplicationFeeCents    int64 `json:"applicationFeeCents,omitempty"`
	AdminFeeCents          int64 `json:"adminFeeCents,omitempty"`

	LeaseRates  []LeaseRate  `json:"leaseRates"`
	Concessions []Concession `json:"concessions"`
	Amenities   []string     `json:"amenities,omitempty"`

	// RawHTML holds a truncated page snapshot for debugging. Populated only
	// when zero lease rates were extracted.
	RawHTML string `json:"rawHtml,omitempty"`
	// SnapshotURL is set when the raw snapshot was archived to object storage.
	SnapshotURL string `json:"snapshotUrl,omitempty"`
}

// LeaseRate is one rentable unit type with its price, size, and availability
type LeaseRate struct {
	UnitType         string     `json:"unitType"`
	Sqft             int        `json:"sqft,omitempty"`
	PriceCents       int64      `json:"priceCents"`
	LeaseTermMonths  int        `json:"leaseTermMonths"`
	LeaseTermLabel   string     `json:"leaseTermLabel,omitempty"`
	AvailabilityText string     `json:"availabilityText,omitempty"`
	AvailableDate    string     `json:"availableDate,omitempty"` // ISO date
	UnitStatus       UnitStatus `json:"unitStatus"`
}

// Concession is a leasing incentive attached to a property
type Concession struct {
	Type        ConcessionType `json:"type"`
	Description string         `json:"description"`
	Value       string         `json:"value,omitempty"`
	Terms       string         `json:"terms,omitempty"`
}
