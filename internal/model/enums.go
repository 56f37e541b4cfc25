package model

// Job status
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
	JobStatusCancelled  JobStatus = "cancelled"
)

// PMS platforms powering a property's leasing site. The platform affects
// HTML structure, so the extraction engine classifies it first.
type PMSType string

const (
	PMSEntrata  PMSType = "entrata"
	PMSRealPage PMSType = "realpage"
	PMSYardi    PMSType = "yardi"
	PMSResMan   PMSType = "resman"
	PMSAppFolio PMSType = "appfolio"
	PMSUnknown  PMSType = "unknown"
)

// Unit availability status
type UnitStatus string

const (
	UnitAvailable  UnitStatus = "available"
	UnitComingSoon UnitStatus = "coming_soon"
	UnitLeased     UnitStatus = "leased"
)

// Concession types
type ConcessionType string

const (
	ConcessionFreeRent  ConcessionType = "free_rent"
	ConcessionWaivedFee ConcessionType = "waived_fee"
	ConcessionDiscount  ConcessionType = "discount"
	ConcessionGiftCard  ConcessionType = "gift_card"
	ConcessionOther     ConcessionType = "other"
)

// Property class (market tier)
type PropertyClass string

const (
	ClassA     PropertyClass = "A"
	ClassB     PropertyClass = "B"
	ClassC     PropertyClass = "C"
	ClassD     PropertyClass = "D"
	ClassUnset PropertyClass = ""
)
