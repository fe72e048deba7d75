// Package property defines the attribute record a listing is scored from.
package property

import (
	"github.com/shopspring/decimal"
)

// Attributes is the raw, possibly incomplete record supplied by acquisition.
// A nil field is unknown, never zero.
type Attributes struct {
	// Legal / ownership
	PropertyType    *PropertyType  `json:"propertyType,omitempty"`
	LandOwnership   *LandOwnership `json:"landOwnership,omitempty"`
	HasClearTitle   *bool          `json:"hasClearTitle,omitempty"`
	HasEncumbrances *bool          `json:"hasEncumbrances,omitempty"`
	Zoning          *Zoning        `json:"zoning,omitempty"`

	// Location
	LocationCategory                *LocationCategory `json:"locationCategory,omitempty"`
	DistanceToCbdKm                 *int              `json:"distanceToCbdKm,omitempty"`
	SchoolZoneQuality               *SchoolZone       `json:"schoolZoneQuality,omitempty"`
	DistanceToPublicTransportMeters *int              `json:"distanceToPublicTransportMeters,omitempty"`
	LocalDemand                     *Level            `json:"localDemand,omitempty"`

	// Yield / growth
	RentalYieldPercentage   *decimal.Decimal `json:"rentalYieldPercentage,omitempty"`
	CapitalGrowthPercentage *decimal.Decimal `json:"capitalGrowthPercentage,omitempty"`
	VacancyRatePercentage   *decimal.Decimal `json:"vacancyRatePercentage,omitempty"`

	// Condition
	HasStructuralIssues       *bool             `json:"hasStructuralIssues,omitempty"`
	PropertyAgeYears          *int              `json:"propertyAgeYears,omitempty"`
	HasMajorDefects           *bool             `json:"hasMajorDefects,omitempty"`
	MaintenanceLevel          *MaintenanceLevel `json:"maintenanceLevel,omitempty"`
	MeetsCurrentBuildingCodes *bool             `json:"meetsCurrentBuildingCodes,omitempty"`
	HasRequiredCertificates   *bool             `json:"hasRequiredCertificates,omitempty"`

	// Tenancy
	HasLongTermTenants         *bool `json:"hasLongTermTenants,omitempty"`
	HasReliablePaymentHistory  *bool `json:"hasReliablePaymentHistory,omitempty"`
	LeaseRemainingMonths       *int  `json:"leaseRemainingMonths,omitempty"`
	HasConsistentRentalHistory *bool `json:"hasConsistentRentalHistory,omitempty"`

	// Financing
	CashFlowCoverageRatio           *decimal.Decimal `json:"cashFlowCoverageRatio,omitempty"`
	MeetsServiceabilityRequirements *bool            `json:"meetsServiceabilityRequirements,omitempty"`
	LoanToValueRatio                *decimal.Decimal `json:"loanToValueRatio,omitempty"`
	AnnualInsuranceCost             *decimal.Decimal `json:"annualInsuranceCost,omitempty"`
	SuitableForCrossCollateral      *bool            `json:"suitableForCrossCollateral,omitempty"`
	EquityAvailable                 *decimal.Decimal `json:"equityAvailable,omitempty"`
	EligibleForRefinance            *bool            `json:"eligibleForRefinance,omitempty"`

	// Market
	HasStableSaleHistory *bool `json:"hasStableSaleHistory,omitempty"`
	YearsSinceLastSale   *int  `json:"yearsSinceLastSale,omitempty"`
	DaysOnMarket         *int  `json:"daysOnMarket,omitempty"`
	HasStrongComparables *bool `json:"hasStrongComparables,omitempty"`
	IsUniqueProperty     *bool `json:"isUniqueProperty,omitempty"`

	// Risk / fit
	AcceptedByMajorLenders *bool  `json:"acceptedByMajorLenders,omitempty"`
	RiskRating             *Level `json:"riskRating,omitempty"`
	HasDevelopmentRisk     *bool  `json:"hasDevelopmentRisk,omitempty"`
	FitsPortfolioDiversity *bool  `json:"fitsPortfolioDiversity,omitempty"`
	ViableForLongTermHold  *bool  `json:"viableForLongTermHold,omitempty"`

	// Display / audit only; never scored.
	Suburb     string `json:"suburb,omitempty"`
	ImageURL   string `json:"imageUrl,omitempty"`
	DataSource string `json:"dataSource,omitempty"`
}

// Merge fills every unknown field of a from b. Known values in a are kept.
func (a *Attributes) Merge(b *Attributes) {
	if b == nil {
		return
	}
	for _, f := range registry {
		f.merge(a, b)
	}
	if a.Suburb == "" {
		a.Suburb = b.Suburb
	}
	if a.ImageURL == "" {
		a.ImageURL = b.ImageURL
	}
	if a.DataSource == "" {
		a.DataSource = b.DataSource
	}
}

// Known returns how many registered fields carry a value.
func (a *Attributes) Known() int {
	n := 0
	for _, f := range registry {
		if f.Present(a) {
			n++
		}
	}
	return n
}
