package scoring

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/MikeSquared-Agency/Propgic/internal/property"
)

const (
	DefaultMaxStrengths = 6
	DefaultMaxRisks     = 4

	NoStrengthsPlaceholder = "Analysis completed - review detailed results"
	NoRisksPlaceholder     = "No significant risks identified"
)

// rule emits a statement when its guard holds over the raw attributes.
type rule func(a *property.Attributes) (string, bool)

// Rule order is presentation order; truncation keeps the first N that fire.
var strengthRules = []rule{
	when(func(a *property.Attributes) bool { return isTrue(a.HasClearTitle) }, "Clear property title"),
	func(a *property.Attributes) (string, bool) {
		if a.DistanceToCbdKm != nil && *a.DistanceToCbdKm <= 10 {
			return fmt.Sprintf("Close to CBD (%d km)", *a.DistanceToCbdKm), true
		}
		return "", false
	},
	when(func(a *property.Attributes) bool { return isFalse(a.HasEncumbrances) }, "No encumbrances on property"),
	when(func(a *property.Attributes) bool { return is(a.LandOwnership, property.LandOwnershipFreehold) }, "Freehold ownership - full land control"),
	when(func(a *property.Attributes) bool { return is(a.LocationCategory, property.LocationMetro) }, "Located in metro area"),
	when(func(a *property.Attributes) bool { return is(a.LocalDemand, property.LevelHigh) }, "High local rental demand"),
	percent(func(a *property.Attributes) *decimal.Decimal { return a.RentalYieldPercentage },
		func(v decimal.Decimal) bool { return v.GreaterThanOrEqual(decimal.NewFromInt(5)) }, "Strong rental yield (%s%%)"),
	percent(func(a *property.Attributes) *decimal.Decimal { return a.RentalYieldPercentage },
		func(v decimal.Decimal) bool {
			return v.GreaterThanOrEqual(decimal.NewFromInt(4)) && v.LessThan(decimal.NewFromInt(5))
		}, "Solid rental yield (%s%%)"),
	percent(func(a *property.Attributes) *decimal.Decimal { return a.CapitalGrowthPercentage },
		func(v decimal.Decimal) bool { return v.GreaterThanOrEqual(decimal.NewFromInt(5)) }, "Good capital growth potential (%s%%)"),
	when(func(a *property.Attributes) bool { return isFalse(a.HasStructuralIssues) }, "No structural issues identified"),
	when(func(a *property.Attributes) bool { return isFalse(a.HasMajorDefects) }, "No major defects"),
	when(func(a *property.Attributes) bool { return isTrue(a.MeetsCurrentBuildingCodes) }, "Meets current building codes"),
	when(func(a *property.Attributes) bool { return isTrue(a.HasRequiredCertificates) }, "All required certificates in place"),
	when(func(a *property.Attributes) bool { return isTrue(a.HasLongTermTenants) }, "Has long-term tenants"),
	when(func(a *property.Attributes) bool { return isTrue(a.HasConsistentRentalHistory) }, "Consistent rental history"),
	when(func(a *property.Attributes) bool { return isTrue(a.AcceptedByMajorLenders) }, "Accepted by major lenders"),
	when(func(a *property.Attributes) bool { return isTrue(a.ViableForLongTermHold) }, "Viable for long-term hold"),
	when(func(a *property.Attributes) bool { return is(a.SchoolZoneQuality, property.SchoolZoneTopTier) }, "Top-tier school zone"),
	when(func(a *property.Attributes) bool { return is(a.SchoolZoneQuality, property.SchoolZoneGood) }, "Good school zone quality"),
	percent(func(a *property.Attributes) *decimal.Decimal { return a.VacancyRatePercentage },
		func(v decimal.Decimal) bool { return v.LessThan(decimal.NewFromInt(2)) }, "Low vacancy rate (%s%%)"),
	when(func(a *property.Attributes) bool {
		return a.DistanceToPublicTransportMeters != nil && *a.DistanceToPublicTransportMeters <= 500
	}, "Close to public transport"),
	when(func(a *property.Attributes) bool { return a.PropertyAgeYears != nil && *a.PropertyAgeYears <= 10 }, "Modern property (under 10 years)"),
	when(func(a *property.Attributes) bool { return is(a.MaintenanceLevel, property.MaintenanceMinimal) }, "Minimal maintenance required"),
	when(func(a *property.Attributes) bool { return is(a.RiskRating, property.LevelLow) }, "Low risk rating"),
	when(func(a *property.Attributes) bool { return isTrue(a.SuitableForCrossCollateral) }, "Suitable for cross-collateralization"),
	when(func(a *property.Attributes) bool { return isTrue(a.EligibleForRefinance) }, "Eligible for refinancing"),
	when(func(a *property.Attributes) bool { return isTrue(a.HasStrongComparables) }, "Strong comparable sales in area"),
	when(func(a *property.Attributes) bool { return isTrue(a.FitsPortfolioDiversity) }, "Good portfolio diversification"),
}

var riskRules = []rule{
	when(func(a *property.Attributes) bool { return isTrue(a.HasEncumbrances) }, "Property has encumbrances"),
	when(func(a *property.Attributes) bool { return isFalse(a.HasClearTitle) }, "Title issues may exist"),
	when(func(a *property.Attributes) bool { return is(a.LandOwnership, property.LandOwnershipLeasehold) }, "Leasehold - limited ownership period"),
	when(func(a *property.Attributes) bool { return is(a.LandOwnership, property.LandOwnershipStrata) }, "Strata - body corporate fees apply"),
	when(func(a *property.Attributes) bool { return isTrue(a.HasStructuralIssues) }, "Structural issues identified"),
	when(func(a *property.Attributes) bool { return isTrue(a.HasMajorDefects) }, "Major defects present"),
	when(func(a *property.Attributes) bool { return is(a.MaintenanceLevel, property.MaintenanceExtensive) }, "Extensive maintenance required"),
	when(func(a *property.Attributes) bool { return is(a.MaintenanceLevel, property.MaintenanceModerate) }, "Moderate maintenance needed"),
	when(func(a *property.Attributes) bool { return isFalse(a.MeetsCurrentBuildingCodes) }, "May not meet current building codes"),
	when(func(a *property.Attributes) bool { return is(a.RiskRating, property.LevelHigh) }, "High risk rating"),
	when(func(a *property.Attributes) bool { return is(a.RiskRating, property.LevelMedium) }, "Medium risk rating"),
	when(func(a *property.Attributes) bool { return isTrue(a.HasDevelopmentRisk) }, "Development risk in area"),
	when(func(a *property.Attributes) bool { return is(a.LocationCategory, property.LocationRural) }, "Rural location may limit growth"),
	when(func(a *property.Attributes) bool { return is(a.LocationCategory, property.LocationRegional) }, "Regional location - slower growth"),
	when(func(a *property.Attributes) bool { return isFalse(a.AcceptedByMajorLenders) }, "May not be accepted by major lenders"),
	when(func(a *property.Attributes) bool { return isTrue(a.IsUniqueProperty) }, "Unique property - limited comparables"),
	percent(func(a *property.Attributes) *decimal.Decimal { return a.VacancyRatePercentage },
		func(v decimal.Decimal) bool { return v.GreaterThan(decimal.NewFromInt(5)) }, "High vacancy rate (%s%%)"),
	percent(func(a *property.Attributes) *decimal.Decimal { return a.VacancyRatePercentage },
		func(v decimal.Decimal) bool {
			return v.GreaterThanOrEqual(decimal.NewFromInt(3)) && v.LessThanOrEqual(decimal.NewFromInt(5))
		}, "Moderate vacancy rate (%s%%)"),
	func(a *property.Attributes) (string, bool) {
		if a.PropertyAgeYears != nil && *a.PropertyAgeYears > 40 {
			return fmt.Sprintf("Older property (%d years)", *a.PropertyAgeYears), true
		}
		return "", false
	},
	func(a *property.Attributes) (string, bool) {
		if a.DistanceToCbdKm != nil && *a.DistanceToCbdKm > 30 {
			return fmt.Sprintf("Far from CBD (%d km)", *a.DistanceToCbdKm), true
		}
		return "", false
	},
	when(func(a *property.Attributes) bool { return is(a.LocalDemand, property.LevelLow) }, "Low local rental demand"),
	percent(func(a *property.Attributes) *decimal.Decimal { return a.RentalYieldPercentage },
		func(v decimal.Decimal) bool { return v.LessThan(decimal.NewFromInt(3)) }, "Low rental yield (%s%%)"),
	percent(func(a *property.Attributes) *decimal.Decimal { return a.CapitalGrowthPercentage },
		func(v decimal.Decimal) bool { return v.LessThan(decimal.NewFromInt(3)) }, "Low capital growth (%s%%)"),
	when(func(a *property.Attributes) bool { return is(a.SchoolZoneQuality, property.SchoolZoneAverage) }, "Average school zone"),
	when(func(a *property.Attributes) bool { return isFalse(a.ViableForLongTermHold) }, "Not ideal for long-term hold"),
}

// ExtractInsights derives strength and risk statements from the raw
// attributes. Lists are truncated to the caps in rule order and are never
// empty; a cap below 1 is treated as 1.
func ExtractInsights(a *property.Attributes, maxStrengths, maxRisks int) (strengths, risks []string) {
	strengths = apply(strengthRules, a, maxStrengths)
	if len(strengths) == 0 {
		strengths = []string{NoStrengthsPlaceholder}
	}
	risks = apply(riskRules, a, maxRisks)
	if len(risks) == 0 {
		risks = []string{NoRisksPlaceholder}
	}
	return strengths, risks
}

func apply(rules []rule, a *property.Attributes, limit int) []string {
	if limit < 1 {
		limit = 1
	}
	var out []string
	for _, r := range rules {
		if len(out) == limit {
			break
		}
		if s, ok := r(a); ok {
			out = append(out, s)
		}
	}
	return out
}

func when(guard func(*property.Attributes) bool, statement string) rule {
	return func(a *property.Attributes) (string, bool) {
		return statement, guard(a)
	}
}

func percent(get func(*property.Attributes) *decimal.Decimal, guard func(decimal.Decimal) bool, format string) rule {
	return func(a *property.Attributes) (string, bool) {
		v := get(a)
		if v == nil || !guard(*v) {
			return "", false
		}
		return fmt.Sprintf(format, v.StringFixed(1)), true
	}
}

func isTrue(p *bool) bool  { return p != nil && *p }
func isFalse(p *bool) bool { return p != nil && !*p }

func is[T comparable](p *T, want T) bool { return p != nil && *p == want }
