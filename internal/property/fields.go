package property

import (
	"sort"

	"github.com/shopspring/decimal"
)

type Kind int

const (
	KindNumber Kind = iota
	KindFlag
	KindCategory
)

func (k Kind) String() string {
	switch k {
	case KindNumber:
		return "number"
	case KindFlag:
		return "flag"
	case KindCategory:
		return "category"
	default:
		return "invalid"
	}
}

// Field describes one attribute by its JSON name so rubric profiles can
// refer to attributes as data.
type Field struct {
	Name string
	Kind Kind

	present  func(*Attributes) bool
	merge    func(a, b *Attributes)
	number   func(*Attributes) (decimal.Decimal, bool)
	flag     func(*Attributes) (bool, bool)
	category func(*Attributes) (string, bool)
	parse    func(string) string
}

func (f Field) Present(a *Attributes) bool { return f.present(a) }

// Number returns the value of a numeric field.
func (f Field) Number(a *Attributes) (decimal.Decimal, bool) {
	if f.number == nil {
		return decimal.Zero, false
	}
	return f.number(a)
}

// Flag returns the value of a boolean field.
func (f Field) Flag(a *Attributes) (bool, bool) {
	if f.flag == nil {
		return false, false
	}
	return f.flag(a)
}

// Category returns the canonical variant name of an enum field.
func (f Field) Category(a *Attributes) (string, bool) {
	if f.category == nil {
		return "", false
	}
	return f.category(a)
}

// Canonical maps free text to the field's canonical variant name.
// ok is false when the text does not name a known variant.
func (f Field) Canonical(s string) (string, bool) {
	if f.parse == nil {
		return "", false
	}
	v := f.parse(s)
	return v, v != unknownVariant
}

const unknownVariant = "unknown"

// Lookup returns the field registered under name.
func Lookup(name string) (Field, bool) {
	f, ok := byName[name]
	return f, ok
}

// Fields lists every registered field name in sorted order.
func Fields() []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

var registry = []Field{
	categoryField("propertyType", func(a *Attributes) **PropertyType { return &a.PropertyType }, ParsePropertyType),
	categoryField("landOwnership", func(a *Attributes) **LandOwnership { return &a.LandOwnership }, ParseLandOwnership),
	boolField("hasClearTitle", func(a *Attributes) **bool { return &a.HasClearTitle }),
	boolField("hasEncumbrances", func(a *Attributes) **bool { return &a.HasEncumbrances }),
	categoryField("zoning", func(a *Attributes) **Zoning { return &a.Zoning }, ParseZoning),

	categoryField("locationCategory", func(a *Attributes) **LocationCategory { return &a.LocationCategory }, ParseLocationCategory),
	intField("distanceToCbdKm", func(a *Attributes) **int { return &a.DistanceToCbdKm }),
	categoryField("schoolZoneQuality", func(a *Attributes) **SchoolZone { return &a.SchoolZoneQuality }, ParseSchoolZone),
	intField("distanceToPublicTransportMeters", func(a *Attributes) **int { return &a.DistanceToPublicTransportMeters }),
	categoryField("localDemand", func(a *Attributes) **Level { return &a.LocalDemand }, ParseLevel),

	decimalField("rentalYieldPercentage", func(a *Attributes) **decimal.Decimal { return &a.RentalYieldPercentage }),
	decimalField("capitalGrowthPercentage", func(a *Attributes) **decimal.Decimal { return &a.CapitalGrowthPercentage }),
	decimalField("vacancyRatePercentage", func(a *Attributes) **decimal.Decimal { return &a.VacancyRatePercentage }),

	boolField("hasStructuralIssues", func(a *Attributes) **bool { return &a.HasStructuralIssues }),
	intField("propertyAgeYears", func(a *Attributes) **int { return &a.PropertyAgeYears }),
	boolField("hasMajorDefects", func(a *Attributes) **bool { return &a.HasMajorDefects }),
	categoryField("maintenanceLevel", func(a *Attributes) **MaintenanceLevel { return &a.MaintenanceLevel }, ParseMaintenanceLevel),
	boolField("meetsCurrentBuildingCodes", func(a *Attributes) **bool { return &a.MeetsCurrentBuildingCodes }),
	boolField("hasRequiredCertificates", func(a *Attributes) **bool { return &a.HasRequiredCertificates }),

	boolField("hasLongTermTenants", func(a *Attributes) **bool { return &a.HasLongTermTenants }),
	boolField("hasReliablePaymentHistory", func(a *Attributes) **bool { return &a.HasReliablePaymentHistory }),
	intField("leaseRemainingMonths", func(a *Attributes) **int { return &a.LeaseRemainingMonths }),
	boolField("hasConsistentRentalHistory", func(a *Attributes) **bool { return &a.HasConsistentRentalHistory }),

	decimalField("cashFlowCoverageRatio", func(a *Attributes) **decimal.Decimal { return &a.CashFlowCoverageRatio }),
	boolField("meetsServiceabilityRequirements", func(a *Attributes) **bool { return &a.MeetsServiceabilityRequirements }),
	decimalField("loanToValueRatio", func(a *Attributes) **decimal.Decimal { return &a.LoanToValueRatio }),
	decimalField("annualInsuranceCost", func(a *Attributes) **decimal.Decimal { return &a.AnnualInsuranceCost }),
	boolField("suitableForCrossCollateral", func(a *Attributes) **bool { return &a.SuitableForCrossCollateral }),
	decimalField("equityAvailable", func(a *Attributes) **decimal.Decimal { return &a.EquityAvailable }),
	boolField("eligibleForRefinance", func(a *Attributes) **bool { return &a.EligibleForRefinance }),

	boolField("hasStableSaleHistory", func(a *Attributes) **bool { return &a.HasStableSaleHistory }),
	intField("yearsSinceLastSale", func(a *Attributes) **int { return &a.YearsSinceLastSale }),
	intField("daysOnMarket", func(a *Attributes) **int { return &a.DaysOnMarket }),
	boolField("hasStrongComparables", func(a *Attributes) **bool { return &a.HasStrongComparables }),
	boolField("isUniqueProperty", func(a *Attributes) **bool { return &a.IsUniqueProperty }),

	boolField("acceptedByMajorLenders", func(a *Attributes) **bool { return &a.AcceptedByMajorLenders }),
	categoryField("riskRating", func(a *Attributes) **Level { return &a.RiskRating }, ParseLevel),
	boolField("hasDevelopmentRisk", func(a *Attributes) **bool { return &a.HasDevelopmentRisk }),
	boolField("fitsPortfolioDiversity", func(a *Attributes) **bool { return &a.FitsPortfolioDiversity }),
	boolField("viableForLongTermHold", func(a *Attributes) **bool { return &a.ViableForLongTermHold }),
}

var byName = indexFields(registry)

func indexFields(fields []Field) map[string]Field {
	m := make(map[string]Field, len(fields))
	for _, f := range fields {
		m[f.Name] = f
	}
	return m
}

func slot[T any](name string, kind Kind, get func(*Attributes) **T) Field {
	return Field{
		Name: name,
		Kind: kind,
		present: func(a *Attributes) bool {
			return *get(a) != nil
		},
		merge: func(a, b *Attributes) {
			if dst := get(a); *dst == nil {
				*dst = *get(b)
			}
		},
	}
}

func intField(name string, get func(*Attributes) **int) Field {
	f := slot(name, KindNumber, get)
	f.number = func(a *Attributes) (decimal.Decimal, bool) {
		p := *get(a)
		if p == nil {
			return decimal.Zero, false
		}
		return decimal.NewFromInt(int64(*p)), true
	}
	return f
}

func decimalField(name string, get func(*Attributes) **decimal.Decimal) Field {
	f := slot(name, KindNumber, get)
	f.number = func(a *Attributes) (decimal.Decimal, bool) {
		p := *get(a)
		if p == nil {
			return decimal.Zero, false
		}
		return *p, true
	}
	return f
}

func boolField(name string, get func(*Attributes) **bool) Field {
	f := slot(name, KindFlag, get)
	f.flag = func(a *Attributes) (bool, bool) {
		p := *get(a)
		if p == nil {
			return false, false
		}
		return *p, true
	}
	return f
}

func categoryField[T ~string](name string, get func(*Attributes) **T, parse func(string) T) Field {
	f := slot(name, KindCategory, get)
	f.category = func(a *Attributes) (string, bool) {
		p := *get(a)
		if p == nil {
			return "", false
		}
		return string(*p), true
	}
	f.parse = func(s string) string { return string(parse(s)) }
	return f
}
