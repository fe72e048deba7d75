package property

import "strings"

// PropertyType is the dwelling classification of a listing.
type PropertyType string

const (
	PropertyTypeUnknown   PropertyType = "unknown"
	PropertyTypeHouse     PropertyType = "house"
	PropertyTypeTownhouse PropertyType = "townhouse"
	PropertyTypeUnit      PropertyType = "unit"
	PropertyTypeDuplex    PropertyType = "duplex"
	PropertyTypeVilla     PropertyType = "villa"
	PropertyTypeLand      PropertyType = "land"
)

var propertyTypeNames = map[string]PropertyType{
	"house":     PropertyTypeHouse,
	"townhouse": PropertyTypeTownhouse,
	"unit":      PropertyTypeUnit,
	"apartment": PropertyTypeUnit,
	"duplex":    PropertyTypeDuplex,
	"villa":     PropertyTypeVilla,
	"land":      PropertyTypeLand,
}

func ParsePropertyType(s string) PropertyType {
	return lookup(propertyTypeNames, s, PropertyTypeUnknown)
}

func (v *PropertyType) UnmarshalText(b []byte) error {
	*v = ParsePropertyType(string(b))
	return nil
}

// LandOwnership is the tenure under which the land is held.
type LandOwnership string

const (
	LandOwnershipUnknown   LandOwnership = "unknown"
	LandOwnershipFreehold  LandOwnership = "freehold"
	LandOwnershipStrata    LandOwnership = "strata"
	LandOwnershipLeasehold LandOwnership = "leasehold"
)

var landOwnershipNames = map[string]LandOwnership{
	"freehold":  LandOwnershipFreehold,
	"strata":    LandOwnershipStrata,
	"leasehold": LandOwnershipLeasehold,
}

func ParseLandOwnership(s string) LandOwnership {
	return lookup(landOwnershipNames, s, LandOwnershipUnknown)
}

func (v *LandOwnership) UnmarshalText(b []byte) error {
	*v = ParseLandOwnership(string(b))
	return nil
}

type Zoning string

const (
	ZoningUnknown     Zoning = "unknown"
	ZoningResidential Zoning = "residential"
	ZoningMixedUse    Zoning = "mixed use"
	ZoningCommercial  Zoning = "commercial"
	ZoningIndustrial  Zoning = "industrial"
)

var zoningNames = map[string]Zoning{
	"residential": ZoningResidential,
	"mixed":       ZoningMixedUse,
	"mixed use":   ZoningMixedUse,
	"mixed-use":   ZoningMixedUse,
	"commercial":  ZoningCommercial,
	"industrial":  ZoningIndustrial,
}

func ParseZoning(s string) Zoning {
	return lookup(zoningNames, s, ZoningUnknown)
}

func (v *Zoning) UnmarshalText(b []byte) error {
	*v = ParseZoning(string(b))
	return nil
}

type LocationCategory string

const (
	LocationUnknown  LocationCategory = "unknown"
	LocationMetro    LocationCategory = "metro"
	LocationRegional LocationCategory = "regional"
	LocationRural    LocationCategory = "rural"
)

var locationNames = map[string]LocationCategory{
	"metro":        LocationMetro,
	"metropolitan": LocationMetro,
	"regional":     LocationRegional,
	"rural":        LocationRural,
}

func ParseLocationCategory(s string) LocationCategory {
	return lookup(locationNames, s, LocationUnknown)
}

func (v *LocationCategory) UnmarshalText(b []byte) error {
	*v = ParseLocationCategory(string(b))
	return nil
}

type SchoolZone string

const (
	SchoolZoneUnknown      SchoolZone = "unknown"
	SchoolZoneTopTier      SchoolZone = "top-tier"
	SchoolZoneGood         SchoolZone = "good"
	SchoolZoneAverage      SchoolZone = "average"
	SchoolZoneBelowAverage SchoolZone = "below average"
)

var schoolZoneNames = map[string]SchoolZone{
	"top-tier":      SchoolZoneTopTier,
	"top tier":      SchoolZoneTopTier,
	"excellent":     SchoolZoneTopTier,
	"good":          SchoolZoneGood,
	"average":       SchoolZoneAverage,
	"below average": SchoolZoneBelowAverage,
	"below-average": SchoolZoneBelowAverage,
}

func ParseSchoolZone(s string) SchoolZone {
	return lookup(schoolZoneNames, s, SchoolZoneUnknown)
}

func (v *SchoolZone) UnmarshalText(b []byte) error {
	*v = ParseSchoolZone(string(b))
	return nil
}

// Level is the shared low/medium/high scale used by local demand and risk rating.
type Level string

const (
	LevelUnknown Level = "unknown"
	LevelLow     Level = "low"
	LevelMedium  Level = "medium"
	LevelHigh    Level = "high"
)

var levelNames = map[string]Level{
	"low":    LevelLow,
	"medium": LevelMedium,
	"high":   LevelHigh,
}

func ParseLevel(s string) Level {
	return lookup(levelNames, s, LevelUnknown)
}

func (v *Level) UnmarshalText(b []byte) error {
	*v = ParseLevel(string(b))
	return nil
}

type MaintenanceLevel string

const (
	MaintenanceUnknown   MaintenanceLevel = "unknown"
	MaintenanceMinimal   MaintenanceLevel = "minimal"
	MaintenanceModerate  MaintenanceLevel = "moderate"
	MaintenanceExtensive MaintenanceLevel = "extensive"
)

var maintenanceNames = map[string]MaintenanceLevel{
	"minimal":   MaintenanceMinimal,
	"moderate":  MaintenanceModerate,
	"extensive": MaintenanceExtensive,
}

func ParseMaintenanceLevel(s string) MaintenanceLevel {
	return lookup(maintenanceNames, s, MaintenanceUnknown)
}

func (v *MaintenanceLevel) UnmarshalText(b []byte) error {
	*v = ParseMaintenanceLevel(string(b))
	return nil
}

// lookup matches case-insensitively after trimming; anything unrecognised
// collapses to the unknown variant rather than failing the whole record.
func lookup[T ~string](names map[string]T, s string, unknown T) T {
	if v, ok := names[strings.ToLower(strings.TrimSpace(s))]; ok {
		return v
	}
	return unknown
}
