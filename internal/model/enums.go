package model

import "strings"

// ContainerType: вид операции с контейнером.
type ContainerType string

const (
	ContainerImport   ContainerType = "Import"
	ContainerExport   ContainerType = "Export"
	ContainerDelivery ContainerType = "Delivery"
)

// ContainerTypes lists every known container type.
var ContainerTypes = []ContainerType{ContainerImport, ContainerExport, ContainerDelivery}

// Valid reports whether t is one of the known types.
func (t ContainerType) Valid() bool {
	for _, k := range ContainerTypes {
		if t == k {
			return true
		}
	}
	return false
}

// ParseContainerType is case-insensitive; anything unrecognised falls back to Import.
func ParseContainerType(s string) ContainerType {
	if t, ok := LookupContainerType(s); ok {
		return t
	}
	return ContainerImport
}

// LookupContainerType returns the matching type and false for unknown input.
func LookupContainerType(s string) (ContainerType, bool) {
	s = strings.TrimSpace(s)
	for _, k := range ContainerTypes {
		if strings.EqualFold(s, string(k)) {
			return k, true
		}
	}
	return "", false
}

// PackageType: тип упаковки в подсчёте мест.
type PackageType string

const (
	PackageCrates  PackageType = "Crates"
	PackagePallets PackageType = "Pallets"
	PackageCoils   PackageType = "Coils"
	PackageReels   PackageType = "Reels"
	PackageBundles PackageType = "Bundles"
	PackageCartons PackageType = "Cartons"
	PackageCar     PackageType = "Car"
	PackageBike    PackageType = "Bike"
	PackageBoat    PackageType = "Boat"
	PackageOther   PackageType = "Other"
)

// PackageTypes lists every known package type.
var PackageTypes = []PackageType{
	PackageCrates, PackagePallets, PackageCoils, PackageReels, PackageBundles,
	PackageCartons, PackageCar, PackageBike, PackageBoat, PackageOther,
}

// Valid reports whether p is one of the known package types.
func (p PackageType) Valid() bool {
	for _, k := range PackageTypes {
		if p == k {
			return true
		}
	}
	return false
}

// ParsePackageType is case-insensitive; anything unrecognised becomes Other.
func ParsePackageType(s string) PackageType {
	if p, ok := LookupPackageType(s); ok {
		return p
	}
	return PackageOther
}

// LookupPackageType returns the matching package type and false for unknown input.
func LookupPackageType(s string) (PackageType, bool) {
	s = strings.TrimSpace(s)
	for _, k := range PackageTypes {
		if strings.EqualFold(s, string(k)) {
			return k, true
		}
	}
	return "", false
}

// MaterialType: расходные материалы, выданные под контейнер.
type MaterialType string

const (
	MaterialPallets    MaterialType = "Pallets"
	MaterialShrinkWrap MaterialType = "Shrink Wrap"
	MaterialAirBags    MaterialType = "Air Bags"
	MaterialDunnage    MaterialType = "Dunnage"
)

// MaterialTypes lists every known material.
var MaterialTypes = []MaterialType{MaterialPallets, MaterialShrinkWrap, MaterialAirBags, MaterialDunnage}

// Valid reports whether m is one of the known materials.
func (m MaterialType) Valid() bool {
	for _, k := range MaterialTypes {
		if m == k {
			return true
		}
	}
	return false
}

// LookupMaterialType is case-insensitive. There is no catch-all material, so unknown input
// reports false and callers drop it.
func LookupMaterialType(s string) (MaterialType, bool) {
	s = strings.TrimSpace(s)
	for _, k := range MaterialTypes {
		if strings.EqualFold(s, string(k)) {
			return k, true
		}
	}
	return "", false
}
