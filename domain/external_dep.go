package domain

import "slices"

// ExternalDependency is a bare package specifier and the modules importing it
type ExternalDependency struct {
	// Specifier is the import source as written (e.g. "react", "lodash/fp")
	Specifier string `json:"specifier"`

	// ImportedBy is the sorted set of importing modules
	ImportedBy []ModuleID `json:"imported_by"`
}

// NewExternalDependency creates a record with no importers
func NewExternalDependency(specifier string) *ExternalDependency {
	return &ExternalDependency{Specifier: specifier}
}

// AddImporter records id as an importer; duplicates are ignored
func (d *ExternalDependency) AddImporter(id ModuleID) {
	idx, found := slices.BinarySearchFunc(d.ImportedBy, id, CompareModuleIDs)
	if found {
		return
	}
	d.ImportedBy = slices.Insert(d.ImportedBy, idx, id)
}

// RemoveImporter drops id from the importer set and reports whether it was present
func (d *ExternalDependency) RemoveImporter(id ModuleID) bool {
	idx, found := slices.BinarySearchFunc(d.ImportedBy, id, CompareModuleIDs)
	if !found {
		return false
	}
	d.ImportedBy = slices.Delete(d.ImportedBy, idx, idx+1)
	return true
}

// Merge folds other's importers into d
func (d *ExternalDependency) Merge(other *ExternalDependency) {
	for _, id := range other.ImportedBy {
		d.AddImporter(id)
	}
}

// Normalize sorts the importer set and drops duplicates
func (d *ExternalDependency) Normalize() {
	slices.SortFunc(d.ImportedBy, CompareModuleIDs)
	d.ImportedBy = slices.Compact(d.ImportedBy)
}

// PackageName returns the top-level package the specifier belongs to
func (d *ExternalDependency) PackageName() string {
	return ExtractPackageName(d.Specifier)
}

// Clone returns a deep copy
func (d *ExternalDependency) Clone() *ExternalDependency {
	if d == nil {
		return nil
	}
	return &ExternalDependency{
		Specifier:  d.Specifier,
		ImportedBy: slices.Clone(d.ImportedBy),
	}
}
