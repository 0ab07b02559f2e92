package incidents

import (
	"context"

	"sentinel-ehs/core/store"
)

// PopulateReporter copies directory details for the reporting employee onto
// the record. A missing employee leaves the dependent fields untouched; the
// lookup is a population aid, never a validation gate.
func (s *Service) PopulateReporter(ctx context.Context, inc *store.Incident) error {
	if inc.EmployeeID == "" {
		return nil
	}
	emp, err := s.employees.Get(ctx, inc.EmployeeID)
	if err != nil {
		return err
	}
	if emp == nil {
		return nil
	}
	if inc.ReporterName == "" {
		inc.ReporterName = emp.FullName
	}
	if inc.ReporterCoyNumber == "" {
		inc.ReporterCoyNumber = emp.IDNumber
	}
	if inc.Employer == "" {
		inc.Employer = emp.Company
	}
	return nil
}

// PopulatePeople resolves each child row's employee reference and copies the
// name, company number, and date of birth it finds. Rows whose employee does
// not exist keep whatever was typed in.
func (s *Service) PopulatePeople(ctx context.Context, inc *store.Incident) error {
	for i := range inc.People {
		row := &inc.People[i]
		if row.EmployeeID == "" {
			continue
		}
		emp, err := s.employees.Get(ctx, row.EmployeeID)
		if err != nil {
			return err
		}
		if emp == nil {
			continue
		}
		if row.FullName == "" {
			row.FullName = emp.FullName
		}
		if row.CoyNumber == "" {
			row.CoyNumber = emp.IDNumber
		}
		if row.DateOfBirth == nil {
			row.DateOfBirth = emp.DateOfBirth
		}
	}
	return nil
}

// PopulateEquipment fills the mobile-equipment section from the asset
// registry when a vehicle is selected. Not-found is a no-op.
func (s *Service) PopulateEquipment(ctx context.Context, inc *store.Incident) error {
	if inc.Equipment.VehicleID == "" {
		return nil
	}
	asset, err := s.assets.Get(ctx, inc.Equipment.VehicleID)
	if err != nil {
		return err
	}
	if asset == nil {
		return nil
	}
	inc.Equipment.AssetName = asset.Name
	inc.Equipment.VehicleCategory = asset.Category
	inc.Equipment.Manufacturer = asset.Manufacturer
	inc.Equipment.Model = asset.Model
	inc.Equipment.LicensePlate = asset.LicensePlate
	inc.Equipment.PlantLocation = asset.PlantLocation
	inc.Equipment.CompanyOwned = asset.CompanyOwned
	inc.Equipment.Operational = asset.Operational
	return nil
}

// Populate runs every cross-record lookup in one call, the way a form refresh
// does before the recompute pass.
func (s *Service) Populate(ctx context.Context, inc *store.Incident) error {
	if err := s.PopulateReporter(ctx, inc); err != nil {
		return err
	}
	if err := s.PopulatePeople(ctx, inc); err != nil {
		return err
	}
	return s.PopulateEquipment(ctx, inc)
}
