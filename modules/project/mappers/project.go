// Package mappers translates the flat project wizard record to the real-estate
// asset DTOs and back.
package mappers

import (
	"github.com/iota-uz/onboarding/modules/project/dtos"
	m "github.com/iota-uz/onboarding/modules/stepper/domain/mapping"
	"github.com/iota-uz/onboarding/modules/stepper/domain/record"
	"github.com/iota-uz/onboarding/modules/stepper/domain/refdata"
)

// ProjectID is the record field holding the asset id; child rows carry it
// unwrapped from their realEstateAssetDTO reference.
const ProjectID = "projectId"

// Project details fields.
const (
	ProjectCode      = "projectCode"
	ProjectName      = "projectName"
	LocaleName       = "projectLocaleName"
	DeveloperName    = "developerName"
	Location         = "location"
	City             = "city"
	Cif              = "cif"
	StartDate        = "startDate"
	CompletionDate   = "completionDate"
	PercentComplete  = "percentComplete"
	TotalUnits       = "totalUnits"
	ConstructionCost = "constructionCost"
	CostCurrency     = "constructionCostCurrency"
	ProjectType      = "projectType"
	ProjectStatus    = "projectStatus"
	Remarks          = "projectRemarks"
)

var ProjectFields = []string{
	ProjectID, ProjectCode, ProjectName, LocaleName, DeveloperName, Location, City, Cif,
	StartDate, CompletionDate, PercentComplete, TotalUnits, ConstructionCost, CostCurrency,
	ProjectType, ProjectStatus, Remarks,
}

func ProjectToDTO(rec record.Record, cat refdata.Catalog) dtos.RealEstateAssetDTO {
	return dtos.RealEstateAssetDTO{
		Code:             m.String(rec, ProjectCode),
		Name:             m.String(rec, ProjectName),
		LocaleName:       m.String(rec, LocaleName),
		DeveloperName:    m.String(rec, DeveloperName),
		Location:         m.String(rec, Location),
		City:             m.String(rec, City),
		Cif:              m.String(rec, Cif),
		StartDate:        m.Date(rec, StartDate),
		CompletionDate:   m.Date(rec, CompletionDate),
		PercentComplete:  m.Amount(rec, PercentComplete),
		NoOfUnits:        m.Int(rec, TotalUnits),
		ConstructionCost: m.Amount(rec, ConstructionCost),
		Remarks:          m.String(rec, Remarks),
		TypeDTO:          m.Ref(cat, refdata.ProjectType, rec, ProjectType),
		StatusDTO:        m.Ref(cat, refdata.ProjectStatus, rec, ProjectStatus),
		CostCurrencyDTO:  m.Ref(cat, refdata.Currency, rec, CostCurrency),
	}
}

func ProjectFromDTO(dto dtos.RealEstateAssetDTO, cat refdata.Catalog) record.Record {
	out := record.Record{}
	if dto.ID > 0 {
		out[ProjectID] = dto.ID
	}
	m.SetString(out, ProjectCode, dto.Code)
	m.SetString(out, ProjectName, dto.Name)
	m.SetString(out, LocaleName, dto.LocaleName)
	m.SetString(out, DeveloperName, dto.DeveloperName)
	m.SetString(out, Location, dto.Location)
	m.SetString(out, City, dto.City)
	m.SetString(out, Cif, dto.Cif)
	m.SetDate(out, StartDate, dto.StartDate)
	m.SetDate(out, CompletionDate, dto.CompletionDate)
	m.SetAmount(out, PercentComplete, dto.PercentComplete)
	m.SetInt(out, TotalUnits, dto.NoOfUnits)
	m.SetAmount(out, ConstructionCost, dto.ConstructionCost)
	m.SetString(out, Remarks, dto.Remarks)
	m.SetRef(out, ProjectType, cat, refdata.ProjectType, dto.TypeDTO)
	m.SetRef(out, ProjectStatus, cat, refdata.ProjectStatus, dto.StatusDTO)
	m.SetRef(out, CostCurrency, cat, refdata.Currency, dto.CostCurrencyDTO)
	return out
}

// rowHeader sets the server id and the unwrapped asset id of an inbound row.
func rowHeader(id int64, asset *m.IDRef) record.Record {
	out := record.Record{}
	if id > 0 {
		out[record.IDField] = id
	}
	if v := asset.Value(); v > 0 {
		out[ProjectID] = v
	}
	return out
}
