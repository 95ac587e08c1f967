package export

import (
	"fmt"
	"time"

	"missiontrack/api/internal/mission"
)

type flagLine struct {
	field string
	label string
}

// sectionLayout fixes the order of flags in the recap, one section per phase.
var sectionLayout = []struct {
	title string
	flags []flagLine
}{
	{
		title: "Avant la mission",
		flags: []flagLine{
			{mission.FieldConflictCheck, "Conflict check"},
			{mission.FieldLabGroup, "LAB groupe"},
			{mission.FieldLabClient, "LAB dossier"},
			{mission.FieldCartoLabGroup, "Cartographie LAB groupe"},
			{mission.FieldCartoLabClient, "Cartographie LAB dossier"},
			{mission.FieldQAM, "QAM"},
			{mission.FieldLDM, "LDM"},
		},
	},
	{
		title: "Pendant la mission",
		flags: []flagLine{
			{mission.FieldNOG, "NOG"},
			{mission.FieldChecklist, "Checklist"},
			{mission.FieldReview, "Revue"},
			{mission.FieldSupervision, "Supervision"},
		},
	},
	{
		title: "Apres la mission",
		flags: []flagLine{
			{mission.FieldNDS, "NDS"},
			{mission.FieldQMM, "QMM"},
			{mission.FieldPlaquette, "Plaquette"},
			{mission.FieldRestitution, "Restitution"},
			{mission.FieldCR, "CR de mission"},
			{mission.FieldEndOfRelation, "Fin de relation client"},
		},
	},
}

// Service renders recap exports.
type Service struct{}

// NewService creates a new export service
func NewService() *Service {
	return &Service{}
}

// BuildRecap aggregates the visible missions into recap sections.
func (s *Service) BuildRecap(missions []mission.Record, title, generatedBy string) RecapData {
	data := RecapData{
		Title:       title,
		GeneratedBy: generatedBy,
		GeneratedAt: time.Now(),
	}

	for _, layout := range sectionLayout {
		section := RecapSection{Title: layout.title}
		for _, fl := range layout.flags {
			count := mission.Recap(missions, fl.field)
			c := mission.Completion{Done: count.Done, Total: count.Total}
			section.Rows = append(section.Rows, RecapRow{
				Field:    fl.field,
				Label:    fl.label,
				Done:     count.Done,
				Total:    count.Total,
				Percent:  c.Percent(),
				Literal:  c.Literal(),
				Complete: count.Complete,
			})
		}
		data.Sections = append(data.Sections, section)
	}

	return data
}

// Export renders the recap and converts it to the requested format.
func (s *Service) Export(data RecapData, req Request) (*Result, error) {
	html, err := RenderRecapHTML(data)
	if err != nil {
		return nil, fmt.Errorf("render template: %w", err)
	}

	switch req.Format {
	case FormatPDF:
		return exportPDF(html, data.Title)
	case FormatDOCX:
		return exportDOCX(html, data.Title)
	default:
		return nil, fmt.Errorf("unsupported format: %s", req.Format)
	}
}
