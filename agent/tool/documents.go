package tool

import "github.com/tanpawarit/partselect-assistant/agent/catalog"

const descriptionLimit = 200

type errorDoc struct {
	Found      *bool        `json:"found,omitempty"`
	Error      string       `json:"error"`
	Part       *partSummary `json:"part,omitempty"`
	Suggestion string       `json:"suggestion,omitempty"`
}

// partSummary is the part shape every tool document shares.
type partSummary struct {
	PSNumber               string  `json:"ps_number"`
	Name                   string  `json:"name"`
	ManufacturerPart       string  `json:"manufacturer_part"`
	Price                  float64 `json:"price"`
	Category               string  `json:"category"`
	Brand                  string  `json:"brand"`
	InStock                bool    `json:"in_stock"`
	Rating                 float64 `json:"rating"`
	ReviewCount            int     `json:"review_count"`
	InstallationDifficulty string  `json:"installation_difficulty"`
	URL                    string  `json:"url"`
	Description            string  `json:"description"`
}

type searchDoc struct {
	Results []partSummary `json:"results"`
	Count   int           `json:"count"`
}

type compatibilityDoc struct {
	Found       bool                    `json:"found"`
	Compatible  *bool                   `json:"compatible"`
	Part        partSummary             `json:"part"`
	ModelNumber string                  `json:"model_number"`
	ModelInfo   *catalog.ApplianceModel `json:"model_info,omitempty"`
	Message     string                  `json:"message"`
}

type modelDoc struct {
	catalog.ApplianceModel
	CompatibleParts []partSummary `json:"compatible_parts"`
}

type guideDoc struct {
	catalog.TroubleshootingGuide
	RecommendedParts []partSummary `json:"recommended_parts"`
}

type installationDoc struct {
	catalog.InstallationGuide
	PartName string `json:"part_name"`
}

func summarize(p catalog.Part) partSummary {
	desc := []rune(p.Description)
	if len(desc) > descriptionLimit {
		desc = desc[:descriptionLimit]
	}
	return partSummary{
		PSNumber:               p.PSNumber,
		Name:                   p.Name,
		ManufacturerPart:       p.ManufacturerPart,
		Price:                  p.Price,
		Category:               p.Category,
		Brand:                  p.Brand,
		InStock:                p.InStock,
		Rating:                 p.Rating,
		ReviewCount:            p.ReviewCount,
		InstallationDifficulty: p.InstallationDifficulty,
		URL:                    p.URL,
		Description:            string(desc),
	}
}

func summarizeAll(parts []catalog.Part) []partSummary {
	out := make([]partSummary, 0, len(parts))
	for _, p := range parts {
		out = append(out, summarize(p))
	}
	return out
}
