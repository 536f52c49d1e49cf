package catalog

import "github.com/uptrace/bun"

type Part struct {
	bun.BaseModel `bun:"table:parts,alias:p"`

	PSNumber               string   `bun:"ps_number,pk" json:"ps_number"`
	ManufacturerPart       string   `bun:"manufacturer_part" json:"manufacturer_part"`
	Name                   string   `bun:"name,notnull" json:"name"`
	Description            string   `bun:"description" json:"description"`
	Price                  float64  `bun:"price,notnull" json:"price"`
	Category               string   `bun:"category" json:"category"`
	Subcategory            string   `bun:"subcategory" json:"subcategory"`
	Brand                  string   `bun:"brand" json:"brand"`
	ImageURL               string   `bun:"image_url" json:"image_url"`
	URL                    string   `bun:"url" json:"url"`
	InStock                bool     `bun:"in_stock,notnull" json:"in_stock"`
	Rating                 float64  `bun:"rating,notnull" json:"rating"`
	ReviewCount            int      `bun:"review_count,notnull" json:"review_count"`
	InstallationDifficulty string   `bun:"installation_difficulty" json:"installation_difficulty"`
	Symptoms               []string `bun:"symptoms" json:"symptoms"`
	InstallationSteps      []string `bun:"installation_steps" json:"installation_steps"`
}

type ApplianceModel struct {
	bun.BaseModel `bun:"table:models,alias:m"`

	ModelNumber   string `bun:"model_number,pk" json:"model_number"`
	Brand         string `bun:"brand" json:"brand"`
	ApplianceType string `bun:"appliance_type" json:"appliance_type"`
	Name          string `bun:"name" json:"name"`
	URL           string `bun:"url" json:"url"`
}

type Compatibility struct {
	bun.BaseModel `bun:"table:part_model_compatibility,alias:pmc"`

	PSNumber    string `bun:"ps_number,pk"`
	ModelNumber string `bun:"model_number,pk"`
}

type TroubleshootingGuide struct {
	bun.BaseModel `bun:"table:troubleshooting_guides,alias:tg"`

	ProblemKey     string   `bun:"problem_key,pk" json:"problem_key"`
	Category       string   `bun:"category,notnull" json:"category"`
	Title          string   `bun:"title,notnull" json:"title"`
	Symptoms       []string `bun:"symptoms" json:"symptoms"`
	DiagnosisSteps []string `bun:"diagnosis_steps" json:"diagnosis_steps"`
}

type GuidePart struct {
	bun.BaseModel `bun:"table:guide_parts,alias:gp"`

	ProblemKey string `bun:"problem_key,pk"`
	PSNumber   string `bun:"ps_number,pk"`
}

type InstallationGuide struct {
	bun.BaseModel `bun:"table:installation_guides,alias:ig"`

	PSNumber       string   `bun:"ps_number,pk" json:"ps_number"`
	Difficulty     string   `bun:"difficulty" json:"difficulty"`
	TimeEstimate   string   `bun:"time_estimate" json:"time_estimate"`
	ToolsNeeded    []string `bun:"tools_needed" json:"tools_needed"`
	SafetyWarnings []string `bun:"safety_warnings" json:"safety_warnings"`
	Steps          []string `bun:"steps" json:"steps"`
}

type Order struct {
	bun.BaseModel `bun:"table:orders,alias:o"`

	OrderID           string      `bun:"order_id,pk" json:"order_id"`
	Status            string      `bun:"status" json:"status"`
	CustomerName      string      `bun:"customer_name" json:"customer_name"`
	OrderDate         string      `bun:"order_date" json:"order_date"`
	EstimatedDelivery string      `bun:"estimated_delivery" json:"estimated_delivery"`
	Total             float64     `bun:"total,notnull" json:"total"`
	TrackingNumber    string      `bun:"tracking_number" json:"tracking_number"`
	Carrier           string      `bun:"carrier" json:"carrier"`
	Items             []OrderItem `bun:"items" json:"items"`
}

type OrderItem struct {
	PSNumber string  `json:"ps_number"`
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// tables lists every model in creation order.
var tables = []any{
	(*Part)(nil),
	(*ApplianceModel)(nil),
	(*Compatibility)(nil),
	(*TroubleshootingGuide)(nil),
	(*GuidePart)(nil),
	(*InstallationGuide)(nil),
	(*Order)(nil),
}

// CompatibilityCheck answers whether a part fits a model. Compatible is nil
// when the model is unknown.
type CompatibilityCheck struct {
	Part        Part
	Model       *ApplianceModel
	ModelNumber string
	Compatible  *bool
}

type ModelDetails struct {
	Model           ApplianceModel
	CompatibleParts []Part
}

type GuideMatch struct {
	Guide            TroubleshootingGuide
	RecommendedParts []Part
}

type InstallationDetails struct {
	Guide    InstallationGuide
	PartName string
}

type Stats struct {
	Parts                 int `json:"parts"`
	Models                int `json:"models"`
	CompatibilityLinks    int `json:"compatibility_links"`
	TroubleshootingGuides int `json:"troubleshooting_guides"`
	InstallationGuides    int `json:"installation_guides"`
	Orders                int `json:"orders"`
}
