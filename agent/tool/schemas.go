// Package tool binds model tool calls to catalog and semantic-index lookups.
package tool

import (
	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
)

const (
	SearchProducts          = "search_products"
	CheckCompatibility      = "check_compatibility"
	GetModelInfo            = "get_model_info"
	GetTroubleshootingGuide = "get_troubleshooting_guide"
	GetInstallationGuide    = "get_installation_guide"
	LookupOrder             = "lookup_order"
)

var categoryEnum = []string{"refrigerator", "dishwasher"}

var (
	searchProductsInfo = &schema.ToolInfo{
		Name: SearchProducts,
		Desc: "Search for refrigerator or dishwasher replacement parts by keyword, part number, symptom, or description.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"query":    {Type: schema.String, Desc: "PS number, part name, symptom, or natural language", Required: true},
			"category": {Type: schema.String, Desc: "Optional: filter by appliance type", Enum: categoryEnum},
		}),
	}

	checkCompatibilityInfo = &schema.ToolInfo{
		Name: CheckCompatibility,
		Desc: "Check if a specific part is compatible with a specific appliance model.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"ps_number":    {Type: schema.String, Desc: "e.g. 'PS11752778'", Required: true},
			"model_number": {Type: schema.String, Desc: "e.g. 'WDT780SAEM1'", Required: true},
		}),
	}

	getModelInfoInfo = &schema.ToolInfo{
		Name: GetModelInfo,
		Desc: "Get information about an appliance model and all its compatible parts.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"model_number": {Type: schema.String, Desc: "e.g. 'WDT780SAEM1'", Required: true},
		}),
	}

	getTroubleshootingGuideInfo = &schema.ToolInfo{
		Name: GetTroubleshootingGuide,
		Desc: "Get a troubleshooting guide for a specific appliance problem or symptom.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"category": {Type: schema.String, Desc: "Appliance type", Enum: categoryEnum, Required: true},
			"symptom":  {Type: schema.String, Desc: "e.g. 'ice maker not working' or 'not draining'", Required: true},
		}),
	}

	getInstallationGuideInfo = &schema.ToolInfo{
		Name: GetInstallationGuide,
		Desc: "Get step-by-step installation instructions for a specific part.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"ps_number": {Type: schema.String, Desc: "PS number of the part", Required: true},
		}),
	}

	lookupOrderInfo = &schema.ToolInfo{
		Name: LookupOrder,
		Desc: "Look up an order by order ID to check status, tracking, and details.",
		ParamsOneOf: schema.NewParamsOneOfByParams(map[string]*schema.ParameterInfo{
			"order_id": {Type: schema.String, Desc: "e.g. 'ORD-2024-78432'", Required: true},
		}),
	}
)

// InfosFor returns the fixed tool set a specialist may call.
func InfosFor(kind contractx.SpecialistKind) []*schema.ToolInfo {
	switch kind {
	case contractx.KindProduct:
		return []*schema.ToolInfo{searchProductsInfo, checkCompatibilityInfo, getModelInfoInfo}
	case contractx.KindRepair:
		return []*schema.ToolInfo{getTroubleshootingGuideInfo, getInstallationGuideInfo, searchProductsInfo}
	case contractx.KindOrder:
		return []*schema.ToolInfo{lookupOrderInfo}
	default:
		return nil
	}
}

// Names lists the tool names of InfosFor(kind).
func Names(kind contractx.SpecialistKind) []string {
	infos := InfosFor(kind)
	out := make([]string, 0, len(infos))
	for _, info := range infos {
		out = append(out, info.Name)
	}
	return out
}
