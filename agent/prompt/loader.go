package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/router.txt
	routerRaw string

	//go:embed template/general.txt
	generalRaw string

	//go:embed template/summary.txt
	summaryRaw string

	//go:embed template/product.txt
	productRaw string

	//go:embed template/repair.txt
	repairRaw string

	//go:embed template/order.txt
	orderRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Router  string
	General string
	Summary string
	Product string
	Repair  string
	Order   string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Router:  strings.TrimSpace(routerRaw),
		General: strings.TrimSpace(generalRaw),
		Summary: strings.TrimSpace(summaryRaw),
		Product: strings.TrimSpace(productRaw),
		Repair:  strings.TrimSpace(repairRaw),
		Order:   strings.TrimSpace(orderRaw),
	}
}
