package contract

import (
	"strings"

	"github.com/cloudwego/eino/schema"
)

// ChatMessage is one transcript entry as supplied by the caller.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type Intent string

const (
	IntentProductSearch   Intent = "product_search"
	IntentCompatibility   Intent = "compatibility"
	IntentTroubleshooting Intent = "troubleshooting"
	IntentInstallation    Intent = "installation"
	IntentOrderLookup     Intent = "order_lookup"
	IntentGeneral         Intent = "general"

	// IntentBlocked is reserved for requests rejected by the input guardrail.
	IntentBlocked Intent = "blocked"
)

// Intents is the closed set the router may classify into.
var Intents = []Intent{
	IntentProductSearch,
	IntentCompatibility,
	IntentTroubleshooting,
	IntentInstallation,
	IntentOrderLookup,
	IntentGeneral,
}

func ParseIntent(raw string) (Intent, bool) {
	candidate := Intent(strings.ToLower(strings.TrimSpace(raw)))
	for _, in := range Intents {
		if in == candidate {
			return in, true
		}
	}
	return IntentGeneral, false
}

// SpecialistKind is the closed set of specialists. KindNone means the router answers directly.
type SpecialistKind int

const (
	KindNone SpecialistKind = iota
	KindProduct
	KindRepair
	KindOrder
)

func (k SpecialistKind) String() string {
	switch k {
	case KindProduct:
		return "product"
	case KindRepair:
		return "repair"
	case KindOrder:
		return "order"
	default:
		return "router"
	}
}

// SpecialistFor maps an intent onto the specialist that owns it.
func SpecialistFor(intent Intent) SpecialistKind {
	switch intent {
	case IntentProductSearch, IntentCompatibility:
		return KindProduct
	case IntentTroubleshooting, IntentInstallation:
		return KindRepair
	case IntentOrderLookup:
		return KindOrder
	default:
		return KindNone
	}
}

// Pseudo specialist labels reported to callers.
const (
	LabelRouter     = "router"
	LabelGuardrails = "guardrails"
)

type Entities struct {
	Query       string `json:"query,omitempty"`
	PSNumber    string `json:"ps_number,omitempty"`
	ModelNumber string `json:"model_number,omitempty"`
	OrderID     string `json:"order_id,omitempty"`
}

type Classification struct {
	Intent     Intent         `json:"intent"`
	Specialist SpecialistKind `json:"-"`
	Entities   Entities       `json:"entities"`
}

// Product is the card record embedded at the end of specialist answers.
type Product struct {
	PSNumber               string  `json:"ps_number"`
	Name                   string  `json:"name"`
	Price                  float64 `json:"price"`
	Brand                  string  `json:"brand"`
	Description            string  `json:"description"`
	URL                    string  `json:"url"`
	InStock                bool    `json:"in_stock"`
	Rating                 float64 `json:"rating"`
	ReviewCount            int     `json:"review_count"`
	InstallationDifficulty string  `json:"installation_difficulty"`
}

// Response is the blocking reply returned to the transport.
type Response struct {
	Response   string    `json:"response"`
	Products   []Product `json:"products"`
	Intent     string    `json:"intent"`
	Specialist string    `json:"specialist"`
}

type EventType string

const (
	EventMessage EventType = "message"
	EventDone    EventType = "done"
	EventError   EventType = "error"
)

// Event is one item of a streamed reply.
type Event struct {
	Type       EventType `json:"-"`
	Token      string    `json:"token,omitempty"`
	Intent     string    `json:"intent,omitempty"`
	Specialist string    `json:"specialist,omitempty"`
	Products   []Product `json:"products,omitempty"`
	Error      string    `json:"error,omitempty"`
}

// ToMessages converts caller transcript entries into model messages.
// Unknown roles are treated as user turns.
func ToMessages(in []ChatMessage) []*schema.Message {
	out := make([]*schema.Message, 0, len(in))
	for _, m := range in {
		var role schema.RoleType
		switch strings.ToLower(strings.TrimSpace(m.Role)) {
		case string(schema.Assistant):
			role = schema.Assistant
		case string(schema.System):
			role = schema.System
		default:
			role = schema.User
		}
		out = append(out, &schema.Message{Role: role, Content: m.Content})
	}
	return out
}
