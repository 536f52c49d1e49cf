package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/partselect-assistant/agent/contract"
	openrouterx "github.com/tanpawarit/partselect-assistant/pkg/openrouter"
)

// Role names a model slot. Router and summary default to the cheap model,
// specialists to the main one.
type Role string

const (
	RoleRouter  Role = "router"
	RoleSummary Role = "summary"
	RoleProduct Role = "product"
	RoleRepair  Role = "repair"
	RoleOrder   Role = "order"
)

// RoleFor returns the model slot of a specialist kind.
func RoleFor(kind contractx.SpecialistKind) Role {
	switch kind {
	case contractx.KindProduct:
		return RoleProduct
	case contractx.KindRepair:
		return RoleRepair
	case contractx.KindOrder:
		return RoleOrder
	default:
		return RoleRouter
	}
}

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" default:"openai/gpt-4o"`
	FastModel          string        `envconfig:"FAST_MODEL" split_words:"true" default:"openai/gpt-4o-mini"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.7"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"60s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true" default:"PartSelect Assistant"`

	RouterModel        string  `envconfig:"ROUTER_MODEL" split_words:"true"`
	SummaryModel       string  `envconfig:"SUMMARY_MODEL" split_words:"true"`
	ProductModel       string  `envconfig:"PRODUCT_MODEL" split_words:"true"`
	RepairModel        string  `envconfig:"REPAIR_MODEL" split_words:"true"`
	OrderModel         string  `envconfig:"ORDER_MODEL" split_words:"true"`
	RouterTemperature  float32 `envconfig:"ROUTER_TEMPERATURE" split_words:"true" default:"-1"`
	ProductTemperature float32 `envconfig:"PRODUCT_TEMPERATURE" split_words:"true" default:"-1"`
	RepairTemperature  float32 `envconfig:"REPAIR_TEMPERATURE" split_words:"true" default:"-1"`
	OrderTemperature   float32 `envconfig:"ORDER_TEMPERATURE" split_words:"true" default:"-1"`
}

// Ready reports whether an API key is configured. Without one the service
// starts but refuses chat requests.
func (c Config) Ready() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

func (c Config) Validate() error {
	if !c.Ready() {
		return fmt.Errorf("%w: llm api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(c.Model) == "" {
		return fmt.Errorf("%w: default model is required", contractx.ErrValidation)
	}
	return nil
}

func (c Config) OpenRouterFor(role Role) openrouterx.Config {
	modelName := strings.TrimSpace(c.Model)
	temp := c.Temperature
	maxCompletionToken := c.MaxCompletionToken

	pick := func(override string, overrideTemp float32) {
		if v := strings.TrimSpace(override); v != "" {
			modelName = v
		}
		if overrideTemp >= 0 {
			temp = overrideTemp
		}
	}

	switch role {
	case RoleRouter:
		if v := strings.TrimSpace(c.FastModel); v != "" {
			modelName = v
		}
		pick(c.RouterModel, c.RouterTemperature)
	case RoleSummary:
		if v := strings.TrimSpace(c.FastModel); v != "" {
			modelName = v
		}
		pick(c.SummaryModel, 0)
	case RoleProduct:
		pick(c.ProductModel, c.ProductTemperature)
	case RoleRepair:
		pick(c.RepairModel, c.RepairTemperature)
	case RoleOrder:
		pick(c.OrderModel, c.OrderTemperature)
	}

	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              modelName,
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        temp,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// NewChatModel builds the chat model of one role.
func (c Config) NewChatModel(ctx context.Context, role Role) (einomodel.ToolCallingChatModel, error) {
	cfg := c.OpenRouterFor(role)
	m, err := cfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create %s model: %v", contractx.ErrModelInvoke, role, err)
	}
	return m, nil
}
