package credits

import (
	"fmt"
	"strings"

	"github.com/hydrooooooooooo/Testingfun-sub003/app/models"
)

// Unit costs in credits per billable unit.
const (
	CostPerMarketplaceItem = 1
	CostPerFacebookPost    = 2
	CostPerFacebookComment = 1
	CostPerAnalysisRun     = 10
	CostPerAnalysisItem100 = 5 // per started block of 100 analyzed items
)

// EstimateParams describe a billable operation.
type EstimateParams struct {
	ServiceType string `json:"service_type" validate:"required"`
	ItemCount   int    `json:"item_count" validate:"min=0"`
	PageCount   int    `json:"page_count" validate:"min=0"`
}

// BreakdownLine is one costed component of the estimate.
type BreakdownLine struct {
	Label    string `json:"label"`
	Quantity int    `json:"quantity"`
	UnitCost int64  `json:"unit_cost"`
	Cost     int64  `json:"cost"`
}

// Estimate is the user-facing cost summary compared against a balance.
type Estimate struct {
	ServiceType string          `json:"service_type"`
	TotalCost   int64           `json:"total_cost"`
	Balance     int64           `json:"balance"`
	HasEnough   bool            `json:"has_enough"`
	Shortfall   int64           `json:"shortfall"`
	Breakdown   []BreakdownLine `json:"breakdown"`
}

// Cost computes the credit cost for the given operation. Strictly
// non-decreasing in ItemCount and PageCount.
func Cost(p EstimateParams) (int64, []BreakdownLine, error) {
	items := p.ItemCount
	if items < 0 {
		items = 0
	}
	pages := p.PageCount
	if pages < 0 {
		pages = 0
	}

	switch strings.TrimSpace(p.ServiceType) {
	case models.SERVICE_MARKETPLACE:
		line := costLine("annonces marketplace", items, CostPerMarketplaceItem)
		return line.Cost, []BreakdownLine{line}, nil
	case models.SERVICE_FACEBOOK_POSTS:
		line := costLine("publications Facebook", items, CostPerFacebookPost)
		return line.Cost, []BreakdownLine{line}, nil
	case models.SERVICE_FACEBOOK_COMMENTS:
		line := costLine("commentaires Facebook", items, CostPerFacebookComment)
		return line.Cost, []BreakdownLine{line}, nil
	case models.SERVICE_AI_ANALYSIS:
		base := costLine("analyse IA (forfait)", 1, CostPerAnalysisRun)
		blocks := (items + 99) / 100
		volume := costLine("volume analysé (par 100 éléments)", blocks, CostPerAnalysisItem100)
		return base.Cost + volume.Cost, []BreakdownLine{base, volume}, nil
	default:
		return 0, nil, fmt.Errorf("unknown service type %q", p.ServiceType)
	}
}

// EstimateFor computes cost and compares it against the given balance.
func EstimateFor(p EstimateParams, balance int64) (*Estimate, error) {
	total, breakdown, err := Cost(p)
	if err != nil {
		return nil, err
	}

	est := &Estimate{
		ServiceType: p.ServiceType,
		TotalCost:   total,
		Balance:     balance,
		HasEnough:   balance >= total,
		Breakdown:   breakdown,
	}
	if !est.HasEnough {
		est.Shortfall = total - balance
	}
	return est, nil
}

func costLine(label string, quantity int, unitCost int64) BreakdownLine {
	return BreakdownLine{
		Label:    label,
		Quantity: quantity,
		UnitCost: unitCost,
		Cost:     int64(quantity) * unitCost,
	}
}
