package gear

import (
	"github.com/shopspring/decimal"

	"github.com/NissanArmada/GazooRazoo/pkg/model"
)

// Scorecard counts classified shifts
type Scorecard struct {
	Total   int `json:"total"`
	Optimal int `json:"optimal"`
	Early   int `json:"early"`
	Late    int `json:"late"`
}

var grades = []struct {
	above decimal.Decimal
	grade string
}{
	{decimal.NewFromInt(95), "A+"},
	{decimal.NewFromInt(90), "A"},
	{decimal.NewFromInt(85), "B+"},
	{decimal.NewFromInt(80), "B"},
	{decimal.NewFromInt(70), "C"},
	{decimal.NewFromInt(60), "D"},
}

func (s *Scorecard) add(c model.ShiftClass) {
	s.Total++
	switch c {
	case model.ShiftOptimal:
		s.Optimal++
	case model.ShiftEarly:
		s.Early++
	case model.ShiftLate:
		s.Late++
	}
}

// Percentage returns the share of optimal shifts in percent
func (s Scorecard) Percentage() decimal.Decimal {
	if s.Total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(s.Optimal)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(s.Total)))
}

func (s Scorecard) Grade() string {
	if s.Total == 0 {
		return "N/A"
	}
	pct := s.Percentage()
	for _, g := range grades {
		if pct.GreaterThan(g.above) {
			return g.grade
		}
	}
	return "F"
}
