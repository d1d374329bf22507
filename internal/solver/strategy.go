package solver

import (
	"fmt"
	"sort"

	"github.com/papapumpkin/agroplan/internal/planerr"
)

// Strategy configures the search of an engine over the decision variables.
type Strategy func(e Engine, vars []Var) error

// StrategyInfo describes a registered strategy.
type StrategyInfo struct {
	Name        string
	Description string
	Apply       Strategy
}

var strategies = map[string]StrategyInfo{}

// Register adds a strategy to the table. It panics on duplicate names, since
// registration only happens from init functions.
func Register(info StrategyInfo) {
	if _, dup := strategies[info.Name]; dup {
		panic(fmt.Sprintf("solver: strategy %q registered twice", info.Name))
	}
	strategies[info.Name] = info
}

// Strategies returns the registered strategies sorted by name.
func Strategies() []StrategyInfo {
	out := make([]StrategyInfo, 0, len(strategies))
	for _, s := range strategies {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// LookupStrategy returns the strategy registered under name.
func LookupStrategy(name string) (Strategy, error) {
	s, ok := strategies[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown search strategy %q", planerr.ErrConfiguration, name)
	}
	return s.Apply, nil
}

func heuristic(h Heuristic) Strategy {
	return func(e Engine, vars []Var) error {
		return e.SetSearch(h, vars)
	}
}

func init() {
	Register(StrategyInfo{
		Name:        "default",
		Description: "engine default search",
		Apply:       func(Engine, []Var) error { return nil },
	})
	Register(StrategyInfo{
		Name:        "input_order",
		Description: "variables in slot order, smallest bed first",
		Apply:       heuristic(Heuristic{Vars: InputOrder, Values: MinValue}),
	})
	Register(StrategyInfo{
		Name:        "input_order_max",
		Description: "variables in slot order, largest bed first",
		Apply:       heuristic(Heuristic{Vars: InputOrder, Values: MaxValue}),
	})
	Register(StrategyInfo{
		Name:        "first_fail",
		Description: "smallest domain first",
		Apply:       heuristic(Heuristic{Vars: FirstFail, Values: MinValue}),
	})
	Register(StrategyInfo{
		Name:        "most_constrained",
		Description: "variable in most constraints first",
		Apply:       heuristic(Heuristic{Vars: MostConstrained, Values: MinValue}),
	})
}
