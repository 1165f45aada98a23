// Package policy implements the discrete interventions that mutate
// config or population between run segments: Recession, MediaLiteracy,
// FoundPlatforms, TaxAdvertising, SubsidizeProduction, PopulationChange.
package policy

// Kind discriminates the six policy variants.
type Kind int

const (
	KindRecession Kind = iota
	KindMediaLiteracy
	KindFoundPlatforms
	KindTaxAdvertising
	KindSubsidizeProduction
	KindPopulationChange
)

// Target is whatever a Policy is applied to — the Simulation orchestrator
// implements this. Kept as an interface here (rather than importing
// internal/sim directly) so policy has no dependency on the orchestrator
// it mutates.
type Target interface {
	// ApplyRecession shifts several config fields toward attrition,
	// scaled by n.
	ApplyRecession(n int)
	// RaiseMediaLiteracy raises every agent's literacy by delta.
	RaiseMediaLiteracy(delta float64)
	// FoundPlatforms creates k additional Platforms.
	FoundPlatforms(k int)
	// SetAdvertisingTax sets the advertising_tax fraction.
	SetAdvertisingTax(t float64)
	// SetSubsidy sets the production subsidy.
	SetSubsidy(s float64)
	// AddPopulation adds n new agents: placed, relevancies set,
	// re-attached to the social network.
	AddPopulation(n int)
}

// Policy is one discrete intervention, tagged by Kind with the argument
// it was constructed with.
type Policy struct {
	kind Kind
	n    int
	f    float64
}

// Recession shifts several config fields toward attrition, scaled by n.
func Recession(n int) Policy { return Policy{kind: KindRecession, n: n} }

// MediaLiteracy raises every agent's literacy by delta.
func MediaLiteracy(delta float64) Policy { return Policy{kind: KindMediaLiteracy, f: delta} }

// FoundPlatforms creates k additional Platforms.
func FoundPlatforms(k int) Policy { return Policy{kind: KindFoundPlatforms, n: k} }

// TaxAdvertising sets the advertising_tax fraction.
func TaxAdvertising(t float64) Policy { return Policy{kind: KindTaxAdvertising, f: t} }

// SubsidizeProduction sets the production subsidy.
func SubsidizeProduction(s float64) Policy { return Policy{kind: KindSubsidizeProduction, f: s} }

// PopulationChange adds n new agents to the population.
func PopulationChange(n int) Policy { return Policy{kind: KindPopulationChange, n: n} }

// Kind reports which variant this Policy is, for callers (e.g. the
// control-channel adapter) that need to tag it for transport.
func (p Policy) Kind() Kind { return p.kind }

// Apply dispatches the policy to its target.
func (p Policy) Apply(t Target) {
	switch p.kind {
	case KindRecession:
		t.ApplyRecession(p.n)
	case KindMediaLiteracy:
		t.RaiseMediaLiteracy(p.f)
	case KindFoundPlatforms:
		t.FoundPlatforms(p.n)
	case KindTaxAdvertising:
		t.SetAdvertisingTax(p.f)
	case KindSubsidizeProduction:
		t.SetSubsidy(p.f)
	case KindPopulationChange:
		t.AddPopulation(p.n)
	}
}
