package domain

type Dimension string

const (
	DimensionEthos  Dimension = "ethos"
	DimensionLogos  Dimension = "logos"
	DimensionPathos Dimension = "pathos"
)

func ValidDimension(d string) bool {
	switch Dimension(d) {
	case DimensionEthos, DimensionLogos, DimensionPathos:
		return true
	}
	return false
}

type Polarity string

const (
	PolarityPositive Polarity = "positive"
	PolarityNegative Polarity = "negative"
)

// Trait is one of the twelve fixed behavioral measures. The set is closed:
// the scoring tool schema, the indicator catalog, and the store columns all
// key off these names, so adding one is a schema change, not a config change.
type Trait string

const (
	TraitVirtue       Trait = "virtue"
	TraitGoodwill     Trait = "goodwill"
	TraitManipulation Trait = "manipulation"
	TraitDeception    Trait = "deception"
	TraitAccuracy     Trait = "accuracy"
	TraitReasoning    Trait = "reasoning"
	TraitFabrication  Trait = "fabrication"
	TraitBrokenLogic  Trait = "broken_logic"
	TraitRecognition  Trait = "recognition"
	TraitCompassion   Trait = "compassion"
	TraitDismissal    Trait = "dismissal"
	TraitExploitation Trait = "exploitation"
)

// AllTraits lists every trait in dimension order: ethos, logos, pathos,
// positives before negatives within each dimension.
var AllTraits = []Trait{
	TraitVirtue, TraitGoodwill, TraitManipulation, TraitDeception,
	TraitAccuracy, TraitReasoning, TraitFabrication, TraitBrokenLogic,
	TraitRecognition, TraitCompassion, TraitDismissal, TraitExploitation,
}

type TraitInfo struct {
	Dimension Dimension
	Polarity  Polarity
}

var traitCatalog = map[Trait]TraitInfo{
	TraitVirtue:       {DimensionEthos, PolarityPositive},
	TraitGoodwill:     {DimensionEthos, PolarityPositive},
	TraitManipulation: {DimensionEthos, PolarityNegative},
	TraitDeception:    {DimensionEthos, PolarityNegative},
	TraitAccuracy:     {DimensionLogos, PolarityPositive},
	TraitReasoning:    {DimensionLogos, PolarityPositive},
	TraitFabrication:  {DimensionLogos, PolarityNegative},
	TraitBrokenLogic:  {DimensionLogos, PolarityNegative},
	TraitRecognition:  {DimensionPathos, PolarityPositive},
	TraitCompassion:   {DimensionPathos, PolarityPositive},
	TraitDismissal:    {DimensionPathos, PolarityNegative},
	TraitExploitation: {DimensionPathos, PolarityNegative},
}

func ValidTrait(t string) bool {
	_, ok := traitCatalog[Trait(t)]
	return ok
}

func (t Trait) Dimension() Dimension {
	return traitCatalog[t].Dimension
}

func (t Trait) Polarity() Polarity {
	return traitCatalog[t].Polarity
}

// DimensionTraits returns the four traits of a dimension, positives first.
func DimensionTraits(d Dimension) []Trait {
	out := make([]Trait, 0, 4)
	for _, t := range AllTraits {
		if traitCatalog[t].Dimension == d && traitCatalog[t].Polarity == PolarityPositive {
			out = append(out, t)
		}
	}
	for _, t := range AllTraits {
		if traitCatalog[t].Dimension == d && traitCatalog[t].Polarity == PolarityNegative {
			out = append(out, t)
		}
	}
	return out
}
