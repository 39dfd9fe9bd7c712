package timeline

import "github.com/chrissnell/shiftline/pkg/textfold"

// Group and operation labels that drive classification, in folded form.
const (
	groupProductive   = "PRODUTIVA"
	groupUnproductive = "IMPRODUTIVA"
	opOther           = "OUTROS"
	opTravel          = "DESLOCAMENTO"
	opManeuver        = "MANOBRA"
)

// ReasonSets holds the operation labels that refine an unproductive record into
// a specific stop kind. Labels are matched case- and diacritic-insensitively.
type ReasonSets struct {
	Managed    []string `json:"managed"`
	Mechanical []string `json:"mechanical"`
	Essential  []string `json:"essential"`
}

// DefaultReasonSets returns the stop reasons used by the field operations team.
func DefaultReasonSets() ReasonSets {
	return ReasonSets{
		Managed: []string{
			"AGUARDANDO COMBUSTIVEL",
			"AGUARDANDO ORDENS",
			"AGUARDANDO MOVIMENTACAO PIVO",
			"FALTA DE INSUMOS",
		},
		Mechanical: []string{
			"AGUARDANDO MECANICO",
			"BORRACHARIA",
			"EXCESSO DE TEMPERATURA DO MOTOR",
			"IMPLEMENTO QUEBRADO",
			"MANUTENCAO ELETRICA",
			"MANUTENCAO MECANICA",
			"TRATOR QUEBRADO",
			"SEM SINAL GPS",
		},
		Essential: []string{
			"REFEICAO",
			"BANHEIRO",
		},
	}
}

// Classifier maps (group, operation) label pairs to an ActivityKind.
// It is safe for concurrent use once built.
type Classifier struct {
	managed    textfold.Set
	mechanical textfold.Set
	essential  textfold.Set
}

// NewClassifier folds the reason sets once so Classify only folds its inputs.
func NewClassifier(r ReasonSets) *Classifier {
	return &Classifier{
		managed:    textfold.NewSet(r.Managed...),
		mechanical: textfold.NewSet(r.Mechanical...),
		essential:  textfold.NewSet(r.Essential...),
	}
}

// Classify is total: it always returns a kind, Unclassified when no rule applies.
// Rules are evaluated in order and the first match wins.
func (c *Classifier) Classify(group, operation string) ActivityKind {
	g := textfold.Fold(group)
	op := textfold.Fold(operation)

	switch {
	case g == groupProductive:
		return Effective
	case g == groupUnproductive:
		switch {
		case c.managed.Has(op):
			return ManagedStop
		case c.mechanical.Has(op):
			return MechanicalStop
		case c.essential.Has(op):
			return EssentialStop
		case op == opOther:
			return Miscellaneous
		default:
			return OtherStop
		}
	case op == opTravel:
		return Travel
	case op == opManeuver:
		return Maneuver
	}
	return Unclassified
}
