package expense

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"
)

// CategoryMeals is the only category subject to the daily cap
const CategoryMeals = "Alimentação"

// MinAmount is the smallest amount a form accepts
var MinAmount = decimal.RequireFromString("0.01")

// Options are the choices offered by the expense form
type Options struct {
	Projects      []string `json:"projects"`
	Professionals []string `json:"professionals"`
	Categories    []string `json:"categories"`
	Activities    []string `json:"activities"`
}

// DefaultOptions returns the standard option lists
func DefaultOptions() Options {
	return Options{
		Projects:      []string{"Compass - Executive Management"},
		Professionals: []string{"Lucas Ballen"},
		Categories: []string{
			CategoryMeals,
			"Aluguel",
			"Capacitação",
			"Combustível",
			"Estacionamento",
			"Passagem - Avião",
			"Passagem - Onibus",
			"Taxi",
			"Uber Empresarial",
		},
		Activities: []string{
			"Acompanhamento de projetos",
			"Atividade Interna",
			"Atividades Comerciais em Geral",
			"Atividades de Negócios em Geral",
			"Certificação/Capacitação",
			"Deslocamento",
			"Reunião Cliente",
			"Reunião Compasso",
			"Treinamento a Clientes",
			"Treinamento Interno",
		},
	}
}

// Validate checks a candidate against the option lists
func (o Options) Validate(c Candidate) error {
	switch {
	case !slices.Contains(o.Projects, c.Project):
		return fmt.Errorf("%w: unknown project %q", ErrInvalidExpense, c.Project)
	case !slices.Contains(o.Professionals, c.Professional):
		return fmt.Errorf("%w: unknown professional %q", ErrInvalidExpense, c.Professional)
	case !slices.Contains(o.Categories, c.Category):
		return fmt.Errorf("%w: unknown category %q", ErrInvalidExpense, c.Category)
	case !slices.Contains(o.Activities, c.Activity):
		return fmt.Errorf("%w: unknown activity %q", ErrInvalidExpense, c.Activity)
	case c.Date.IsZero():
		return fmt.Errorf("%w: date is required", ErrInvalidExpense)
	case c.Amount.LessThan(MinAmount):
		return fmt.Errorf("%w: amount must be at least %s", ErrInvalidExpense, MinAmount.StringFixed(2))
	}
	return nil
}
