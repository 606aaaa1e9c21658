// Package scoring rates CRM leads: a weighted score, a temperature bucket and a
// close probability per pipeline stage. All functions are pure.
package scoring

import "math"

// Presence weights: points a lead earns for each filled-in field.
const (
	WeightEmail       = 10
	WeightTelefono    = 10
	WeightEmpresa     = 15
	WeightCargo       = 10
	WeightCiudad      = 5
	WeightPresupuesto = 20
)

// Contact attempts earn WeightPerContact each, up to MaxScoredContacts attempts.
const (
	WeightPerContact  = 5
	MaxScoredContacts = 3
)

// Urgency bonuses.
const (
	BonusUrgenciaHigh   = 15
	BonusUrgenciaMedium = 10
	BonusUrgenciaLow    = 5
)

// Temperature thresholds (inclusive lower bounds).
const (
	HotThreshold  = 70
	WarmThreshold = 40
)

const (
	minScore = 0
	maxScore = 100
)

// Urgencia is how soon the lead needs a property.
type Urgencia string

const (
	UrgenciaNone   Urgencia = ""
	UrgenciaLow    Urgencia = "low"
	UrgenciaMedium Urgencia = "medium"
	UrgenciaHigh   Urgencia = "high"
)

var urgencyBonus = map[Urgencia]int{
	UrgenciaHigh:   BonusUrgenciaHigh,
	UrgenciaMedium: BonusUrgenciaMedium,
	UrgenciaLow:    BonusUrgenciaLow,
}

// Temperatura is the lead quality bucket.
type Temperatura string

const (
	TemperaturaCold Temperatura = "cold"
	TemperaturaWarm Temperatura = "warm"
	TemperaturaHot  Temperatura = "hot"
)

// Temperaturas lists every bucket, coldest first.
var Temperaturas = []Temperatura{TemperaturaCold, TemperaturaWarm, TemperaturaHot}

// Estado is the pipeline stage of a lead.
type Estado string

const (
	EstadoNew          Estado = "new"
	EstadoContacted    Estado = "contacted"
	EstadoQualified    Estado = "qualified"
	EstadoVisited      Estado = "visited"
	EstadoProposalSent Estado = "proposal_sent"
	EstadoNegotiating  Estado = "negotiating"
	EstadoWon          Estado = "won"
	EstadoLost         Estado = "lost"
)

// stageBand bounds the close probability of a stage. The score interpolates
// between floor (score 0) and ceiling (score 100).
type stageBand struct {
	floor   int
	ceiling int
}

var stageBands = map[Estado]stageBand{
	EstadoNew:          {floor: 5, ceiling: 25},
	EstadoContacted:    {floor: 10, ceiling: 35},
	EstadoQualified:    {floor: 20, ceiling: 50},
	EstadoVisited:      {floor: 30, ceiling: 65},
	EstadoProposalSent: {floor: 40, ceiling: 75},
	EstadoNegotiating:  {floor: 55, ceiling: 90},
	EstadoWon:          {floor: 100, ceiling: 100},
	EstadoLost:         {floor: 0, ceiling: 0},
}

// IsValid reports whether e is a known stage.
func (e Estado) IsValid() bool {
	_, ok := stageBands[e]
	return ok
}

// Facts is the input of the lead score.
type Facts struct {
	HasEmail            bool
	HasTelefono         bool
	HasEmpresa          bool
	HasCargo            bool
	HasCiudad           bool
	HasPresupuesto      bool
	ContactosRealizados int
	Urgencia            Urgencia
}

// Score is the derived rating stored on the lead.
type Score struct {
	Puntuacion         int
	Temperatura        Temperatura
	ProbabilidadCierre int
}

// Puntuacion is the clamped weighted sum of the facts.
func Puntuacion(f Facts) int {
	score := 0
	for _, w := range []struct {
		present bool
		weight  int
	}{
		{f.HasEmail, WeightEmail},
		{f.HasTelefono, WeightTelefono},
		{f.HasEmpresa, WeightEmpresa},
		{f.HasCargo, WeightCargo},
		{f.HasCiudad, WeightCiudad},
		{f.HasPresupuesto, WeightPresupuesto},
	} {
		if w.present {
			score += w.weight
		}
	}

	contacts := f.ContactosRealizados
	if contacts > MaxScoredContacts {
		contacts = MaxScoredContacts
	}
	if contacts > 0 {
		score += contacts * WeightPerContact
	}

	score += urgencyBonus[f.Urgencia]
	return clampScore(float64(score))
}

// DeterminarTemperatura buckets a score.
func DeterminarTemperatura(puntuacion int) Temperatura {
	switch {
	case puntuacion >= HotThreshold:
		return TemperaturaHot
	case puntuacion >= WarmThreshold:
		return TemperaturaWarm
	default:
		return TemperaturaCold
	}
}

// CalculateProbabilidadCierre interpolates the stage band by score.
// Unknown stages use the "new" band.
func CalculateProbabilidadCierre(puntuacion int, estado Estado) int {
	band, ok := stageBands[estado]
	if !ok {
		band = stageBands[EstadoNew]
	}
	score := float64(clampScore(float64(puntuacion)))
	return clampScore(float64(band.floor) + float64(band.ceiling-band.floor)*score/100)
}

// Evaluate computes the full score for a lead in the given stage.
func Evaluate(f Facts, estado Estado) Score {
	puntuacion := Puntuacion(f)
	return Score{
		Puntuacion:         puntuacion,
		Temperatura:        DeterminarTemperatura(puntuacion),
		ProbabilidadCierre: CalculateProbabilidadCierre(puntuacion, estado),
	}
}

func clampScore(score float64) int {
	rounded := int(math.Round(score))
	if rounded < minScore {
		return minScore
	}
	if rounded > maxScore {
		return maxScore
	}
	return rounded
}
