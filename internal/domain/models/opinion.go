package models

// Direction is the recommended trade side.
type Direction string

const (
	DirectionBuy  Direction = "BUY"
	DirectionSell Direction = "SELL"
	DirectionNone Direction = "NONE"
)

// Concrete reports whether d is BUY or SELL.
func (d Direction) Concrete() bool {
	return d == DirectionBuy || d == DirectionSell
}

// DirectionalOpinion is a direction plus confidence in [0,100].
type DirectionalOpinion struct {
	Direction  Direction `json:"direction"`
	Confidence float64   `json:"confidence"`
}
