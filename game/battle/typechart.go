package battle

// TypeChart maps attacking type id -> defending type id -> multiplier.
// Pairs that are absent are neutral (x1).
type TypeChart map[string]map[string]float64

// Multiplier returns the factor for one attacking/defending pair.
func (tc TypeChart) Multiplier(attack, defend string) float64 {
	row, ok := tc[ToID(attack)]
	if !ok {
		return 1
	}
	if v, ok := row[ToID(defend)]; ok {
		return v
	}
	return 1
}

// Effectiveness multiplies the factor across every defending type.
// super and resisted count the defending types with factor >1 and <1
// (immunities excluded).
func (tc TypeChart) Effectiveness(attack string, defending []string) (mult float64, super, resisted int) {
	mult = 1
	for _, t := range defending {
		v := tc.Multiplier(attack, t)
		switch {
		case v == 0:
		case v > 1:
			super++
		case v < 1:
			resisted++
		}
		mult *= v
	}
	return mult, super, resisted
}

func chartRow(pairs ...interface{}) map[string]float64 {
	row := make(map[string]float64, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		row[pairs[i].(string)] = pairs[i+1].(float64)
	}
	return row
}

// DefaultTypeChart is the standard eighteen-type chart.
func DefaultTypeChart() TypeChart {
	return TypeChart{
		"normal":   chartRow("rock", 0.5, "ghost", 0.0, "steel", 0.5),
		"fire":     chartRow("fire", 0.5, "water", 0.5, "grass", 2.0, "ice", 2.0, "bug", 2.0, "rock", 0.5, "dragon", 0.5, "steel", 2.0),
		"water":    chartRow("fire", 2.0, "water", 0.5, "grass", 0.5, "ground", 2.0, "rock", 2.0, "dragon", 0.5),
		"electric": chartRow("water", 2.0, "electric", 0.5, "grass", 0.5, "ground", 0.0, "flying", 2.0, "dragon", 0.5),
		"grass":    chartRow("fire", 0.5, "water", 2.0, "grass", 0.5, "poison", 0.5, "ground", 2.0, "flying", 0.5, "bug", 0.5, "rock", 2.0, "dragon", 0.5, "steel", 0.5),
		"ice":      chartRow("fire", 0.5, "water", 0.5, "grass", 2.0, "ice", 0.5, "ground", 2.0, "flying", 2.0, "dragon", 2.0, "steel", 0.5),
		"fighting": chartRow("normal", 2.0, "ice", 2.0, "poison", 0.5, "flying", 0.5, "psychic", 0.5, "bug", 0.5, "rock", 2.0, "ghost", 0.0, "dark", 2.0, "steel", 2.0, "fairy", 0.5),
		"poison":   chartRow("grass", 2.0, "poison", 0.5, "ground", 0.5, "rock", 0.5, "ghost", 0.5, "steel", 0.0, "fairy", 2.0),
		"ground":   chartRow("fire", 2.0, "electric", 2.0, "grass", 0.5, "poison", 2.0, "flying", 0.0, "bug", 0.5, "rock", 2.0, "steel", 2.0),
		"flying":   chartRow("electric", 0.5, "grass", 2.0, "fighting", 2.0, "bug", 2.0, "rock", 0.5, "steel", 0.5),
		"psychic":  chartRow("fighting", 2.0, "poison", 2.0, "psychic", 0.5, "dark", 0.0, "steel", 0.5),
		"bug":      chartRow("fire", 0.5, "grass", 2.0, "fighting", 0.5, "poison", 0.5, "flying", 0.5, "psychic", 2.0, "ghost", 0.5, "dark", 2.0, "steel", 0.5, "fairy", 0.5),
		"rock":     chartRow("fire", 2.0, "ice", 2.0, "fighting", 0.5, "ground", 0.5, "flying", 2.0, "bug", 2.0, "steel", 0.5),
		"ghost":    chartRow("normal", 0.0, "psychic", 2.0, "ghost", 2.0, "dark", 0.5),
		"dragon":   chartRow("dragon", 2.0, "steel", 0.5, "fairy", 0.0),
		"dark":     chartRow("fighting", 0.5, "psychic", 2.0, "ghost", 2.0, "dark", 0.5, "fairy", 0.5),
		"steel":    chartRow("fire", 0.5, "water", 0.5, "electric", 0.5, "ice", 2.0, "rock", 2.0, "steel", 0.5, "fairy", 2.0),
		"fairy":    chartRow("fire", 0.5, "fighting", 2.0, "poison", 0.5, "dragon", 2.0, "dark", 2.0, "steel", 0.5),
	}
}
