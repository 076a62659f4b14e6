package battle

import "sort"

// Weather and terrain ids understood by the engine.
const (
	WeatherNone = ""
	WeatherRain = "raindance"
	WeatherSun  = "sunnyday"
	WeatherSand = "sandstorm"
	WeatherHail = "hail"

	TerrainMisty    = "mistyterrain"
	TerrainElectric = "electricterrain"
	TerrainGrassy   = "grassyterrain"

	PseudoTrickRoom = "trickroom"
)

// EffectState is the small blob carried by a field effect.
type EffectState struct {
	Duration int            `json:"duration"`
	Source   string         `json:"source,omitempty"`
	Data     map[string]int `json:"data,omitempty"`
}

// Field is battle-wide state.
type Field struct {
	Weather       string                  `json:"weather,omitempty"`
	WeatherState  EffectState             `json:"weather_state"`
	Terrain       string                  `json:"terrain,omitempty"`
	TerrainState  EffectState             `json:"terrain_state"`
	PseudoWeather map[string]*EffectState `json:"pseudo_weather,omitempty"`
	SideEffects   map[string][]string     `json:"side_effects,omitempty"`
	PayDay        int                     `json:"payday,omitempty"`
}

// NewField returns an empty field.
func NewField() *Field {
	return &Field{PseudoWeather: make(map[string]*EffectState)}
}

// HasPseudoWeather reports whether the named effect is active.
func (f *Field) HasPseudoWeather(name string) bool {
	_, ok := f.PseudoWeather[ToID(name)]
	return ok
}

// PseudoWeatherNames returns the active effect ids in sorted order.
func (f *Field) PseudoWeatherNames() []string {
	names := make([]string, 0, len(f.PseudoWeather))
	for n := range f.PseudoWeather {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// RemovePseudoWeather drops the named effect.
func (f *Field) RemovePseudoWeather(name string) {
	delete(f.PseudoWeather, ToID(name))
}

// SetWeather replaces the current weather.
func (f *Field) SetWeather(id string, duration int) {
	f.Weather = ToID(id)
	f.WeatherState = EffectState{Duration: duration}
}

// SetTerrain replaces the current terrain.
func (f *Field) SetTerrain(id string, duration int) {
	f.Terrain = ToID(id)
	f.TerrainState = EffectState{Duration: duration}
}

// AddSideCondition marks a condition (e.g. safeguard) on a participant's side.
func (f *Field) AddSideCondition(side, cond string) {
	if f.SideEffects == nil {
		f.SideEffects = make(map[string][]string)
	}
	id := ToID(cond)
	for _, c := range f.SideEffects[side] {
		if c == id {
			return
		}
	}
	f.SideEffects[side] = append(f.SideEffects[side], id)
}

// HasSideCondition reports whether a condition is set on side.
func (f *Field) HasSideCondition(side, cond string) bool {
	id := ToID(cond)
	for _, c := range f.SideEffects[side] {
		if c == id {
			return true
		}
	}
	return false
}

// tick decrements every timed effect and returns the ids that expired.
// Durations <= 0 are permanent.
func (f *Field) tick() []string {
	var expired []string
	for _, name := range f.PseudoWeatherNames() {
		st := f.PseudoWeather[name]
		if st.Duration <= 0 {
			continue
		}
		st.Duration--
		if st.Duration == 0 {
			delete(f.PseudoWeather, name)
			expired = append(expired, name)
		}
	}
	if f.Weather != WeatherNone && f.WeatherState.Duration > 0 {
		f.WeatherState.Duration--
		if f.WeatherState.Duration == 0 {
			expired = append(expired, f.Weather)
			f.Weather = WeatherNone
		}
	}
	if f.Terrain != "" && f.TerrainState.Duration > 0 {
		f.TerrainState.Duration--
		if f.TerrainState.Duration == 0 {
			expired = append(expired, f.Terrain)
			f.Terrain = ""
		}
	}
	return expired
}

// Clone returns a deep copy.
func (f *Field) Clone() *Field {
	cp := *f
	cp.WeatherState = f.WeatherState.clone()
	cp.TerrainState = f.TerrainState.clone()
	cp.PseudoWeather = make(map[string]*EffectState, len(f.PseudoWeather))
	for k, st := range f.PseudoWeather {
		c := st.clone()
		cp.PseudoWeather[k] = &c
	}
	if f.SideEffects != nil {
		cp.SideEffects = make(map[string][]string, len(f.SideEffects))
		for k, v := range f.SideEffects {
			cp.SideEffects[k] = append([]string(nil), v...)
		}
	}
	return &cp
}

func (s EffectState) clone() EffectState {
	if s.Data != nil {
		data := make(map[string]int, len(s.Data))
		for k, v := range s.Data {
			data[k] = v
		}
		s.Data = data
	}
	return s
}
