package chart

// State is an in-memory Chart. A browser widget renders its Snapshot.
type State struct {
	title    string
	axes     []Axis
	series   []Series
	extremes *Extremes
	redraws  int
}

// Snapshot is the JSON form of a State.
type Snapshot struct {
	Title    string    `json:"title"`
	Axes     []Axis    `json:"yAxis"`
	Series   []Series  `json:"series"`
	Extremes *Extremes `json:"extremes,omitempty"`
	Redraws  int       `json:"redraws"`
}

func NewState() *State {
	return &State{}
}

func (s *State) Series() []Series {
	out := make([]Series, len(s.series))
	copy(out, s.series)
	return out
}

func (s *State) AddSeries(series Series, redraw bool) {
	s.series = append(s.series, series)
	if redraw {
		s.Redraw()
	}
}

// RemoveSeries removes the first series with the given name.
func (s *State) RemoveSeries(name string, redraw bool) {
	for i, existing := range s.series {
		if existing.Name == name {
			s.series = append(s.series[:i], s.series[i+1:]...)
			break
		}
	}
	if redraw {
		s.Redraw()
	}
}

func (s *State) SetTitle(title string) { s.title = title }

func (s *State) SetAxes(axes []Axis) {
	s.axes = append([]Axis(nil), axes...)
}

func (s *State) Redraw() { s.redraws++ }

func (s *State) SetExtremes(e *Extremes) { s.extremes = e }

func (s *State) Extremes() *Extremes { return s.extremes }

func (s *State) Redraws() int { return s.redraws }

func (s *State) Snapshot() Snapshot {
	snap := Snapshot{
		Title:   s.title,
		Axes:    append([]Axis{}, s.axes...),
		Series:  s.Series(),
		Redraws: s.redraws,
	}
	if s.extremes != nil {
		e := *s.extremes
		snap.Extremes = &e
	}
	return snap
}
