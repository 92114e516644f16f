package chart

// Reconcile replaces every series on c with the plan's series. Individual
// adds and removes do not repaint; c.Redraw is called exactly once at the end.
// Title and axes are updated, anything else the chart holds (zoom) is left alone.
func Reconcile(c Chart, plan Plan) {
	for _, s := range c.Series() {
		c.RemoveSeries(s.Name, false)
	}
	c.SetTitle(plan.Title)
	c.SetAxes(plan.Axes)
	for _, s := range plan.Series {
		c.AddSeries(s, false)
	}
	c.Redraw()
}
