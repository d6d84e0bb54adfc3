package metrics

// IssuedRound, AnsweredRound, Contradicted and SetBondSatoshis satisfy
// protocol.Gauges, so a *Metrics can be handed to protocol.NewSession
// directly without internal/protocol importing this package.
func (m *Metrics) IssuedRound()   { m.RoundsIssued.Inc() }
func (m *Metrics) AnsweredRound() { m.RoundsAnswered.Inc() }
func (m *Metrics) Contradicted()  { m.Contradictions.Inc() }

func (m *Metrics) SetBondSatoshis(v int64) { m.BondSatoshis.Set(float64(v)) }
