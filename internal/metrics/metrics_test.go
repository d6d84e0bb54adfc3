package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
)

func TestNewRegistersAndIncrements(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.IssuedRound()
	m.AnsweredRound()
	m.AnsweredRound()
	m.Contradicted()
	m.SetBondSatoshis(998_454)
	m.RecordRPCError("sendrawtransaction")

	metricFamilies, err := reg.Gather()
	if err != nil {
		t.Fatal(err)
	}

	counts := map[string]float64{}
	for _, mf := range metricFamilies {
		for _, metric := range mf.GetMetric() {
			switch mf.GetName() {
			case "bitvm_rounds_issued_total":
				counts["issued"] = metric.GetCounter().GetValue()
			case "bitvm_rounds_answered_total":
				counts["answered"] = metric.GetCounter().GetValue()
			case "bitvm_contradictions_total":
				counts["contradicted"] = metric.GetCounter().GetValue()
			case "bitvm_bond_satoshis":
				counts["bond"] = metric.GetGauge().GetValue()
			case "bitvm_rpc_errors_total":
				counts["rpc_errors"] = metric.GetCounter().GetValue()
			}
		}
	}

	want := map[string]float64{"issued": 1, "answered": 2, "contradicted": 1, "bond": 998454, "rpc_errors": 1}
	for k, v := range want {
		if counts[k] != v {
			t.Fatalf("metric %s = %v, want %v", k, counts[k], v)
		}
	}
}
