package cuts

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOutputName(t *testing.T) {
	assert.Equal(t, "run_1547_cut.root", OutputName("/sps/data/run_1547.root"))
	assert.Equal(t, "run_1547_cut", OutputName("run_1547"))
}

func TestThresholdLabel(t *testing.T) {
	tests := []struct {
		v        float64
		decimals int
		want     string
	}{
		{45, 2, "45.0"},
		{1, 1, "1.0"},
		{0.05000000001, 3, "0.05"},
		{3.1000000000000005, 2, "3.1"},
		{0.125, 2, "0.13"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ThresholdLabel(tt.v, tt.decimals), "%v", tt.v)
	}
}

func TestSweepName(t *testing.T) {
	assert.Equal(t, "cut5_45p0_Bi214_wire_surface_50M.root", SweepName(5, 45, 2, "Bi214_wire_surface_50M.root"))
	assert.Equal(t, "cut2_0p05_sim.root", SweepName(2, 0.05000000001, 3, "sim.root"))
	assert.Equal(t, "cut1_2p0_sim.root", SweepName(1, 2, 1, "sim.root"))
	assert.Equal(t, "cut1_1p0_sim.root", SweepName(1, 1, 0, "sim.root"))
}
