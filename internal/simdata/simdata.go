// Package simdata generates the synthetic per-phase telemetry payloads the
// dispenser simulator sends. Each phase has its own field schema; values are
// deterministic functions of the cycle counter so a stream is reproducible
// and visibly "alive" without being random noise. SOC and flow appear in
// every phase.
package simdata

import (
	"fmt"

	"github.com/xodbsdl/fueltrace/internal/wire"
)

// Generator produces one sample per scheduler cycle.
type Generator struct {
	// SWVersion is reported in IDLE payloads.
	SWVersion string
}

// New returns a generator with the default firmware version string.
func New() *Generator {
	return &Generator{SWVersion: "v2.1.0"}
}

// Sample builds the payload for one cycle of the given phase.
func (g *Generator) Sample(phase wire.Phase, cycle int) wire.Sample {
	switch phase {
	case wire.PhaseStartup:
		return wire.Sample{State: phase, Fields: []wire.Field{
			{Name: "comm_mode", Value: "AUTO"},
			{Name: "initial_pressure", Value: fixed(5.2 + float64(cycle%3))},
			{Name: "APRR", Value: "2.1"},
			{Name: "target_pressure", Value: "70.0"},
			{Name: "MP", Value: fixed(15.2 + float64(cycle%4))},
			{Name: "MT", Value: fmt.Sprintf("%d", -5+cycle%8)},
			{Name: "TV", Value: "OPEN"},
			{Name: "fueling_pressure", Value: fixed(25.4 + float64(cycle%6))},
			{Name: "SOC", Value: fmt.Sprintf("%d", 76+cycle%8)},
			{Name: "flow", Value: fixed(12.5 + float64(cycle%5))},
		}}
	case wire.PhaseMainFueling:
		return wire.Sample{State: phase, Fields: []wire.Field{
			{Name: "set_pressure", Value: "70.0"},
			{Name: "MP", Value: fixed(65.8 + float64(cycle%3))},
			{Name: "MT", Value: fmt.Sprintf("%d", 15+cycle%10)},
			{Name: "TV", Value: "MODULATE"},
			{Name: "fueling_pressure", Value: fixed(68.2 + float64(cycle%4))},
			{Name: "SOC", Value: fmt.Sprintf("%d", 80+cycle%15)},
			{Name: "flow", Value: fixed(45.2 + float64(cycle%8))},
		}}
	case wire.PhaseShutdown:
		elapsed := cycle % 300
		return wire.Sample{State: phase, Fields: []wire.Field{
			{Name: "MP", Value: fixed(5.1 + float64(cycle%2))},
			{Name: "MT", Value: fmt.Sprintf("%d", 25+cycle%5)},
			{Name: "TV", Value: "CLOSE"},
			{Name: "fueling_pressure", Value: fixed(2.1 + float64(cycle%3))},
			{Name: "outlet_h2_temp", Value: fmt.Sprintf("%d", 30+cycle%8)},
			{Name: "fueling_time", Value: fmt.Sprintf("%dm%02ds", elapsed/60, elapsed%60)},
			{Name: "final_amount", Value: fixed(15.8 + float64(cycle%5))},
			{Name: "final_cost", Value: fmt.Sprintf("%d", 25400+cycle%1000)},
			{Name: "SOC", Value: fmt.Sprintf("%d", 95+cycle%5)},
			{Name: "flow", Value: "0.0"},
		}}
	default: // IDLE and anything unexpected
		return wire.Sample{State: wire.PhaseIdle, Fields: []wire.Field{
			{Name: "category", Value: "H2"},
			{Name: "pressure_class", Value: "H70"},
			{Name: "sw_version", Value: g.SWVersion},
			{Name: "maintenance", Value: "OK"},
			{Name: "ambient_temp", Value: fmt.Sprintf("%d", 20+cycle%10)},
			{Name: "inlet_pressure", Value: fixed(45.2 + float64(cycle%5))},
			{Name: "outlet_pressure", Value: fixed(0.1 + float64(cycle%2))},
			{Name: "SOC", Value: fmt.Sprintf("%d", 75+cycle%10)},
			{Name: "flow", Value: "0.0"},
		}}
	}
}

func fixed(v float64) string {
	return fmt.Sprintf("%.1f", v)
}
