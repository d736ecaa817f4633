package api

import (
	"fmt"

	"evacnav/internal/model"
)

func validatePlanRequest(req *model.PlanRequest) error {
	if req.Region == "" {
		return fmt.Errorf("region is required")
	}
	if req.RainfallMM < 0 {
		return fmt.Errorf("rainfallMm must be >= 0")
	}
	if req.Population < 0 {
		return fmt.Errorf("population must be >= 0")
	}
	if req.Generations < 0 || req.Generations > 2000 {
		return fmt.Errorf("generations must be in [0,2000]")
	}
	if req.PopSize < 0 || req.PopSize > 1000 {
		return fmt.Errorf("popSize must be in [0,1000]")
	}
	return nil
}

func validateSimulateRequest(req *model.SimulateRequest) error {
	if req.Region == "" {
		return fmt.Errorf("region is required")
	}
	if req.RainfallMM < 0 {
		return fmt.Errorf("rainfallMm must be >= 0")
	}
	if req.Steps < 0 || req.Steps > 500 {
		return fmt.Errorf("steps must be in [0,500]")
	}
	if req.Decay != 0 && (req.Decay <= 0 || req.Decay > 1) {
		return fmt.Errorf("decay must be in (0,1]")
	}
	return nil
}
