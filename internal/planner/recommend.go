package planner

import "github.com/ngmaloney/routewatch/internal/models"

// Score weights safety, fuel efficiency and added time.
func Score(a models.RouteAlternative) float64 {
	return a.SafetyScore*0.5 + a.FuelEfficiency*0.3 + (10-a.AdditionalTime/24)*0.2
}

// Recommend scores every alternative and picks the highest; ties go to the
// earlier alternative. The strategy is classified from the most severe
// obstacle.
func (p *Planner) Recommend(alts []models.RouteAlternative, obstacles []models.WeatherObstacle) *models.RoutingPlan {
	plan := &models.RoutingPlan{
		Alternatives: []models.RouteAlternative{},
		Obstacles:    obstacles,
	}
	if plan.Obstacles == nil {
		plan.Obstacles = []models.WeatherObstacle{}
	}
	if len(alts) == 0 {
		plan.Strategy = models.StrategyDirect
		plan.OverallAssessment = assessment(plan.Strategy)
		return plan
	}

	best := -1
	bestScore := 0.0
	for i := range alts {
		alts[i].Score = Score(alts[i])
		if best < 0 || alts[i].Score > bestScore {
			best, bestScore = i, alts[i].Score
		}
	}
	plan.Recommended = alts[best].Variant

	primaryFound := false
	for _, a := range alts {
		if a.Variant == models.VariantPrimary && !primaryFound {
			plan.Primary = a
			primaryFound = true
			continue
		}
		plan.Alternatives = append(plan.Alternatives, a)
	}
	if !primaryFound {
		plan.Primary = alts[0]
		plan.Alternatives = plan.Alternatives[1:]
	}

	plan.Strategy = classify(MaxSeverity(obstacles), plan.Recommended)
	plan.OverallAssessment = assessment(plan.Strategy)
	return plan
}

func classify(highest int, recommended models.RouteVariant) models.RoutingStrategy {
	switch {
	case highest >= 9:
		return models.StrategyEmergencyDiversion
	case highest >= 7:
		return models.StrategyWeatherAvoidance
	case highest >= 5 && recommended == models.VariantDelayed:
		return models.StrategyDelayRecommended
	default:
		return models.StrategyDirect
	}
}

func assessment(s models.RoutingStrategy) string {
	switch s {
	case models.StrategyWeatherAvoidance:
		return "Alternative route recommended - avoiding severe weather areas"
	case models.StrategyDelayRecommended:
		return "Delayed departure recommended - severe weather expected"
	case models.StrategyEmergencyDiversion:
		return "Emergency planning required - extreme weather conditions"
	default:
		return "Primary route recommended - acceptable weather conditions"
	}
}
