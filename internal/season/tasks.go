package season

import "fmt"

// PreEmergentChemical is the history name that suppresses pre-emergent advice.
const PreEmergentChemical = "Weed Preventer"

const preEmergentWindowDays = 90

func preEmergent(c call) PreEmergent {
	res := PreEmergent{Urgency: PriorityNone, Stage: StageNone}

	if c.history.appliedWithin(PreEmergentChemical, preEmergentWindowDays) {
		res.Stage = StageApplied
		res.Reason = "Pre-emergent already applied within last 90 days"
		res.Timing = "Next application due in approximately 90 days from last application"
		return res
	}

	if c.warm() {
		switch c.month {
		case 1, 2:
			res = PreEmergent{
				Needed:            true,
				Urgency:           PriorityMedium,
				Stage:             StageApproaching,
				Reason:            "Pre-emergent window approaching for warm-season grass",
				Timing:            "Apply before soil temps consistently reach 55°F (typically Feb-Mar)",
				ProductSuggestion: "Prodiamine (Barricade) for longest control, or Dithiopyr (Dimension) for early post-emergent",
			}
		case 3:
			res = PreEmergent{
				Needed:            true,
				Urgency:           PriorityHigh,
				Stage:             StagePrime,
				Reason:            "Prime pre-emergent window - apply before soil reaches 55°F",
				Timing:            "Apply NOW for best results. Split application recommended.",
				ProductSuggestion: "Prodiamine 65 WDG at 0.185 oz per 1,000 sq ft via sprayer, or granular at 3.5 lb per 1,000 sq ft",
			}
			if c.soilAtLeast(50) {
				res.Urgency = PriorityCritical
				res.Stage = StageCritical
				res.Reason = fmt.Sprintf("CRITICAL: Soil temp ~%d°F, approaching 55°F threshold for crabgrass germination", int(*c.soil))
			}
		case 4:
			res = PreEmergent{
				Needed:            true,
				Urgency:           PriorityHigh,
				Stage:             StageLateWindow,
				Reason:            "Late pre-emergent window - may still be effective",
				Timing:            "Apply immediately if not yet applied. Consider Dithiopyr which has early post-emergent activity.",
				ProductSuggestion: "Dithiopyr (Dimension) - provides both pre and early post-emergent control",
			}
		case 8, 9:
			res = PreEmergent{
				Needed:            true,
				Urgency:           PriorityMedium,
				Stage:             StageFallWindow,
				Reason:            "Fall pre-emergent for winter weeds (Poa annua, henbit)",
				Timing:            "Apply when nighttime temps consistently drop below 70°F",
				ProductSuggestion: "Prodiamine for fall weed prevention",
			}
		}
		return res
	}

	switch c.month {
	case 2, 3:
		res = PreEmergent{
			Needed:            true,
			Urgency:           PriorityHigh,
			Stage:             StagePrime,
			Reason:            "Spring pre-emergent for cool-season grass - prevent crabgrass",
			Timing:            "Apply when soil temps reach 50-55°F for 3-5 consecutive days",
			ProductSuggestion: "Prodiamine or Dithiopyr - safe for cool-season grasses",
		}
		if c.soilAtLeast(50) {
			res.Urgency = PriorityCritical
			res.Stage = StageCritical
			res.Reason = fmt.Sprintf("CRITICAL: Soil temp ~%d°F, at the 50-55°F crabgrass germination threshold", int(*c.soil))
		}
	case 4:
		res = PreEmergent{
			Needed:            true,
			Urgency:           PriorityMedium,
			Stage:             StageLateWindow,
			Reason:            "Late spring pre-emergent - still effective for some weeds",
			Timing:            "Apply as soon as possible for remaining effectiveness",
			ProductSuggestion: "Dithiopyr for late-season pre/early-post emergent control",
		}
	case 9, 10:
		res = PreEmergent{
			Needed:            true,
			Urgency:           PriorityMedium,
			Stage:             StageFallWindow,
			Reason:            "Fall pre-emergent for winter annual weeds",
			Timing:            "Apply when soil temps drop below 70°F",
			ProductSuggestion: "Prodiamine for winter weed prevention",
		}
	}
	return res
}

func scalping(c call) Advice {
	res := Advice{Urgency: PriorityNone}

	switch {
	case c.warm():
		switch c.month {
		case 2, 3:
			switch {
			case c.soilBelow(55):
				res = Advice{
					Recommended: true,
					Urgency:     PriorityMedium,
					Reason:      "Scalp warm-season grass to remove dead material and allow sunlight to warm the soil",
					Timing:      "Before green-up begins, when soil is still below 55°F",
					HowTo:       "Lower mower to lowest setting (0.25-0.5 inch). Bag clippings. Apply pre-emergent after scalping.",
				}
			case c.soilAtLeast(55):
				res = Advice{
					Recommended: true,
					Urgency:     PriorityHigh,
					Reason:      "Soil warming up - scalp NOW before active growth begins",
					Timing:      "Immediately - green-up is starting or about to start",
					HowTo:       "Lower mower to lowest setting (0.25-0.5 inch). Bag clippings. This promotes faster green-up.",
				}
			}
		case 4:
			res.Reason = "Scalping window may have passed. If grass is already green, do NOT scalp - it will stress the plant."
			res.Timing = "Too late for most warm-season grasses"
		}
	case c.cool():
		res.Reason = "Cool-season grasses should generally NOT be scalped. Maintain 2.5-4 inch height."
		res.HowTo = "Instead of scalping, do a gradual height reduction in spring."
	}
	return res
}

func dethatching(c call) Advice {
	res := Advice{Urgency: PriorityNone}

	switch {
	case c.warm():
		switch c.month {
		case 4, 5, 6:
			res = Advice{
				Recommended:  true,
				Urgency:      PriorityMedium,
				Reason:       "Best time to dethatch warm-season grass - during active growth for quick recovery",
				Timing:       "Late spring to early summer when grass is actively growing",
				HowTo:        "Use a power dethatcher or vertical mower. Set blades to cut through thatch layer (~0.5 inch deep). Bag debris.",
				Alternatives: "For light thatch, core aeration may be sufficient. For heavy thatch (>0.5 inch), dethatching is recommended.",
			}
		case 1, 2, 3:
			res.Reason = "Too early - wait until grass is actively growing (April-June) for warm-season"
			res.Timing = "Wait until active growing season"
		case 7, 8:
			res.Reason = "Can still dethatch but heat stress may slow recovery"
			res.Timing = "Possible but risky - grass may struggle to recover in extreme heat"
			res.Alternatives = "Consider waiting until next spring, or core aerate instead"
		}
	case c.cool():
		switch c.month {
		case 8, 9, 10:
			res = Advice{
				Recommended:  true,
				Urgency:      PriorityMedium,
				Reason:       "Best time to dethatch cool-season grass - early fall for recovery before winter",
				Timing:       "Late August through October",
				HowTo:        "Use a power dethatcher. Overseed immediately after for best results.",
				Alternatives: "Core aeration is often preferred for cool-season grasses over dethatching.",
			}
		case 3, 4:
			res = Advice{
				Recommended: true,
				Urgency:     PriorityLow,
				Reason:      "Spring dethatching is OK but fall is preferred for cool-season grass",
				Timing:      "Early spring before active growth period",
				HowTo:       "Use a power dethatcher, but be gentle. Follow up with overseeding if needed.",
			}
		}
	}
	return res
}

func aeration(c call) Advice {
	res := Advice{Urgency: PriorityNone}

	switch {
	case c.warm():
		switch c.month {
		case 5, 6, 7:
			res = Advice{
				Recommended: true,
				Urgency:     PriorityMedium,
				Reason:      "Ideal aeration window for warm-season grass during peak growth",
				Timing:      "Late spring through mid-summer",
				HowTo:       "Core aerate when soil is moist (not wet). Make 2-3 passes in different directions. Leave cores on lawn to decompose.",
			}
		}
	case c.cool():
		switch c.month {
		case 8, 9, 10:
			res = Advice{
				Recommended: true,
				Urgency:     PriorityMedium,
				Reason:      "Ideal aeration window for cool-season grass during fall growth period",
				Timing:      "Late summer through early fall",
				HowTo:       "Core aerate when soil is moist. Overseed immediately after for best results. Top-dress with compost.",
			}
		case 3, 4:
			res = Advice{
				Recommended: true,
				Urgency:     PriorityLow,
				Reason:      "Spring aeration acceptable for cool-season grass",
				Timing:      "Early to mid spring",
			}
		}
	}
	return res
}
