package season

import "strings"

func chemicalRecommendations(c call, pre PreEmergent) []ChemicalRecommendation {
	recs := []ChemicalRecommendation{}
	add := func(r ChemicalRecommendation) { recs = append(recs, r) }
	h := c.history

	if pre.Needed {
		add(ChemicalRecommendation{
			Chemical: "Pre-emergent",
			Priority: pre.Urgency,
			Reason:   pre.Reason,
			Timing:   pre.Timing,
			Product:  pre.ProductSuggestion,
		})
	}

	if c.warm() {
		switch c.season {
		case Spring:
			if c.month == 4 || c.month == 5 {
				if !h.appliedWithin("Fertilizer", 45) {
					add(ChemicalRecommendation{
						Chemical: "Fertilizer",
						Priority: PriorityHigh,
						Reason:   "Spring feeding as grass begins active growth - use balanced fertilizer",
						Timing:   "After 2-3 mowings of active growth",
					})
				}
				if c.month == 5 {
					add(ChemicalRecommendation{
						Chemical: "T-Nex / PGR",
						Priority: PriorityLow,
						Reason:   "Consider PGR to reduce mowing frequency and improve lawn density",
						Timing:   "After grass is fully green and actively growing",
					})
				}
			}
		case Summer:
			if !h.appliedWithin("Iron", 30) {
				add(ChemicalRecommendation{
					Chemical: "Iron Supplement",
					Priority: PriorityMedium,
					Reason:   "Maintain deep green color during heat stress without pushing growth",
					Timing:   "Apply early morning to avoid leaf burn",
				})
			}
			if !h.appliedWithin("Grub", 120) {
				add(ChemicalRecommendation{
					Chemical: "Grub Killer",
					Priority: PriorityHigh,
					Reason:   "Peak grub activity period - preventative application recommended",
					Timing:   "Early summer for preventative (Imidacloprid), mid-summer for curative (Dylox)",
				})
			}
			if !h.appliedWithin("Insecticide", 90) {
				add(ChemicalRecommendation{
					Chemical: "Insecticide",
					Priority: PriorityMedium,
					Reason:   "Summer pest activity peaks - monitor for chinch bugs, armyworms",
					Timing:   "At first sign of pest activity or preventatively",
				})
			}
		case Fall:
			if (c.month == 9 || c.month == 10) && !h.appliedWithin("Fertilizer", 30) {
				add(ChemicalRecommendation{
					Chemical: "Fertilizer",
					Priority: PriorityHigh,
					Reason:   "Fall potassium application strengthens roots for winter dormancy",
					Timing:   "6-8 weeks before first expected frost",
				})
			}
		case Winter:
			if c.month == 12 && c.soilAbove(45) {
				add(ChemicalRecommendation{
					Chemical: "Soil Conditioner",
					Priority: PriorityLow,
					Reason:   "Winter soil conditioning can improve spring green-up",
					Timing:   "During mild winter days",
				})
			}
		}
		sortRecommendations(recs)
		return recs
	}

	// Cool-season and transition grasses share one rule set.
	switch c.season {
	case Spring:
		if !h.appliedWithin("Fertilizer", 30) {
			priority := PriorityMedium
			if c.month == 4 || c.month == 5 {
				priority = PriorityHigh
			}
			add(ChemicalRecommendation{
				Chemical: "Fertilizer",
				Priority: priority,
				Reason:   "Spring feeding during active growth - use slow-release nitrogen",
				Timing:   "When grass is actively growing",
			})
		}
	case Summer:
		add(ChemicalRecommendation{
			Chemical: "Disease Preventer",
			Priority: PriorityMedium,
			Reason:   "Summer disease pressure (brown patch, dollar spot) increases for cool-season grass",
			Timing:   "Preventatively when nighttime temps exceed 65°F",
		})
		if !h.appliedWithin("Iron", 30) {
			add(ChemicalRecommendation{
				Chemical: "Iron Supplement",
				Priority: PriorityMedium,
				Reason:   "Maintain color during summer stress without nitrogen push",
				Timing:   "Apply early morning",
			})
		}
	case Fall:
		if !h.appliedWithin("Fertilizer", 30) {
			add(ChemicalRecommendation{
				Chemical: "Fertilizer",
				Priority: PriorityHigh,
				Reason:   "MOST IMPORTANT feeding for cool-season grasses - builds root reserves",
				Timing:   "Early fall (Sept-Oct) and late fall (Nov) applications",
			})
		}
		add(ChemicalRecommendation{
			Chemical: "Overseeding",
			Priority: PriorityMedium,
			Reason:   "Optimal overseeding conditions for cool-season grass",
			Timing:   "Early fall - soil temps 50-65°F",
		})
	}
	sortRecommendations(recs)
	return recs
}

func taskReminders(c call, r Report) []Task {
	tasks := []Task{}
	add := func(t Task) { tasks = append(tasks, t) }
	h := c.history

	if r.Scalping.Recommended {
		add(Task{
			Task:     "Scalp lawn - " + truncate(r.Scalping.HowTo, 80),
			Priority: r.Scalping.Urgency,
			Reason:   r.Scalping.Reason,
			Deadline: r.Scalping.Timing,
		})
	}
	if r.Dethatching.Recommended {
		add(Task{
			Task:     "Dethatch lawn - " + truncate(r.Dethatching.HowTo, 80),
			Priority: r.Dethatching.Urgency,
			Reason:   r.Dethatching.Reason,
			Deadline: r.Dethatching.Timing,
		})
	}
	if r.Aeration.Recommended {
		add(Task{
			Task:     "Core aerate - " + truncate(r.Aeration.HowTo, 80),
			Priority: r.Aeration.Urgency,
			Reason:   r.Aeration.Reason,
			Deadline: r.Aeration.Timing,
		})
	}
	if r.PreEmergent.Needed {
		add(Task{
			Task:     "Apply pre-emergent - " + truncate(r.PreEmergent.ProductSuggestion, 60),
			Priority: r.PreEmergent.Urgency,
			Reason:   r.PreEmergent.Reason,
			Deadline: r.PreEmergent.Timing,
		})
	}

	switch c.season {
	case Spring:
		if c.month == 3 {
			add(Task{
				Task:     "Service mower - sharpen blades, change oil, check spark plug",
				Priority: PriorityMedium,
				Reason:   "Prepare equipment before growing season",
				Deadline: "Before first mow of the season",
			})
		}
		if (c.month == 4 || c.month == 5) && !h.appliedWithin("Grub", 120) {
			add(Task{
				Task:     "Plan grub prevention for early summer",
				Priority: PriorityMedium,
				Reason:   "Grub preventative works best when applied before grubs are active",
				Deadline: "Apply in May-June for best prevention",
			})
		}
	case Summer:
		add(Task{
			Task:     "Monitor for heat stress - raise mowing height, water deeply and infrequently",
			Priority: PriorityMedium,
			Reason:   "Hot weather increases stress, especially above 90°F",
			Deadline: "Ongoing during hot weather",
		})
		if !h.appliedWithin("Grub Killer", 120) {
			add(Task{
				Task:     "Apply grub control (preventative)",
				Priority: PriorityHigh,
				Reason:   "No grub control found in last 120 days - peak grub season",
				Deadline: "Apply now for best results",
			})
		}
		if c.month == 6 || c.month == 7 {
			add(Task{
				Task:     "Check for chinch bugs and armyworms",
				Priority: PriorityMedium,
				Reason:   "Peak pest activity period",
				Deadline: "Scout weekly - look for irregularly shaped brown patches",
			})
		}
	case Fall:
		if !h.appliedWithin("Fertilizer", 45) {
			add(Task{
				Task:     "Fall fertilizer application - emphasize potassium (K)",
				Priority: PriorityHigh,
				Reason:   "Strengthens roots for winter, promotes spring recovery",
				Deadline: "6-8 weeks before first expected frost",
			})
		}
		if c.cool() {
			add(Task{
				Task:     "Overseed thin areas after aerating",
				Priority: PriorityMedium,
				Reason:   "Fall is the ideal time for overseeding cool-season grass",
				Deadline: "September-October for best establishment",
			})
		}
		if (c.month == 10 || c.month == 11) && c.warm() {
			add(Task{
				Task:     "Prepare for dormancy - last fertilizer, lower mowing height gradually",
				Priority: PriorityMedium,
				Reason:   "Warm-season grass entering dormancy",
				Deadline: "Before first hard frost",
			})
		}
	case Winter:
		add(Task{
			Task:     "Plan next year's lawn care schedule",
			Priority: PriorityLow,
			Reason:   "Use dormant season to research products and plan applications",
			Deadline: "During winter months",
		})
		add(Task{
			Task:     "Equipment maintenance - clean, sharpen blades, winterize sprayer",
			Priority: PriorityMedium,
			Reason:   "Maintain equipment during off-season",
			Deadline: "Before spring",
		})
		if c.warm() && (c.month == 1 || c.month == 2) {
			add(Task{
				Task:     "Order pre-emergent and spring fertilizer",
				Priority: PriorityMedium,
				Reason:   "Be ready when spring arrives - popular products sell out",
				Deadline: "January-February",
			})
		}
	}

	for _, w := range r.TemperatureWarnings {
		if strings.Contains(w, "EXTREME") || strings.Contains(w, "FREEZE") {
			add(Task{Task: w, Priority: PriorityHigh, Reason: "Weather alert", Deadline: "Today"})
		}
	}

	sortTasks(tasks)
	return tasks
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
