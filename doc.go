// Package fuzzyctl provides a Mamdani fuzzy-inference engine.
//
// # Overview
//
// fuzzyctl turns crisp numeric inputs into a crisp numeric output by
// reasoning over linguistic rules such as "IF rain is high THEN water is
// none". It implements exactly one pipeline:
//
//   - triangular membership functions
//   - AND = minimum, OR = maximum
//   - implication by clipping (minimum)
//   - aggregation by pointwise maximum
//   - centroid defuzzification over a discretised universe
//
// # Architecture
//
// The package components, leaves first:
//
//   - membership  - Triangle membership functions
//   - variable    - Linguistic variables (Antecedent / Consequent) over a Universe
//   - rule        - Antecedent expression trees, Rules and the RuleBase
//   - engine      - Fuzzify → Fire → Implicate → Aggregate → Defuzzify
//   - irrigation  - The reference watering controller
//   - config      - TOML system definitions
//   - controller  - Atomic hot swap of a whole engine
//   - metrics     - Prometheus instrumentation
//   - benchmark   - Concurrent load harness
//   - assertions  - Test helpers for controller properties
//
// # Quick Start
//
//	sys, err := fuzzyctl.BuildDefaultSystem()
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	rate, err := sys.Evaluate(35, 0.25) // rain %, soil moisture
//	switch {
//	case errors.Is(err, fuzzyctl.ErrNoRuleFired):
//	    // no recommendation: fall back to a default rate
//	case errors.Is(err, fuzzyctl.ErrValidation):
//	    // input outside rain∈[0,100] or soil∈[0,1]
//	case err != nil:
//	    log.Fatal(err)
//	}
//	fmt.Printf("water %.2f l/h\n", rate)
//
// # Building a System
//
//	rain, _ := fuzzyctl.NewAntecedent("rain", fuzzyctl.Universe{Lo: 0, Hi: 100, Step: 1})
//	_ = rain.AddTriangle("low", 0, 0, 30)
//	_ = rain.AddTriangle("high", 60, 100, 100)
//
//	water, _ := fuzzyctl.NewConsequent("water", fuzzyctl.Universe{Lo: 0, Hi: 10, Step: 0.1})
//	_ = water.AddTriangle("none", 0, 0, 1)
//	_ = water.AddTriangle("high", 7, 10, 10)
//
//	r1, _ := fuzzyctl.NewRule("R1", fuzzyctl.Is(rain, "high"), water, "none")
//	r2, _ := fuzzyctl.NewRule("R2", fuzzyctl.Is(rain, "low"), water, "high")
//
//	rb, _ := fuzzyctl.NewRuleBase(r1, r2)
//	engine, _ := fuzzyctl.NewEngine(rb)
//	out, err := engine.Evaluate(fuzzyctl.Inputs{"rain": 80})
//
// The same system can be written in TOML and loaded with LoadSystem; see
// DefaultSystemTOML.
//
// # Resolution
//
// Fuzzification is closed-form. Only consequent universes are sampled, and
// their Step sets the defuzzification resolution: the discretised centroid
// approaches the continuous one as Step shrinks. The irrigation steps are
// the documented constants RainStep, SoilStep and WaterStep.
//
// # Errors
//
// Every failure unwraps to a sentinel so callers can branch with errors.Is:
//
//   - ErrValidation      - input outside its universe, or unknown input name
//   - ErrUnboundVariable - a rule needs an input that was not supplied
//   - ErrNoRuleFired     - every rule fired at strength 0
//   - ErrDuplicateLabel, ErrUnknownLabel, ErrRoleMismatch, ErrInvalidRule -
//     configuration errors, reported while building the system
//   - ErrInvalidUniverse - bad bounds or step, or more than MaxSamples points
//   - ErrNoEngine        - a Controller was asked to evaluate before any engine was installed
//
// # Concurrency
//
// Variables, rules and engines are immutable once NewEngine returns. An
// Engine may be shared by any number of goroutines. To change rules at run
// time, build a new Engine and publish it through a Controller; evaluations
// in flight finish on the engine they started with.
package fuzzyctl
