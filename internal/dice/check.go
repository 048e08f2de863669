package dice

// Degree bands a check result against its difficulty. Missing or beating
// the DC by 10 or more upgrades the band to a critical.
type Degree int

const (
	CriticalFailure Degree = iota
	Failure
	Success
	CriticalSuccess
)

// String returns the band name.
func (d Degree) String() string {
	switch d {
	case CriticalFailure:
		return "critical failure"
	case Failure:
		return "failure"
	case Success:
		return "success"
	case CriticalSuccess:
		return "critical success"
	}
	return "unknown"
}

// DegreeOf bands total against dc.
func DegreeOf(total, dc int) Degree {
	diff := total - dc
	switch {
	case diff <= -10:
		return CriticalFailure
	case diff < 0:
		return Failure
	case diff >= 10:
		return CriticalSuccess
	default:
		return Success
	}
}

// CheckResult records one resolved d20 check.
type CheckResult struct {
	Die      int    `json:"die"`
	Modifier int    `json:"modifier"`
	Manual   int    `json:"manual,omitempty"`
	Total    int    `json:"total"`
	DC       int    `json:"dc,omitempty"`
	HasDC    bool   `json:"hasDC"`
	Success  bool   `json:"success"`
	Degree   Degree `json:"degree"`
}

// Check rolls a d20, adds the derived modifier and any manual adjustment,
// and classifies the outcome when a difficulty is given. Pass a negative dc
// via hasDC=false for threshold-free rolls.
func Check(r Roller, modifier, manual int, dc int, hasDC bool) CheckResult {
	die := r.Roll(20)
	res := CheckResult{
		Die:      die,
		Modifier: modifier,
		Manual:   manual,
		Total:    die + modifier + manual,
		DC:       dc,
		HasDC:    hasDC,
	}
	if hasDC {
		res.Degree = DegreeOf(res.Total, dc)
		res.Success = res.Degree >= Success
	}
	return res
}

// Reroll re-executes a check with the same derived modifier, consuming a
// reroll grant. The new result stands regardless of the old one.
func Reroll(r Roller, prev CheckResult) CheckResult {
	return Check(r, prev.Modifier, prev.Manual, prev.DC, prev.HasDC)
}

// Percentile rolls d%.
func Percentile(r Roller) int {
	return r.Roll(100)
}

// NoticedOnPercentile is the notoriety-style exposure check: a result at or
// BELOW the threshold means the organization was noticed. The polarity is
// inverted relative to every other check in the system; callers must go
// through this predicate rather than compare directly.
func NoticedOnPercentile(result, threshold int) bool {
	return result <= threshold
}
