package catalog

import "github.com/talgya/uprising/internal/dice"

// Proficiency is a team's earning tier, derived from its rank bonus.
type Proficiency string

const (
	ProfTrained   Proficiency = "trained"
	ProfExpert    Proficiency = "expert"
	ProfMaster    Proficiency = "master"
	ProfLegendary Proficiency = "legendary"
)

// ProficiencyForTeamRank maps a team's rank bonus to an earning tier:
// rank 1 earns as trained, 2 as expert, 3 and above as master.
func ProficiencyForTeamRank(teamRank int) Proficiency {
	switch {
	case teamRank <= 1:
		return ProfTrained
	case teamRank == 2:
		return ProfExpert
	default:
		return ProfMaster
	}
}

// IncomeRow is one level row of the earn-income table. Values are weekly
// income in coppers per earning tier; Failure is the consolation column.
type IncomeRow struct {
	Failure   int
	Trained   int
	Expert    int
	Master    int
	Legendary int
}

// At returns the row's value for an earning tier.
func (r IncomeRow) At(p Proficiency) int {
	switch p {
	case ProfTrained:
		return r.Trained
	case ProfExpert:
		return r.Expert
	case ProfMaster:
		return r.Master
	case ProfLegendary:
		return r.Legendary
	}
	return r.Failure
}

// earnIncomeTable is indexed by task level 0..21. Row 21 exists only so a
// critical success at level 20 has a next row to read.
var earnIncomeTable = []IncomeRow{
	{5, 25, 25, 25, 25},
	{10, 50, 50, 50, 50},
	{20, 100, 100, 100, 100},
	{40, 200, 200, 200, 200},
	{70, 300, 400, 400, 400},
	{100, 500, 700, 700, 700},
	{125, 600, 1000, 1000, 1000},
	{150, 700, 1400, 1500, 1500},
	{175, 800, 1800, 2000, 2000},
	{200, 900, 2300, 2500, 2500},
	{250, 1000, 2800, 3500, 3500},
	{300, 1100, 3400, 4500, 4500},
	{350, 1200, 4000, 6000, 6000},
	{400, 1300, 5000, 7500, 7500},
	{450, 1500, 6000, 9000, 9000},
	{500, 1750, 7500, 12000, 12500},
	{600, 2000, 9000, 15000, 16000},
	{700, 2500, 11000, 20000, 25000},
	{800, 3000, 14000, 28000, 40000},
	{900, 4000, 20000, 40000, 60000},
	{1000, 5000, 30000, 60000, 90000},
	{1100, 6000, 40000, 90000, 130000},
}

// earnIncomeDCs is the task DC by level 0..20.
var earnIncomeDCs = []int{
	14, 15, 16, 18, 19, 20, 22, 23, 24, 26,
	27, 28, 30, 31, 32, 34, 35, 36, 38, 39, 40,
}

// EarnIncomeDC returns the earn-gold difficulty for a task level.
func EarnIncomeDC(level int) int {
	if level < 0 {
		level = 0
	}
	if level >= len(earnIncomeDCs) {
		level = len(earnIncomeDCs) - 1
	}
	return earnIncomeDCs[level]
}

// CalculateEarnIncome resolves the earn-gold payout: the roll total is
// banded against the DC, the earning tier comes from the team's rank, and
// a critical success reads from the next-higher level's row. A critical
// failure earns nothing.
func CalculateEarnIncome(level, teamRank, rollTotal, dc int) int {
	if level < 0 {
		level = 0
	}
	if level >= len(earnIncomeDCs) {
		level = len(earnIncomeDCs) - 1
	}
	prof := ProficiencyForTeamRank(teamRank)
	row := earnIncomeTable[level]
	switch dice.DegreeOf(rollTotal, dc) {
	case dice.CriticalFailure:
		return 0
	case dice.Failure:
		return row.Failure
	case dice.CriticalSuccess:
		return earnIncomeTable[level+1].At(prof)
	default:
		return row.At(prof)
	}
}
