package internal

import (
	"time"
)

const DefaultRecoveryWindowMonths = 6

type BoosterPolicy struct {
	// RecoveryWindowMonths bounds how old a recovery may be and still count
	// towards a booster together with a completed vaccination course.
	RecoveryWindowMonths int
}

func DefaultBoosterPolicy() BoosterPolicy {
	return BoosterPolicy{RecoveryWindowMonths: DefaultRecoveryWindowMonths}
}

// IsBoostered decides from a person's accepted documents whether they hold
// booster protection. A history is boostered when any of these hold:
//
//   - it has at least BoosterDoseThreshold doses of any product mix,
//   - its dose count exceeds the series size of a product it contains,
//   - a completed course is combined with a recovery younger than the
//     policy window.
//
// Adding documents never turns a boostered history into a non-boostered one.
func IsBoostered(
	vaccinations []Document,
	recoveries []Document,
	now time.Time,
	policy BoosterPolicy,
) bool {
	procedures := vaccinationProcedures(vaccinations)
	if len(procedures) == 0 {
		return false
	}

	doses := doseCount(procedures)
	if doses >= BoosterDoseThreshold {
		return true
	}

	if size := smallestSeriesSize(procedures); size > 0 && doses > size {
		return true
	}

	return hasCompletedCourse(procedures) &&
		hasRecentRecovery(recoveries, now, policy)
}

func vaccinationProcedures(docs []Document) []Procedure {
	var procedures []Procedure
	for _, doc := range docs {
		if doc.Type != TypeVaccination {
			continue
		}
		for _, p := range doc.Procedures {
			if p.Type != ProcedureRecovery {
				procedures = append(procedures, p)
			}
		}
	}
	return procedures
}

func dayOf(t time.Time) string {
	return t.UTC().Format(time.DateOnly)
}

// doseCount is the larger of the highest issued dose number and the number
// of distinct vaccination days. The same dose reported by two certificates
// counts once.
func doseCount(procedures []Procedure) int {
	days := map[string]struct{}{}
	highest := 0
	for _, p := range procedures {
		days[dayOf(p.Timestamp)] = struct{}{}
		if p.DoseNumber > highest {
			highest = p.DoseNumber
		}
	}
	if len(days) > highest {
		return len(days)
	}
	return highest
}

// smallestSeriesSize is the shortest known primary course among the
// products in procedures, or zero when none is known. Any product may have
// been the initial one once more documents arrive.
func smallestSeriesSize(procedures []Procedure) int {
	smallest := 0
	for _, p := range procedures {
		size := p.Type.SeriesSize()
		if size > 0 && (smallest == 0 || size < smallest) {
			smallest = size
		}
	}
	return smallest
}

func hasCompletedCourse(procedures []Procedure) bool {
	for _, p := range procedures {
		if courseCompleted(p) {
			return true
		}
	}
	return false
}

func hasRecentRecovery(
	recoveries []Document,
	now time.Time,
	policy BoosterPolicy,
) bool {
	for _, doc := range recoveries {
		if doc.Type != TypeRecovery || doc.Outcome != OutcomeFullyImmune {
			continue
		}
		recoveredAt := doc.TestingTimestamp
		if latest, ok := doc.LatestProcedure(); ok {
			recoveredAt = latest.Timestamp
		}
		if recoveredAt.IsZero() || recoveredAt.After(now) {
			continue
		}
		if recoveredAt.AddDate(0, policy.RecoveryWindowMonths, 0).After(now) {
			return true
		}
	}
	return false
}
