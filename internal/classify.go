package internal

import (
	"fmt"
	"sort"
	"time"

	"github.com/blocky/hcert/pkg/hcert_error"
)

// TimeUntilValid is the maturation delay between completing a primary
// vaccination course and the start of its validity.
const TimeUntilValid = 14 * 24 * time.Hour

// BoosterDoseThreshold is the dose number treated as a booster when the
// initial vaccine product, and with it the nominal series size, is unknown.
const BoosterDoseThreshold = 3

// Classify turns validated claims into a Document. When a certificate
// carries several statement kinds, tests take precedence over vaccinations
// and vaccinations over recoveries, matching the identifier used for the
// document id.
func Classify(claims Claims, encodedData string) (Document, error) {
	hashable, ok := claims.HashableEncodedData()
	if !ok {
		hashable = encodedData
	}

	doc := Document{
		ID:                  DocumentID(hashable),
		Type:                TypeUnknown,
		Outcome:             OutcomeUnknown,
		FirstName:           claims.FirstName(),
		LastName:            claims.LastName(),
		DateOfBirth:         claims.DateOfBirth(),
		ExpirationTimestamp: claims.Expiration.Time(),
		EncodedData:         encodedData,
	}

	var err error
	dcc := claims.DCC()
	switch {
	case len(dcc.Tests) > 0:
		err = classifyTest(&doc, dcc.Tests[0])
	case len(dcc.Vaccinations) > 0:
		err = classifyVaccination(&doc, dcc.Vaccinations)
	case len(dcc.Recoveries) > 0:
		err = classifyRecovery(&doc, dcc.Recoveries[0])
	}
	if err != nil {
		return Document{}, fmt.Errorf("%w: %w", hcert_error.ErrMalformedClaims, err)
	}
	return doc, nil
}

func classifyTest(doc *Document, test TestEntry) error {
	switch ParseTestType(test.TestType) {
	case TestTypeNAAT:
		doc.Type = TypeTestPCR
	case TestTypeRapidAntigen:
		doc.Type = TypeTestFast
	default:
		doc.Type = TypeUnknown
	}

	switch ParseTestResult(test.Result) {
	case TestResultDetected:
		doc.Outcome = OutcomePositive
	case TestResultNotDetected:
		doc.Outcome = OutcomeNegative
	default:
		doc.Outcome = OutcomeUnknown
	}

	sampled, err := ParseTimestamp(test.SampleTime)
	if err != nil {
		return fmt.Errorf("parsing sample collection time: %w", err)
	}
	resulted, err := parseOptionalTimestamp(test.ResultTime)
	if err != nil {
		return fmt.Errorf("parsing result time: %w", err)
	}
	if resulted.IsZero() {
		resulted = sampled
	}

	doc.TestingTimestamp = sampled
	doc.ResultTimestamp = resulted
	if test.TestingCentre != "" {
		labName := test.TestingCentre
		doc.LabName = &labName
	}
	return nil
}

func classifyVaccination(doc *Document, vaccinations []VaccinationEntry) error {
	procedures := make([]Procedure, 0, len(vaccinations))
	for _, v := range vaccinations {
		date, err := ParseTimestamp(v.Date)
		if err != nil {
			return fmt.Errorf("parsing vaccination date: %w", err)
		}
		procedures = append(procedures, Procedure{
			Type:               ParseVaccineProduct(v.Product),
			Timestamp:          date,
			DoseNumber:         v.DoseNumber,
			TotalSeriesOfDoses: v.TotalSeriesOfDoses,
		})
	}
	sortProcedures(procedures)

	doc.Type = TypeVaccination
	doc.Outcome = OutcomePartiallyImmune
	doc.Procedures = procedures

	latest, _ := doc.LatestProcedure()
	doc.TestingTimestamp = latest.Timestamp
	doc.ResultTimestamp = latest.Timestamp

	if !courseCompleted(latest) {
		return nil
	}

	doc.Outcome = OutcomeFullyImmune
	if IsBoosterDose(procedures[0].Type, latest.DoseNumber) {
		doc.ValidityStartTimestamp = latest.Timestamp
	} else {
		doc.ValidityStartTimestamp = latest.Timestamp.Add(TimeUntilValid)
	}
	return nil
}

func classifyRecovery(doc *Document, recovery RecoveryEntry) error {
	firstPositive, err := ParseTimestamp(recovery.FirstPositiveDate)
	if err != nil {
		return fmt.Errorf("parsing first positive result date: %w", err)
	}
	validFrom, err := parseOptionalTimestamp(recovery.ValidFrom)
	if err != nil {
		return fmt.Errorf("parsing valid from: %w", err)
	}
	validUntil, err := parseOptionalTimestamp(recovery.ValidUntil)
	if err != nil {
		return fmt.Errorf("parsing valid until: %w", err)
	}

	doc.Type = TypeRecovery
	doc.Outcome = OutcomeFullyImmune
	doc.TestingTimestamp = firstPositive
	doc.ResultTimestamp = firstPositive
	doc.ValidityStartTimestamp = validFrom
	if validFrom.IsZero() {
		doc.ValidityStartTimestamp = firstPositive
	}
	if !validUntil.IsZero() {
		doc.ExpirationTimestamp = validUntil
	}
	doc.Procedures = []Procedure{{
		Type:               ProcedureRecovery,
		Timestamp:          firstPositive,
		DoseNumber:         1,
		TotalSeriesOfDoses: 1,
	}}
	return nil
}

// IsBoosterDose reports whether doseNumber goes beyond the primary course of
// the initial vaccine product.
func IsBoosterDose(initial ProcedureType, doseNumber int) bool {
	if size := initial.SeriesSize(); size > 0 {
		return doseNumber > size
	}
	return doseNumber >= BoosterDoseThreshold
}

func courseCompleted(p Procedure) bool {
	return p.TotalSeriesOfDoses > 0 && p.DoseNumber >= p.TotalSeriesOfDoses
}

func sortProcedures(procedures []Procedure) {
	sort.SliceStable(procedures, func(i, j int) bool {
		if procedures[i].DoseNumber != procedures[j].DoseNumber {
			return procedures[i].DoseNumber < procedures[j].DoseNumber
		}
		return procedures[i].Timestamp.Before(procedures[j].Timestamp)
	})
}
