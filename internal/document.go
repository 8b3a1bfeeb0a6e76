package internal

import (
	"time"

	"github.com/google/uuid"
)

type DocumentType int

const (
	TypeUnknown DocumentType = iota
	TypeTestFast
	TypeTestPCR
	TypeVaccination
	TypeRecovery
)

var documentTypeNames = map[DocumentType]string{
	TypeUnknown:     "UNKNOWN",
	TypeTestFast:    "TEST_FAST",
	TypeTestPCR:     "TEST_PCR",
	TypeVaccination: "VACCINATION",
	TypeRecovery:    "RECOVERY",
}

func (t DocumentType) String() string {
	if name, ok := documentTypeNames[t]; ok {
		return name
	}
	return documentTypeNames[TypeUnknown]
}

func (t DocumentType) MarshalText() ([]byte, error) {
	return []byte(t.String()), nil
}

func (t *DocumentType) UnmarshalText(text []byte) error {
	*t = TypeUnknown
	for docType, name := range documentTypeNames {
		if name == string(text) {
			*t = docType
			break
		}
	}
	return nil
}

type Outcome int

const (
	OutcomeUnknown Outcome = iota
	OutcomePositive
	OutcomeNegative
	OutcomePartiallyImmune
	OutcomeFullyImmune
)

var outcomeNames = map[Outcome]string{
	OutcomeUnknown:         "UNKNOWN",
	OutcomePositive:        "POSITIVE",
	OutcomeNegative:        "NEGATIVE",
	OutcomePartiallyImmune: "PARTIALLY_IMMUNE",
	OutcomeFullyImmune:     "FULLY_IMMUNE",
}

func (o Outcome) String() string {
	if name, ok := outcomeNames[o]; ok {
		return name
	}
	return outcomeNames[OutcomeUnknown]
}

func (o Outcome) MarshalText() ([]byte, error) {
	return []byte(o.String()), nil
}

func (o *Outcome) UnmarshalText(text []byte) error {
	*o = OutcomeUnknown
	for outcome, name := range outcomeNames {
		if name == string(text) {
			*o = outcome
			break
		}
	}
	return nil
}

// Person is the registered profile a certificate holder is matched against.
type Person struct {
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth"`
}

// Procedure is a single vaccination dose or recovery. Dose numbers are kept
// as issued, so DoseNumber may exceed TotalSeriesOfDoses for boosters.
type Procedure struct {
	Type               ProcedureType `json:"type"`
	Timestamp          time.Time     `json:"timestamp"`
	DoseNumber         int           `json:"dose_number"`
	TotalSeriesOfDoses int           `json:"total_series_of_doses"`
}

// Document is the normalized record produced from a verified certificate.
type Document struct {
	ID      string       `json:"id"`
	Type    DocumentType `json:"type"`
	Outcome Outcome      `json:"outcome"`

	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	DateOfBirth time.Time `json:"date_of_birth"`

	LabName       *string `json:"lab_name,omitempty"`
	LabDoctorName *string `json:"lab_doctor_name,omitempty"`

	TestingTimestamp time.Time `json:"testing_timestamp"`
	ResultTimestamp  time.Time `json:"result_timestamp"`

	ValidityStartTimestamp time.Time `json:"validity_start_timestamp"`
	ExpirationTimestamp    time.Time `json:"expiration_timestamp"`

	Procedures []Procedure `json:"procedures,omitempty"`

	EncodedData string `json:"encoded_data"`
	IsVerified  bool   `json:"is_verified"`
}

// LatestProcedure returns the procedure with the highest dose number, the
// later one on ties.
func (doc Document) LatestProcedure() (Procedure, bool) {
	if len(doc.Procedures) == 0 {
		return Procedure{}, false
	}

	latest := doc.Procedures[0]
	for _, p := range doc.Procedures[1:] {
		if p.DoseNumber > latest.DoseNumber ||
			(p.DoseNumber == latest.DoseNumber && p.Timestamp.After(latest.Timestamp)) {
			latest = p
		}
	}
	return latest, true
}

var documentNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("hcert.document"))

// DocumentID derives a stable identifier so re-importing a certificate
// yields the same document.
func DocumentID(hashableEncodedData string) string {
	return uuid.NewSHA1(documentNamespace, []byte(hashableEncodedData)).String()
}
