package internal

// Value sets of the EU Digital COVID Certificate.
// https://github.com/ehn-dcc-development/ehn-dcc-valuesets

// DiseaseCOVID19Code is the SNOMED CT code for COVID-19.
const DiseaseCOVID19Code = "840539006"

type DiseaseAgent int

const (
	DiseaseUnknown DiseaseAgent = iota
	DiseaseCOVID19
)

func ParseDiseaseAgent(code string) DiseaseAgent {
	switch code {
	case DiseaseCOVID19Code:
		return DiseaseCOVID19
	default:
		return DiseaseUnknown
	}
}

type TestType int

const (
	TestTypeUnknown TestType = iota
	TestTypeNAAT
	TestTypeRapidAntigen
)

func ParseTestType(code string) TestType {
	switch code {
	case "LP6464-4":
		return TestTypeNAAT
	case "LP217198-3":
		return TestTypeRapidAntigen
	default:
		return TestTypeUnknown
	}
}

type TestResult int

const (
	TestResultUnknown TestResult = iota
	TestResultNotDetected
	TestResultDetected
)

func ParseTestResult(code string) TestResult {
	switch code {
	case "260415000":
		return TestResultNotDetected
	case "260373001":
		return TestResultDetected
	default:
		return TestResultUnknown
	}
}

// ProcedureType is the vaccine product of a dose, or a recovery.
type ProcedureType int

const (
	ProcedureUnknown ProcedureType = iota
	ProcedureRecovery
	ProcedureComirnaty
	ProcedureSpikevax
	ProcedureVaxzevria
	ProcedureJanssen
	ProcedureNuvaxovid
	ProcedureVidprevtyn
	ProcedureValneva
	ProcedureCovishield
	ProcedureSputnikV
	ProcedureCoronaVac
	ProcedureBBIBPCorV
	ProcedureCovaxin
)

var procedureNames = map[ProcedureType]string{
	ProcedureUnknown:    "UNKNOWN",
	ProcedureRecovery:   "RECOVERY",
	ProcedureComirnaty:  "COMIRNATY",
	ProcedureSpikevax:   "SPIKEVAX",
	ProcedureVaxzevria:  "VAXZEVRIA",
	ProcedureJanssen:    "JANSSEN",
	ProcedureNuvaxovid:  "NUVAXOVID",
	ProcedureVidprevtyn: "VIDPREVTYN",
	ProcedureValneva:    "VALNEVA",
	ProcedureCovishield: "COVISHIELD",
	ProcedureSputnikV:   "SPUTNIK_V",
	ProcedureCoronaVac:  "CORONAVAC",
	ProcedureBBIBPCorV:  "BBIBP_CORV",
	ProcedureCovaxin:    "COVAXIN",
}

func ParseVaccineProduct(code string) ProcedureType {
	switch code {
	case "EU/1/20/1528":
		return ProcedureComirnaty
	case "EU/1/20/1507":
		return ProcedureSpikevax
	case "EU/1/21/1529":
		return ProcedureVaxzevria
	case "EU/1/20/1525":
		return ProcedureJanssen
	case "EU/1/21/1618":
		return ProcedureNuvaxovid
	case "EU/1/21/1580":
		return ProcedureVidprevtyn
	case "EU/1/21/1624":
		return ProcedureValneva
	case "Covishield":
		return ProcedureCovishield
	case "Sputnik-V":
		return ProcedureSputnikV
	case "CoronaVac":
		return ProcedureCoronaVac
	case "BBIBP-CorV":
		return ProcedureBBIBPCorV
	case "Covaxin":
		return ProcedureCovaxin
	default:
		return ProcedureUnknown
	}
}

// SeriesSize is the nominal number of doses of the primary course. Zero
// means the size is not known.
func (p ProcedureType) SeriesSize() int {
	switch p {
	case ProcedureJanssen:
		return 1
	case ProcedureComirnaty,
		ProcedureSpikevax,
		ProcedureVaxzevria,
		ProcedureNuvaxovid,
		ProcedureVidprevtyn,
		ProcedureValneva,
		ProcedureCovishield,
		ProcedureSputnikV,
		ProcedureCoronaVac,
		ProcedureBBIBPCorV,
		ProcedureCovaxin:
		return 2
	default:
		return 0
	}
}

func (p ProcedureType) String() string {
	if name, ok := procedureNames[p]; ok {
		return name
	}
	return procedureNames[ProcedureUnknown]
}

func (p ProcedureType) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *ProcedureType) UnmarshalText(text []byte) error {
	*p = ProcedureUnknown
	for procedure, name := range procedureNames {
		if name == string(text) {
			*p = procedure
			break
		}
	}
	return nil
}
