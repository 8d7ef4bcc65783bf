package sale

import (
	"fmt"
	"strconv"
	"strings"

	"medsys/m/domain"
	"medsys/m/internal/catalog"
)

// Rule identifies the specific check a draft failed.
type Rule string

const (
	RuleClientRequired      Rule = "client_required"
	RuleBranchRequired      Rule = "branch_required"
	RuleLinesRequired       Rule = "lines_required"
	RuleMedicationRequired  Rule = "medication_required"
	RuleMedicationUnknown   Rule = "medication_unknown"
	RuleQuantityInvalid     Rule = "quantity_invalid"
	RuleInsufficientStock   Rule = "insufficient_stock"
	RulePrescriptionMissing Rule = "prescription_required"
	RuleKindUnrecognized    Rule = "kind_unrecognized"
)

// ValidationError is the first rule a draft violates. Line is 1-based and
// zero for the draft-level rules.
type ValidationError struct {
	Rule    Rule
	Line    int
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

func fail(rule Rule, message string) *ValidationError {
	return &ValidationError{Rule: rule, Message: message}
}

func failLine(rule Rule, line int, format string, args ...any) *ValidationError {
	return &ValidationError{
		Rule:    rule,
		Line:    line,
		Message: fmt.Sprintf("item %d: ", line) + fmt.Sprintf(format, args...),
	}
}

// Validate checks the draft against the business rules and the catalog,
// short-circuiting at the first violation. Only one reason is ever
// reported at a time; line-level messages carry the 1-based item number.
func Validate(d *Draft, snap *catalog.Snapshot) error {
	if strings.TrimSpace(d.ClientID) == "" {
		return fail(RuleClientRequired, "select a client")
	}
	if strings.TrimSpace(d.BranchID) == "" {
		return fail(RuleBranchRequired, "select a branch")
	}
	if len(d.Lines) == 0 {
		return fail(RuleLinesRequired, "add at least one item")
	}

	for i, line := range d.Lines {
		n := i + 1
		if strings.TrimSpace(line.MedicationID) == "" {
			return failLine(RuleMedicationRequired, n, "select a medication")
		}
		medID, err := strconv.ParseInt(strings.TrimSpace(line.MedicationID), 10, 64)
		if err != nil {
			return failLine(RuleMedicationUnknown, n, "unknown medication")
		}
		med, ok := snap.MedicationByID(medID)
		if !ok {
			return failLine(RuleMedicationUnknown, n, "unknown medication")
		}

		qty, err := strconv.ParseInt(strings.TrimSpace(line.Quantity), 10, 64)
		if err != nil || qty <= 0 {
			return failLine(RuleQuantityInvalid, n, "invalid quantity")
		}

		// Stock is skipped when the API omitted it: absent means unknown,
		// not zero.
		if med.Stock != nil && qty > *med.Stock {
			return failLine(RuleInsufficientStock, n,
				"requested quantity (%d) exceeds available stock (%d)", qty, *med.Stock)
		}

		switch med.Kind {
		case domain.KindControlled:
			if !line.Prescription {
				return failLine(RulePrescriptionMissing, n, "controlled medication requires a prescription")
			}
		case domain.KindCommon:
		default:
			return failLine(RuleKindUnrecognized, n, "unrecognized medication kind %q", string(med.Kind))
		}
	}
	return nil
}
