package teachback

import "strconv"

// Field is one labelled row of category-specific details for display.
type Field struct {
	Label  string
	Values []string
}

// Details is implemented by every category-specific branch.
type Details interface {
	Category() Category
	Fields() []Field
}

// Domain holds the six optional detail branches; at most one is populated.
type Domain struct {
	Prescription *PrescriptionDetails `json:"prescription,omitempty"`
	EOB          *EOBDetails          `json:"eob,omitempty"`
	PriorAuth    *PriorAuthDetails    `json:"prior_auth,omitempty"`
	Discharge    *DischargeDetails    `json:"discharge,omitempty"`
	Lab          *LabDetails          `json:"lab,omitempty"`
	Unknown      *UnknownDetails      `json:"unknown,omitempty"`
}

func (d Domain) branch(c Category) Details {
	switch c {
	case Prescription:
		if d.Prescription != nil {
			return d.Prescription
		}
	case EOB:
		if d.EOB != nil {
			return d.EOB
		}
	case PriorAuth:
		if d.PriorAuth != nil {
			return d.PriorAuth
		}
	case Discharge:
		if d.Discharge != nil {
			return d.Discharge
		}
	case Lab:
		if d.Lab != nil {
			return d.Lab
		}
	case Unknown:
		if d.Unknown != nil {
			return d.Unknown
		}
	}
	return nil
}

func (d Domain) only(c Category) Domain {
	var out Domain
	switch c {
	case Prescription:
		out.Prescription = d.Prescription
	case EOB:
		out.EOB = d.EOB
	case PriorAuth:
		out.PriorAuth = d.PriorAuth
	case Discharge:
		out.Discharge = d.Discharge
	case Lab:
		out.Lab = d.Lab
	case Unknown:
		out.Unknown = d.Unknown
	}
	return out
}

func (d Domain) populated() []Category {
	var out []Category
	for _, c := range allCategories {
		if d.branch(c) != nil {
			out = append(out, c)
		}
	}
	return out
}

// PrescriptionDetails describes how to take a medication.
type PrescriptionDetails struct {
	Dose                   string   `json:"dose"`
	Route                  string   `json:"route"`
	Frequency              string   `json:"frequency"`
	Timing                 string   `json:"timing"`
	MissedDoseInstructions string   `json:"missed_dose_instructions"`
	CommonSideEffects      []string `json:"common_side_effects"`
	InteractionWarnings    []string `json:"interaction_warnings"`
}

func (*PrescriptionDetails) Category() Category { return Prescription }

func (p *PrescriptionDetails) Fields() []Field {
	return compact([]Field{
		single("Dose", p.Dose),
		single("Route", p.Route),
		single("Frequency", p.Frequency),
		single("Timing", p.Timing),
		single("If you miss a dose", p.MissedDoseInstructions),
		{Label: "Common side effects", Values: p.CommonSideEffects},
		{Label: "Interaction warnings", Values: p.InteractionWarnings},
	})
}

// EOBDetails summarises an explanation-of-benefits statement.
type EOBDetails struct {
	ClaimID          string   `json:"claim_id"`
	ServiceDate      string   `json:"service_date"`
	Billed           string   `json:"billed"`
	Allowed          string   `json:"allowed"`
	Deductible       string   `json:"deductible"`
	Copay            string   `json:"copay"`
	Coinsurance      string   `json:"coinsurance"`
	NotCoveredReason string   `json:"not_covered_reason"`
	AppealWindowDays int      `json:"appeal_window_days"`
	NextSteps        []string `json:"next_steps"`
}

func (*EOBDetails) Category() Category { return EOB }

func (e *EOBDetails) Fields() []Field {
	appeal := ""
	if e.AppealWindowDays > 0 {
		appeal = strconv.Itoa(e.AppealWindowDays) + " days"
	}
	return compact([]Field{
		single("Claim", e.ClaimID),
		single("Service date", e.ServiceDate),
		single("Billed", e.Billed),
		single("Allowed", e.Allowed),
		single("Deductible", e.Deductible),
		single("Copay", e.Copay),
		single("Coinsurance", e.Coinsurance),
		single("Not covered because", e.NotCoveredReason),
		single("Appeal window", appeal),
		{Label: "Next steps", Values: e.NextSteps},
	})
}

// PriorAuthDetails tracks a prior authorization request.
type PriorAuthDetails struct {
	Status           string   `json:"status"`
	MissingItems     []string `json:"missing_items"`
	ClinicalCriteria []string `json:"clinical_criteria"`
	Deadline         string   `json:"deadline"`
	Checklist        []string `json:"checklist"`
	TemplateAddendum string   `json:"template_addendum"`
}

func (*PriorAuthDetails) Category() Category { return PriorAuth }

func (p *PriorAuthDetails) Fields() []Field {
	return compact([]Field{
		single("Status", p.Status),
		single("Deadline", p.Deadline),
		{Label: "Missing items", Values: p.MissingItems},
		{Label: "Clinical criteria", Values: p.ClinicalCriteria},
		{Label: "Checklist", Values: p.Checklist},
		single("Letter addendum", p.TemplateAddendum),
	})
}

// DischargeDetails lists what happens after leaving the hospital.
type DischargeDetails struct {
	Followups            []string `json:"followups"`
	MedChanges           []string `json:"med_changes"`
	WhenToCall           []string `json:"when_to_call"`
	ActivityRestrictions []string `json:"activity_restrictions"`
}

func (*DischargeDetails) Category() Category { return Discharge }

func (d *DischargeDetails) Fields() []Field {
	return compact([]Field{
		{Label: "Follow-ups", Values: d.Followups},
		{Label: "Medication changes", Values: d.MedChanges},
		{Label: "When to call", Values: d.WhenToCall},
		{Label: "Activity restrictions", Values: d.ActivityRestrictions},
	})
}

// LabDetails explains a single lab result.
type LabDetails struct {
	Test           string   `json:"test"`
	Value          string   `json:"value"`
	Unit           string   `json:"unit"`
	ReferenceRange string   `json:"reference_range"`
	Interpretation string   `json:"interpretation"`
	NextSteps      []string `json:"next_steps"`
}

func (*LabDetails) Category() Category { return Lab }

func (l *LabDetails) Fields() []Field {
	value := l.Value
	if value != "" && l.Unit != "" {
		value += " " + l.Unit
	}
	return compact([]Field{
		single("Test", l.Test),
		single("Result", value),
		single("Reference range", l.ReferenceRange),
		single("What it means", l.Interpretation),
		{Label: "Next steps", Values: l.NextSteps},
	})
}

// UnknownDetails is the generic fallback for unclassified documents.
type UnknownDetails struct {
	KeyPoints              []string `json:"key_points"`
	ActionChecklist        []string `json:"action_checklist"`
	QuestionsToAskProvider []string `json:"questions_to_ask_provider"`
}

func (*UnknownDetails) Category() Category { return Unknown }

func (u *UnknownDetails) Fields() []Field {
	return compact([]Field{
		{Label: "Key points", Values: u.KeyPoints},
		{Label: "To do", Values: u.ActionChecklist},
		{Label: "Questions for your provider", Values: u.QuestionsToAskProvider},
	})
}

func single(label, value string) Field {
	if value == "" {
		return Field{Label: label}
	}
	return Field{Label: label, Values: []string{value}}
}

func compact(fields []Field) []Field {
	out := fields[:0]
	for _, f := range fields {
		if len(f.Values) > 0 {
			out = append(out, f)
		}
	}
	return out
}
