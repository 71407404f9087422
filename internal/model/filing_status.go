package model

import "strings"

// FilingStatus is one of the five federal filing statuses.
type FilingStatus string

// Filing status constants.
const (
	FilingSingle                    FilingStatus = "single"
	FilingMarriedJointly            FilingStatus = "married_filing_jointly"
	FilingMarriedSeparately         FilingStatus = "married_filing_separately"
	FilingHeadOfHousehold           FilingStatus = "head_of_household"
	FilingQualifyingSurvivingSpouse FilingStatus = "qualifying_surviving_spouse"
)

// FilingStatuses lists every supported filing status in IRS code order (1-5).
var FilingStatuses = []FilingStatus{
	FilingSingle,
	FilingMarriedJointly,
	FilingMarriedSeparately,
	FilingHeadOfHousehold,
	FilingQualifyingSurvivingSpouse,
}

// IsValid reports whether the status is one of the five known values.
func (s FilingStatus) IsValid() bool {
	for _, fs := range FilingStatuses {
		if s == fs {
			return true
		}
	}
	return false
}

// Normalize returns the status itself when valid and FilingSingle otherwise.
func (s FilingStatus) Normalize() FilingStatus {
	if s.IsValid() {
		return s
	}
	return FilingSingle
}

// IsJoint reports whether the status uses joint-return thresholds.
func (s FilingStatus) IsJoint() bool {
	return s == FilingMarriedJointly || s == FilingQualifyingSurvivingSpouse
}

// ParseFilingStatus maps an IRS filing status code ("1".."5") or a free-text
// description to a FilingStatus. The second return value is false when the
// input could not be mapped.
func ParseFilingStatus(raw string) (FilingStatus, bool) {
	v := strings.ToLower(strings.TrimSpace(raw))
	v = strings.NewReplacer("-", " ", "_", " ", "(", " ", ")", " ").Replace(v)
	v = strings.Join(strings.Fields(v), " ")

	switch v {
	case "1", "single", "s":
		return FilingSingle, true
	case "2", "married filing jointly", "married filing joint", "mfj", "joint":
		return FilingMarriedJointly, true
	case "3", "married filing separately", "married filing separate", "mfs":
		return FilingMarriedSeparately, true
	case "4", "head of household", "hoh":
		return FilingHeadOfHousehold, true
	case "5", "qualifying widow", "qualifying widower", "qualifying widow er",
		"qualifying surviving spouse", "qss", "qw":
		return FilingQualifyingSurvivingSpouse, true
	}

	// Transcripts frequently append the code after the words ("Single (1)").
	for _, status := range FilingStatuses {
		if strings.HasPrefix(v, strings.ReplaceAll(string(status), "_", " ")) {
			return status, true
		}
	}
	if strings.HasPrefix(v, "qualifying") {
		return FilingQualifyingSurvivingSpouse, true
	}
	return "", false
}
