package models

type PersonalInformation struct {
	FullName string `json:"full_name" yaml:"full_name"`
	JobTitle string `json:"job_title" yaml:"job_title"`
	Location string `json:"location" yaml:"location"`
	Email    string `json:"email" yaml:"email"`
	Phone    string `json:"phone" yaml:"phone"`
}

// Profile is the applicant data the answerer may consult directly. Everything
// else reaches questions through the oracle's résumé context.
type Profile struct {
	PersonalInformation PersonalInformation `json:"personal_information" yaml:"personal_information"`
	SalaryExpectation   string              `json:"salary_expectation,omitempty" yaml:"salary_expectation"`
	ResumeID            string              `json:"resume_id,omitempty" yaml:"resume_id"`
}
