package model

import "time"

// Exam tracks a user can prepare for. The empty string means no track selected.
const (
	ExamUPSC       = "UPSC"
	ExamNEETUG     = "NEET_UG"
	ExamIITJEE     = "IIT_JEE"
	ExamCSIRUGCNET = "CSIR_UGC_NET"
	ExamNEETPG     = "NEET_PG"
	ExamCoding     = "CODING"
	ExamDSA        = "DSA"
	ExamAIML       = "AI_ML"
)

var examTypes = map[string]struct{}{
	ExamUPSC:       {},
	ExamNEETUG:     {},
	ExamIITJEE:     {},
	ExamCSIRUGCNET: {},
	ExamNEETPG:     {},
	ExamCoding:     {},
	ExamDSA:        {},
	ExamAIML:       {},
}

func IsValidExamType(examType string) bool {
	if examType == "" {
		return true
	}
	_, ok := examTypes[examType]
	return ok
}

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	ExamType     string    `json:"examType"`
	Phone        string    `json:"phone"`
	Bio          string    `json:"bio"`
	Location     string    `json:"location"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
