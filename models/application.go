package models

import "time"

// Application status values. Transitions are applied by staff through the
// review endpoint; applicants only ever create at "pending".
const (
	ApplicationPending   = "pending"
	ApplicationApproved  = "approved"
	ApplicationDenied    = "denied"
	ApplicationInterview = "interview"
)

// Application is a membership application for the roleplay server. One per
// user, enforced on the create path.
type Application struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	UserID             uint      `gorm:"index;not null" json:"user_id"`
	DiscordName        string    `gorm:"size:64;not null" json:"discord_name"`
	Age                int       `gorm:"not null" json:"age"`
	Timezone           string    `gorm:"size:64;not null" json:"timezone"`
	RPExperience       string    `gorm:"type:text" json:"rp_experience"`
	CharacterBackstory string    `gorm:"type:text" json:"character_backstory"`
	WhyJoin            string    `gorm:"type:text" json:"why_join"`
	RulesAgreement     bool      `gorm:"default:false" json:"rules_agreement"`
	Status             string    `gorm:"size:16;default:'pending'" json:"status"`
	ReviewerNotes      string    `gorm:"type:text" json:"reviewer_notes"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// StatusInfo is the fixed narrative block shown to an applicant for each
// status value.
type StatusInfo struct {
	Status  string `json:"status"`
	Label   string `json:"label"`
	Message string `json:"message"`
	Icon    string `json:"icon"`
}

var statusInfos = map[string]StatusInfo{
	ApplicationPending: {
		Status:  ApplicationPending,
		Label:   "Pending",
		Message: "Your application is being reviewed by our team. This usually takes 24-48 hours.",
		Icon:    "clock",
	},
	ApplicationApproved: {
		Status:  ApplicationApproved,
		Label:   "Approved",
		Message: "Congratulations! Your application has been approved. Welcome to Real-Wrld!",
		Icon:    "check-circle",
	},
	ApplicationDenied: {
		Status:  ApplicationDenied,
		Label:   "Denied",
		Message: "Unfortunately, your application was not approved at this time. You may reapply after 30 days.",
		Icon:    "alert-circle",
	},
	ApplicationInterview: {
		Status:  ApplicationInterview,
		Label:   "Interview",
		Message: "You've been selected for an interview! Check your Discord for details.",
		Icon:    "star",
	},
}

// StatusProjection maps a stored status to its narrative block. Unknown or
// missing statuses get the pending treatment.
func StatusProjection(status string) StatusInfo {
	if info, ok := statusInfos[status]; ok {
		return info
	}
	return statusInfos[ApplicationPending]
}

// ValidApplicationStatus reports whether s is one of the four known states.
func ValidApplicationStatus(s string) bool {
	_, ok := statusInfos[s]
	return ok
}
