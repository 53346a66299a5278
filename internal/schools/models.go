package schools

type School struct {
	ID             uint    `gorm:"primaryKey" json:"id"`
	Name           string  `gorm:"not null" json:"name"`
	Address        string  `json:"address"`
	City           string  `json:"city"`
	State          string  `json:"state"`
	Zip            string  `json:"zip"`
	Latitude       float64 `json:"latitude"`
	Longitude      float64 `json:"longitude"`
	WebsiteURL     string  `json:"websiteUrl,omitempty"`
	RegistrarEmail string  `json:"registrarEmail,omitempty"`

	Policies []SchoolPolicy `gorm:"foreignKey:SchoolID" json:"policies"`

	// Aggregated at read time, never stored.
	Votes    *VoteCounts `gorm:"-" json:"votes,omitempty"`
	Distance *float64    `gorm:"-" json:"distance,omitempty"`
}

type SchoolPolicy struct {
	ID              uint    `gorm:"primaryKey" json:"id"`
	SchoolID        uint    `gorm:"not null;index" json:"schoolId"`
	ExamID          uint    `gorm:"not null" json:"examId"`
	MinScore        int     `json:"minScore"`
	CourseCode      string  `json:"courseCode"`
	CourseName      string  `json:"courseName"`
	Credits         int     `json:"credits"`
	IsGeneralCredit bool    `json:"isGeneralCredit"`
	Notes           *string `json:"notes,omitempty"`
	IsUpdated       bool    `json:"isUpdated"`
	// Date stamp (YYYY-MM-DD), not a timestamp.
	UpdatedAt string `gorm:"column:updated_at" json:"updatedAt"`
}

type Vote struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	SchoolID uint   `gorm:"not null;uniqueIndex:idx_votes_school_ip" json:"schoolId"`
	VoteType string `gorm:"not null" json:"voteType"`
	UserIP   string `gorm:"not null;uniqueIndex:idx_votes_school_ip" json:"-"`
}

type CLEPExam struct {
	ID       uint   `gorm:"primaryKey" json:"id"`
	Name     string `gorm:"not null" json:"name"`
	Category string `json:"category"`
}

type VoteCounts struct {
	Upvotes   int64 `json:"upvotes"`
	Downvotes int64 `json:"downvotes"`
}

func (School) TableName() string       { return "directory.schools" }
func (SchoolPolicy) TableName() string { return "directory.school_policies" }
func (Vote) TableName() string         { return "directory.votes" }
func (CLEPExam) TableName() string     { return "directory.clep_exams" }
