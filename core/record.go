package core

// Metadata holds the labeled advising fields of a report.
// A nil field means the label was not found or its value did not parse.
type Metadata struct {
	StudentName      *string  `json:"student_name" yaml:"student_name"`
	GPA              *float64 `json:"gpa" yaml:"gpa"`
	Advisor          *string  `json:"advisor" yaml:"advisor"`
	TransferHours    *int     `json:"transfer_hours" yaml:"transfer_hours"`
	Classification   *string  `json:"classification" yaml:"classification"`
	GraduationStatus *string  `json:"graduation_status" yaml:"graduation_status"`
	GraduationTerm   *string  `json:"graduation_term" yaml:"graduation_term"`
	Major            *string  `json:"major" yaml:"major"`
	Program          *string  `json:"program" yaml:"program"`
	College          *string  `json:"college" yaml:"college"`
	AcademicStanding *string  `json:"academic_standing" yaml:"academic_standing"`
}

// Section is a span of report text under one requirement-category header.
type Section struct {
	Name                  string        `json:"name" yaml:"name"`
	Text                  string        `json:"-" yaml:"-"`
	CompletedCourses      []CourseMatch `json:"completed_courses" yaml:"completed_courses"`
	RemainingRequirements []string      `json:"remaining_requirements" yaml:"remaining_requirements"`
}

// MatchTier identifies which course-record rule produced a match.
type MatchTier string

const (
	TierComplete MatchTier = "complete"
	TierDegraded MatchTier = "degraded"
)

// CourseMatch is the raw output of a course-record rule. Optional fields are
// nil when the rule did not capture them; defaults are applied later.
type CourseMatch struct {
	Code    string    `json:"course" yaml:"course"`
	Title   *string   `json:"title" yaml:"title"`
	Grade   *string   `json:"grade" yaml:"grade"`
	Credits *string   `json:"credits" yaml:"credits"`
	Term    *string   `json:"term" yaml:"term"`
	Tier    MatchTier `json:"tier" yaml:"tier"`

	// Residue is the raw term-column text following the resolved term.
	// Embedded course mentions are recovered from it.
	Residue string `json:"-" yaml:"-"`
}

// Semester is a term season.
type Semester string

const (
	Spring Semester = "SPRING"
	Summer Semester = "SUMMER"
	Fall   Semester = "FALL"
	Winter Semester = "WINTER"
)

// Rank orders semesters within a year. Unknown values rank last.
func (s Semester) Rank() int {
	switch s {
	case Spring:
		return 1
	case Summer:
		return 2
	case Fall:
		return 3
	case Winter:
		return 4
	default:
		return 5
	}
}

// RecordSource tells where a course record was discovered.
type RecordSource string

const (
	SourceSection  RecordSource = "section"
	SourceEmbedded RecordSource = "embedded"
)

// CourseRecord is the canonical course entity.
type CourseRecord struct {
	Course   string    `json:"course" yaml:"course"`
	Title    string    `json:"title" yaml:"title"`
	Credits  float64   `json:"credits" yaml:"credits"`
	Grade    string    `json:"grade" yaml:"grade"`
	Semester *Semester `json:"semester" yaml:"semester"`
	Year     *int      `json:"year" yaml:"year"`
	FullTerm *string   `json:"full_term" yaml:"full_term"`

	Source RecordSource `json:"source" yaml:"source"`
	// Defaulted lists fields whose value came from a default rather than the report.
	Defaulted []string `json:"defaulted,omitempty" yaml:"defaulted,omitempty"`
}

// IsTransfer reports whether the grade marks transfer credit.
func (c CourseRecord) IsTransfer() bool {
	switch c.Grade {
	case "TRA", "TRB", "TRC":
		return true
	}
	return false
}

// IsInProgress reports whether the course is currently being taken.
func (c CourseRecord) IsInProgress() bool {
	return c.Grade == "IP"
}

// SemesterBucket groups the courses of one term.
type SemesterBucket struct {
	Term         string         `json:"term" yaml:"term"`
	Courses      []CourseRecord `json:"courses" yaml:"courses"`
	TotalCredits float64        `json:"total_credits" yaml:"total_credits"`
	CourseCount  int            `json:"course_count" yaml:"course_count"`
}

// DegreeProgress is the normalized record produced from one report.
type DegreeProgress struct {
	Metadata `yaml:",inline"`

	Sections []Section `json:"sections" yaml:"sections"`

	TotalCompletedCredits float64  `json:"total_completed_credits" yaml:"total_completed_credits"`
	TotalCompletedCourses int      `json:"total_completed_courses" yaml:"total_completed_courses"`
	CurrentTerm           *string  `json:"current_term" yaml:"current_term"`
	CurrentTermCourses    []string `json:"current_term_courses" yaml:"current_term_courses"`
	CurrentTermCredits    float64  `json:"current_term_credits" yaml:"current_term_credits"`

	Semesters             []SemesterBucket `json:"semesters" yaml:"semesters"`
	CompletedCoursesList  []CourseRecord   `json:"completed_courses_list" yaml:"completed_courses_list"`
	InProgressCoursesList []CourseRecord   `json:"in_progress_courses_list" yaml:"in_progress_courses_list"`
}
