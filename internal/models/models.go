package models

// Role decides what a user may see and change.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// Ranks lists the organisational ranks in ascending order.
var Ranks = []string{
	"Gyakorló Mentőápoló",
	"Mentőápoló",
	"Mentőszakápoló",
	"Mentőtechnikus",
	"Mentőtiszt",
	"Orvos",
	"Rezidens",
	"Fő Orvos",
	"Mentésvezető",
	"Regionális Vezető",
	"Orvos igazgató",
	"Igazgató helyettes",
	"Igazgató",
	"Főigazgató helyettes",
	"Főigazgató",
}

// TopRank is the highest rank, given to the bootstrap administrator.
var TopRank = Ranks[len(Ranks)-1]

// IsRank reports whether r is one of Ranks.
func IsRank(r string) bool {
	for _, rank := range Ranks {
		if rank == r {
			return true
		}
	}
	return false
}

// User is an account. Password is stored as entered.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"fullName"`
	Rank     string `json:"rank"`
	Role     Role   `json:"role"`
}

// IsAdmin reports whether u carries the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Service is one logged duty shift.
type Service struct {
	ID                string `json:"id"`
	UserID            string `json:"userId,omitempty"`
	ServiceName       string `json:"serviceName"`
	ServiceRank       string `json:"serviceRank"`
	ServiceStart      string `json:"serviceStart"`
	ServiceEnd        string `json:"serviceEnd"`
	DurationInMinutes int    `json:"durationInMinutes"`
	CreatedAt         string `json:"createdAt"`
}

// Report is a case write-up with its billed amount.
type Report struct {
	ID              string  `json:"id"`
	UserID          string  `json:"userId,omitempty"`
	YourName        string  `json:"yourName"`
	Rank            string  `json:"rank"`
	ColleagueName   string  `json:"colleagueName"`
	ColleagueRank   string  `json:"colleagueRank"`
	CaseDescription string  `json:"caseDescription"`
	Ticket          float64 `json:"ticket"`
	ImageLink       string  `json:"imageLink"`
	Date            string  `json:"date"`
}

// Post is an announcement written by an administrator.
type Post struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Date    string `json:"date"`
}

// WeeklyAnalysis is the archived state of the live collections at a rollover.
type WeeklyAnalysis struct {
	Date     string    `json:"date"`
	Services []Service `json:"services"`
	Reports  []Report  `json:"reports"`
}
