package model

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Portfolio is the single document owned 1:1 by a user. Section collections
// are stored as jsonb columns.
type Portfolio struct {
	ID           string          `db:"id" json:"id"`
	UserID       string          `db:"user_id" json:"userId"`
	Email        string          `db:"email" json:"email"`
	About        string          `db:"about" json:"about"`
	Skills       SkillList       `db:"skills" json:"skills"`
	Projects     ProjectList     `db:"projects" json:"projects"`
	Certificates CertificateList `db:"certificates" json:"certificates"`
	Experience   ExperienceList  `db:"experience" json:"experience"`
	Education    EducationList   `db:"education" json:"education"`
	Social       SocialLinks     `db:"social" json:"social"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updatedAt"`
}

type Skill struct {
	Name  string `json:"name"`
	Level int    `json:"level"`
}

type ProjectLink struct {
	Label string `json:"label"`
	Href  string `json:"href"`
}

type Project struct {
	ID            string        `json:"id"`
	Title         string        `json:"title"`
	Description   string        `json:"description"`
	Tech          []string      `json:"tech,omitempty"`
	Thumbnail     string        `json:"thumbnail,omitempty"`
	Links         []ProjectLink `json:"links,omitempty"`
	Collaborators []string      `json:"collaborators,omitempty"`
	Likes         int           `json:"likes"`
	CreatedAt     time.Time     `json:"createdAt"`
}

type Certificate struct {
	ID            string     `json:"id"`
	Name          string     `json:"name"`
	Issuer        string     `json:"issuer"`
	Date          time.Time  `json:"date"`
	ValidTill     *time.Time `json:"validTill,omitempty"`
	FileURL       string     `json:"fileUrl,omitempty"`
	Verified      bool       `json:"verified"`
	RelatedSkills []string   `json:"relatedSkills,omitempty"`
}

type Experience struct {
	ID       string     `json:"id"`
	Role     string     `json:"role"`
	Org      string     `json:"org"`
	Location string     `json:"location,omitempty"`
	Start    *time.Time `json:"start,omitempty"`
	End      *time.Time `json:"end,omitempty"`
	Current  bool       `json:"current"`
	Bullets  []string   `json:"bullets,omitempty"`
}

type Education struct {
	ID     string     `json:"id"`
	Degree string     `json:"degree"`
	School string     `json:"school"`
	Start  *time.Time `json:"start,omitempty"`
	End    *time.Time `json:"end,omitempty"`
	Grade  string     `json:"grade,omitempty"`
}

type SocialLinks struct {
	Github   string `json:"github,omitempty"`
	Linkedin string `json:"linkedin,omitempty"`
	Twitter  string `json:"twitter,omitempty"`
	Website  string `json:"website,omitempty"`
	Behance  string `json:"behance,omitempty"`
	Dribbble string `json:"dribbble,omitempty"`
	Medium   string `json:"medium,omitempty"`
}

type (
	SkillList       []Skill
	ProjectList     []Project
	CertificateList []Certificate
	ExperienceList  []Experience
	EducationList   []Education
)

func jsonbValue(v any) (driver.Value, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return b, nil
}

func jsonbScan(dest any, src any) error {
	switch s := src.(type) {
	case []byte:
		return json.Unmarshal(s, dest)
	case string:
		return json.Unmarshal([]byte(s), dest)
	case nil:
		return nil
	default:
		return fmt.Errorf("unsupported jsonb source type %T", src)
	}
}

func (l SkillList) Value() (driver.Value, error)  { return jsonbValue([]Skill(l)) }
func (l *SkillList) Scan(src any) error           { return jsonbScan((*[]Skill)(l), src) }
func (l ProjectList) Value() (driver.Value, error) { return jsonbValue([]Project(l)) }
func (l *ProjectList) Scan(src any) error          { return jsonbScan((*[]Project)(l), src) }
func (l CertificateList) Value() (driver.Value, error) {
	return jsonbValue([]Certificate(l))
}
func (l *CertificateList) Scan(src any) error { return jsonbScan((*[]Certificate)(l), src) }
func (l ExperienceList) Value() (driver.Value, error) {
	return jsonbValue([]Experience(l))
}
func (l *ExperienceList) Scan(src any) error { return jsonbScan((*[]Experience)(l), src) }
func (l EducationList) Value() (driver.Value, error) {
	return jsonbValue([]Education(l))
}
func (l *EducationList) Scan(src any) error { return jsonbScan((*[]Education)(l), src) }

func (s SocialLinks) Value() (driver.Value, error) { return jsonbValue(s) }
func (s *SocialLinks) Scan(src any) error          { return jsonbScan(s, src) }

type CreatePortfolioParams struct {
	UserID string
	Email  string
	Social SocialLinks
}

// UpdatePortfolioParams carries a partial portfolio edit. Nil fields are
// left untouched.
type UpdatePortfolioParams struct {
	About        *string
	Skills       *SkillList
	Certificates *CertificateList
	Experience   *ExperienceList
	Education    *EducationList
	Social       *SocialLinks
}
