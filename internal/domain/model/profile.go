package model

// Freelancer is a party that declares skills and can be matched to projects.
type Freelancer struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Available bool   `json:"available"`
	Audit
}

// ProjectStatus is the progress state of a project.
type ProjectStatus string

// Project progress states. Requirements may only change while open.
const (
	ProjectOpen       ProjectStatus = "open"
	ProjectInProgress ProjectStatus = "in_progress"
	ProjectClosed     ProjectStatus = "closed"
)

// Valid reports whether s is a known status.
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectOpen, ProjectInProgress, ProjectClosed:
		return true
	}
	return false
}

// Project is a unit of work that declares technology requirements.
type Project struct {
	ID      string        `json:"id"`
	OwnerID string        `json:"ownerId"`
	Title   string        `json:"title"`
	Status  ProjectStatus `json:"status"`
	Audit
}

// Frozen reports whether the requirement set is read-only.
func (p Project) Frozen() bool { return p.Status != ProjectOpen }
