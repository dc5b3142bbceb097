package types

// Application is one project known to a backend connection.
type Application struct {
	ID        string `json:"projectID"`
	Name      string `json:"name"`
	Language  string `json:"language,omitempty"`
	AppStatus string `json:"appStatus,omitempty"`
	// State is "open" or "closed"; closed projects are disabled.
	State string `json:"state,omitempty"`
}

// IsEnabled reports whether the project is open on the backend.
func (a Application) IsEnabled() bool { return a.State != "closed" }

// IsAvailable reports whether the application is enabled and running or starting.
func (a Application) IsAvailable() bool {
	if !a.IsEnabled() {
		return false
	}
	return a.AppStatus == "started" || a.AppStatus == "starting"
}

// Template describes a project template offered by the installer.
type Template struct {
	Label        string `json:"label"`
	Description  string `json:"description"`
	Language     string `json:"language"`
	URL          string `json:"url"`
	ProjectType  string `json:"projectType"`
	Source       string `json:"source,omitempty"`
	ProjectStyle string `json:"projectStyle,omitempty"`
}
