// pkg/registry/schema.go
package registry

// ActivityRegistry describes the job workers a deployment offers, for
// process modelers and for the worker manager's /activities endpoint.
type ActivityRegistry struct {
	Version     string     `json:"version"`
	LastUpdated string     `json:"lastUpdated"`
	Activities  []Activity `json:"activities"`
}

type Activity struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Description string   `json:"description"`
	Category    string   `json:"category"`
	Version     string   `json:"version"`
	TaskType    string   `json:"taskType"`
	Inputs      []string `json:"inputs"`
	Outputs     []string `json:"outputs"`
	ErrorCodes  []string `json:"errorCodes"`
	Timeout     string   `json:"timeout"`
	Retries     int      `json:"retries"`
	Tags        []string `json:"tags,omitempty"`
}
